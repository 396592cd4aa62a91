package memoryx

import "github.com/Abraxas-365/superagent/pkg/ai/llm"

// TokenEstimator estimates how many tokens a set of messages will cost.
type TokenEstimator interface {
	EstimateTokens(messages []llm.Message) int
}

// CharBasedEstimator counts characters per token plus a fixed overhead
// per message. Close enough for budgeting history, not for billing.
type CharBasedEstimator struct {
	CharsPerToken int // 4 when zero
}

func (e *CharBasedEstimator) ratio() int {
	if e.CharsPerToken <= 0 {
		return 4
	}
	return e.CharsPerToken
}

func (e *CharBasedEstimator) EstimateTokens(messages []llm.Message) int {
	total := 0
	for _, m := range messages {
		total += 4
		total += len(m.Content) / e.ratio()
		for _, tc := range m.ToolCalls {
			total += (len(tc.Function.Name) + len(tc.Function.Arguments)) / e.ratio()
		}
	}
	return total
}
