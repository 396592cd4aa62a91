package memoryx

import "github.com/Abraxas-365/superagent/pkg/ai/llm"

// Window keeps the most recent messages that fit into MaxTokens.
type Window struct {
	MaxTokens int
	Estimator TokenEstimator
}

// NewWindow returns a window using the char-based estimator.
func NewWindow(maxTokens int) *Window {
	return &Window{MaxTokens: maxTokens, Estimator: &CharBasedEstimator{}}
}

// Fit drops the oldest messages until the rest fit. Order is preserved.
// A non-positive budget disables trimming.
func (w *Window) Fit(messages []llm.Message) []llm.Message {
	if w.MaxTokens <= 0 || len(messages) == 0 {
		return messages
	}

	used := 0
	start := len(messages)
	for i := len(messages) - 1; i >= 0; i-- {
		cost := w.Estimator.EstimateTokens(messages[i : i+1])
		if used+cost > w.MaxTokens {
			break
		}
		used += cost
		start = i
	}
	return messages[start:]
}
