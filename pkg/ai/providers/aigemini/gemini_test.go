package aigemini

import (
	"testing"

	"github.com/Abraxas-365/superagent/pkg/ai/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestBuildRequestSplitsSystemInstruction(t *testing.T) {
	contents, config := buildRequest([]llm.Message{
		llm.NewSystemMessage("be brief"),
		llm.NewUserMessage("hello"),
		llm.NewAssistantMessage("hi"),
	}, llm.Apply(DefaultModel, llm.WithTemperature(0.5), llm.WithMaxTokens(64)))

	require.Len(t, contents, 2)
	assert.Equal(t, string(genai.RoleModel), contents[1].Role)
	require.NotNil(t, config.SystemInstruction)
	assert.Equal(t, "be brief", config.SystemInstruction.Parts[0].Text)
	assert.Equal(t, int32(64), config.MaxOutputTokens)
	assert.InDelta(t, 0.5, *config.Temperature, 1e-6)
}

func TestFromCandidateAccumulatesCalls(t *testing.T) {
	c := &genai.Candidate{Content: &genai.Content{Parts: []*genai.Part{
		{Text: "looking"},
		{FunctionCall: &genai.FunctionCall{Name: "search", Args: map[string]any{"q": "go"}}},
	}}}

	msg := fromCandidate(c, []llm.ToolCall{{ID: "x"}})
	assert.Equal(t, "looking", msg.Content)
	require.Len(t, msg.ToolCalls, 2)
	assert.Equal(t, "call_search_1", msg.ToolCalls[1].ID)
	assert.JSONEq(t, `{"q":"go"}`, msg.ToolCalls[1].Function.Arguments)
}
