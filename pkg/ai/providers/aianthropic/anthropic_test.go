package aianthropic

import (
	"context"
	"testing"

	"github.com/Abraxas-365/superagent/pkg/ai/llm"
	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToAnthropicMessagesGroupsToolResults(t *testing.T) {
	msgs := []llm.Message{
		llm.NewUserMessage("weather?"),
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{
			{ID: "a", Function: llm.FunctionCall{Name: "w", Arguments: `{"city":"Lima"}`}},
			{ID: "b", Function: llm.FunctionCall{Name: "w", Arguments: `{"city":"Cusco"}`}},
		}},
		llm.NewToolMessage("a", "20C"),
		llm.NewToolMessage("b", "12C"),
	}

	out, err := toAnthropicMessages(msgs)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Len(t, out[2].Content, 2)
}

func TestToAnthropicMessagesRejectsUnknownRole(t *testing.T) {
	_, err := toAnthropicMessages([]llm.Message{{Role: "narrator"}})
	assert.True(t, errx.IsCode(err, ErrUnsupportedRole))
}

func TestToInputSchema(t *testing.T) {
	schema := toInputSchema(map[string]any{
		"type":       "object",
		"properties": map[string]any{"query": map[string]any{"type": "string"}},
		"required":   []string{"query"},
	})
	assert.Equal(t, []string{"query"}, schema.Required)
	assert.NotNil(t, schema.Properties)
}

func TestChatRequiresAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := NewAnthropicProvider("").Chat(context.Background(), []llm.Message{llm.NewUserMessage("hi")})
	assert.True(t, errx.IsCode(err, ErrMissingAPIKey))
}

func TestParseAnthropicError(t *testing.T) {
	err := ParseAnthropicError(assert.AnError)
	assert.True(t, errx.IsCode(err, ErrAPIRequest))
}
