package aiopenai

import (
	"context"
	"testing"

	"github.com/Abraxas-365/superagent/pkg/ai/llm"
	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRequiresCredentials(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	p := NewOpenAIProvider("")

	_, err := p.Chat(context.Background(), []llm.Message{llm.NewUserMessage("hi")})
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, ErrMissingAPIKey))
}

func TestChatRejectsEmptyMessages(t *testing.T) {
	p := NewOpenAIProvider("sk-test")
	_, err := p.ChatStream(context.Background(), nil)
	assert.True(t, errx.IsCode(err, ErrEmptyMessages))
}

func TestSchemaMapConvertsStructs(t *testing.T) {
	type schema struct {
		Type string `json:"type"`
	}
	assert.Equal(t, map[string]any{"type": "object"}, schemaMap(schema{Type: "object"}))
	assert.Equal(t, map[string]any{}, schemaMap(nil))
}

func TestToOpenAIMessageRejectsUnknownRole(t *testing.T) {
	_, err := toOpenAIMessage(llm.Message{Role: "narrator"})
	assert.Error(t, err)
}
