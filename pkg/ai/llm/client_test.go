package llm_test

import (
	"context"
	"testing"

	"github.com/Abraxas-365/superagent/pkg/ai/llm"
	"github.com/Abraxas-365/superagent/pkg/ai/llm/llmtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientAppliesDefaultsBeforeCallOptions(t *testing.T) {
	p := llmtest.New(llmtest.Text("hi"))
	c := llm.NewClient(p, llm.WithModel("gpt-4o"), llm.WithTemperature(0.2))

	_, err := c.Chat(context.Background(), []llm.Message{llm.NewUserMessage("x")}, llm.WithTemperature(0.9))
	require.NoError(t, err)

	require.Len(t, p.Options, 1)
	assert.Equal(t, "gpt-4o", p.Options[0].Model)
	assert.InDelta(t, 0.9, p.Options[0].Temperature, 0.0001)
}

func TestDrainForwardsDeltasInOrder(t *testing.T) {
	p := llmtest.New(llmtest.Text("He", "llo", " world"))
	s, err := p.ChatStream(context.Background(), nil)
	require.NoError(t, err)

	var seen []string
	msg, err := llm.Drain(s, func(d string) { seen = append(seen, d) })
	require.NoError(t, err)

	assert.Equal(t, []string{"He", "llo", " world"}, seen)
	assert.Equal(t, "Hello world", msg.Content)
	assert.False(t, msg.HasToolCalls())
}

func TestDrainKeepsToolCalls(t *testing.T) {
	p := llmtest.New(llmtest.Call("c1", "document_search", `{"query":"q"}`))
	s, err := p.ChatStream(context.Background(), nil)
	require.NoError(t, err)

	msg, err := llm.Drain(s, nil)
	require.NoError(t, err)
	require.True(t, msg.HasToolCalls())
	assert.Equal(t, "document_search", msg.ToolCalls[0].Function.Name)
}
