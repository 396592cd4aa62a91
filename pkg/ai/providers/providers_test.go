package providers

import (
	"context"
	"testing"

	"github.com/Abraxas-365/superagent/pkg/ai/embedding"
	"github.com/Abraxas-365/superagent/pkg/config"
	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatUnknownProvider(t *testing.T) {
	f := NewFactory(config.AIConfig{})
	_, err := f.Chat(context.Background(), ModelSelection{Provider: "mistral"})
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, ErrUnknownProvider))
}

func TestChatCachesPlatformProviders(t *testing.T) {
	f := NewFactory(config.AIConfig{OpenAIAPIKey: "sk-test"})

	_, err := f.Chat(context.Background(), ModelSelection{Provider: "openai-chat", Model: "gpt-4o"})
	require.NoError(t, err)
	_, err = f.Chat(context.Background(), ModelSelection{Provider: "OpenAI-Chat"})
	require.NoError(t, err)
	assert.Len(t, f.cached, 1)

	_, err = f.Chat(context.Background(), ModelSelection{Provider: "anthropic", APIKey: "per-agent"})
	require.NoError(t, err)
	assert.Len(t, f.cached, 1)
}

func TestChatFallsBackToDefaultProvider(t *testing.T) {
	f := NewFactory(config.AIConfig{DefaultProvider: "anthropic", AnthropicAPIKey: "k"})
	c, err := f.Chat(context.Background(), ModelSelection{})
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestEmbedderHash(t *testing.T) {
	f := NewFactory(config.AIConfig{EmbeddingProvider: "hash", EmbeddingDimensions: 8})
	e, err := f.Embedder(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &embedding.HashEmbedder{}, e)
}
