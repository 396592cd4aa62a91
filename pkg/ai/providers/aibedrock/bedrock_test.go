package aibedrock

import (
	"testing"

	"github.com/Abraxas-365/superagent/pkg/ai/llm"
	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferenceConfigOmittedWhenUnset(t *testing.T) {
	assert.Nil(t, inferenceConfig(llm.DefaultOptions()))

	cfg := inferenceConfig(llm.Apply("m", llm.WithTemperature(0.3), llm.WithMaxTokens(256)))
	require.NotNil(t, cfg)
	assert.Equal(t, int32(256), *cfg.MaxTokens)
	assert.InDelta(t, 0.3, *cfg.Temperature, 1e-6)
}

func TestToBedrockMessagesFoldsToolResults(t *testing.T) {
	out, err := toBedrockMessages([]llm.Message{
		llm.NewUserMessage("q"),
		llm.NewToolMessage("1", "a"),
		llm.NewToolMessage("2", "b"),
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, types.ConversationRoleUser, out[1].Role)
	assert.Len(t, out[1].Content, 2)
}

func TestParseBedrockErrorThrottling(t *testing.T) {
	err := ParseBedrockError(&types.ThrottlingException{})
	assert.True(t, errx.IsCode(err, ErrAPIRateLimit))
}
