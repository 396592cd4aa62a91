// Package providers resolves llm config blobs to concrete model clients.
package providers

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/Abraxas-365/superagent/pkg/ai/embedding"
	"github.com/Abraxas-365/superagent/pkg/ai/llm"
	"github.com/Abraxas-365/superagent/pkg/ai/providers/aianthropic"
	"github.com/Abraxas-365/superagent/pkg/ai/providers/aiazure"
	"github.com/Abraxas-365/superagent/pkg/ai/providers/aibedrock"
	"github.com/Abraxas-365/superagent/pkg/ai/providers/aigemini"
	"github.com/Abraxas-365/superagent/pkg/ai/providers/aiopenai"
	"github.com/Abraxas-365/superagent/pkg/config"
	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/Abraxas-365/superagent/pkg/logx"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

const (
	OpenAI      = "openai"
	OpenAIChat  = "openai-chat"
	AzureOpenAI = "azure-openai"
	Anthropic   = "anthropic"
	Bedrock     = "bedrock"
	Gemini      = "gemini"
	// Hash selects the offline embedder; useful for local runs without keys.
	Hash = "hash"
)

var (
	errorRegistry = errx.NewRegistry("PROVIDER")

	ErrUnknownProvider = errorRegistry.Register("UNKNOWN", errx.TypeValidation, http.StatusBadRequest, "Unknown llm provider")
	ErrInitFailed      = errorRegistry.Register("INIT_FAILED", errx.TypeExternal, http.StatusBadGateway, "Could not initialize llm provider")
)

// ModelSelection is the per-agent model selection.
type ModelSelection struct {
	Provider    string
	Model       string
	Temperature float32
	MaxTokens   int
	APIKey      string
}

// Factory builds model clients from model selections. Provider instances that use
// the platform credentials are cached; per-agent api keys get a fresh one.
type Factory struct {
	cfg config.AIConfig

	mu     sync.Mutex
	cached map[string]llm.Provider
	awsCfg *aws.Config
}

func NewFactory(cfg config.AIConfig) *Factory {
	return &Factory{cfg: cfg, cached: make(map[string]llm.Provider)}
}

// Chat returns a client with the selected model settings as defaults.
func (f *Factory) Chat(ctx context.Context, sel ModelSelection) (*llm.Client, error) {
	tag := strings.ToLower(strings.TrimSpace(sel.Provider))
	if tag == "" {
		tag = f.cfg.DefaultProvider
	}

	provider, err := f.provider(ctx, tag, sel.APIKey)
	if err != nil {
		return nil, err
	}

	model := sel.Model
	if model == "" {
		model = f.cfg.DefaultModel
	}

	defaults := []llm.Option{llm.WithModel(model)}
	if sel.Temperature != 0 {
		defaults = append(defaults, llm.WithTemperature(sel.Temperature))
	}
	if sel.MaxTokens > 0 {
		defaults = append(defaults, llm.WithMaxTokens(sel.MaxTokens))
	}
	return llm.NewClient(provider, defaults...), nil
}

func (f *Factory) provider(ctx context.Context, tag, apiKey string) (llm.Provider, error) {
	if apiKey != "" {
		return f.build(ctx, tag, apiKey)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.cached[tag]; ok {
		return p, nil
	}
	p, err := f.build(ctx, tag, "")
	if err != nil {
		return nil, err
	}
	f.cached[tag] = p
	return p, nil
}

func (f *Factory) build(ctx context.Context, tag, apiKey string) (llm.Provider, error) {
	switch tag {
	case OpenAI, OpenAIChat:
		return aiopenai.NewOpenAIProvider(firstNonEmpty(apiKey, f.cfg.OpenAIAPIKey)), nil

	case AzureOpenAI:
		p, err := f.azure(apiKey)
		if err != nil {
			return nil, err
		}
		return p, nil

	case Anthropic:
		return aianthropic.NewAnthropicProvider(firstNonEmpty(apiKey, f.cfg.AnthropicAPIKey)), nil

	case Bedrock:
		awsCfg, err := f.aws(ctx)
		if err != nil {
			return nil, err
		}
		return aibedrock.NewBedrockProvider(awsCfg), nil

	case Gemini:
		p, err := aigemini.NewGeminiProvider(ctx, firstNonEmpty(apiKey, f.cfg.GeminiAPIKey),
			aigemini.WithVertexAI(f.vertexProject(apiKey), f.cfg.GeminiLocation))
		if err != nil {
			return nil, err
		}
		return p, nil

	default:
		return nil, errorRegistry.New(ErrUnknownProvider).WithDetail("provider", tag)
	}
}

func (f *Factory) azure(apiKey string) (*aiopenai.OpenAIProvider, error) {
	opts := []aiazure.ProviderOption{
		aiazure.WithAPIVersion(f.cfg.AzureAPIVersion),
		aiazure.WithDeployment(f.cfg.DefaultModel),
	}
	key := firstNonEmpty(apiKey, f.cfg.AzureAPIKey)
	if key == "" {
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, errorRegistry.NewWithCause(ErrInitFailed, err).WithDetail("provider", AzureOpenAI)
		}
		opts = append(opts, aiazure.WithAzureADCredential(cred))
	}
	return aiazure.NewAzureOpenAIProvider(f.cfg.AzureEndpoint, key, opts...)
}

// vertexProject is empty when an explicit key is given so the Gemini API
// backend is used.
func (f *Factory) vertexProject(apiKey string) string {
	if apiKey != "" || f.cfg.GeminiAPIKey != "" {
		return ""
	}
	return f.cfg.GeminiProject
}

func (f *Factory) aws(ctx context.Context) (aws.Config, error) {
	if f.awsCfg != nil {
		return *f.awsCfg, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(f.cfg.BedrockRegion))
	if err != nil {
		return aws.Config{}, errorRegistry.NewWithCause(ErrInitFailed, err).WithDetail("provider", Bedrock)
	}
	f.awsCfg = &cfg
	return cfg, nil
}

// Embedder returns the platform embedder used for ingestion and retrieval.
func (f *Factory) Embedder(ctx context.Context) (embedding.Embedder, error) {
	tag := strings.ToLower(f.cfg.EmbeddingProvider)
	logx.WithFields(logx.Fields{"provider": tag, "model": f.cfg.EmbeddingModel}).Debug("Resolving embedder")

	switch tag {
	case OpenAI, OpenAIChat, "":
		return aiopenai.NewOpenAIProvider(f.cfg.OpenAIAPIKey).WithEmbeddingModel(f.cfg.EmbeddingModel), nil
	case AzureOpenAI:
		p, err := f.azure("")
		if err != nil {
			return nil, err
		}
		return p.WithEmbeddingModel(f.cfg.EmbeddingModel), nil
	case Gemini:
		p, err := aigemini.NewGeminiProvider(ctx, f.cfg.GeminiAPIKey,
			aigemini.WithVertexAI(f.vertexProject(""), f.cfg.GeminiLocation),
			aigemini.WithEmbeddingModel(f.cfg.EmbeddingModel))
		if err != nil {
			return nil, err
		}
		return p, nil
	case Hash:
		return embedding.NewHashEmbedder(f.cfg.EmbeddingDimensions), nil
	default:
		return nil, errorRegistry.New(ErrUnknownProvider).WithDetail("provider", tag)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
