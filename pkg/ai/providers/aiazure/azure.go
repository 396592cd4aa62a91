// Package aiazure serves Azure OpenAI deployments through the OpenAI
// provider with Azure endpoint and auth options.
package aiazure

import (
	"os"

	"github.com/Abraxas-365/superagent/pkg/ai/providers/aiopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
)

const DefaultAPIVersion = "2024-06-01"

type ProviderOption func(*settings)

type settings struct {
	apiVersion      string
	deployment      string
	tokenCredential azcore.TokenCredential
}

func WithAPIVersion(version string) ProviderOption {
	return func(s *settings) {
		if version != "" {
			s.apiVersion = version
		}
	}
}

// WithDeployment sets the deployment used when a request names no model.
func WithDeployment(name string) ProviderOption {
	return func(s *settings) { s.deployment = name }
}

// WithAzureADCredential switches auth from API key to Entra ID tokens.
func WithAzureADCredential(cred azcore.TokenCredential) ProviderOption {
	return func(s *settings) { s.tokenCredential = cred }
}

// NewAzureOpenAIProvider returns an OpenAI provider bound to an Azure
// resource endpoint.
func NewAzureOpenAIProvider(endpoint, apiKey string, opts ...ProviderOption) (*aiopenai.OpenAIProvider, error) {
	s := &settings{apiVersion: DefaultAPIVersion}
	for _, opt := range opts {
		opt(s)
	}

	if endpoint == "" {
		endpoint = os.Getenv("AZURE_OPENAI_ENDPOINT")
	}
	if endpoint == "" {
		return nil, errorRegistry.New(ErrMissingEndpoint)
	}
	if apiKey == "" {
		apiKey = os.Getenv("AZURE_OPENAI_API_KEY")
	}

	clientOpts := []option.RequestOption{azure.WithEndpoint(endpoint, s.apiVersion)}
	switch {
	case s.tokenCredential != nil:
		clientOpts = append(clientOpts, azure.WithTokenCredential(s.tokenCredential))
	case apiKey != "":
		clientOpts = append(clientOpts, azure.WithAPIKey(apiKey))
	default:
		return nil, errorRegistry.New(ErrMissingCredential).WithDetail("endpoint", endpoint)
	}

	return aiopenai.NewFromClient(openai.NewClient(clientOpts...), s.deployment), nil
}
