package aiopenai

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/Abraxas-365/superagent/pkg/ai/embedding"
	"github.com/Abraxas-365/superagent/pkg/ai/llm"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	DefaultModel          = "gpt-4o-mini"
	DefaultEmbeddingModel = "text-embedding-3-small"
)

// OpenAIProvider implements llm.Provider and embedding.Embedder on the
// Chat Completions and Embeddings APIs. It also backs Azure deployments
// through NewFromClient.
type OpenAIProvider struct {
	client         openai.Client
	hasCredentials bool
	defaultModel   string
	embeddingModel string
}

func NewOpenAIProvider(apiKey string, opts ...option.RequestOption) *OpenAIProvider {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	options := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIProvider{
		client:         openai.NewClient(options...),
		hasCredentials: apiKey != "",
		defaultModel:   DefaultModel,
		embeddingModel: DefaultEmbeddingModel,
	}
}

// NewFromClient wraps a preconfigured client, e.g. one built with the
// azure request options.
func NewFromClient(client openai.Client, defaultModel string) *OpenAIProvider {
	if defaultModel == "" {
		defaultModel = DefaultModel
	}
	return &OpenAIProvider{
		client:         client,
		hasCredentials: true,
		defaultModel:   defaultModel,
		embeddingModel: DefaultEmbeddingModel,
	}
}

// WithEmbeddingModel overrides the default embedding model.
func (p *OpenAIProvider) WithEmbeddingModel(model string) *OpenAIProvider {
	if model != "" {
		p.embeddingModel = model
	}
	return p
}

func (p *OpenAIProvider) params(messages []llm.Message, opts []llm.Option) (openai.ChatCompletionNewParams, error) {
	if !p.hasCredentials {
		return openai.ChatCompletionNewParams{}, errorRegistry.New(ErrMissingAPIKey)
	}
	if len(messages) == 0 {
		return openai.ChatCompletionNewParams{}, errorRegistry.New(ErrEmptyMessages)
	}

	o := llm.Apply(p.defaultModel, opts...)

	converted := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for i, m := range messages {
		cm, err := toOpenAIMessage(m)
		if err != nil {
			return openai.ChatCompletionNewParams{}, errorRegistry.New(ErrUnsupportedRole).
				WithDetail("message_index", i).
				WithDetail("role", m.Role)
		}
		converted = append(converted, cm)
	}

	params := openai.ChatCompletionNewParams{
		Messages: converted,
		Model:    o.Model,
	}
	if o.Temperature != 0 {
		params.Temperature = openai.Float(float64(o.Temperature))
	}
	if o.TopP != 0 {
		params.TopP = openai.Float(float64(o.TopP))
	}
	if o.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(o.MaxTokens))
	}
	if len(o.Stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: o.Stop}
	}
	if o.User != "" {
		params.User = openai.String(o.User)
	}
	if len(o.Tools) > 0 {
		params.Tools = toOpenAITools(o.Tools)
		if choice, ok := o.ToolChoice.(string); ok && choice != "" {
			params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String(choice)}
		}
	}
	if o.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	return params, nil
}

func (p *OpenAIProvider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.Response, error) {
	params, err := p.params(messages, opts)
	if err != nil {
		return llm.Response{}, err
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.Response{}, ParseOpenAIError(err).WithDetail("model", params.Model)
	}
	if len(completion.Choices) == 0 {
		return llm.Response{}, errorRegistry.New(ErrNoChoices)
	}

	choice := completion.Choices[0].Message
	msg := llm.Message{Role: llm.RoleAssistant, Content: choice.Content}
	for _, tc := range choice.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: llm.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}

	return llm.Response{
		Message: msg,
		Usage: llm.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}, nil
}

func (p *OpenAIProvider) ChatStream(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.Stream, error) {
	params, err := p.params(messages, opts)
	if err != nil {
		return nil, err
	}
	return &openAIStream{stream: p.client.Chat.Completions.NewStreaming(ctx, params)}, nil
}

type openAIStream struct {
	stream interface {
		Next() bool
		Current() openai.ChatCompletionChunk
		Err() error
		Close() error
	}
	toolCalls []llm.ToolCall
	done      error
}

func (s *openAIStream) Next() (llm.Message, error) {
	if s.done != nil {
		return llm.Message{}, s.done
	}

	if !s.stream.Next() {
		if err := s.stream.Err(); err != nil {
			s.done = ParseOpenAIError(err)
		} else {
			s.done = io.EOF
		}
		return llm.Message{}, s.done
	}

	chunk := s.stream.Current()
	if len(chunk.Choices) == 0 {
		return llm.Message{Role: llm.RoleAssistant}, nil
	}
	delta := chunk.Choices[0].Delta

	// Tool call ids arrive only on the first fragment; later fragments are
	// matched by index.
	for _, tc := range delta.ToolCalls {
		idx := int(tc.Index)
		for len(s.toolCalls) <= idx {
			s.toolCalls = append(s.toolCalls, llm.ToolCall{Type: "function"})
		}
		if tc.ID != "" {
			s.toolCalls[idx].ID = tc.ID
		}
		s.toolCalls[idx].Function.Name += tc.Function.Name
		s.toolCalls[idx].Function.Arguments += tc.Function.Arguments
	}

	return llm.Message{
		Role:      llm.RoleAssistant,
		Content:   delta.Content,
		ToolCalls: s.toolCalls,
	}, nil
}

func (s *openAIStream) Close() error {
	return s.stream.Close()
}

func (p *OpenAIProvider) EmbedDocuments(ctx context.Context, documents []string, opts ...embedding.Option) ([]embedding.Embedding, error) {
	if len(documents) == 0 {
		return nil, errorRegistry.New(ErrEmptyEmbeddingInput)
	}

	o := embedding.DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: documents},
		Model: p.embeddingModel,
	}
	if o.Model != "" {
		params.Model = o.Model
	}
	if o.Dimensions > 0 {
		params.Dimensions = openai.Int(int64(o.Dimensions))
	}

	resp, err := p.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, ParseOpenAIError(err).
			WithDetail("model", params.Model).
			WithDetail("num_documents", len(documents))
	}
	if len(resp.Data) == 0 {
		return nil, errorRegistry.New(ErrNoEmbeddingReturned)
	}

	out := make([]embedding.Embedding, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		out[i] = embedding.Embedding{
			Vector: vec,
			Usage: embedding.Usage{
				PromptTokens: int(resp.Usage.PromptTokens),
				TotalTokens:  int(resp.Usage.TotalTokens),
			},
		}
	}
	return out, nil
}

func (p *OpenAIProvider) EmbedQuery(ctx context.Context, text string, opts ...embedding.Option) (embedding.Embedding, error) {
	if text == "" {
		return embedding.Embedding{}, errorRegistry.New(ErrEmptyEmbeddingInput)
	}
	out, err := p.EmbedDocuments(ctx, []string{text}, opts...)
	if err != nil {
		return embedding.Embedding{}, err
	}
	return out[0], nil
}

func toOpenAIMessage(m llm.Message) (openai.ChatCompletionMessageParamUnion, error) {
	switch m.Role {
	case llm.RoleSystem:
		return openai.SystemMessage(m.Content), nil
	case llm.RoleUser:
		return openai.UserMessage(m.Content), nil
	case llm.RoleAssistant:
		if !m.HasToolCalls() {
			return openai.AssistantMessage(m.Content), nil
		}
		calls := make([]openai.ChatCompletionMessageToolCallUnionParam, 0, len(m.ToolCalls))
		for _, tc := range m.ToolCalls {
			calls = append(calls, openai.ChatCompletionMessageToolCallUnionParam{
				OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				},
			})
		}
		return openai.ChatCompletionMessageParamUnion{
			OfAssistant: &openai.ChatCompletionAssistantMessageParam{
				Content: openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(m.Content),
				},
				ToolCalls: calls,
			},
		}, nil
	case llm.RoleTool:
		return openai.ToolMessage(m.Content, m.ToolCallID), nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, errorRegistry.New(ErrUnsupportedRole)
	}
}

func toOpenAITools(tools []llm.Tool) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        t.Function.Name,
			Description: openai.String(t.Function.Description),
			Parameters:  openai.FunctionParameters(schemaMap(t.Function.Parameters)),
		}))
	}
	return out
}

func schemaMap(params any) map[string]any {
	if m, ok := params.(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	if params == nil {
		return m
	}
	if raw, err := json.Marshal(params); err == nil {
		_ = json.Unmarshal(raw, &m)
	}
	return m
}
