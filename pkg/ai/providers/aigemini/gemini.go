package aigemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Abraxas-365/superagent/pkg/ai/embedding"
	"github.com/Abraxas-365/superagent/pkg/ai/llm"
	"google.golang.org/genai"
)

const (
	DefaultModel          = "gemini-2.0-flash"
	DefaultEmbeddingModel = "text-embedding-004"
)

type ProviderOption func(*GeminiProvider)

// WithVertexAI targets Vertex AI with application default credentials
// instead of an API key.
func WithVertexAI(project, location string) ProviderOption {
	return func(p *GeminiProvider) {
		p.project = project
		p.location = location
		p.useVertexAI = project != ""
	}
}

func WithEmbeddingModel(model string) ProviderOption {
	return func(p *GeminiProvider) {
		if model != "" {
			p.embeddingModel = model
		}
	}
}

// GeminiProvider implements llm.Provider and embedding.Embedder.
type GeminiProvider struct {
	client         *genai.Client
	project        string
	location       string
	useVertexAI    bool
	embeddingModel string
}

func NewGeminiProvider(ctx context.Context, apiKey string, opts ...ProviderOption) (*GeminiProvider, error) {
	p := &GeminiProvider{embeddingModel: DefaultEmbeddingModel}
	for _, opt := range opts {
		opt(p)
	}

	cfg := &genai.ClientConfig{Backend: genai.BackendGeminiAPI}
	if p.useVertexAI {
		cfg.Backend = genai.BackendVertexAI
		cfg.Project = p.project
		cfg.Location = p.location
	} else {
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		cfg.APIKey = apiKey
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, errorRegistry.NewWithCause(ErrClientInit, err)
	}
	p.client = client
	return p, nil
}

func (p *GeminiProvider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.Response, error) {
	if len(messages) == 0 {
		return llm.Response{}, errorRegistry.New(ErrEmptyMessages)
	}

	o := llm.Apply(DefaultModel, opts...)
	contents, config := buildRequest(messages, o)

	result, err := p.client.Models.GenerateContent(ctx, o.Model, contents, config)
	if err != nil {
		return llm.Response{}, ParseGeminiError(err).
			WithDetail("model", o.Model).
			WithDetail("num_messages", len(messages))
	}
	if result == nil || len(result.Candidates) == 0 {
		return llm.Response{}, errorRegistry.New(ErrAPIResponse).WithDetail("model", o.Model)
	}

	msg := fromCandidate(result.Candidates[0], nil)
	var usage llm.Usage
	if md := result.UsageMetadata; md != nil {
		usage = llm.Usage{
			PromptTokens:     int(md.PromptTokenCount),
			CompletionTokens: int(md.CandidatesTokenCount),
			TotalTokens:      int(md.TotalTokenCount),
		}
	}
	return llm.Response{Message: msg, Usage: usage}, nil
}

func (p *GeminiProvider) ChatStream(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.Stream, error) {
	if len(messages) == 0 {
		return nil, errorRegistry.New(ErrEmptyMessages)
	}

	o := llm.Apply(DefaultModel, opts...)
	contents, config := buildRequest(messages, o)
	seq := p.client.Models.GenerateContentStream(ctx, o.Model, contents, config)

	// The SDK pushes responses; bridge them to a pull-style stream.
	ch := make(chan streamResult, 1)
	done := make(chan struct{})
	go func() {
		defer close(ch)
		for resp, err := range seq {
			select {
			case ch <- streamResult{resp: resp, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	return &geminiStream{ch: ch, done: done}, nil
}

type streamResult struct {
	resp *genai.GenerateContentResponse
	err  error
}

type geminiStream struct {
	ch        chan streamResult
	done      chan struct{}
	toolCalls []llm.ToolCall
	err       error
	closed    bool
}

func (s *geminiStream) Next() (llm.Message, error) {
	if s.err != nil {
		return llm.Message{}, s.err
	}

	r, ok := <-s.ch
	if !ok {
		s.err = io.EOF
		return llm.Message{}, io.EOF
	}
	if r.err != nil {
		s.err = ParseGeminiError(r.err)
		return llm.Message{}, s.err
	}
	if r.resp == nil || len(r.resp.Candidates) == 0 {
		return llm.Message{Role: llm.RoleAssistant}, nil
	}

	msg := fromCandidate(r.resp.Candidates[0], s.toolCalls)
	s.toolCalls = msg.ToolCalls
	return msg, nil
}

func (s *geminiStream) Close() error {
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}

func (p *GeminiProvider) EmbedDocuments(ctx context.Context, documents []string, opts ...embedding.Option) ([]embedding.Embedding, error) {
	if len(documents) == 0 {
		return nil, errorRegistry.New(ErrEmptyEmbeddingInput)
	}

	o := embedding.DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	model := p.embeddingModel
	if o.Model != "" {
		model = o.Model
	}

	contents := make([]*genai.Content, 0, len(documents))
	for _, doc := range documents {
		contents = append(contents, genai.NewContentFromText(doc, genai.RoleUser))
	}

	config := &genai.EmbedContentConfig{}
	if o.Dimensions > 0 {
		config.OutputDimensionality = genai.Ptr(int32(o.Dimensions))
	}

	resp, err := p.client.Models.EmbedContent(ctx, model, contents, config)
	if err != nil {
		return nil, ParseGeminiError(err).
			WithDetail("model", model).
			WithDetail("num_documents", len(documents))
	}
	if resp == nil || len(resp.Embeddings) == 0 {
		return nil, errorRegistry.New(ErrNoEmbeddingReturned)
	}

	out := make([]embedding.Embedding, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		out[i] = embedding.Embedding{Vector: e.Values}
	}
	return out, nil
}

func (p *GeminiProvider) EmbedQuery(ctx context.Context, text string, opts ...embedding.Option) (embedding.Embedding, error) {
	if text == "" {
		return embedding.Embedding{}, errorRegistry.New(ErrEmptyEmbeddingInput)
	}
	out, err := p.EmbedDocuments(ctx, []string{text}, opts...)
	if err != nil {
		return embedding.Embedding{}, err
	}
	return out[0], nil
}

func buildRequest(messages []llm.Message, o *llm.ChatOptions) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{}
	var contents []*genai.Content

	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			if config.SystemInstruction == nil {
				config.SystemInstruction = &genai.Content{}
			}
			config.SystemInstruction.Parts = append(config.SystemInstruction.Parts, genai.NewPartFromText(m.Content))

		case llm.RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))

		case llm.RoleAssistant:
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, genai.NewPartFromText(m.Content))
			}
			for _, tc := range m.ToolCalls {
				args := map[string]any{}
				_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
				parts = append(parts, genai.NewPartFromFunctionCall(tc.Function.Name, args))
			}
			contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))

		case llm.RoleTool:
			// Function responses are matched by function name.
			name := m.Name
			if name == "" {
				name = m.ToolCallID
			}
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{
				genai.NewPartFromFunctionResponse(name, map[string]any{"output": m.Content}),
			}, genai.RoleUser))
		}
	}

	if o.Temperature != 0 {
		config.Temperature = genai.Ptr(o.Temperature)
	}
	if o.TopP != 0 {
		config.TopP = genai.Ptr(o.TopP)
	}
	if o.MaxTokens > 0 {
		config.MaxOutputTokens = int32(o.MaxTokens)
	}
	if len(o.Stop) > 0 {
		config.StopSequences = o.Stop
	}
	if o.JSONMode {
		config.ResponseMIMEType = "application/json"
	}
	if len(o.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(o.Tools))
		for _, t := range o.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 t.Function.Name,
				Description:          t.Function.Description,
				ParametersJsonSchema: t.Function.Parameters,
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	return contents, config
}

// fromCandidate converts a candidate, appending any function calls to
// prior so streamed calls accumulate.
func fromCandidate(c *genai.Candidate, prior []llm.ToolCall) llm.Message {
	msg := llm.Message{Role: llm.RoleAssistant, ToolCalls: prior}
	if c == nil || c.Content == nil {
		return msg
	}

	var text strings.Builder
	for _, part := range c.Content.Parts {
		text.WriteString(part.Text)
		if fc := part.FunctionCall; fc != nil {
			args, _ := json.Marshal(fc.Args)
			id := fc.ID
			if id == "" {
				id = fmt.Sprintf("call_%s_%d", fc.Name, len(msg.ToolCalls))
			}
			msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{
				ID:       id,
				Type:     "function",
				Function: llm.FunctionCall{Name: fc.Name, Arguments: string(args)},
			})
		}
	}
	msg.Content = text.String()
	return msg
}
