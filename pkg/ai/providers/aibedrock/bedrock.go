package aibedrock

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/Abraxas-365/superagent/pkg/ai/llm"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const DefaultModel = "anthropic.claude-sonnet-4-20250514-v1:0"

type ProviderOption func(*BedrockProvider)

func WithDefaultModel(model string) ProviderOption {
	return func(p *BedrockProvider) {
		if model != "" {
			p.defaultModel = model
		}
	}
}

// BedrockProvider implements llm.Provider on the Converse API.
type BedrockProvider struct {
	client       *bedrockruntime.Client
	defaultModel string
}

func NewBedrockProvider(cfg aws.Config, opts ...ProviderOption) *BedrockProvider {
	p := &BedrockProvider{
		client:       bedrockruntime.NewFromConfig(cfg),
		defaultModel: DefaultModel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type request struct {
	model     string
	system    []types.SystemContentBlock
	messages  []types.Message
	inference *types.InferenceConfiguration
	tools     *types.ToolConfiguration
}

func (p *BedrockProvider) build(messages []llm.Message, opts []llm.Option) (request, error) {
	if len(messages) == 0 {
		return request{}, errorRegistry.New(ErrEmptyMessages)
	}

	o := llm.Apply(p.defaultModel, opts...)
	req := request{model: o.Model, inference: inferenceConfig(o), tools: toolConfig(o.Tools)}

	var rest []llm.Message
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			req.system = append(req.system, &types.SystemContentBlockMemberText{Value: m.Content})
			continue
		}
		rest = append(rest, m)
	}

	converted, err := toBedrockMessages(rest)
	if err != nil {
		return request{}, err
	}
	req.messages = converted
	return req, nil
}

func (p *BedrockProvider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.Response, error) {
	req, err := p.build(messages, opts)
	if err != nil {
		return llm.Response{}, err
	}

	output, err := p.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:         aws.String(req.model),
		Messages:        req.messages,
		System:          req.system,
		InferenceConfig: req.inference,
		ToolConfig:      req.tools,
	})
	if err != nil {
		return llm.Response{}, ParseBedrockError(err).WithDetail("model", req.model)
	}

	msgOutput, ok := output.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return llm.Response{}, errorRegistry.New(ErrAPIResponse).WithDetail("model", req.model)
	}

	var (
		content strings.Builder
		calls   []llm.ToolCall
	)
	for _, block := range msgOutput.Value.Content {
		switch v := block.(type) {
		case *types.ContentBlockMemberText:
			content.WriteString(v.Value)
		case *types.ContentBlockMemberToolUse:
			args := "{}"
			if v.Value.Input != nil {
				if raw, err := v.Value.Input.MarshalSmithyDocument(); err == nil {
					args = string(raw)
				}
			}
			calls = append(calls, llm.ToolCall{
				ID:   aws.ToString(v.Value.ToolUseId),
				Type: "function",
				Function: llm.FunctionCall{
					Name:      aws.ToString(v.Value.Name),
					Arguments: args,
				},
			})
		}
	}

	var usage llm.Usage
	if u := output.Usage; u != nil {
		usage.PromptTokens = int(aws.ToInt32(u.InputTokens))
		usage.CompletionTokens = int(aws.ToInt32(u.OutputTokens))
		usage.TotalTokens = int(aws.ToInt32(u.TotalTokens))
	}

	return llm.Response{
		Message: llm.Message{Role: llm.RoleAssistant, Content: content.String(), ToolCalls: calls},
		Usage:   usage,
	}, nil
}

func (p *BedrockProvider) ChatStream(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.Stream, error) {
	req, err := p.build(messages, opts)
	if err != nil {
		return nil, err
	}

	output, err := p.client.ConverseStream(ctx, &bedrockruntime.ConverseStreamInput{
		ModelId:         aws.String(req.model),
		Messages:        req.messages,
		System:          req.system,
		InferenceConfig: req.inference,
		ToolConfig:      req.tools,
	})
	if err != nil {
		return nil, ParseBedrockError(err).WithDetail("model", req.model)
	}

	es := output.GetStream()
	return &bedrockStream{events: es.Events(), stream: es}, nil
}

type bedrockStream struct {
	events <-chan types.ConverseStreamOutput
	stream interface {
		Err() error
		Close() error
	}
	toolCalls []llm.ToolCall
	done      error
}

func (s *bedrockStream) Next() (llm.Message, error) {
	if s.done != nil {
		return llm.Message{}, s.done
	}

	for event := range s.events {
		switch v := event.(type) {
		case *types.ConverseStreamOutputMemberContentBlockStart:
			if start, ok := v.Value.Start.(*types.ContentBlockStartMemberToolUse); ok {
				s.toolCalls = append(s.toolCalls, llm.ToolCall{
					ID:       aws.ToString(start.Value.ToolUseId),
					Type:     "function",
					Function: llm.FunctionCall{Name: aws.ToString(start.Value.Name)},
				})
			}

		case *types.ConverseStreamOutputMemberContentBlockDelta:
			switch d := v.Value.Delta.(type) {
			case *types.ContentBlockDeltaMemberText:
				return llm.Message{Role: llm.RoleAssistant, Content: d.Value, ToolCalls: s.toolCalls}, nil
			case *types.ContentBlockDeltaMemberToolUse:
				if n := len(s.toolCalls); n > 0 {
					s.toolCalls[n-1].Function.Arguments += aws.ToString(d.Value.Input)
				}
			}

		case *types.ConverseStreamOutputMemberMessageStop:
			s.done = io.EOF
			if len(s.toolCalls) > 0 {
				return llm.Message{Role: llm.RoleAssistant, ToolCalls: s.toolCalls}, nil
			}
			return llm.Message{}, io.EOF
		}
	}

	if err := s.stream.Err(); err != nil {
		s.done = ParseBedrockError(err)
		return llm.Message{}, s.done
	}
	s.done = io.EOF
	return llm.Message{}, io.EOF
}

func (s *bedrockStream) Close() error {
	return s.stream.Close()
}

func toBedrockMessages(messages []llm.Message) ([]types.Message, error) {
	var out []types.Message

	for i := 0; i < len(messages); i++ {
		m := messages[i]
		switch m.Role {
		case llm.RoleUser:
			out = append(out, types.Message{
				Role:    types.ConversationRoleUser,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: m.Content}},
			})

		case llm.RoleAssistant:
			var content []types.ContentBlock
			if m.Content != "" {
				content = append(content, &types.ContentBlockMemberText{Value: m.Content})
			}
			for _, tc := range m.ToolCalls {
				var input any = map[string]any{}
				if tc.Function.Arguments != "" {
					_ = json.Unmarshal([]byte(tc.Function.Arguments), &input)
				}
				content = append(content, &types.ContentBlockMemberToolUse{
					Value: types.ToolUseBlock{
						ToolUseId: aws.String(tc.ID),
						Name:      aws.String(tc.Function.Name),
						Input:     document.NewLazyDocument(input),
					},
				})
			}
			out = append(out, types.Message{Role: types.ConversationRoleAssistant, Content: content})

		case llm.RoleTool:
			content := []types.ContentBlock{toolResult(m)}
			for i+1 < len(messages) && messages[i+1].Role == llm.RoleTool {
				i++
				content = append(content, toolResult(messages[i]))
			}
			out = append(out, types.Message{Role: types.ConversationRoleUser, Content: content})

		default:
			return nil, errorRegistry.New(ErrUnsupportedRole).WithDetail("role", m.Role)
		}
	}
	return out, nil
}

func toolResult(m llm.Message) types.ContentBlock {
	return &types.ContentBlockMemberToolResult{
		Value: types.ToolResultBlock{
			ToolUseId: aws.String(m.ToolCallID),
			Content: []types.ToolResultContentBlock{
				&types.ToolResultContentBlockMemberText{Value: m.Content},
			},
		},
	}
}

func inferenceConfig(o *llm.ChatOptions) *types.InferenceConfiguration {
	if o.MaxTokens == 0 && o.Temperature == 0 && o.TopP == 0 && len(o.Stop) == 0 {
		return nil
	}

	cfg := &types.InferenceConfiguration{StopSequences: o.Stop}
	if o.MaxTokens > 0 {
		cfg.MaxTokens = aws.Int32(int32(o.MaxTokens))
	}
	if o.Temperature != 0 {
		cfg.Temperature = aws.Float32(o.Temperature)
	}
	if o.TopP != 0 {
		cfg.TopP = aws.Float32(o.TopP)
	}
	return cfg
}

func toolConfig(tools []llm.Tool) *types.ToolConfiguration {
	if len(tools) == 0 {
		return nil
	}

	cfg := &types.ToolConfiguration{}
	for _, t := range tools {
		schema := t.Function.Parameters
		if schema == nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		spec := types.ToolSpecification{
			Name:        aws.String(t.Function.Name),
			InputSchema: &types.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(schema)},
		}
		if t.Function.Description != "" {
			spec.Description = aws.String(t.Function.Description)
		}
		cfg.Tools = append(cfg.Tools, &types.ToolMemberToolSpec{Value: spec})
	}
	return cfg
}
