package aianthropic

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/Abraxas-365/superagent/pkg/ai/llm"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4096
)

// AnthropicProvider implements llm.Provider on the Messages API.
type AnthropicProvider struct {
	client anthropic.Client
	apiKey string
}

func NewAnthropicProvider(apiKey string, opts ...option.RequestOption) *AnthropicProvider {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	options := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicProvider{
		client: anthropic.NewClient(options...),
		apiKey: apiKey,
	}
}

func (p *AnthropicProvider) params(messages []llm.Message, opts []llm.Option) (anthropic.MessageNewParams, error) {
	if p.apiKey == "" {
		return anthropic.MessageNewParams{}, errorRegistry.New(ErrMissingAPIKey)
	}
	if len(messages) == 0 {
		return anthropic.MessageNewParams{}, errorRegistry.New(ErrEmptyMessages)
	}

	o := llm.Apply(DefaultModel, opts...)

	var system []anthropic.TextBlockParam
	var rest []llm.Message
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
			continue
		}
		rest = append(rest, m)
	}

	converted, err := toAnthropicMessages(rest)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	maxTokens := int64(defaultMaxTokens)
	if o.MaxTokens > 0 {
		maxTokens = int64(o.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(o.Model),
		MaxTokens: maxTokens,
		Messages:  converted,
		System:    system,
	}
	if o.Temperature != 0 {
		params.Temperature = anthropic.Float(float64(o.Temperature))
	}
	if o.TopP != 0 {
		params.TopP = anthropic.Float(float64(o.TopP))
	}
	if len(o.Stop) > 0 {
		params.StopSequences = o.Stop
	}
	for _, t := range o.Tools {
		tool := anthropic.ToolUnionParamOfTool(toInputSchema(t.Function.Parameters), t.Function.Name)
		if t.Function.Description != "" {
			tool.OfTool.Description = anthropic.String(t.Function.Description)
		}
		params.Tools = append(params.Tools, tool)
	}
	return params, nil
}

func (p *AnthropicProvider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.Response, error) {
	params, err := p.params(messages, opts)
	if err != nil {
		return llm.Response{}, err
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return llm.Response{}, ParseAnthropicError(err).
			WithDetail("model", string(params.Model)).
			WithDetail("num_messages", len(messages))
	}

	var (
		content strings.Builder
		calls   []llm.ToolCall
	)
	for _, block := range message.Content {
		switch block.Type {
		case "text":
			content.WriteString(block.Text)
		case "tool_use":
			args, _ := json.Marshal(block.Input)
			calls = append(calls, llm.ToolCall{
				ID:   block.ID,
				Type: "function",
				Function: llm.FunctionCall{
					Name:      block.Name,
					Arguments: string(args),
				},
			})
		}
	}

	return llm.Response{
		Message: llm.Message{
			Role:      llm.RoleAssistant,
			Content:   content.String(),
			ToolCalls: calls,
		},
		Usage: llm.Usage{
			PromptTokens:     int(message.Usage.InputTokens),
			CompletionTokens: int(message.Usage.OutputTokens),
			TotalTokens:      int(message.Usage.InputTokens + message.Usage.OutputTokens),
		},
	}, nil
}

func (p *AnthropicProvider) ChatStream(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.Stream, error) {
	params, err := p.params(messages, opts)
	if err != nil {
		return nil, err
	}
	return &anthropicStream{stream: p.client.Messages.NewStreaming(ctx, params)}, nil
}

type anthropicStream struct {
	stream interface {
		Next() bool
		Current() anthropic.MessageStreamEventUnion
		Err() error
		Close() error
	}
	toolCalls []llm.ToolCall
	done      error
}

func (s *anthropicStream) Next() (llm.Message, error) {
	if s.done != nil {
		return llm.Message{}, s.done
	}

	for s.stream.Next() {
		event := s.stream.Current()
		switch event.Type {
		case "content_block_start":
			if cb := event.ContentBlock; cb.Type == "tool_use" {
				s.toolCalls = append(s.toolCalls, llm.ToolCall{
					ID:       cb.ID,
					Type:     "function",
					Function: llm.FunctionCall{Name: cb.Name},
				})
			}
		case "content_block_delta":
			switch event.Delta.Type {
			case "text_delta":
				return llm.Message{
					Role:      llm.RoleAssistant,
					Content:   event.Delta.Text,
					ToolCalls: s.toolCalls,
				}, nil
			case "input_json_delta":
				if n := len(s.toolCalls); n > 0 {
					s.toolCalls[n-1].Function.Arguments += event.Delta.PartialJSON
				}
			}
		case "message_stop":
			s.done = io.EOF
			// Tool-only turns never emit text, so hand over the calls here.
			if len(s.toolCalls) > 0 {
				return llm.Message{Role: llm.RoleAssistant, ToolCalls: s.toolCalls}, nil
			}
			return llm.Message{}, io.EOF
		}
	}

	if err := s.stream.Err(); err != nil {
		s.done = ParseAnthropicError(err)
		return llm.Message{}, s.done
	}
	s.done = io.EOF
	return llm.Message{}, io.EOF
}

func (s *anthropicStream) Close() error {
	return s.stream.Close()
}

// toAnthropicMessages folds consecutive tool results into one user turn,
// which is how the Messages API expects them.
func toAnthropicMessages(messages []llm.Message) ([]anthropic.MessageParam, error) {
	var out []anthropic.MessageParam

	for i := 0; i < len(messages); i++ {
		m := messages[i]
		switch m.Role {
		case llm.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))

		case llm.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				var input any = map[string]any{}
				if tc.Function.Arguments != "" {
					_ = json.Unmarshal([]byte(tc.Function.Arguments), &input)
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Function.Name))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))

		case llm.RoleTool:
			blocks := []anthropic.ContentBlockParamUnion{
				anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false),
			}
			for i+1 < len(messages) && messages[i+1].Role == llm.RoleTool {
				i++
				blocks = append(blocks, anthropic.NewToolResultBlock(messages[i].ToolCallID, messages[i].Content, false))
			}
			out = append(out, anthropic.NewUserMessage(blocks...))

		default:
			return nil, errorRegistry.New(ErrUnsupportedRole).WithDetail("role", m.Role)
		}
	}
	return out, nil
}

func toInputSchema(params any) anthropic.ToolInputSchemaParam {
	schema := anthropic.ToolInputSchemaParam{}

	m, ok := params.(map[string]any)
	if !ok && params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return schema
		}
		_ = json.Unmarshal(raw, &m)
	}

	if props, ok := m["properties"]; ok {
		schema.Properties = props
	}
	switch req := m["required"].(type) {
	case []string:
		schema.Required = req
	case []any:
		for _, r := range req {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	return schema
}
