// Package agentx runs the tool-calling loop: ask the model, execute the
// tools it requests, feed the results back, repeat until it answers.
package agentx

import (
	"context"
	"fmt"

	"github.com/Abraxas-365/superagent/pkg/ai/llm"
	"github.com/Abraxas-365/superagent/pkg/ai/llm/memoryx"
	"github.com/Abraxas-365/superagent/pkg/ai/llm/toolx"
)

// Agent drives one model client with an optional toolbox.
type Agent struct {
	client             *llm.Client
	tools              *toolx.Toolbox
	options            []llm.Option
	maxAutoIterations  int
	maxTotalIterations int
}

type AgentOption func(*Agent)

func WithOptions(options ...llm.Option) AgentOption {
	return func(a *Agent) {
		a.options = append(a.options, options...)
	}
}

func WithTools(tools *toolx.Toolbox) AgentOption {
	return func(a *Agent) {
		a.tools = tools
	}
}

// WithMaxAutoIterations sets how many rounds may call tools before tool
// choice is forced to "none".
func WithMaxAutoIterations(n int) AgentOption {
	return func(a *Agent) {
		a.maxAutoIterations = n
	}
}

func WithMaxTotalIterations(n int) AgentOption {
	return func(a *Agent) {
		a.maxTotalIterations = n
	}
}

func New(client *llm.Client, opts ...AgentOption) *Agent {
	a := &Agent{
		client:             client,
		maxAutoIterations:  5,
		maxTotalIterations: 10,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Step records one executed tool call.
type Step struct {
	ToolCallID string `json:"tool_call_id"`
	Tool       string `json:"tool"`
	Input      string `json:"input"`
	Output     string `json:"output"`
}

// Result is the outcome of a run.
type Result struct {
	Output string
	Steps  []Step
	Usage  llm.Usage
	// Transcript holds the messages produced during the run, excluding the
	// prompt messages passed in.
	Transcript []llm.Message
}

// Run executes the loop without streaming.
func (a *Agent) Run(ctx context.Context, prompt []llm.Message) (Result, error) {
	return a.loop(ctx, prompt, func(ctx context.Context, messages []llm.Message, opts []llm.Option) (llm.Message, llm.Usage, error) {
		resp, err := a.client.Chat(ctx, messages, opts...)
		if err != nil {
			return llm.Message{}, llm.Usage{}, err
		}
		return resp.Message, resp.Usage, nil
	}, nil)
}

// Stream executes the loop with every model turn streamed. Text deltas of
// all turns reach handler as EventText.
func (a *Agent) Stream(ctx context.Context, prompt []llm.Message, handler StreamHandler) (Result, error) {
	if handler == nil {
		handler = func(StreamEvent) {}
	}
	return a.loop(ctx, prompt, func(ctx context.Context, messages []llm.Message, opts []llm.Option) (llm.Message, llm.Usage, error) {
		stream, err := a.client.ChatStream(ctx, messages, opts...)
		if err != nil {
			return llm.Message{}, llm.Usage{}, err
		}
		msg, err := llm.Drain(stream, func(delta string) {
			handler(StreamEvent{Type: EventText, Content: delta})
		})
		return msg, llm.Usage{}, err
	}, handler)
}

type turnFunc func(ctx context.Context, messages []llm.Message, opts []llm.Option) (llm.Message, llm.Usage, error)

func (a *Agent) loop(ctx context.Context, prompt []llm.Message, turn turnFunc, handler StreamHandler) (Result, error) {
	memory := memoryx.NewInMemoryMemory(prompt...)
	var res Result

	for iteration := 0; iteration < a.maxTotalIterations; iteration++ {
		messages, _ := memory.Messages()

		msg, usage, err := turn(ctx, messages, a.buildOptions(iteration))
		if err != nil {
			if handler != nil {
				handler(StreamEvent{Type: EventError, Err: err})
			}
			return res, fmt.Errorf("llm turn %d: %w", iteration, err)
		}
		res.Usage.Add(usage)
		memory.Add(msg)

		if !msg.HasToolCalls() || a.tools.Len() == 0 {
			res.Output = msg.Content
			res.Transcript = memory.Since(len(prompt))
			return res, nil
		}

		for _, tc := range msg.ToolCalls {
			if handler != nil {
				handler(StreamEvent{
					Type:       EventToolCall,
					ToolCallID: tc.ID,
					ToolName:   tc.Function.Name,
					ToolInput:  tc.Function.Arguments,
				})
			}

			toolMsg := a.tools.Call(ctx, tc)
			memory.Add(toolMsg)
			res.Steps = append(res.Steps, Step{
				ToolCallID: tc.ID,
				Tool:       tc.Function.Name,
				Input:      tc.Function.Arguments,
				Output:     toolMsg.Content,
			})

			if handler != nil {
				handler(StreamEvent{
					Type:       EventToolResult,
					ToolCallID: tc.ID,
					ToolName:   tc.Function.Name,
					ToolOutput: toolMsg.Content,
				})
			}
		}
	}

	res.Transcript = memory.Since(len(prompt))
	return res, fmt.Errorf("maximum iterations (%d) exceeded", a.maxTotalIterations)
}

// buildOptions forces tool_choice=none once the auto budget is spent.
func (a *Agent) buildOptions(iteration int) []llm.Option {
	options := append([]llm.Option(nil), a.options...)

	tools := a.tools.Tools()
	if len(tools) == 0 {
		return options
	}

	options = append(options, llm.WithTools(tools...))
	if iteration >= a.maxAutoIterations {
		return append(options, llm.WithToolChoice("none"))
	}
	return append(options, llm.WithToolChoice("auto"))
}
