package runtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Abraxas-365/superagent/pkg/agent"
	"github.com/Abraxas-365/superagent/pkg/ai/document"
	"github.com/Abraxas-365/superagent/pkg/ai/llm"
	"github.com/Abraxas-365/superagent/pkg/ai/llm/agentx"
	"github.com/Abraxas-365/superagent/pkg/ai/llm/memoryx"
	"github.com/Abraxas-365/superagent/pkg/ai/llm/toolx"
)

// execution is the per-run state handed to a strategy.
type execution struct {
	rt        *Runtime
	client    *llm.Client
	system    string
	question  string
	retriever *document.Retriever
	cb        *Callbacks
	steps     []Step
}

func (x *execution) streaming() bool {
	return x.cb != nil && x.cb.OnNewToken != nil
}

// generate produces one answer generation, streamed when callbacks are set.
func (x *execution) generate(ctx context.Context, messages []llm.Message) (string, error) {
	if !x.streaming() {
		resp, err := x.client.Chat(ctx, messages)
		if err != nil {
			return "", err
		}
		return resp.Message.Content, nil
	}

	stream, err := x.client.ChatStream(ctx, messages)
	if err != nil {
		return "", err
	}
	msg, err := llm.Drain(stream, x.cb.OnNewToken)
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

// loop runs the tool-calling loop over prompt. When stream is set only the
// turn that answers reaches OnNewToken, so the streamed tokens always
// concatenate to the returned output.
func (x *execution) loop(ctx context.Context, prompt []llm.Message, stream bool) (string, error) {
	tools := x.toolbox()
	a := agentx.New(x.client,
		agentx.WithTools(tools),
		agentx.WithMaxTotalIterations(x.rt.opts.maxIterations),
		agentx.WithMaxAutoIterations(x.rt.opts.maxIterations/2),
	)

	if !stream || !x.streaming() {
		res, err := a.Run(ctx, prompt)
		x.recordTools(res.Steps)
		if err != nil {
			return "", err
		}
		return res.Output, nil
	}

	// Without tools every turn is the answer and can be forwarded live.
	// Otherwise a turn's deltas are held until it ends without tool calls.
	live := tools.Len() == 0
	var pending []string
	res, err := a.Stream(ctx, prompt, func(e agentx.StreamEvent) {
		switch e.Type {
		case agentx.EventText:
			if live {
				x.cb.OnNewToken(e.Content)
				return
			}
			pending = append(pending, e.Content)
		case agentx.EventToolCall:
			pending = pending[:0]
		}
	})
	x.recordTools(res.Steps)
	if err != nil {
		return "", err
	}
	for _, delta := range pending {
		x.cb.OnNewToken(delta)
	}
	return res.Output, nil
}

func (x *execution) recordTools(steps []agentx.Step) {
	for _, s := range steps {
		x.steps = append(x.steps, Step{
			Action:      s.Tool,
			ActionInput: s.Input,
			Log:         fmt.Sprintf("Invoking: `%s` with `%s`", s.Tool, s.Input),
			Observation: s.Output,
		})
	}
}

func (x *execution) toolbox() *toolx.Toolbox {
	if x.retriever == nil {
		return nil
	}
	return toolx.New(documentSearch(x.retriever))
}

// history loads the agent's recent turns when memory is enabled.
func (x *execution) history(ctx context.Context) ([]llm.Message, error) {
	a := x.rt.agent
	if !a.HasMemory || x.rt.deps.Memory == nil || x.rt.opts.historyTurns <= 0 {
		return nil, nil
	}

	turns, err := x.rt.deps.Memory.RecentTurns(ctx, a.ID, x.rt.opts.historyTurns)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		switch t.Author {
		case agent.AuthorHuman:
			messages = append(messages, llm.NewUserMessage(humanText(t.Message)))
		case agent.AuthorAI:
			messages = append(messages, llm.NewAssistantMessage(t.Message))
		}
	}
	return memoryx.NewWindow(x.rt.opts.historyTokens).Fit(messages), nil
}

// humanText undoes the JSON encoding applied when HUMAN turns are stored.
func humanText(stored string) string {
	var s string
	if err := json.Unmarshal([]byte(stored), &s); err == nil {
		return s
	}
	return stored
}

func (x *execution) prompt(history []llm.Message, user string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.NewSystemMessage(x.system))
	messages = append(messages, history...)
	return append(messages, llm.NewUserMessage(user))
}
