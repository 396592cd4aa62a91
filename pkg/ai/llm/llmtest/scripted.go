// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/Abraxas-365/superagent/pkg/ai/llm"
)

// Turn is one scripted reply. Chunks, when set, are the streamed deltas;
// otherwise Message.Content is streamed as a single delta.
type Turn struct {
	Message llm.Message
	Chunks  []string
	Err     error
}

// Provider replays Turns in order and records every request.
type Provider struct {
	mu       sync.Mutex
	turns    []Turn
	Requests [][]llm.Message
	Options  []*llm.ChatOptions
}

var ErrExhausted = errors.New("llmtest: no scripted turns left")

func New(turns ...Turn) *Provider {
	return &Provider{turns: turns}
}

// Text is a shorthand for an assistant turn that streams chunks.
func Text(chunks ...string) Turn {
	content := ""
	for _, c := range chunks {
		content += c
	}
	return Turn{Message: llm.NewAssistantMessage(content), Chunks: chunks}
}

// Call is a shorthand for an assistant turn requesting one tool call.
func Call(id, name, args string) Turn {
	return Turn{Message: llm.Message{
		Role: llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{{
			ID:       id,
			Type:     "function",
			Function: llm.FunctionCall{Name: name, Arguments: args},
		}},
	}}
}

func (p *Provider) next(messages []llm.Message, opts []llm.Option) (Turn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cp := make([]llm.Message, len(messages))
	copy(cp, messages)
	p.Requests = append(p.Requests, cp)
	p.Options = append(p.Options, llm.Apply("", opts...))

	if len(p.turns) == 0 {
		return Turn{}, ErrExhausted
	}
	t := p.turns[0]
	p.turns = p.turns[1:]
	return t, t.Err
}

func (p *Provider) Chat(_ context.Context, messages []llm.Message, opts ...llm.Option) (llm.Response, error) {
	t, err := p.next(messages, opts)
	if err != nil {
		return llm.Response{}, err
	}
	return llm.Response{Message: t.Message}, nil
}

func (p *Provider) ChatStream(_ context.Context, messages []llm.Message, opts ...llm.Option) (llm.Stream, error) {
	t, err := p.next(messages, opts)
	if err != nil {
		return nil, err
	}
	chunks := t.Chunks
	if len(chunks) == 0 && t.Message.Content != "" {
		chunks = []string{t.Message.Content}
	}
	return &stream{chunks: chunks, toolCalls: t.Message.ToolCalls}, nil
}

// Calls returns how many requests were made.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Requests)
}

type stream struct {
	chunks    []string
	toolCalls []llm.ToolCall
	sentTools bool
}

func (s *stream) Next() (llm.Message, error) {
	if len(s.chunks) > 0 {
		c := s.chunks[0]
		s.chunks = s.chunks[1:]
		return llm.Message{Role: llm.RoleAssistant, Content: c}, nil
	}
	if len(s.toolCalls) > 0 && !s.sentTools {
		s.sentTools = true
		return llm.Message{Role: llm.RoleAssistant, ToolCalls: s.toolCalls}, nil
	}
	return llm.Message{}, io.EOF
}

func (s *stream) Close() error { return nil }
