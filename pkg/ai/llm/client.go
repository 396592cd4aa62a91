package llm

import (
	"context"
	"errors"
	"io"
	"strings"
)

// Response is a complete, non-streamed completion.
type Response struct {
	Message Message
	Usage   Usage
}

// Stream yields assistant deltas. Next returns io.EOF once the generation
// is over. Content holds only the delta; ToolCalls is the accumulated
// snapshot so far.
type Stream interface {
	Next() (Message, error)
	Close() error
}

// Provider is implemented by every model backend.
type Provider interface {
	Chat(ctx context.Context, messages []Message, opts ...Option) (Response, error)
	ChatStream(ctx context.Context, messages []Message, opts ...Option) (Stream, error)
}

// Client binds a provider to a set of default options, typically the
// model settings of one agent.
type Client struct {
	provider Provider
	defaults []Option
}

func NewClient(provider Provider, defaults ...Option) *Client {
	return &Client{provider: provider, defaults: defaults}
}

func (c *Client) Chat(ctx context.Context, messages []Message, opts ...Option) (Response, error) {
	return c.provider.Chat(ctx, messages, c.merge(opts)...)
}

func (c *Client) ChatStream(ctx context.Context, messages []Message, opts ...Option) (Stream, error) {
	return c.provider.ChatStream(ctx, messages, c.merge(opts)...)
}

func (c *Client) merge(opts []Option) []Option {
	if len(c.defaults) == 0 {
		return opts
	}
	out := make([]Option, 0, len(c.defaults)+len(opts))
	out = append(out, c.defaults...)
	return append(out, opts...)
}

// Drain reads a stream to the end, calling onDelta for every non-empty
// content delta in order, and returns the assembled assistant message.
func Drain(stream Stream, onDelta func(string)) (Message, error) {
	defer stream.Close()

	var (
		content strings.Builder
		final   = Message{Role: RoleAssistant}
	)
	for {
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Message{}, err
		}
		if chunk.Content != "" {
			content.WriteString(chunk.Content)
			if onDelta != nil {
				onDelta(chunk.Content)
			}
		}
		if len(chunk.ToolCalls) > 0 {
			final.ToolCalls = chunk.ToolCalls
		}
	}

	final.Content = content.String()
	return final, nil
}
