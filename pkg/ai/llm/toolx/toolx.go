// Package toolx registers callable tools and dispatches model tool calls
// to them.
package toolx

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Abraxas-365/superagent/pkg/ai/llm"
	"github.com/Abraxas-365/superagent/pkg/logx"
)

// Tool is something the model may call. Arguments arrive as the raw JSON
// string the model produced.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Call(ctx context.Context, arguments string) (string, error)
}

// Func adapts a plain function to Tool.
type Func struct {
	ToolName string
	Desc     string
	Schema   map[string]any
	Fn       func(ctx context.Context, arguments string) (string, error)
}

func (f Func) Name() string               { return f.ToolName }
func (f Func) Description() string        { return f.Desc }
func (f Func) Parameters() map[string]any { return f.Schema }
func (f Func) Call(ctx context.Context, args string) (string, error) {
	return f.Fn(ctx, args)
}

// Toolbox is a name-keyed tool set. The zero value is not usable; call New.
type Toolbox struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func New(tools ...Tool) *Toolbox {
	tb := &Toolbox{tools: make(map[string]Tool)}
	for _, t := range tools {
		tb.Register(t)
	}
	return tb
}

// Register adds or replaces a tool.
func (tb *Toolbox) Register(t Tool) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.tools[t.Name()] = t
}

func (tb *Toolbox) Len() int {
	if tb == nil {
		return 0
	}
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	return len(tb.tools)
}

// Tools returns the definitions to send to the model, sorted by name.
func (tb *Toolbox) Tools() []llm.Tool {
	if tb == nil {
		return nil
	}
	tb.mu.RLock()
	defer tb.mu.RUnlock()

	names := make([]string, 0, len(tb.tools))
	for name := range tb.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]llm.Tool, 0, len(names))
	for _, name := range names {
		t := tb.tools[name]
		out = append(out, llm.NewFunctionTool(llm.Function{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		}))
	}
	return out
}

// Call runs one tool call and returns the tool message for the transcript.
// Unknown tools and tool failures are reported back to the model as the
// message content so it can recover.
func (tb *Toolbox) Call(ctx context.Context, tc llm.ToolCall) llm.Message {
	tb.mu.RLock()
	t, ok := tb.tools[tc.Function.Name]
	tb.mu.RUnlock()

	msg := llm.Message{Role: llm.RoleTool, ToolCallID: tc.ID, Name: tc.Function.Name}
	if !ok {
		msg.Content = fmt.Sprintf("Error: %s is not a valid tool", tc.Function.Name)
		return msg
	}

	out, err := t.Call(ctx, tc.Function.Arguments)
	if err != nil {
		logx.WithFields(logx.Fields{"tool": tc.Function.Name}).WithError(err).Warn("Tool call failed")
		msg.Content = "Error: " + err.Error()
		return msg
	}
	msg.Content = out
	return msg
}
