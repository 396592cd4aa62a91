package agentx

import (
	"context"
	"strings"
	"testing"

	"github.com/Abraxas-365/superagent/pkg/ai/llm"
	"github.com/Abraxas-365/superagent/pkg/ai/llm/llmtest"
	"github.com/Abraxas-365/superagent/pkg/ai/llm/toolx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upper() *toolx.Toolbox {
	return toolx.New(toolx.Func{
		ToolName: "upper",
		Desc:     "uppercases text",
		Schema:   map[string]any{"type": "object"},
		Fn: func(_ context.Context, args string) (string, error) {
			return strings.ToUpper(args), nil
		},
	})
}

func TestRunExecutesToolsUntilAnswer(t *testing.T) {
	p := llmtest.New(
		llmtest.Call("c1", "upper", "abc"),
		llmtest.Text("ABC it is"),
	)
	a := New(llm.NewClient(p), WithTools(upper()))

	res, err := a.Run(context.Background(), []llm.Message{llm.NewUserMessage("shout abc")})
	require.NoError(t, err)

	assert.Equal(t, "ABC it is", res.Output)
	require.Len(t, res.Steps, 1)
	assert.Equal(t, "ABC", res.Steps[0].Output)
	assert.Len(t, res.Transcript, 3)

	require.Equal(t, 2, p.Calls())
	second := p.Requests[1]
	assert.Equal(t, llm.RoleTool, second[len(second)-1].Role)
	assert.Equal(t, "auto", p.Options[0].ToolChoice)
}

func TestStreamForwardsTextOfEveryTurn(t *testing.T) {
	p := llmtest.New(
		llmtest.Turn{Message: llm.Message{
			Role:      llm.RoleAssistant,
			Content:   "thinking ",
			ToolCalls: []llm.ToolCall{{ID: "c1", Function: llm.FunctionCall{Name: "upper", Arguments: "x"}}},
		}},
		llmtest.Text("do", "ne"),
	)
	a := New(llm.NewClient(p), WithTools(upper()))

	var texts []string
	var kinds []StreamEventType
	res, err := a.Stream(context.Background(), []llm.Message{llm.NewUserMessage("go")}, func(e StreamEvent) {
		kinds = append(kinds, e.Type)
		if e.Type == EventText {
			texts = append(texts, e.Content)
		}
	})
	require.NoError(t, err)

	assert.Equal(t, "done", res.Output)
	assert.Equal(t, []string{"thinking ", "do", "ne"}, texts)
	assert.Contains(t, kinds, EventToolCall)
	assert.Contains(t, kinds, EventToolResult)
}

func TestRunStopsAtIterationLimit(t *testing.T) {
	p := llmtest.New(
		llmtest.Call("1", "upper", "a"),
		llmtest.Call("2", "upper", "b"),
	)
	a := New(llm.NewClient(p), WithTools(upper()), WithMaxTotalIterations(2), WithMaxAutoIterations(1))

	_, err := a.Run(context.Background(), []llm.Message{llm.NewUserMessage("loop")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum iterations")
	assert.Equal(t, "none", p.Options[1].ToolChoice)
}

func TestRunWithoutToolsReturnsFirstAnswer(t *testing.T) {
	p := llmtest.New(llmtest.Text("hello"))
	res, err := New(llm.NewClient(p)).Run(context.Background(), []llm.Message{llm.NewUserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Output)
	assert.Empty(t, p.Options[0].Tools)
}

func TestRunPropagatesLLMError(t *testing.T) {
	p := llmtest.New()
	_, err := New(llm.NewClient(p)).Run(context.Background(), []llm.Message{llm.NewUserMessage("hi")})
	assert.ErrorIs(t, err, llmtest.ErrExhausted)
}
