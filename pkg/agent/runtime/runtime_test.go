package runtime

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Abraxas-365/superagent/pkg/agent"
	"github.com/Abraxas-365/superagent/pkg/ai/document"
	"github.com/Abraxas-365/superagent/pkg/ai/embedding"
	"github.com/Abraxas-365/superagent/pkg/ai/llm"
	"github.com/Abraxas-365/superagent/pkg/ai/llm/llmtest"
	"github.com/Abraxas-365/superagent/pkg/ai/providers"
	"github.com/Abraxas-365/superagent/pkg/ai/vstore"
	"github.com/Abraxas-365/superagent/pkg/ai/vstore/providers/vstmemory"
	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFactory struct {
	provider *llmtest.Provider
	sel      providers.ModelSelection
}

func (f *fakeFactory) Chat(_ context.Context, sel providers.ModelSelection) (*llm.Client, error) {
	f.sel = sel
	return llm.NewClient(f.provider), nil
}

type fakeMemory struct {
	turns []agent.MemoryTurn
}

func (m *fakeMemory) RecentTurns(_ context.Context, _ string, limit int) ([]agent.MemoryTurn, error) {
	if len(m.turns) > limit {
		return m.turns[len(m.turns)-limit:], nil
	}
	return m.turns, nil
}

type recorder struct {
	tokens  []string
	ends    int
	outputs map[string]string
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnNewToken:      func(tok string) { r.tokens = append(r.tokens, tok) },
		OnGenerationEnd: func() { r.ends++ },
		OnChainEnd:      func(out map[string]string) { r.outputs = out },
	}
}

func newAgent(t agent.Type) *agent.Agent {
	return &agent.Agent{ID: "a1", Name: "test", Type: t, LLM: agent.LLMConfig{Provider: "openai", Model: "gpt-4o-mini"}}
}

func docStore(t *testing.T, texts ...string) *document.Store {
	t.Helper()
	store := document.NewStore(
		vstore.NewClient(vstmemory.NewMemoryVectorStore(0, vstore.MetricCosine)),
		embedding.NewHashEmbedder(64),
		document.WithRetry(1, 0),
	)
	docs := make([]*document.Document, 0, len(texts))
	for _, text := range texts {
		docs = append(docs, document.NewDocument(text))
	}
	_, err := store.Add(context.Background(), "doc-1", docs)
	require.NoError(t, err)
	return store
}

func TestReactAnswersDirectly(t *testing.T) {
	p := llmtest.New(llmtest.Text("hi there"))
	f := &fakeFactory{provider: p}

	res, err := New(Deps{LLMs: f}, newAgent(agent.TypeReact)).Run(context.Background(), map[string]any{"input": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hi there", res.Output)
	assert.Equal(t, "gpt-4o-mini", f.sel.Model)

	require.Len(t, p.Requests, 1)
	msgs := p.Requests[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, DefaultSystemPrompt, msgs[0].Content)
	assert.Equal(t, "hello", msgs[1].Content)
}

func TestRunRendersBoundPrompt(t *testing.T) {
	p := llmtest.New(llmtest.Text("ok"))
	a := newAgent(agent.TypeReact)
	a.Prompt = &agent.Prompt{Template: "You answer in a {tone} tone.", InputVariables: []string{"tone"}}

	_, err := New(Deps{LLMs: &fakeFactory{provider: p}}, a).Run(context.Background(), map[string]any{"input": "hey", "tone": "formal"})
	require.NoError(t, err)
	assert.Equal(t, "You answer in a formal tone.", p.Requests[0][0].Content)
}

func TestRunMissingVariable(t *testing.T) {
	p := llmtest.New(llmtest.Text("never"))
	a := newAgent(agent.TypeReact)
	a.Prompt = &agent.Prompt{Template: "{tone} {style}", InputVariables: []string{"tone", "style"}}

	_, err := New(Deps{LLMs: &fakeFactory{provider: p}}, a).Run(context.Background(), map[string]any{"input": "hey", "tone": "dry"})
	require.True(t, errx.IsCode(err, agent.ErrInvalidInput))
	assert.Equal(t, 0, p.Calls())
}

func TestRunUnknownStrategy(t *testing.T) {
	_, err := New(Deps{LLMs: &fakeFactory{provider: llmtest.New()}}, newAgent("MRKL")).Run(context.Background(), map[string]any{"input": "x"})
	assert.True(t, errx.IsCode(err, agent.ErrUnknownStrategy))
}

func TestReactStreamsTokensAndEndsOnce(t *testing.T) {
	p := llmtest.New(llmtest.Text("Hel", "lo"))
	rec := &recorder{}

	res, err := New(Deps{LLMs: &fakeFactory{provider: p}}, newAgent(agent.TypeReact), WithCallbacks(rec.callbacks())).
		Run(context.Background(), map[string]any{"input": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Hello", res.Output)
	assert.Equal(t, []string{"Hel", "lo"}, rec.tokens)
	assert.Equal(t, 1, rec.ends)
	assert.Equal(t, map[string]string{"output": "Hello"}, rec.outputs)
}

func TestReactUsesDocumentSearch(t *testing.T) {
	p := llmtest.New(
		llmtest.Call("call-1", DocumentSearchTool, `{"query":"goroutines"}`),
		llmtest.Text("Use channels."),
	)
	deps := Deps{LLMs: &fakeFactory{provider: p}, Documents: docStore(t, "goroutines talk over channels", "sourdough needs time")}

	res, err := New(deps, newAgent(agent.TypeReact), WithDocuments("doc-1")).Run(context.Background(), map[string]any{"input": "how do goroutines talk?"})
	require.NoError(t, err)
	assert.Equal(t, "Use channels.", res.Output)

	require.Len(t, res.Steps, 1)
	assert.Equal(t, DocumentSearchTool, res.Steps[0].Action)
	assert.Contains(t, res.Steps[0].Observation, "goroutines talk over channels")

	require.Len(t, p.Options, 2)
	require.Len(t, p.Options[0].Tools, 1)
}

func TestReactStreamsOnlyAnsweringTurn(t *testing.T) {
	lookup := llmtest.Call("call-1", DocumentSearchTool, `{"query":"bread"}`)
	lookup.Message.Content = "Let me look. "
	lookup.Chunks = []string{"Let me look. "}
	p := llmtest.New(lookup, llmtest.Text("Let ", "it rise."))
	rec := &recorder{}
	deps := Deps{LLMs: &fakeFactory{provider: p}, Documents: docStore(t, "sourdough bread needs time to rise")}

	res, err := New(deps, newAgent(agent.TypeReact), WithDocuments("doc-1"), WithCallbacks(rec.callbacks())).
		Run(context.Background(), map[string]any{"input": "how do I make bread?"})
	require.NoError(t, err)
	assert.Equal(t, "Let it rise.", res.Output)
	assert.Equal(t, []string{"Let ", "it rise."}, rec.tokens)
	assert.Equal(t, res.Output, strings.Join(rec.tokens, ""))
	assert.Equal(t, 1, rec.ends)
	require.Len(t, res.Steps, 1)
}

func TestPlanSolveStreamsOnlySynthesis(t *testing.T) {
	p := llmtest.New(
		llmtest.Text("1. Find the capital\n2. Answer"),
		llmtest.Text("Paris"),
		llmtest.Text("It is Paris"),
		llmtest.Text("The capital is Paris."),
	)
	rec := &recorder{}

	res, err := New(Deps{LLMs: &fakeFactory{provider: p}}, newAgent(agent.TypePlanSolve), WithCallbacks(rec.callbacks())).
		Run(context.Background(), map[string]any{"input": "capital of France?"})
	require.NoError(t, err)
	assert.Equal(t, "The capital is Paris.", res.Output)
	assert.Equal(t, []string{"The capital is Paris."}, rec.tokens)
	assert.Equal(t, 1, rec.ends)
	assert.Equal(t, 4, p.Calls())

	require.Len(t, res.Steps, 2)
	assert.Equal(t, "Find the capital", res.Steps[0].ActionInput)
	assert.Equal(t, "Paris", res.Steps[0].Observation)
}

func TestConversationalWithDocumentsReturnsResultKey(t *testing.T) {
	p := llmtest.New(llmtest.Text("Bread needs time."))
	rec := &recorder{}
	deps := Deps{LLMs: &fakeFactory{provider: p}, Documents: docStore(t, "sourdough bread needs time to rise")}

	res, err := New(deps, newAgent(agent.TypeConversational), WithDocuments("doc-1"), WithCallbacks(rec.callbacks())).
		Run(context.Background(), map[string]any{"input": "what does sourdough bread need?"})
	require.NoError(t, err)
	assert.Equal(t, "Bread needs time.", res.Output)
	assert.Equal(t, map[string]string{"result": "Bread needs time."}, rec.outputs)

	user := p.Requests[0][len(p.Requests[0])-1].Content
	assert.Contains(t, user, "sourdough bread needs time to rise")
}

func TestConversationalReplaysMemory(t *testing.T) {
	p := llmtest.New(llmtest.Text("You said hi."))
	a := newAgent(agent.TypeConversational)
	a.HasMemory = true
	mem := &fakeMemory{turns: []agent.MemoryTurn{
		{Author: agent.AuthorHuman, Message: `"hi"`},
		{Author: agent.AuthorAI, Message: "hello!"},
	}}

	res, err := New(Deps{LLMs: &fakeFactory{provider: p}, Memory: mem}, a).Run(context.Background(), map[string]any{"input": "what did I say?"})
	require.NoError(t, err)
	assert.Equal(t, "You said hi.", res.Output)

	msgs := p.Requests[0]
	require.Len(t, msgs, 4)
	assert.Equal(t, llm.RoleUser, msgs[1].Role)
	assert.Equal(t, "hi", msgs[1].Content)
	assert.Equal(t, llm.RoleAssistant, msgs[2].Role)
	assert.Equal(t, "what did I say?", msgs[3].Content)
}

func TestMemoryIgnoredWhenDisabled(t *testing.T) {
	p := llmtest.New(llmtest.Text("ok"))
	mem := &fakeMemory{turns: []agent.MemoryTurn{{Author: agent.AuthorAI, Message: "old"}}}

	_, err := New(Deps{LLMs: &fakeFactory{provider: p}, Memory: mem}, newAgent(agent.TypeReact)).Run(context.Background(), map[string]any{"input": "x"})
	require.NoError(t, err)
	assert.Len(t, p.Requests[0], 2)
}

func TestProviderFailureIsRuntimeFailure(t *testing.T) {
	p := llmtest.New(llmtest.Turn{Err: errors.New("upstream 502")})
	rec := &recorder{}

	_, err := New(Deps{LLMs: &fakeFactory{provider: p}}, newAgent(agent.TypeConversational), WithCallbacks(rec.callbacks())).
		Run(context.Background(), map[string]any{"input": "x"})
	require.True(t, errx.IsCode(err, agent.ErrRuntimeFailure))
	assert.Contains(t, err.Error(), "upstream 502")
	assert.Zero(t, rec.ends)
	assert.Nil(t, rec.outputs)
}

func TestUserInputEncodesNonStrings(t *testing.T) {
	s, err := UserInput(map[string]any{"input": map[string]any{"q": 1}})
	require.NoError(t, err)
	assert.Equal(t, `{"q":1}`, s)

	_, err = UserInput(map[string]any{})
	assert.True(t, errx.IsCode(err, agent.ErrInvalidInput))
}

func TestExtractOutput(t *testing.T) {
	out, err := ExtractOutput(map[string]string{"result": "r"})
	require.NoError(t, err)
	assert.Equal(t, "r", out)

	out, err = ExtractOutput(map[string]string{"output": "o", "result": "r"})
	require.NoError(t, err)
	assert.Equal(t, "o", out)

	_, err = ExtractOutput(map[string]string{"answer": "a"})
	assert.True(t, errx.IsCode(err, agent.ErrMalformedResult))
}

func TestParsePlan(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParsePlan("Plan:\n1. a\n2) b\n"))
	assert.Equal(t, []string{"just do it"}, ParsePlan("just do it"))
	assert.Empty(t, ParsePlan("  "))
}
