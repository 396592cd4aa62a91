// Package runtime builds and executes one agent strategy for a single
// invocation.
package runtime

import (
	"context"

	"github.com/Abraxas-365/superagent/pkg/agent"
	"github.com/Abraxas-365/superagent/pkg/ai/document"
	"github.com/Abraxas-365/superagent/pkg/ai/llm"
	"github.com/Abraxas-365/superagent/pkg/ai/providers"
	"github.com/Abraxas-365/superagent/pkg/logx"
)

// ChatFactory resolves an agent's llm settings to a client.
// *providers.Factory satisfies it.
type ChatFactory interface {
	Chat(ctx context.Context, sel providers.ModelSelection) (*llm.Client, error)
}

// Deps are the collaborators shared by every run.
type Deps struct {
	LLMs ChatFactory
	// Memory is read when the agent has memory enabled. May be nil.
	Memory agent.MemoryReader
	// Documents backs retrieval over attached documents. May be nil.
	Documents *document.Store
}

// Callbacks receive streaming notifications. They are called on the
// goroutine executing Run.
type Callbacks struct {
	OnNewToken      func(token string)
	OnGenerationEnd func()
	OnChainEnd      func(outputs map[string]string)
}

// Step is one intermediate action of a run.
type Step struct {
	Action      string `json:"action"`
	ActionInput string `json:"action_input"`
	Log         string `json:"log"`
	Observation string `json:"observation"`
}

// Result is the outcome of a successful run.
type Result struct {
	Output  string
	Outputs map[string]string
	Steps   []Step
}

type Runtime struct {
	deps  Deps
	agent *agent.Agent
	opts  options
}

func New(deps Deps, a *agent.Agent, opts ...Option) *Runtime {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Runtime{deps: deps, agent: a, opts: o}
}

// Run executes the agent's strategy over input. input["input"] is the
// user turn; the other keys fill the bound prompt's variables.
func (r *Runtime) Run(ctx context.Context, input map[string]any) (*Result, error) {
	strategy, system, question, err := r.prepare(input)
	if err != nil {
		return nil, err
	}

	client, err := r.deps.LLMs.Chat(ctx, providers.ModelSelection{
		Provider:    r.agent.LLM.Provider,
		Model:       r.agent.LLM.Model,
		Temperature: r.agent.LLM.Temperature,
		MaxTokens:   r.agent.LLM.MaxTokens,
		APIKey:      r.agent.LLM.APIKey,
	})
	if err != nil {
		return nil, agent.RuntimeFailure(err)
	}

	x := &execution{
		rt:       r,
		client:   client,
		system:   system,
		question: question,
		cb:       r.opts.callbacks,
	}
	if len(r.opts.namespaces) > 0 && r.deps.Documents != nil {
		x.retriever = document.NewRetriever(r.deps.Documents, r.opts.namespaces...).WithTopK(r.opts.topK)
	}

	outputs, err := strategy(ctx, x)
	if err != nil {
		logx.WithFields(logx.Fields{
			"agent_id": r.agent.ID,
			"type":     r.agent.Type,
		}).WithError(err).Warn("Agent run failed")
		return nil, agent.RuntimeFailure(err)
	}

	output, err := ExtractOutput(outputs)
	if err != nil {
		return nil, err
	}

	if x.streaming() && x.cb.OnGenerationEnd != nil {
		x.cb.OnGenerationEnd()
	}
	if x.cb != nil && x.cb.OnChainEnd != nil {
		x.cb.OnChainEnd(outputs)
	}

	return &Result{Output: output, Outputs: outputs, Steps: x.steps}, nil
}

// Validate runs the checks Run performs before calling the model: a known
// strategy, every prompt variable present and a user turn in input["input"].
func (r *Runtime) Validate(input map[string]any) error {
	_, _, _, err := r.prepare(input)
	return err
}

func (r *Runtime) prepare(input map[string]any) (strategy, string, string, error) {
	strategy, ok := strategies[r.agent.Type]
	if !ok {
		return nil, "", "", agent.ErrRegistry.New(agent.ErrUnknownStrategy).WithDetail("type", string(r.agent.Type))
	}
	system, err := SystemPrompt(r.agent.Prompt, input)
	if err != nil {
		return nil, "", "", err
	}
	question, err := UserInput(input)
	if err != nil {
		return nil, "", "", err
	}
	return strategy, system, question, nil
}

// ExtractOutput picks the answer out of a strategy's outputs. The check is
// on key presence: an empty "output" is returned as is, with no fallback
// to "result".
func ExtractOutput(outputs map[string]string) (string, error) {
	if out, ok := outputs["output"]; ok {
		return out, nil
	}
	if out, ok := outputs["result"]; ok {
		return out, nil
	}
	return "", agent.ErrRegistry.New(agent.ErrMalformedResult)
}
