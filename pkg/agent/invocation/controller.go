// Package invocation runs an agent for one predict request and schedules
// the memory and trace writes that follow it.
package invocation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Abraxas-365/superagent/pkg/agent"
	"github.com/Abraxas-365/superagent/pkg/agent/runtime"
	"github.com/Abraxas-365/superagent/pkg/agent/stream"
	"github.com/Abraxas-365/superagent/pkg/asyncx"
	"github.com/Abraxas-365/superagent/pkg/kernel"
	"github.com/Abraxas-365/superagent/pkg/logx"
)

// Request is the predict payload.
type Request struct {
	Input        map[string]any `json:"input"`
	HasStreaming bool           `json:"has_streaming"`
}

// Invocation is what a predict produced. In streaming mode only Bridge
// is set and the run continues on its own goroutine.
type Invocation struct {
	Output string
	Trace  json.RawMessage
	Bridge *stream.Bridge
}

type Controller struct {
	agents    agent.AgentRepository
	documents agent.AgentDocumentRepository
	memory    agent.MemoryWriter
	traces    agent.TraceRepository
	deps      runtime.Deps
	submitter Submitter
	tracing   bool
	opts      []runtime.Option
}

type Config struct {
	Agents    agent.AgentRepository
	Documents agent.AgentDocumentRepository
	Memory    agent.MemoryWriter
	Traces    agent.TraceRepository
	Runtime   runtime.Deps
	Submitter Submitter
	Tracing   bool
	// Options are applied to every runtime.
	Options []runtime.Option
}

func NewController(cfg Config) *Controller {
	return &Controller{
		agents:    cfg.Agents,
		documents: cfg.Documents,
		memory:    cfg.Memory,
		traces:    cfg.Traces,
		deps:      cfg.Runtime,
		submitter: cfg.Submitter,
		tracing:   cfg.Tracing,
		opts:      cfg.Options,
	}
}

// Predict loads the agent owned by userID and runs it. A missing agent
// returns NotFound before anything is written.
func (c *Controller) Predict(ctx context.Context, userID kernel.UserID, agentID string, req Request) (*Invocation, error) {
	a, err := c.agents.FindByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, agent.NotFound(agentID)
	}

	opts, err := c.runtimeOptions(ctx, a)
	if err != nil {
		return nil, err
	}
	if req.Input == nil {
		req.Input = map[string]any{}
	}

	if req.HasStreaming {
		return c.stream(ctx, a, req, opts)
	}
	return c.run(ctx, a, req, opts)
}

func (c *Controller) runtimeOptions(ctx context.Context, a *agent.Agent) ([]runtime.Option, error) {
	opts := append([]runtime.Option(nil), c.opts...)
	if c.documents == nil {
		return opts, nil
	}
	attached, err := c.documents.ListByAgent(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	namespaces := make([]string, 0, len(attached))
	for _, d := range attached {
		namespaces = append(namespaces, d.DocumentID)
	}
	if len(namespaces) > 0 {
		opts = append(opts, runtime.WithDocuments(namespaces...))
	}
	return opts, nil
}

func (c *Controller) run(ctx context.Context, a *agent.Agent, req Request, opts []runtime.Option) (*Invocation, error) {
	res, err := runtime.New(c.deps, a, opts...).Run(ctx, req.Input)
	if err != nil {
		return nil, err
	}

	human := agent.NewMemoryTurn(a.ID, agent.AuthorHuman, encodeInput(req.Input["input"]))
	ai := agent.NewMemoryTurn(a.ID, agent.AuthorAI, res.Output)
	c.remember(human)
	c.remember(ai)

	inv := &Invocation{Output: res.Output}
	if c.tracing {
		inv.Trace = FormatTrace(res.Steps)
		c.saveTrace(a, inv.Trace)
	}
	return inv, nil
}

// stream validates the input, then starts the run on a worker goroutine.
// A run that fails after that publishes no sentinel, so the consumer waits
// until the client goes away.
func (c *Controller) stream(ctx context.Context, a *agent.Agent, req Request, opts []runtime.Option) (*Invocation, error) {
	bridge := stream.NewBridge()
	opts = append(opts, runtime.WithCallbacks(runtime.Callbacks{
		OnNewToken:      func(tok string) { bridge.Publish(stream.Token(tok)) },
		OnGenerationEnd: func() { bridge.Publish(stream.End()) },
		OnChainEnd:      func(map[string]string) {},
	}))

	rt := runtime.New(c.deps, a, opts...)
	if err := rt.Validate(req.Input); err != nil {
		return nil, err
	}

	workerCtx := context.WithoutCancel(ctx)
	asyncx.Do(func() {
		res, err := rt.Run(workerCtx, req.Input)
		if err != nil {
			logx.WithFields(logx.Fields{
				"agent_id": a.ID,
				"user_id":  a.UserID,
			}).WithError(err).Error("Streaming run failed before the end sentinel; client stream left open")
			return
		}

		c.remember(agent.NewMemoryTurn(a.ID, agent.AuthorAI, res.Output))
		if c.tracing {
			c.saveTrace(a, FormatTrace(res.Steps))
		}
	})

	return &Invocation{Bridge: bridge}, nil
}

func (c *Controller) remember(turn agent.MemoryTurn) {
	if c.memory == nil {
		return
	}
	c.submitter.Submit("agent.memory", func(ctx context.Context) error {
		return c.memory.AddTurn(ctx, turn)
	})
}

func (c *Controller) saveTrace(a *agent.Agent, data json.RawMessage) {
	if c.traces == nil {
		return
	}
	t := agent.Trace{
		ID:        kernel.NewID(),
		AgentID:   a.ID,
		UserID:    a.UserID,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	c.submitter.Submit("agent.trace", func(ctx context.Context) error {
		return c.traces.Save(ctx, t)
	})
}

// FormatTrace renders run steps as a JSON array.
func FormatTrace(steps []runtime.Step) json.RawMessage {
	if len(steps) == 0 {
		return json.RawMessage("[]")
	}
	b, err := json.Marshal(steps)
	if err != nil {
		return json.RawMessage("[]")
	}
	return b
}

// encodeInput is how HUMAN turns are stored: the JSON form of the user turn.
func encodeInput(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
