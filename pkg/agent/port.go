package agent

import (
	"context"

	"github.com/Abraxas-365/superagent/pkg/kernel"
)

type AgentRepository interface {
	Create(ctx context.Context, a Agent) error
	// FindByID joins the bound prompt. It returns ErrNotFound when absent.
	FindByID(ctx context.Context, id string) (*Agent, error)
	// ListByUser joins the owner and orders newest first.
	ListByUser(ctx context.Context, userID kernel.UserID) ([]*Agent, error)
	Update(ctx context.Context, id string, columns map[string]any) error
	// Delete removes the agent's memory turns, then the agent.
	Delete(ctx context.Context, id string) error
}

type PromptRepository interface {
	Create(ctx context.Context, p Prompt) error
	FindByID(ctx context.Context, id string) (*Prompt, error)
	ListByUser(ctx context.Context, userID kernel.UserID) ([]*Prompt, error)
	Update(ctx context.Context, id string, columns map[string]any) error
	Delete(ctx context.Context, id string) error
}

type MemoryWriter interface {
	AddTurn(ctx context.Context, turn MemoryTurn) error
}

// MemoryReader returns the newest limit turns of an agent, oldest first.
type MemoryReader interface {
	RecentTurns(ctx context.Context, agentID string, limit int) ([]MemoryTurn, error)
}

type TraceRepository interface {
	Save(ctx context.Context, t Trace) error
}

type AgentDocumentRepository interface {
	Create(ctx context.Context, d AgentDocument) error
	FindByID(ctx context.Context, id string) (*AgentDocument, error)
	ListByAgent(ctx context.Context, agentID string) ([]*AgentDocument, error)
	Delete(ctx context.Context, id string) error
}
