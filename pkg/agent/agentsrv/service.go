package agentsrv

import (
	"context"
	"strings"
	"time"

	"github.com/Abraxas-365/superagent/pkg/agent"
	"github.com/Abraxas-365/superagent/pkg/agent/runtime"
	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/Abraxas-365/superagent/pkg/kernel"
	"github.com/Abraxas-365/superagent/pkg/logx"
)

// DocumentChecker confirms a document exists and belongs to a user.
type DocumentChecker interface {
	Owns(ctx context.Context, userID kernel.UserID, documentID string) (bool, error)
}

// AgentService manages agents, prompts and document attachments. Every
// read is scoped to the caller; a record owned by someone else reads as
// absent.
type AgentService struct {
	agents      agent.AgentRepository
	prompts     agent.PromptRepository
	attachments agent.AgentDocumentRepository
	documents   DocumentChecker
}

func NewAgentService(
	agents agent.AgentRepository,
	prompts agent.PromptRepository,
	attachments agent.AgentDocumentRepository,
	documents DocumentChecker,
) *AgentService {
	return &AgentService{
		agents:      agents,
		prompts:     prompts,
		attachments: attachments,
		documents:   documents,
	}
}

func (s *AgentService) CreateAgent(ctx context.Context, userID kernel.UserID, req agent.CreateAgentRequest) (*agent.Agent, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, agent.ErrRegistry.New(agent.ErrInvalidBody).WithDetail("field", "name")
	}
	if !runtime.Supported(req.Type) {
		return nil, agent.ErrRegistry.New(agent.ErrInvalidBody).WithDetail("field", "type").WithDetail("value", req.Type)
	}
	if req.PromptID != nil {
		if _, err := s.ownedPrompt(ctx, userID, *req.PromptID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	a := agent.Agent{
		ID:        kernel.NewID(),
		Name:      req.Name,
		Type:      req.Type,
		LLM:       req.LLM,
		HasMemory: req.HasMemory,
		PromptID:  req.PromptID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.agents.Create(ctx, a); err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{"agent_id": a.ID, "user_id": userID, "type": a.Type}).Info("Agent created")
	return &a, nil
}

// ListAgents returns the caller's agents, newest first. An empty list is
// reported as an error.
func (s *AgentService) ListAgents(ctx context.Context, userID kernel.UserID) ([]*agent.Agent, error) {
	agents, err := s.agents.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(agents) == 0 {
		return nil, agent.ErrRegistry.New(agent.ErrNoneFound)
	}
	return agents, nil
}

// GetAgent returns the agent with its prompt. An absent agent surfaces
// as a store failure.
func (s *AgentService) GetAgent(ctx context.Context, userID kernel.UserID, id string) (*agent.Agent, error) {
	a, err := s.ownedAgent(ctx, userID, id)
	if err != nil {
		if errx.IsCode(err, agent.ErrNotFound) {
			return nil, agent.StoreFailuref("agent " + id + " not found")
		}
		return nil, err
	}
	return a, nil
}

func (s *AgentService) UpdateAgent(ctx context.Context, userID kernel.UserID, id string, body map[string]any) (*agent.Agent, error) {
	columns, err := agent.AgentColumns(body)
	if err != nil {
		return nil, err
	}
	if t, ok := columns["type"]; ok {
		ts, _ := t.(string)
		if !runtime.Supported(agent.Type(ts)) {
			return nil, agent.ErrRegistry.New(agent.ErrInvalidBody).WithDetail("field", "type").WithDetail("value", t)
		}
	}
	if pid, ok := columns["prompt_id"].(string); ok {
		if _, err := s.ownedPrompt(ctx, userID, pid); err != nil {
			return nil, err
		}
	}
	if _, err := s.ownedAgent(ctx, userID, id); err != nil {
		return nil, err
	}

	if err := s.agents.Update(ctx, id, columns); err != nil {
		return nil, err
	}
	return s.agents.FindByID(ctx, id)
}

// DeleteAgent removes the agent and its memory turns.
func (s *AgentService) DeleteAgent(ctx context.Context, userID kernel.UserID, id string) error {
	if _, err := s.ownedAgent(ctx, userID, id); err != nil {
		return err
	}
	if err := s.agents.Delete(ctx, id); err != nil {
		return err
	}
	logx.WithFields(logx.Fields{"agent_id": id, "user_id": userID}).Info("Agent deleted")
	return nil
}

func (s *AgentService) ownedAgent(ctx context.Context, userID kernel.UserID, id string) (*agent.Agent, error) {
	a, err := s.agents.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, agent.NotFound(id)
	}
	return a, nil
}
