package agentsrv

import (
	"context"
	"strings"
	"time"

	"github.com/Abraxas-365/superagent/pkg/agent"
	"github.com/Abraxas-365/superagent/pkg/kernel"
)

func (s *AgentService) CreatePrompt(ctx context.Context, userID kernel.UserID, req agent.CreatePromptRequest) (*agent.Prompt, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Template) == "" {
		return nil, agent.ErrRegistry.New(agent.ErrInvalidBody).WithDetail("reason", "name and template are required")
	}
	vars := req.InputVariables
	if vars == nil {
		vars = []string{}
	}

	now := time.Now().UTC()
	p := agent.Prompt{
		ID:             kernel.NewID(),
		Name:           req.Name,
		Template:       req.Template,
		InputVariables: vars,
		UserID:         userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.prompts.Create(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *AgentService) ListPrompts(ctx context.Context, userID kernel.UserID) ([]*agent.Prompt, error) {
	return s.prompts.ListByUser(ctx, userID)
}

func (s *AgentService) GetPrompt(ctx context.Context, userID kernel.UserID, id string) (*agent.Prompt, error) {
	return s.ownedPrompt(ctx, userID, id)
}

func (s *AgentService) UpdatePrompt(ctx context.Context, userID kernel.UserID, id string, body map[string]any) (*agent.Prompt, error) {
	columns, err := agent.PromptColumns(body)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedPrompt(ctx, userID, id); err != nil {
		return nil, err
	}
	if err := s.prompts.Update(ctx, id, columns); err != nil {
		return nil, err
	}
	return s.prompts.FindByID(ctx, id)
}

func (s *AgentService) DeletePrompt(ctx context.Context, userID kernel.UserID, id string) error {
	if _, err := s.ownedPrompt(ctx, userID, id); err != nil {
		return err
	}
	return s.prompts.Delete(ctx, id)
}

func (s *AgentService) ownedPrompt(ctx context.Context, userID kernel.UserID, id string) (*agent.Prompt, error) {
	p, err := s.prompts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, agent.PromptNotFound(id)
	}
	return p, nil
}
