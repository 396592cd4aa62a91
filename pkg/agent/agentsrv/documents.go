package agentsrv

import (
	"context"
	"time"

	"github.com/Abraxas-365/superagent/pkg/agent"
	"github.com/Abraxas-365/superagent/pkg/kernel"
)

// AttachDocument makes a document searchable by an agent.
func (s *AgentService) AttachDocument(ctx context.Context, userID kernel.UserID, req agent.AttachDocumentRequest) (*agent.AgentDocument, error) {
	if req.AgentID == "" || req.DocumentID == "" {
		return nil, agent.ErrRegistry.New(agent.ErrInvalidBody).WithDetail("reason", "agentId and documentId are required")
	}
	if _, err := s.ownedAgent(ctx, userID, req.AgentID); err != nil {
		return nil, err
	}
	if s.documents != nil {
		ok, err := s.documents.Owns(ctx, userID, req.DocumentID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, agent.ErrRegistry.New(agent.ErrDocumentNotFound).WithDetail("document_id", req.DocumentID)
		}
	}

	d := agent.AgentDocument{
		ID:         kernel.NewID(),
		AgentID:    req.AgentID,
		DocumentID: req.DocumentID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.attachments.Create(ctx, d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *AgentService) ListAttachments(ctx context.Context, userID kernel.UserID, agentID string) ([]*agent.AgentDocument, error) {
	if agentID == "" {
		return nil, agent.ErrRegistry.New(agent.ErrInvalidBody).WithDetail("field", "agentId")
	}
	if _, err := s.ownedAgent(ctx, userID, agentID); err != nil {
		return nil, err
	}
	return s.attachments.ListByAgent(ctx, agentID)
}

func (s *AgentService) DetachDocument(ctx context.Context, userID kernel.UserID, id string) error {
	d, err := s.attachments.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.ownedAgent(ctx, userID, d.AgentID); err != nil {
		if agent.IsNotFound(err) {
			return agent.ErrRegistry.New(agent.ErrDocumentNotFound).WithDetail("id", id)
		}
		return err
	}
	return s.attachments.Delete(ctx, id)
}
