package apikeysrv

import (
	"context"
	"time"

	"github.com/Abraxas-365/superagent/pkg/asyncx"
	"github.com/Abraxas-365/superagent/pkg/iam/apikey"
	"github.com/Abraxas-365/superagent/pkg/kernel"
	"github.com/Abraxas-365/superagent/pkg/logx"
)

type APIKeyService struct {
	repo   apikey.Repository
	prefix string
}

func NewAPIKeyService(repo apikey.Repository, prefix string) *APIKeyService {
	if prefix == "" {
		prefix = apikey.DefaultPrefix
	}
	return &APIKeyService{repo: repo, prefix: prefix}
}

// CreateAPIKey issues a token for userID. The plaintext is only in the
// response.
func (s *APIKeyService) CreateAPIKey(ctx context.Context, userID kernel.UserID, req apikey.CreateRequest) (*apikey.CreateResponse, error) {
	token, err := apikey.Generate(s.prefix)
	if err != nil {
		return nil, err
	}

	key := apikey.APIKey{
		ID:          kernel.NewID(),
		UserID:      userID,
		Description: req.Description,
		KeyHash:     apikey.Hash(token),
		KeyPrefix:   apikey.DisplayPrefix(token),
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, key); err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{"key_id": key.ID, "user_id": userID}).Info("API token created")
	return &apikey.CreateResponse{APIKey: key, Token: token}, nil
}

func (s *APIKeyService) ListAPIKeys(ctx context.Context, userID kernel.UserID) ([]*apikey.APIKey, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *APIKeyService) DeleteAPIKey(ctx context.Context, userID kernel.UserID, id string) error {
	return s.repo.Delete(ctx, id, userID)
}

// ValidateAPIKey resolves a plaintext token to its record.
func (s *APIKeyService) ValidateAPIKey(ctx context.Context, token string) (*apikey.APIKey, error) {
	if !apikey.ValidFormat(token, s.prefix) {
		return nil, apikey.ErrInvalid()
	}

	key, err := s.repo.FindByHash(ctx, apikey.Hash(token))
	if err != nil {
		return nil, apikey.ErrInvalid()
	}
	if !key.IsActive {
		return nil, apikey.ErrInvalid().WithDetail("reason", "revoked")
	}

	asyncx.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.TouchLastUsed(ctx, key.ID); err != nil {
			logx.WithField("key_id", key.ID).WithError(err).Warn("Failed to update api token last use")
		}
	})
	return key, nil
}
