package apikey

import (
	"context"

	"github.com/Abraxas-365/superagent/pkg/kernel"
)

type Repository interface {
	Create(ctx context.Context, key APIKey) error
	FindByHash(ctx context.Context, keyHash string) (*APIKey, error)
	ListByUser(ctx context.Context, userID kernel.UserID) ([]*APIKey, error)
	Delete(ctx context.Context, id string, userID kernel.UserID) error
	TouchLastUsed(ctx context.Context, id string) error
}
