package ingest

import (
	"context"

	"github.com/Abraxas-365/superagent/pkg/kernel"
)

type Repository interface {
	Create(ctx context.Context, d Document) error
	FindByID(ctx context.Context, id string) (*Document, error)
	ListByUser(ctx context.Context, userID kernel.UserID) ([]*Document, error)
	// UpdateStatus sets status and error; an empty errMsg clears the error.
	UpdateStatus(ctx context.Context, id string, status Status, errMsg string) error
	Delete(ctx context.Context, id string) error
}
