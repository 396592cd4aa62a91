package apikeyinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/Abraxas-365/superagent/pkg/iam/apikey"
	"github.com/Abraxas-365/superagent/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresAPIKeyRepository stores tokens in api_tokens.
type PostgresAPIKeyRepository struct {
	db *sqlx.DB
}

func NewPostgresAPIKeyRepository(db *sqlx.DB) *PostgresAPIKeyRepository {
	return &PostgresAPIKeyRepository{db: db}
}

const columns = `id, user_id, description, key_hash, key_prefix, is_active, last_used_at, created_at`

func (r *PostgresAPIKeyRepository) Create(ctx context.Context, key apikey.APIKey) error {
	query := `
		INSERT INTO api_tokens (id, user_id, description, key_hash, key_prefix, is_active, last_used_at, created_at)
		VALUES (:id, :user_id, :description, :key_hash, :key_prefix, :is_active, :last_used_at, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, key); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return apikey.ErrInvalid().WithDetail("reason", "token hash already exists")
		}
		return errx.Wrap(err, "failed to create api token", errx.TypeInternal).WithDetail("key_id", key.ID)
	}
	return nil
}

func (r *PostgresAPIKeyRepository) FindByHash(ctx context.Context, keyHash string) (*apikey.APIKey, error) {
	var key apikey.APIKey
	err := r.db.GetContext(ctx, &key, `SELECT `+columns+` FROM api_tokens WHERE key_hash = $1`, keyHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apikey.ErrNotFound()
		}
		return nil, errx.Wrap(err, "failed to find api token by hash", errx.TypeInternal)
	}
	return &key, nil
}

func (r *PostgresAPIKeyRepository) ListByUser(ctx context.Context, userID kernel.UserID) ([]*apikey.APIKey, error) {
	keys := []*apikey.APIKey{}
	err := r.db.SelectContext(ctx, &keys, `SELECT `+columns+` FROM api_tokens WHERE user_id = $1 ORDER BY created_at DESC`, userID.String())
	if err != nil {
		return nil, errx.Wrap(err, "failed to list api tokens", errx.TypeInternal)
	}
	return keys, nil
}

func (r *PostgresAPIKeyRepository) Delete(ctx context.Context, id string, userID kernel.UserID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM api_tokens WHERE id = $1 AND user_id = $2`, id, userID.String())
	if err != nil {
		return errx.Wrap(err, "failed to delete api token", errx.TypeInternal)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on delete", errx.TypeInternal)
	}
	if n == 0 {
		return apikey.ErrNotFound()
	}
	return nil
}

func (r *PostgresAPIKeyRepository) TouchLastUsed(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE api_tokens SET last_used_at = NOW() WHERE id = $1`, id); err != nil {
		return errx.Wrap(err, "failed to update last used time for api token", errx.TypeInternal)
	}
	return nil
}
