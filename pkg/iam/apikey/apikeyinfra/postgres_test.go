package apikeyinfra

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/Abraxas-365/superagent/pkg/iam/apikey"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (*PostgresAPIKeyRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresAPIKeyRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestFindByHash(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM api_tokens WHERE key_hash = $1")).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "description", "key_hash", "key_prefix", "is_active", "last_used_at", "created_at"}).
			AddRow("k1", "u1", "ci", "abc", "sa_1234567", true, nil, now))

	key, err := repo.FindByHash(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "k1", key.ID)
	assert.Nil(t, key.LastUsedAt)
}

func TestFindByHashMissing(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("FROM api_tokens").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByHash(context.Background(), "x")
	assert.True(t, errx.IsCode(err, apikey.CodeNotFound))
}

func TestDeleteScopedToUser(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM api_tokens WHERE id = $1 AND user_id = $2")).
		WithArgs("k1", "u2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "k1", "u2")
	assert.True(t, errx.IsCode(err, apikey.CodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
