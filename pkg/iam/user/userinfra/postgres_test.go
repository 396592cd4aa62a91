package userinfra

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/Abraxas-365/superagent/pkg/iam/user"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (*PostgresUserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresUserRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestCreateDuplicateEmail(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), user.User{ID: "u1", Email: "a@b.co"})
	assert.True(t, errx.IsCode(err, user.ErrEmailTaken))
}

func TestFindByEmailNormalizes(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()
	mock.ExpectQuery("FROM users WHERE email = \\$1").
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "password_hash", "created_at", "updated_at"}).
			AddRow("u1", "ada@example.com", "Ada", "hash", now, now))

	u, err := repo.FindByEmail(context.Background(), "  Ada@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)
}

func TestFindByIDMissing(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("FROM users WHERE id").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "nope")
	assert.True(t, errx.IsCode(err, user.ErrNotFound))
}
