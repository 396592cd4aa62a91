package agentinfra

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/Abraxas-365/superagent/pkg/agent"
	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

var agentCols = []string{"id", "name", "type", "llm", "has_memory", "prompt_id", "user_id", "created_at", "updated_at"}

func TestFindByIDJoinsPrompt(t *testing.T) {
	db, mock := newDB(t)
	repo := NewPostgresAgentRepository(db)
	now := time.Now()

	cols := append(append([]string{}, agentCols...), "p_name", "p_template", "p_input_variables", "p_user_id", "p_created_at", "p_updated_at")
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN prompts p ON p.id = a.prompt_id")).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"a1", "helper", "REACT", []byte(`{"provider":"openai","model":"gpt-4o"}`), true, "p1", "u1", now, now,
			"friendly", "You are {tone}", []byte(`{tone}`), "u1", now, now,
		))

	a, err := repo.FindByID(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, agent.TypeReact, a.Type)
	assert.Equal(t, "gpt-4o", a.LLM.Model)
	assert.True(t, a.HasMemory)
	require.NotNil(t, a.Prompt)
	assert.Equal(t, "You are {tone}", a.Prompt.Template)
	assert.Equal(t, []string{"tone"}, a.Prompt.InputVariables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDNotFound(t *testing.T) {
	db, mock := newDB(t)
	repo := NewPostgresAgentRepository(db)

	mock.ExpectQuery("FROM agents a").WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.True(t, errx.IsCode(err, agent.ErrNotFound))
}

func TestListByUserNewestFirstWithOwner(t *testing.T) {
	db, mock := newDB(t)
	repo := NewPostgresAgentRepository(db)
	now := time.Now()

	cols := append(append([]string{}, agentCols...), "u_email", "u_name")
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY a.created_at DESC")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("a2", "new", "REACT", []byte(`{}`), false, nil, "u1", now, now, "ada@example.com", "Ada").
			AddRow("a1", "old", "PLANSOLVE", []byte(`{}`), false, nil, "u1", now.Add(-time.Hour), now, "ada@example.com", "Ada"))

	list, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a2", list[0].ID)
	require.NotNil(t, list[0].User)
	assert.Equal(t, "ada@example.com", list[0].User.Email)
	assert.Nil(t, list[0].PromptID)
}

func TestDeleteRemovesMemoryThenAgent(t *testing.T) {
	db, mock := newDB(t)
	repo := NewPostgresAgentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM agent_memories WHERE agent_id = $1")).WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM agents WHERE id = $1")).WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "a1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingRollsBack(t *testing.T) {
	db, mock := newDB(t)
	repo := NewPostgresAgentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM agent_memories").WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM agents").WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "a1")
	assert.True(t, errx.IsCode(err, agent.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteStoreFailureCarriesCause(t *testing.T) {
	db, mock := newDB(t)
	repo := NewPostgresAgentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM agent_memories").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "a1")
	require.True(t, errx.IsCode(err, agent.ErrStoreFailure))
	var e *errx.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, assert.AnError.Error(), e.Details["error"])
}

func TestUpdateSortsColumns(t *testing.T) {
	db, mock := newDB(t)
	repo := NewPostgresAgentRepository(db)

	cols, err := agent.AgentColumns(map[string]any{"name": "renamed", "hasMemory": true})
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE agents SET has_memory = $1, name = $2, updated_at = $3 WHERE id = $4")).
		WithArgs(true, "renamed", sqlmock.AnyArg(), "a1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), "a1", cols))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMissingAgent(t *testing.T) {
	db, mock := newDB(t)
	repo := NewPostgresAgentRepository(db)

	mock.ExpectExec("UPDATE agents").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), "nope", map[string]any{"name": "x"})
	assert.True(t, errx.IsCode(err, agent.ErrNotFound))
}

func TestCreateAgentUnknownPrompt(t *testing.T) {
	db, mock := newDB(t)
	repo := NewPostgresAgentRepository(db)
	pid := "p-missing"

	mock.ExpectExec("INSERT INTO agents").WillReturnError(&pq.Error{Code: "23503"})

	err := repo.Create(context.Background(), agent.Agent{ID: "a1", Name: "x", Type: agent.TypeReact, PromptID: &pid, UserID: "u1"})
	assert.True(t, errx.IsCode(err, agent.ErrPromptNotFound))
}

func TestPromptUpdateConvertsVariables(t *testing.T) {
	db, mock := newDB(t)
	repo := NewPostgresPromptRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE prompts SET input_variables = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(pq.StringArray{"a", "b"}, sqlmock.AnyArg(), "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "p1", map[string]any{"input_variables": []any{"a", "b"}})
	require.NoError(t, err)

	err = repo.Update(context.Background(), "p1", map[string]any{"input_variables": []any{1}})
	assert.True(t, errx.IsCode(err, agent.ErrInvalidBody))
}

func TestRecentTurnsOldestFirst(t *testing.T) {
	db, mock := newDB(t)
	store := NewPostgresMemoryStore(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT $2")).
		WithArgs("a1", 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "agent_id", "author", "message", "created_at"}).
			AddRow("m2", "a1", "AI", "hi there", now).
			AddRow("m1", "a1", "HUMAN", `"hello"`, now.Add(-time.Second)))

	turns, err := store.RecentTurns(context.Background(), "a1", 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, agent.AuthorHuman, turns[0].Author)
	assert.Equal(t, "hi there", turns[1].Message)
}

func TestAgentDocumentDeleteMissing(t *testing.T) {
	db, mock := newDB(t)
	repo := NewPostgresAgentDocumentRepository(db)

	mock.ExpectExec("DELETE FROM agent_documents").WithArgs("ad1").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "ad1")
	assert.True(t, errx.IsCode(err, agent.ErrDocumentNotFound))
}
