package vstpgvector

import (
	"context"
	"regexp"
	"testing"

	"github.com/Abraxas-365/superagent/pkg/ai/vstore"
	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*PgVectorProvider, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPgVectorProvider(sqlx.NewDb(db, "postgres"), WithDimension(2)), mock
}

func TestVectorValueAndScan(t *testing.T) {
	v, err := Vector{1, 0.5}.Value()
	require.NoError(t, err)
	assert.Equal(t, "[1,0.5]", v)

	var out Vector
	require.NoError(t, out.Scan([]byte("[1, 0.5, -2]")))
	assert.Equal(t, Vector{1, 0.5, -2}, out)
	assert.Error(t, out.Scan("1,2"))
}

func TestUpsertUsesTransaction(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO vectors"))
	prep.ExpectExec().WithArgs("c1", "doc-1", "[1,0]", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := p.Upsert(context.Background(), []vstore.Vector{{ID: "c1", Values: []float32{1, 0}, Metadata: map[string]any{"text": "x"}}}, vstore.WithNamespace("doc-1"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRejectsWrongDimension(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO vectors")
	mock.ExpectRollback()

	err := p.Upsert(context.Background(), []vstore.Vector{{ID: "c1", Values: []float32{1}}})
	require.Error(t, err)
}

func TestQueryConvertsDistanceToScore(t *testing.T) {
	p, mock := newMock(t)

	rows := sqlmock.NewRows([]string{"id", "metadata", "distance"}).
		AddRow("c1", []byte(`{"text":"hello"}`), 0.1).
		AddRow("c2", []byte(`{"text":"bye"}`), 0.9)
	mock.ExpectQuery(regexp.QuoteMeta("FROM vectors")).
		WithArgs("[1,0]", "doc-1", "language", "en").
		WillReturnRows(rows)

	res, err := p.Query(context.Background(), []float32{1, 0},
		vstore.WithNamespace("doc-1"),
		vstore.WithMinScore(0.5),
		vstore.WithFilter(vstore.NewFilter().AddMust("language", vstore.OpEqual, "en")))
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "c1", res.Matches[0].ID)
	assert.InDelta(t, 0.9, res.Matches[0].Score, 1e-6)
	assert.Equal(t, "hello", res.Matches[0].Metadata["text"])
}

func TestQueryRejectsUnknownOperator(t *testing.T) {
	p, _ := newMock(t)

	_, err := p.Query(context.Background(), []float32{1, 0},
		vstore.WithFilter(vstore.NewFilter().AddMust("language", "like", "e%")))
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, ErrInvalidFilterField))
}

func TestDeleteNamespace(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM vectors WHERE namespace = $1")).
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, p.DeleteNamespace(context.Background(), "doc-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
