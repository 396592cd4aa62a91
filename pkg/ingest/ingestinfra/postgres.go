package ingestinfra

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Abraxas-365/superagent/pkg/ingest"
	"github.com/Abraxas-365/superagent/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

const documentColumns = `id, user_id, type, name, url, splitter, from_page, to_page, metadata, credentials, status, error, created_at, updated_at`

type PostgresDocumentRepository struct {
	db *sqlx.DB
}

func NewPostgresDocumentRepository(db *sqlx.DB) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{db: db}
}

func (r *PostgresDocumentRepository) Create(ctx context.Context, d ingest.Document) error {
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES (:id, :user_id, :type, :name, :url, :splitter, :from_page, :to_page, :metadata, :credentials, :status, :error, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return ingest.ErrStoreFailure(err)
	}
	return nil
}

func (r *PostgresDocumentRepository) FindByID(ctx context.Context, id string) (*ingest.Document, error) {
	var d ingest.Document
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	if err := r.db.GetContext(ctx, &d, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ingest.ErrDocumentNotFound(id)
		}
		return nil, ingest.ErrStoreFailure(err)
	}
	return &d, nil
}

func (r *PostgresDocumentRepository) ListByUser(ctx context.Context, userID kernel.UserID) ([]*ingest.Document, error) {
	var docs []*ingest.Document
	query := `SELECT ` + documentColumns + ` FROM documents WHERE user_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &docs, query, userID); err != nil {
		return nil, ingest.ErrStoreFailure(err)
	}
	return docs, nil
}

func (r *PostgresDocumentRepository) UpdateStatus(ctx context.Context, id string, status ingest.Status, errMsg string) error {
	var msg *string
	if errMsg != "" {
		msg = &errMsg
	}
	query := `UPDATE documents SET status = $1, error = $2, updated_at = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, status, msg, time.Now().UTC(), id)
	if err != nil {
		return ingest.ErrStoreFailure(err)
	}
	return expectOne(res, id)
}

// Delete removes the document and its agent attachments.
func (r *PostgresDocumentRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return ingest.ErrStoreFailure(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM agent_documents WHERE document_id = $1`, id); err != nil {
		return ingest.ErrStoreFailure(err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return ingest.ErrStoreFailure(err)
	}
	if err := expectOne(res, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return ingest.ErrStoreFailure(err)
	}
	return nil
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return ingest.ErrStoreFailure(err)
	}
	if n == 0 {
		return ingest.ErrDocumentNotFound(id)
	}
	return nil
}
