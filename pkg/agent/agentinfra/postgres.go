package agentinfra

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Abraxas-365/superagent/pkg/agent"
	"github.com/Abraxas-365/superagent/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresAgentRepository stores agents and their memory turns.
type PostgresAgentRepository struct {
	db *sqlx.DB
}

func NewPostgresAgentRepository(db *sqlx.DB) *PostgresAgentRepository {
	return &PostgresAgentRepository{db: db}
}

func (r *PostgresAgentRepository) Create(ctx context.Context, a agent.Agent) error {
	query := `
		INSERT INTO agents (id, name, type, llm, has_memory, prompt_id, user_id, created_at, updated_at)
		VALUES (:id, :name, :type, :llm, :has_memory, :prompt_id, :user_id, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		if isForeignKeyViolation(err) {
			return agent.PromptNotFound(deref(a.PromptID))
		}
		return agent.StoreFailure(err)
	}
	return nil
}

type agentRow struct {
	agent.Agent
	PromptName      sql.NullString `db:"p_name"`
	PromptTemplate  sql.NullString `db:"p_template"`
	PromptVariables pq.StringArray `db:"p_input_variables"`
	PromptUserID    sql.NullString `db:"p_user_id"`
	PromptCreatedAt sql.NullTime   `db:"p_created_at"`
	PromptUpdatedAt sql.NullTime   `db:"p_updated_at"`
}

func (r *PostgresAgentRepository) FindByID(ctx context.Context, id string) (*agent.Agent, error) {
	query := `
		SELECT a.id, a.name, a.type, a.llm, a.has_memory, a.prompt_id, a.user_id, a.created_at, a.updated_at,
			p.name AS p_name, p.template AS p_template, p.input_variables AS p_input_variables,
			p.user_id AS p_user_id, p.created_at AS p_created_at, p.updated_at AS p_updated_at
		FROM agents a
		LEFT JOIN prompts p ON p.id = a.prompt_id
		WHERE a.id = $1`

	var row agentRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, agent.NotFound(id)
		}
		return nil, agent.StoreFailure(err)
	}

	a := row.Agent
	if a.PromptID != nil && row.PromptTemplate.Valid {
		a.Prompt = &agent.Prompt{
			ID:             *a.PromptID,
			Name:           row.PromptName.String,
			Template:       row.PromptTemplate.String,
			InputVariables: []string(row.PromptVariables),
			UserID:         kernel.UserID(row.PromptUserID.String),
			CreatedAt:      row.PromptCreatedAt.Time,
			UpdatedAt:      row.PromptUpdatedAt.Time,
		}
	}
	return &a, nil
}

type ownedAgentRow struct {
	agent.Agent
	OwnerEmail sql.NullString `db:"u_email"`
	OwnerName  sql.NullString `db:"u_name"`
}

func (r *PostgresAgentRepository) ListByUser(ctx context.Context, userID kernel.UserID) ([]*agent.Agent, error) {
	query := `
		SELECT a.id, a.name, a.type, a.llm, a.has_memory, a.prompt_id, a.user_id, a.created_at, a.updated_at,
			u.email AS u_email, u.name AS u_name
		FROM agents a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE a.user_id = $1
		ORDER BY a.created_at DESC`

	var rows []ownedAgentRow
	if err := r.db.SelectContext(ctx, &rows, query, userID.String()); err != nil {
		return nil, agent.StoreFailure(err)
	}

	out := make([]*agent.Agent, 0, len(rows))
	for _, row := range rows {
		a := row.Agent
		a.User = &agent.Owner{ID: a.UserID, Email: row.OwnerEmail.String, Name: row.OwnerName.String}
		out = append(out, &a)
	}
	return out, nil
}

// Update writes the given columns. Column names must come from
// agent.AgentColumns.
func (r *PostgresAgentRepository) Update(ctx context.Context, id string, columns map[string]any) error {
	return updateColumns(ctx, r.db, "agents", id, columns, func() error { return agent.NotFound(id) })
}

func (r *PostgresAgentRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return agent.StoreFailure(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM agent_memories WHERE agent_id = $1`, id); err != nil {
		return agent.StoreFailure(err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return agent.StoreFailure(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return agent.StoreFailure(err)
	}
	if n == 0 {
		return agent.NotFound(id)
	}
	if err := tx.Commit(); err != nil {
		return agent.StoreFailure(err)
	}
	return nil
}

// PostgresPromptRepository stores prompt templates.
type PostgresPromptRepository struct {
	db *sqlx.DB
}

func NewPostgresPromptRepository(db *sqlx.DB) *PostgresPromptRepository {
	return &PostgresPromptRepository{db: db}
}

type promptRow struct {
	agent.Prompt
	Variables pq.StringArray `db:"input_variables"`
}

func (r promptRow) toDomain() *agent.Prompt {
	p := r.Prompt
	p.InputVariables = []string(r.Variables)
	if p.InputVariables == nil {
		p.InputVariables = []string{}
	}
	return &p
}

func (r *PostgresPromptRepository) Create(ctx context.Context, p agent.Prompt) error {
	query := `
		INSERT INTO prompts (id, name, template, input_variables, user_id, created_at, updated_at)
		VALUES (:id, :name, :template, :input_variables, :user_id, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, query, promptRow{Prompt: p, Variables: pq.StringArray(p.InputVariables)}); err != nil {
		return agent.StoreFailure(err)
	}
	return nil
}

func (r *PostgresPromptRepository) FindByID(ctx context.Context, id string) (*agent.Prompt, error) {
	var row promptRow
	query := `SELECT id, name, template, input_variables, user_id, created_at, updated_at FROM prompts WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, agent.PromptNotFound(id)
		}
		return nil, agent.StoreFailure(err)
	}
	return row.toDomain(), nil
}

func (r *PostgresPromptRepository) ListByUser(ctx context.Context, userID kernel.UserID) ([]*agent.Prompt, error) {
	var rows []promptRow
	query := `
		SELECT id, name, template, input_variables, user_id, created_at, updated_at
		FROM prompts WHERE user_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query, userID.String()); err != nil {
		return nil, agent.StoreFailure(err)
	}
	out := make([]*agent.Prompt, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *PostgresPromptRepository) Update(ctx context.Context, id string, columns map[string]any) error {
	if v, ok := columns["input_variables"]; ok {
		vars, err := stringArray(v)
		if err != nil {
			return err
		}
		columns["input_variables"] = vars
	}
	return updateColumns(ctx, r.db, "prompts", id, columns, func() error { return agent.PromptNotFound(id) })
}

func (r *PostgresPromptRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM prompts WHERE id = $1`, id)
	if err != nil {
		return agent.StoreFailure(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return agent.StoreFailure(err)
	} else if n == 0 {
		return agent.PromptNotFound(id)
	}
	return nil
}

// PostgresMemoryStore persists conversation turns in agent_memories.
type PostgresMemoryStore struct {
	db *sqlx.DB
}

func NewPostgresMemoryStore(db *sqlx.DB) *PostgresMemoryStore {
	return &PostgresMemoryStore{db: db}
}

func (s *PostgresMemoryStore) AddTurn(ctx context.Context, turn agent.MemoryTurn) error {
	query := `
		INSERT INTO agent_memories (id, agent_id, author, message, created_at)
		VALUES (:id, :agent_id, :author, :message, :created_at)`
	if _, err := s.db.NamedExecContext(ctx, query, turn); err != nil {
		return agent.StoreFailure(err)
	}
	return nil
}

func (s *PostgresMemoryStore) RecentTurns(ctx context.Context, agentID string, limit int) ([]agent.MemoryTurn, error) {
	var turns []agent.MemoryTurn
	query := `
		SELECT id, agent_id, author, message, created_at
		FROM agent_memories WHERE agent_id = $1
		ORDER BY created_at DESC LIMIT $2`
	if err := s.db.SelectContext(ctx, &turns, query, agentID, limit); err != nil {
		return nil, agent.StoreFailure(err)
	}
	slices.Reverse(turns)
	return turns, nil
}

type PostgresTraceRepository struct {
	db *sqlx.DB
}

func NewPostgresTraceRepository(db *sqlx.DB) *PostgresTraceRepository {
	return &PostgresTraceRepository{db: db}
}

func (r *PostgresTraceRepository) Save(ctx context.Context, t agent.Trace) error {
	query := `
		INSERT INTO agent_traces (id, agent_id, user_id, data, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, t.ID, t.AgentID, t.UserID.String(), []byte(t.Data), t.CreatedAt); err != nil {
		return agent.StoreFailure(err)
	}
	return nil
}

type PostgresAgentDocumentRepository struct {
	db *sqlx.DB
}

func NewPostgresAgentDocumentRepository(db *sqlx.DB) *PostgresAgentDocumentRepository {
	return &PostgresAgentDocumentRepository{db: db}
}

func (r *PostgresAgentDocumentRepository) Create(ctx context.Context, d agent.AgentDocument) error {
	query := `
		INSERT INTO agent_documents (id, agent_id, document_id, created_at)
		VALUES (:id, :agent_id, :document_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		if isForeignKeyViolation(err) {
			return agent.ErrRegistry.New(agent.ErrDocumentNotFound).WithDetail("document_id", d.DocumentID)
		}
		return agent.StoreFailure(err)
	}
	return nil
}

func (r *PostgresAgentDocumentRepository) FindByID(ctx context.Context, id string) (*agent.AgentDocument, error) {
	var d agent.AgentDocument
	query := `SELECT id, agent_id, document_id, created_at FROM agent_documents WHERE id = $1`
	if err := r.db.GetContext(ctx, &d, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, agent.ErrRegistry.New(agent.ErrDocumentNotFound).WithDetail("id", id)
		}
		return nil, agent.StoreFailure(err)
	}
	return &d, nil
}

func (r *PostgresAgentDocumentRepository) ListByAgent(ctx context.Context, agentID string) ([]*agent.AgentDocument, error) {
	var docs []*agent.AgentDocument
	query := `
		SELECT id, agent_id, document_id, created_at
		FROM agent_documents WHERE agent_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &docs, query, agentID); err != nil {
		return nil, agent.StoreFailure(err)
	}
	return docs, nil
}

func (r *PostgresAgentDocumentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM agent_documents WHERE id = $1`, id)
	if err != nil {
		return agent.StoreFailure(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return agent.StoreFailure(err)
	} else if n == 0 {
		return agent.ErrRegistry.New(agent.ErrDocumentNotFound).WithDetail("id", id)
	}
	return nil
}

// updateColumns builds an UPDATE over a fixed column set in sorted order
// and bumps updated_at.
func updateColumns(ctx context.Context, db *sqlx.DB, table, id string, columns map[string]any, notFound func() error) error {
	names := make([]string, 0, len(columns))
	for k := range columns {
		names = append(names, k)
	}
	slices.Sort(names)

	sets := make([]string, 0, len(names)+1)
	args := make([]any, 0, len(names)+1)
	for i, name := range names {
		sets = append(sets, fmt.Sprintf("%s = $%d", name, i+1))
		args = append(args, columns[name])
	}
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(names)+1))
	args = append(args, time.Now().UTC(), id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(sets, ", "), len(args))
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return agent.StoreFailure(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return agent.StoreFailure(err)
	}
	if n == 0 {
		return notFound()
	}
	return nil
}

func stringArray(v any) (pq.StringArray, error) {
	switch vals := v.(type) {
	case []string:
		return pq.StringArray(vals), nil
	case []any:
		out := make(pq.StringArray, 0, len(vals))
		for _, x := range vals {
			s, ok := x.(string)
			if !ok {
				return nil, agent.ErrRegistry.New(agent.ErrInvalidBody).WithDetail("field", "input_variables")
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, agent.ErrRegistry.New(agent.ErrInvalidBody).WithDetail("field", "input_variables")
	}
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
