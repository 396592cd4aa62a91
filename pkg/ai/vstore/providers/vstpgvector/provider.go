// Package vstpgvector stores vectors in a Postgres table using the pgvector
// extension. Namespaces are a column; (namespace, id) is the key.
package vstpgvector

import (
	"context"
	"fmt"
	"strings"

	"github.com/Abraxas-365/superagent/pkg/ai/vstore"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type ProviderOption func(*PgVectorProvider)

func WithTableName(name string) ProviderOption {
	return func(p *PgVectorProvider) {
		if name != "" {
			p.table = name
		}
	}
}

func WithDimension(dimension int) ProviderOption {
	return func(p *PgVectorProvider) { p.dimension = dimension }
}

func WithMetric(metric vstore.Metric) ProviderOption {
	return func(p *PgVectorProvider) {
		if metric != "" {
			p.metric = metric
		}
	}
}

type PgVectorProvider struct {
	db        *sqlx.DB
	table     string
	dimension int
	metric    vstore.Metric
}

func NewPgVectorProvider(db *sqlx.DB, opts ...ProviderOption) *PgVectorProvider {
	p := &PgVectorProvider{db: db, table: "vectors", metric: vstore.MetricCosine}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *PgVectorProvider) checkDimension(values []float32) error {
	if p.dimension > 0 && len(values) != p.dimension {
		return errorRegistry.New(ErrInvalidDimension).
			WithDetail("expected", p.dimension).
			WithDetail("got", len(values))
	}
	return nil
}

func (p *PgVectorProvider) Upsert(ctx context.Context, vectors []vstore.Vector, opts ...vstore.Option) error {
	if len(vectors) == 0 {
		return nil
	}
	ns := vstore.ApplyOptions(opts...).Namespace

	query := fmt.Sprintf(`
		INSERT INTO %s (id, namespace, vector, metadata, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (namespace, id) DO UPDATE SET
			vector = EXCLUDED.vector,
			metadata = EXCLUDED.metadata,
			updated_at = NOW()`, p.table)

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return dbError(err, "begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return dbError(err, "prepare upsert")
	}
	defer stmt.Close()

	for _, v := range vectors {
		if err := p.checkDimension(v.Values); err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, v.ID, ns, Vector(v.Values), Metadata(v.Metadata)); err != nil {
			return dbError(err, "upsert").WithDetail("id", v.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return dbError(err, "commit")
	}
	return nil
}

func (p *PgVectorProvider) Query(ctx context.Context, vector []float32, opts ...vstore.Option) (*vstore.QueryResult, error) {
	if err := p.checkDimension(vector); err != nil {
		return nil, err
	}
	o := vstore.ApplyOptions(opts...)

	args := []any{Vector(vector), o.Namespace}
	where := []string{"namespace = $2"}
	if o.Filter != nil {
		for _, c := range o.Filter.Must {
			clause, cargs, err := condition(c, len(args)+1)
			if err != nil {
				return nil, err
			}
			where = append(where, clause)
			args = append(args, cargs...)
		}
	}

	query := fmt.Sprintf(`
		SELECT id, metadata, vector %s $1 AS distance
		FROM %s
		WHERE %s
		ORDER BY distance
		LIMIT %d`, operator(p.metric), p.table, strings.Join(where, " AND "), o.TopK)

	var rows []struct {
		ID       string   `db:"id"`
		Metadata Metadata `db:"metadata"`
		Distance float64  `db:"distance"`
	}
	if err := p.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, dbError(err, "query")
	}

	res := &vstore.QueryResult{Namespace: o.Namespace}
	for _, r := range rows {
		score := score(p.metric, r.Distance)
		if score < o.MinScore {
			continue
		}
		res.Matches = append(res.Matches, vstore.Match{ID: r.ID, Score: score, Metadata: r.Metadata})
	}
	return res, nil
}

func (p *PgVectorProvider) Delete(ctx context.Context, ids []string, opts ...vstore.Option) error {
	if len(ids) == 0 {
		return nil
	}
	ns := vstore.ApplyOptions(opts...).Namespace
	query := fmt.Sprintf(`DELETE FROM %s WHERE namespace = $1 AND id = ANY($2)`, p.table)
	if _, err := p.db.ExecContext(ctx, query, ns, pq.Array(ids)); err != nil {
		return dbError(err, "delete")
	}
	return nil
}

func (p *PgVectorProvider) DeleteNamespace(ctx context.Context, namespace string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE namespace = $1`, p.table)
	if _, err := p.db.ExecContext(ctx, query, namespace); err != nil {
		return dbError(err, "delete namespace").WithDetail("namespace", namespace)
	}
	return nil
}

func (p *PgVectorProvider) ListNamespaces(ctx context.Context) ([]string, error) {
	var out []string
	query := fmt.Sprintf(`SELECT DISTINCT namespace FROM %s ORDER BY namespace`, p.table)
	if err := p.db.SelectContext(ctx, &out, query); err != nil {
		return nil, dbError(err, "list namespaces")
	}
	return out, nil
}

func operator(m vstore.Metric) string {
	switch m {
	case vstore.MetricEuclidean:
		return "<->"
	case vstore.MetricDotProduct:
		return "<#>"
	default:
		return "<=>"
	}
}

// score turns a pgvector distance into a higher-is-better similarity.
func score(m vstore.Metric, distance float64) float32 {
	switch m {
	case vstore.MetricEuclidean:
		return float32(1 / (1 + distance))
	case vstore.MetricDotProduct:
		return float32(-distance)
	default:
		return float32(1 - distance)
	}
}

func condition(c vstore.Condition, n int) (string, []any, error) {
	if c.Field == "" {
		return "", nil, errorRegistry.New(ErrInvalidFilterField)
	}
	switch c.Operator {
	case vstore.OpEqual:
		return fmt.Sprintf("metadata->>$%d = $%d", n, n+1), []any{c.Field, fmt.Sprint(c.Value)}, nil
	case vstore.OpNotEqual:
		return fmt.Sprintf("metadata->>$%d IS DISTINCT FROM $%d", n, n+1), []any{c.Field, fmt.Sprint(c.Value)}, nil
	case vstore.OpIn:
		values, _ := c.Value.([]string)
		return fmt.Sprintf("metadata->>$%d = ANY($%d)", n, n+1), []any{c.Field, pq.Array(values)}, nil
	case vstore.OpExists:
		return fmt.Sprintf("jsonb_exists(metadata, $%d)", n), []any{c.Field}, nil
	default:
		return "", nil, errorRegistry.New(ErrInvalidFilterField).
			WithDetail("field", c.Field).
			WithDetail("operator", string(c.Operator))
	}
}
