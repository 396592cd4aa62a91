package vstore

import (
	"context"
	"net/http"

	"github.com/Abraxas-365/superagent/pkg/errx"
)

var (
	errorRegistry = errx.NewRegistry("VSTORE")

	ErrNamespaceUnsupported = errorRegistry.Register("NAMESPACE_UNSUPPORTED", errx.TypeInternal, http.StatusNotImplemented, "Vector store cannot manage namespaces")
	ErrEmptyQuery           = errorRegistry.Register("EMPTY_QUERY", errx.TypeValidation, http.StatusBadRequest, "Query vector is empty")
)

// Client fronts a VectorStorer and adds batching plus optional namespace
// management.
type Client struct {
	storer     VectorStorer
	namespaces NamespaceManager
}

func NewClient(storer VectorStorer) *Client {
	c := &Client{storer: storer}
	if nm, ok := storer.(NamespaceManager); ok {
		c.namespaces = nm
	}
	return c
}

func (c *Client) Upsert(ctx context.Context, vectors []Vector, opts ...Option) error {
	return c.storer.Upsert(ctx, vectors, opts...)
}

func (c *Client) Query(ctx context.Context, vector []float32, opts ...Option) (*QueryResult, error) {
	if len(vector) == 0 {
		return nil, errorRegistry.New(ErrEmptyQuery)
	}
	return c.storer.Query(ctx, vector, opts...)
}

func (c *Client) Delete(ctx context.Context, ids []string, opts ...Option) error {
	return c.storer.Delete(ctx, ids, opts...)
}

// UpsertBatch upserts in chunks of Options.BatchSize and keeps going past
// failed chunks.
func (c *Client) UpsertBatch(ctx context.Context, vectors []Vector, opts ...Option) *BatchResult {
	size := ApplyOptions(opts...).BatchSize
	if size <= 0 {
		size = 100
	}

	res := &BatchResult{}
	for i := 0; i < len(vectors); i += size {
		batch := vectors[i:min(i+size, len(vectors))]
		if err := c.storer.Upsert(ctx, batch, opts...); err != nil {
			res.FailedCount += len(batch)
			for _, v := range batch {
				res.Errors = append(res.Errors, BatchError{ID: v.ID, Error: err.Error()})
			}
			continue
		}
		res.SuccessCount += len(batch)
	}
	return res
}

func (c *Client) DeleteNamespace(ctx context.Context, namespace string) error {
	if c.namespaces == nil {
		return errorRegistry.New(ErrNamespaceUnsupported)
	}
	return c.namespaces.DeleteNamespace(ctx, namespace)
}

func (c *Client) ListNamespaces(ctx context.Context) ([]string, error) {
	if c.namespaces == nil {
		return nil, errorRegistry.New(ErrNamespaceUnsupported)
	}
	return c.namespaces.ListNamespaces(ctx)
}
