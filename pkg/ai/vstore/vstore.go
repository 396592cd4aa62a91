// Package vstore abstracts the vector index that backs document retrieval.
// Every ingested document lives in its own namespace.
package vstore

import "context"

// VectorStorer is the capability every backend must provide.
type VectorStorer interface {
	Upsert(ctx context.Context, vectors []Vector, opts ...Option) error
	Query(ctx context.Context, vector []float32, opts ...Option) (*QueryResult, error)
	Delete(ctx context.Context, ids []string, opts ...Option) error
}

// NamespaceManager is implemented by backends that can drop a namespace
// wholesale.
type NamespaceManager interface {
	DeleteNamespace(ctx context.Context, namespace string) error
	ListNamespaces(ctx context.Context) ([]string, error)
}

type Vector struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

type QueryResult struct {
	Matches   []Match
	Namespace string
}

type Match struct {
	ID       string
	Score    float32
	Metadata map[string]any
}

// Filter restricts a query to vectors whose metadata satisfies every
// Must condition.
type Filter struct {
	Must []Condition
}

type Condition struct {
	Field    string
	Operator FilterOperator
	Value    any
}

type FilterOperator string

const (
	OpEqual    FilterOperator = "eq"
	OpNotEqual FilterOperator = "ne"
	OpIn       FilterOperator = "in"
	OpExists   FilterOperator = "exists"
)

func NewFilter() *Filter {
	return &Filter{}
}

func (f *Filter) AddMust(field string, op FilterOperator, value any) *Filter {
	f.Must = append(f.Must, Condition{Field: field, Operator: op, Value: value})
	return f
}

type Metric string

const (
	MetricCosine     Metric = "cosine"
	MetricEuclidean  Metric = "euclidean"
	MetricDotProduct Metric = "dotproduct"
)

// BatchResult summarizes a batched upsert.
type BatchResult struct {
	SuccessCount int
	FailedCount  int
	Errors       []BatchError
}

type BatchError struct {
	ID    string
	Error string
}
