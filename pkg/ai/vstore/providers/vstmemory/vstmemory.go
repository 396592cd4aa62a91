// Package vstmemory is an in-process vector store for tests and local runs.
package vstmemory

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/Abraxas-365/superagent/pkg/ai/vstore"
)

// MemoryVectorStore keeps vectors per namespace in maps.
type MemoryVectorStore struct {
	mu        sync.RWMutex
	spaces    map[string]map[string]vstore.Vector
	dimension int
	metric    vstore.Metric
}

// NewMemoryVectorStore returns an empty store. A zero dimension accepts
// any vector length.
func NewMemoryVectorStore(dimension int, metric vstore.Metric) *MemoryVectorStore {
	if metric == "" {
		metric = vstore.MetricCosine
	}
	return &MemoryVectorStore{
		spaces:    make(map[string]map[string]vstore.Vector),
		dimension: dimension,
		metric:    metric,
	}
}

func (m *MemoryVectorStore) Upsert(_ context.Context, vectors []vstore.Vector, opts ...vstore.Option) error {
	ns := vstore.ApplyOptions(opts...).Namespace

	m.mu.Lock()
	defer m.mu.Unlock()

	space, ok := m.spaces[ns]
	if !ok {
		space = make(map[string]vstore.Vector)
		m.spaces[ns] = space
	}
	for _, v := range vectors {
		if m.dimension > 0 && len(v.Values) != m.dimension {
			return fmt.Errorf("vector dimension mismatch: expected %d, got %d", m.dimension, len(v.Values))
		}
		space[v.ID] = vstore.Vector{
			ID:       v.ID,
			Values:   slices.Clone(v.Values),
			Metadata: maps.Clone(v.Metadata),
		}
	}
	return nil
}

func (m *MemoryVectorStore) Query(_ context.Context, vector []float32, opts ...vstore.Option) (*vstore.QueryResult, error) {
	o := vstore.ApplyOptions(opts...)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []vstore.Match
	for _, v := range m.spaces[o.Namespace] {
		if len(v.Values) != len(vector) {
			continue
		}
		if o.Filter != nil && !matchesFilter(v.Metadata, o.Filter) {
			continue
		}
		score := m.similarity(vector, v.Values)
		if score < o.MinScore {
			continue
		}
		matches = append(matches, vstore.Match{ID: v.ID, Score: score, Metadata: maps.Clone(v.Metadata)})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})
	if o.TopK > 0 && len(matches) > o.TopK {
		matches = matches[:o.TopK]
	}

	return &vstore.QueryResult{Matches: matches, Namespace: o.Namespace}, nil
}

func (m *MemoryVectorStore) Delete(_ context.Context, ids []string, opts ...vstore.Option) error {
	ns := vstore.ApplyOptions(opts...).Namespace

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.spaces[ns], id)
	}
	return nil
}

func (m *MemoryVectorStore) DeleteNamespace(_ context.Context, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.spaces, namespace)
	return nil
}

func (m *MemoryVectorStore) ListNamespaces(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.spaces)), nil
}

// Count returns the number of vectors in a namespace.
func (m *MemoryVectorStore) Count(namespace string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.spaces[namespace])
}

func (m *MemoryVectorStore) similarity(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}

	switch m.metric {
	case vstore.MetricDotProduct:
		return float32(dot)
	case vstore.MetricEuclidean:
		var sum float64
		for i := range a {
			d := float64(a[i] - b[i])
			sum += d * d
		}
		return float32(1 / (1 + math.Sqrt(sum)))
	default:
		if na == 0 || nb == 0 {
			return 0
		}
		return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
	}
}

func matchesFilter(metadata map[string]any, f *vstore.Filter) bool {
	for _, c := range f.Must {
		v, ok := metadata[c.Field]
		switch c.Operator {
		case vstore.OpExists:
			if !ok {
				return false
			}
		case vstore.OpEqual:
			if !ok || fmt.Sprint(v) != fmt.Sprint(c.Value) {
				return false
			}
		case vstore.OpNotEqual:
			if ok && fmt.Sprint(v) == fmt.Sprint(c.Value) {
				return false
			}
		case vstore.OpIn:
			values, _ := c.Value.([]string)
			if !ok || !slices.Contains(values, fmt.Sprint(v)) {
				return false
			}
		}
	}
	return true
}
