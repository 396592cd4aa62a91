package document

import (
	"context"
	"slices"
	"strings"
)

// Retriever searches several namespaces and merges the hits by score.
type Retriever struct {
	store      *Store
	namespaces []string
	topK       int
	minScore   float32
}

func NewRetriever(store *Store, namespaces ...string) *Retriever {
	return &Retriever{store: store, namespaces: namespaces, topK: 4}
}

func (r *Retriever) WithTopK(k int) *Retriever {
	if k > 0 {
		r.topK = k
	}
	return r
}

func (r *Retriever) WithMinScore(score float32) *Retriever {
	r.minScore = score
	return r
}

func (r *Retriever) Namespaces() []string { return r.namespaces }

func (r *Retriever) Retrieve(ctx context.Context, query string) ([]*Document, error) {
	type hit struct {
		doc   *Document
		score float32
	}

	var hits []hit
	for _, ns := range r.namespaces {
		docs, scores, err := r.store.Search(ctx, ns, query, r.topK, r.minScore)
		if err != nil {
			return nil, err
		}
		for i, d := range docs {
			hits = append(hits, hit{doc: d, score: scores[i]})
		}
	}

	slices.SortStableFunc(hits, func(a, b hit) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})
	if len(hits) > r.topK {
		hits = hits[:r.topK]
	}

	out := make([]*Document, len(hits))
	for i, h := range hits {
		out[i] = h.doc
	}
	return out, nil
}

// ContextBuilder joins retrieved chunks into a prompt section.
type ContextBuilder struct {
	Separator string
	MaxLength int
}

func NewContextBuilder() *ContextBuilder {
	return &ContextBuilder{Separator: "\n\n---\n\n", MaxLength: 8000}
}

func (cb *ContextBuilder) Build(docs []*Document) string {
	var b strings.Builder
	for i, d := range docs {
		part := d.Content
		if i > 0 {
			part = cb.Separator + part
		}
		if cb.MaxLength > 0 && b.Len()+len(part) > cb.MaxLength {
			break
		}
		b.WriteString(part)
	}
	return b.String()
}
