// Package embedding defines the text embedding contract shared by the
// providers, the document store and the retriever.
package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

type Usage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type Embedding struct {
	Vector []float32 `json:"vector"`
	Usage  Usage     `json:"usage,omitempty"`
}

type Embedder interface {
	EmbedDocuments(ctx context.Context, documents []string, opts ...Option) ([]Embedding, error)
	EmbedQuery(ctx context.Context, text string, opts ...Option) (Embedding, error)
}

type Options struct {
	Model      string
	Dimensions int
	User       string
}

type Option func(*Options)

func DefaultOptions() *Options {
	return &Options{}
}

func WithModel(model string) Option {
	return func(o *Options) { o.Model = model }
}

func WithDimensions(d int) Option {
	return func(o *Options) { o.Dimensions = d }
}

// HashEmbedder is a deterministic bag-of-words embedder. It needs no
// network and backs local development and tests.
type HashEmbedder struct {
	Dim int
}

func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 64
	}
	return &HashEmbedder{Dim: dim}
}

func (h *HashEmbedder) EmbedDocuments(ctx context.Context, documents []string, opts ...Option) ([]Embedding, error) {
	out := make([]Embedding, len(documents))
	for i, d := range documents {
		e, err := h.EmbedQuery(ctx, d, opts...)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func (h *HashEmbedder) EmbedQuery(_ context.Context, text string, _ ...Option) (Embedding, error) {
	vec := make([]float32, h.Dim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		f := fnv.New32a()
		_, _ = f.Write([]byte(tok))
		vec[int(f.Sum32())%h.Dim]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm > 0 {
		n := float32(math.Sqrt(norm))
		for i := range vec {
			vec[i] /= n
		}
	}
	return Embedding{Vector: vec}, nil
}
