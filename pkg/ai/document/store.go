package document

import (
	"context"
	"time"

	"github.com/Abraxas-365/superagent/pkg/ai/embedding"
	"github.com/Abraxas-365/superagent/pkg/ai/vstore"
	"github.com/Abraxas-365/superagent/pkg/asyncx"
	"github.com/Abraxas-365/superagent/pkg/logx"
	"github.com/google/uuid"
)

// Store embeds chunks and writes them to a vector namespace.
type Store struct {
	vectors   *vstore.Client
	embedder  embedding.Embedder
	batchSize int
	workers   int
	attempts  int
	backoff   time.Duration
}

type StoreOption func(*Store)

func WithBatchSize(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func WithWorkers(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithRetry sets how many times embedding and upsert calls are attempted.
func WithRetry(attempts int, backoff time.Duration) StoreOption {
	return func(s *Store) {
		if attempts > 0 {
			s.attempts = attempts
		}
		s.backoff = backoff
	}
}

func NewStore(vectors *vstore.Client, embedder embedding.Embedder, opts ...StoreOption) *Store {
	s := &Store{
		vectors:   vectors,
		embedder:  embedder,
		batchSize: 100,
		workers:   4,
		attempts:  3,
		backoff:   500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add embeds docs and upserts them into namespace. Every vector carries
// the chunk text under "content" and the namespace under "namespace".
// It returns the number of vectors written.
func (s *Store) Add(ctx context.Context, namespace string, docs []*Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	var batches [][]*Document
	for start := 0; start < len(docs); start += s.batchSize {
		batches = append(batches, docs[start:min(start+s.batchSize, len(docs))])
	}

	written, err := asyncx.Pool(ctx, s.workers, batches, func(ctx context.Context, batch []*Document) (int, error) {
		return s.addBatch(ctx, namespace, batch)
	})
	if err != nil {
		return 0, err
	}

	total := 0
	for _, n := range written {
		total += n
	}
	logx.WithFields(logx.Fields{
		"namespace": namespace,
		"chunks":    total,
		"batches":   len(batches),
	}).Debug("document chunks stored")
	return total, nil
}

func (s *Store) addBatch(ctx context.Context, namespace string, batch []*Document) (int, error) {
	texts := make([]string, len(batch))
	for i, d := range batch {
		texts[i] = d.Content
	}

	embeddings, err := asyncx.RetryWithBackoff(ctx, s.attempts, s.backoff, func(ctx context.Context) ([]embedding.Embedding, error) {
		return s.embedder.EmbedDocuments(ctx, texts)
	})
	if err != nil {
		return 0, ErrRegistry.NewWithCause(ErrEmbedFailed, err).WithDetail("namespace", namespace)
	}
	if len(embeddings) != len(batch) {
		return 0, ErrRegistry.New(ErrEmbedFailed).
			WithDetail("namespace", namespace).
			WithDetail("expected", len(batch)).
			WithDetail("got", len(embeddings))
	}

	vectors := make([]vstore.Vector, len(batch))
	for i, d := range batch {
		id := d.ID
		if id == "" {
			id = uuid.NewString()
		}
		md := make(map[string]any, len(d.Metadata)+2)
		for k, v := range d.Metadata {
			md[k] = v
		}
		md[MetadataContent] = d.Content
		md[MetadataNamespace] = namespace
		vectors[i] = vstore.Vector{ID: id, Values: embeddings[i].Vector, Metadata: md}
	}

	_, err = asyncx.RetryWithBackoff(ctx, s.attempts, s.backoff, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.vectors.Upsert(ctx, vectors, vstore.WithNamespace(namespace))
	})
	if err != nil {
		return 0, ErrRegistry.NewWithCause(ErrStoreFailed, err).WithDetail("namespace", namespace)
	}
	return len(vectors), nil
}

// Search returns the topK chunks of namespace closest to query.
func (s *Store) Search(ctx context.Context, namespace, query string, topK int, minScore float32) ([]*Document, []float32, error) {
	q, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, nil, ErrRegistry.NewWithCause(ErrEmbedFailed, err)
	}
	res, err := s.vectors.Query(ctx, q.Vector,
		vstore.WithNamespace(namespace),
		vstore.WithTopK(topK),
		vstore.WithMinScore(minScore),
	)
	if err != nil {
		return nil, nil, err
	}

	docs := make([]*Document, 0, len(res.Matches))
	scores := make([]float32, 0, len(res.Matches))
	for _, m := range res.Matches {
		docs = append(docs, fromMatch(m))
		scores = append(scores, m.Score)
	}
	return docs, scores, nil
}

// DeleteNamespace removes every chunk of namespace.
func (s *Store) DeleteNamespace(ctx context.Context, namespace string) error {
	return s.vectors.DeleteNamespace(ctx, namespace)
}

func fromMatch(m vstore.Match) *Document {
	doc := &Document{ID: m.ID, Metadata: make(Metadata, len(m.Metadata))}
	for k, v := range m.Metadata {
		if k == MetadataContent {
			doc.Content, _ = v.(string)
			continue
		}
		doc.Metadata[k] = v
	}
	return doc
}
