package document

import (
	"context"
)

// Pipeline loads one source, tags and splits it, and stores the chunks in
// a namespace.
type Pipeline struct {
	loader    Loader
	splitter  Splitter
	store     *Store
	namespace string
	metadata  map[string]any
}

// NewPipeline writes into namespace. A nil splitter stores loaded
// documents whole.
func NewPipeline(loader Loader, splitter Splitter, store *Store, namespace string) *Pipeline {
	return &Pipeline{
		loader:    loader,
		splitter:  splitter,
		store:     store,
		namespace: namespace,
		metadata:  map[string]any{},
	}
}

// WithMetadata adds key=value to every loaded document.
func (p *Pipeline) WithMetadata(key string, value any) *Pipeline {
	p.metadata[key] = value
	return p
}

type PipelineResult struct {
	Loaded int
	Chunks int
}

func (p *Pipeline) Run(ctx context.Context) (*PipelineResult, error) {
	docs, err := p.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		d.WithMetadataMap(p.metadata)
		d.WithMetadata(MetadataNamespace, p.namespace)
	}

	chunks := docs
	if p.splitter != nil {
		if chunks, err = SplitAll(ctx, p.splitter, docs); err != nil {
			return nil, err
		}
	}

	n, err := p.store.Add(ctx, p.namespace, chunks)
	if err != nil {
		return nil, err
	}
	return &PipelineResult{Loaded: len(docs), Chunks: n}, nil
}
