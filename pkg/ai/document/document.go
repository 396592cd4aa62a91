// Package document turns source material into embedded chunks in a vector
// namespace and reads them back for retrieval.
package document

import (
	"context"
	"maps"
)

// Document is a unit of text with metadata, before or after splitting.
type Document struct {
	ID       string
	Content  string
	Metadata Metadata
}

type Metadata map[string]any

const (
	MetadataSource     = "source"
	MetadataTitle      = "title"
	MetadataPage       = "page"
	MetadataChunkIndex = "chunk_index"
	MetadataNamespace  = "namespace"
	MetadataLanguage   = "language"
	MetadataContent    = "content"
)

func NewDocument(content string) *Document {
	return &Document{Content: content, Metadata: make(Metadata)}
}

func (d *Document) WithMetadata(key string, value any) *Document {
	if d.Metadata == nil {
		d.Metadata = make(Metadata)
	}
	d.Metadata[key] = value
	return d
}

func (d *Document) WithMetadataMap(m map[string]any) *Document {
	for k, v := range m {
		d.WithMetadata(k, v)
	}
	return d
}

// Clone copies the document; metadata values are shared.
func (d *Document) Clone() *Document {
	return &Document{ID: d.ID, Content: d.Content, Metadata: maps.Clone(d.Metadata)}
}

// Loader produces documents from one source.
type Loader interface {
	Load(ctx context.Context) ([]*Document, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) ([]*Document, error)

func (f LoaderFunc) Load(ctx context.Context) ([]*Document, error) { return f(ctx) }

// Tag sets key=value on every document.
func Tag(docs []*Document, key string, value any) []*Document {
	for _, d := range docs {
		d.WithMetadata(key, value)
	}
	return docs
}
