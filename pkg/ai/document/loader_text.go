package document

import (
	"context"
	"strings"
)

// TextLoader loads a plain-text file as a single document.
type TextLoader struct {
	fetcher Fetcher
	url     string
}

func NewTextLoader(fetcher Fetcher, url string) *TextLoader {
	return &TextLoader{fetcher: fetcher, url: url}
}

func (l *TextLoader) Load(ctx context.Context) ([]*Document, error) {
	body, err := l.fetcher.Get(ctx, l.url)
	if err != nil {
		return nil, err
	}
	text := strings.ToValidUTF8(string(body), "")
	return []*Document{NewDocument(text).WithMetadata(MetadataSource, l.url)}, nil
}
