package document

import (
	"bytes"
	"context"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFLoader loads one document per page. FromPage and ToPage are 1-based
// and inclusive; zero means unbounded.
type PDFLoader struct {
	fetcher  Fetcher
	url      string
	fromPage int
	toPage   int
}

func NewPDFLoader(fetcher Fetcher, url string, fromPage, toPage int) *PDFLoader {
	return &PDFLoader{fetcher: fetcher, url: url, fromPage: fromPage, toPage: toPage}
}

func (l *PDFLoader) Load(ctx context.Context) ([]*Document, error) {
	body, err := l.fetcher.Get(ctx, l.url)
	if err != nil {
		return nil, err
	}
	return ParsePDF(body, l.url, l.fromPage, l.toPage)
}

// ParsePDF extracts the text of pages [fromPage, toPage].
func ParsePDF(data []byte, source string, fromPage, toPage int) (docs []*Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			docs, err = nil, ErrRegistry.New(ErrParseFailed).WithDetail("source", source).WithDetail("panic", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, ErrRegistry.NewWithCause(ErrParseFailed, err).WithDetail("source", source)
	}

	first, last := pageRange(r.NumPage(), fromPage, toPage)
	for i := first; i <= last; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, ErrRegistry.NewWithCause(ErrParseFailed, err).
				WithDetail("source", source).
				WithDetail("page", i)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, NewDocument(text).
			WithMetadata(MetadataSource, source).
			WithMetadata(MetadataPage, i))
	}
	return docs, nil
}

func pageRange(total, from, to int) (int, int) {
	first, last := 1, total
	if from > 0 {
		first = from
	}
	if to > 0 && to < last {
		last = to
	}
	return first, last
}
