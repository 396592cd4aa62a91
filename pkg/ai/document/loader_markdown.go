package document

import (
	"bytes"
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownLoader loads a markdown file as plain text.
type MarkdownLoader struct {
	fetcher Fetcher
	url     string
}

func NewMarkdownLoader(fetcher Fetcher, url string) *MarkdownLoader {
	return &MarkdownLoader{fetcher: fetcher, url: url}
}

func (l *MarkdownLoader) Load(ctx context.Context) ([]*Document, error) {
	body, err := l.fetcher.Get(ctx, l.url)
	if err != nil {
		return nil, err
	}
	title, content := ParseMarkdown(body)
	doc := NewDocument(content).WithMetadata(MetadataSource, l.url)
	if title != "" {
		doc.WithMetadata(MetadataTitle, title)
	}
	return []*Document{doc}, nil
}

// ParseMarkdown strips markdown syntax, keeping one block per line. The
// first level-one heading is returned as the title.
func ParseMarkdown(src []byte) (string, string) {
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	var (
		buf   bytes.Buffer
		title string
	)
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Heading:
			if entering && node.Level == 1 && title == "" {
				title = string(plain(node, src))
			}
		case *ast.Text:
			if entering {
				buf.Write(node.Segment.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					buf.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				buf.Write(node.Value)
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					buf.Write(seg.Value(src))
				}
			}
			return ast.WalkSkipChildren, nil
		}
		if !entering && n.Type() == ast.TypeBlock && buf.Len() > 0 && buf.Bytes()[buf.Len()-1] != '\n' {
			buf.WriteByte('\n')
		}
		return ast.WalkContinue, nil
	})

	return title, strings.TrimSpace(buf.String())
}

func plain(n ast.Node, src []byte) []byte {
	var out []byte
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			out = append(out, t.Segment.Value(src)...)
			continue
		}
		out = append(out, plain(c, src)...)
	}
	return out
}
