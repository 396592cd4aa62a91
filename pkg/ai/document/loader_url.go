package document

import (
	"bytes"
	"context"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// URLLoader loads the visible text of a web page.
type URLLoader struct {
	fetcher Fetcher
	url     string
}

func NewURLLoader(fetcher Fetcher, url string) *URLLoader {
	return &URLLoader{fetcher: fetcher, url: url}
}

func (l *URLLoader) Load(ctx context.Context) ([]*Document, error) {
	body, err := l.fetcher.Get(ctx, l.url)
	if err != nil {
		return nil, err
	}
	title, text, err := ParseHTML(body)
	if err != nil {
		return nil, ErrRegistry.NewWithCause(ErrParseFailed, err).WithDetail("source", l.url)
	}
	doc := NewDocument(text).WithMetadata(MetadataSource, l.url)
	if title != "" {
		doc.WithMetadata(MetadataTitle, title)
	}
	return []*Document{doc}, nil
}

// ParseHTML returns the page title and its text content with script,
// style and similar elements removed.
func ParseHTML(data []byte) (string, string, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", "", err
	}

	var (
		title string
		lines []string
		walk  func(*html.Node)
	)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Svg, atom.Iframe:
				return
			case atom.Title:
				if n.FirstChild != nil && title == "" {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.Join(strings.Fields(n.Data), " "); t != "" {
				lines = append(lines, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return title, strings.Join(lines, "\n"), nil
}
