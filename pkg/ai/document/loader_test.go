package document

import (
	"context"
	"errors"
	"testing"

	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	bodies   map[string]string
	posted   []any
	headers  []map[string]string
	requests []string
}

func (f *stubFetcher) Get(_ context.Context, url string) ([]byte, error) {
	f.requests = append(f.requests, url)
	body, ok := f.bodies[url]
	if !ok {
		return nil, errors.New("not found: " + url)
	}
	return []byte(body), nil
}

func (f *stubFetcher) PostJSON(_ context.Context, url string, headers map[string]string, body any) ([]byte, error) {
	f.posted = append(f.posted, body)
	f.headers = append(f.headers, headers)
	return f.Get(context.Background(), url)
}

func TestTextLoader(t *testing.T) {
	f := &stubFetcher{bodies: map[string]string{"https://x/a.txt": "plain text"}}

	docs, err := NewTextLoader(f, "https://x/a.txt").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "plain text", docs[0].Content)
	assert.Equal(t, "https://x/a.txt", docs[0].Metadata[MetadataSource])
}

func TestURLLoaderDropsScripts(t *testing.T) {
	page := `<html><head><title> Docs </title><script>var x = 1;</script></head>
<body><h1>Hello</h1><style>p{}</style><p>Some   body
text</p></body></html>`
	f := &stubFetcher{bodies: map[string]string{"https://x/page": page}}

	docs, err := NewURLLoader(f, "https://x/page").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Hello\nSome body text", docs[0].Content)
	assert.Equal(t, "Docs", docs[0].Metadata[MetadataTitle])
}

func TestVideoID(t *testing.T) {
	assert.Equal(t, "abc123", VideoID("https://www.youtube.com/watch?v=abc123"))
	assert.Equal(t, "raw", VideoID("raw"))
}

func TestYouTubeLoader(t *testing.T) {
	xmlBody := `<?xml version="1.0" encoding="utf-8" ?><transcript>` +
		`<text start="0" dur="1.5">Hello &amp;amp; welcome</text>` +
		`<text start="1.5" dur="2">to the show</text></transcript>`
	f := &stubFetcher{bodies: map[string]string{TranscriptURL + "abc123": xmlBody}}

	docs, err := NewYouTubeLoader(f, "https://youtube.com/watch?v=abc123").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Hello & welcome to the show", docs[0].Content)
	assert.Equal(t, "abc123", docs[0].Metadata[MetadataSource])
}

func TestMarkdownLoader(t *testing.T) {
	md := "# Guide\n\nSome **bold** text.\n\n- item one\n- item two\n\n```\ncode line\n```\n"
	f := &stubFetcher{bodies: map[string]string{"https://x/r.md": md}}

	docs, err := NewMarkdownLoader(f, "https://x/r.md").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)

	content := docs[0].Content
	assert.Equal(t, "Guide", docs[0].Metadata[MetadataTitle])
	assert.Contains(t, content, "Some bold text.")
	assert.Contains(t, content, "item one")
	assert.Contains(t, content, "code line")
	assert.NotContains(t, content, "**")
	assert.NotContains(t, content, "#")
}

type stubRecords []map[string]any

func (s stubRecords) Records(context.Context, string) ([]map[string]any, error) { return s, nil }

func TestFirestoreLoaderRendersRecords(t *testing.T) {
	src := stubRecords{
		{"name": "Ada", "age": 36},
		{"name": "Linus"},
	}

	docs, err := NewFirestoreLoader(src, "people").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "age: 36, name: Ada", docs[0].Content)
	assert.Equal(t, "name: Linus", docs[1].Content)
}

func TestFirestoreLoaderRequiresCollection(t *testing.T) {
	_, err := NewFirestoreLoader(stubRecords{}, "").Load(context.Background())
	assert.True(t, errx.IsCode(err, ErrInvalidSource))
}

type closingRecords struct {
	stubRecords
	closed bool
}

func (c *closingRecords) Close() error {
	c.closed = true
	return nil
}

func TestServiceAccountSourceUsesKeyProject(t *testing.T) {
	key := []byte(`{"type":"service_account","project_id":"acme-prod"}`)
	conn := &closingRecords{stubRecords: stubRecords{{"q": "hours?"}}}
	var project string
	var gotKey []byte
	src, err := NewServiceAccountSource(func(_ context.Context, p string, k []byte) (RecordSource, error) {
		project, gotKey = p, k
		return conn, nil
	}, key)
	require.NoError(t, err)

	docs, err := NewFirestoreLoader(src, "faq").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "q: hours?", docs[0].Content)
	assert.Equal(t, "acme-prod", project)
	assert.Equal(t, key, gotKey)
	assert.True(t, conn.closed)
}

func TestProjectFromKeyRejectsBadKeys(t *testing.T) {
	for _, key := range []string{"", "not json", `{"type":"service_account"}`} {
		_, err := ProjectFromKey([]byte(key))
		assert.True(t, errx.IsCode(err, ErrInvalidSource), key)
	}
}

func TestPsychicLoader(t *testing.T) {
	f := &stubFetcher{bodies: map[string]string{
		PsychicURL: `{"documents":[{"title":"Page","content":"synced text","uri":"https://notion/x"}]}`,
	}}

	docs, err := NewPsychicLoader(f, "sk", "notion", "user-1").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "synced text", docs[0].Content)
	assert.Equal(t, "Page", docs[0].Metadata[MetadataTitle])

	require.Len(t, f.posted, 1)
	assert.Equal(t, map[string]string{"connector_id": "notion", "account_id": "user-1"}, f.posted[0])
	assert.Equal(t, "Bearer sk", f.headers[0]["Authorization"])
}

func TestPsychicLoaderRequiresConnector(t *testing.T) {
	_, err := NewPsychicLoader(&stubFetcher{}, "sk", "", "user-1").Load(context.Background())
	assert.True(t, errx.IsCode(err, ErrInvalidSource))
}

func TestPDFRejectsGarbage(t *testing.T) {
	_, err := ParsePDF([]byte("not a pdf"), "x.pdf", 0, 0)
	assert.True(t, errx.IsCode(err, ErrParseFailed))
}

func TestPageRange(t *testing.T) {
	first, last := pageRange(10, 0, 0)
	assert.Equal(t, [2]int{1, 10}, [2]int{first, last})

	first, last = pageRange(10, 3, 5)
	assert.Equal(t, [2]int{3, 5}, [2]int{first, last})

	first, last = pageRange(4, 2, 99)
	assert.Equal(t, [2]int{2, 4}, [2]int{first, last})
}
