package document

import (
	"context"
	"strings"
	"testing"

	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSplitterDefaults(t *testing.T) {
	s, err := NewSplitter(SplitterConfig{})
	require.NoError(t, err)

	rs, ok := s.(*RecursiveSplitter)
	require.True(t, ok)
	assert.Equal(t, 1000, rs.ChunkSize)
	assert.Equal(t, 20, rs.ChunkOverlap)
}

func TestNewSplitterUnknownType(t *testing.T) {
	_, err := NewSplitter(SplitterConfig{Type: "semantic"})
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, ErrUnsupportedSplitter))
}

func TestRecursiveSplitterKeepsChunksUnderSize(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet. ", 40) + "\n\n" + strings.Repeat("consectetur adipiscing ", 30)
	doc := NewDocument(text).WithMetadata(MetadataSource, "a.txt")

	chunks, err := NewRecursiveSplitter(100, 10).Split(context.Background(), doc)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	for i, c := range chunks {
		assert.LessOrEqual(t, len(c.Content), 100)
		assert.Equal(t, "a.txt", c.Metadata[MetadataSource])
		assert.Equal(t, i, c.Metadata[MetadataChunkIndex])
	}
	_, tagged := doc.Metadata[MetadataChunkIndex]
	assert.False(t, tagged, "source document must not be mutated")
}

func TestRecursiveSplitterShortTextIsOneChunk(t *testing.T) {
	chunks, err := NewRecursiveSplitter(1000, 20).Split(context.Background(), NewDocument("hello world"))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0].Content)
}

func TestRecursiveSplitterFallsBackToRunes(t *testing.T) {
	chunks, err := NewRecursiveSplitter(10, 0).Split(context.Background(), NewDocument(strings.Repeat("x", 35)))
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	assert.Equal(t, "xxxxx", chunks[3].Content)
}

func TestCharacterSplitterPacksParagraphs(t *testing.T) {
	doc := NewDocument("one\n\ntwo\n\nthree\n\nfour")

	chunks, err := NewCharacterSplitter(12, 0).Split(context.Background(), doc)
	require.NoError(t, err)

	var got []string
	for _, c := range chunks {
		got = append(got, c.Content)
	}
	assert.Equal(t, []string{"one\n\ntwo", "three\n\nfour"}, got)
}

func TestTokenSplitterOverlap(t *testing.T) {
	doc := NewDocument("a b c d e f g")

	chunks, err := NewTokenSplitter(3, 1, nil).Split(context.Background(), doc)
	require.NoError(t, err)

	var got []string
	for _, c := range chunks {
		got = append(got, c.Content)
	}
	assert.Equal(t, []string{"a b c", "c d e", "e f g"}, got)
}

func TestSplitAllSkipsEmptyDocuments(t *testing.T) {
	s, err := NewSplitter(SplitterConfig{Type: SplitterCharacter, ChunkSize: 50})
	require.NoError(t, err)

	out, err := SplitAll(context.Background(), s, []*Document{NewDocument(""), NewDocument("kept")})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "kept", out[0].Content)
}
