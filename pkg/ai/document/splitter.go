package document

import (
	"context"
	"strings"
)

// Splitter breaks a document into chunks. Chunks inherit the source
// metadata plus chunk_index.
type Splitter interface {
	Split(ctx context.Context, doc *Document) ([]*Document, error)
}

type SplitterType string

const (
	SplitterCharacter SplitterType = "character"
	SplitterRecursive SplitterType = "recursive"
	SplitterToken     SplitterType = "token"
)

type SplitterConfig struct {
	Type         SplitterType `json:"type"`
	ChunkSize    int          `json:"chunk_size"`
	ChunkOverlap int          `json:"chunk_overlap"`
}

func DefaultSplitterConfig() SplitterConfig {
	return SplitterConfig{Type: SplitterRecursive, ChunkSize: 1000, ChunkOverlap: 20}
}

// NewSplitter builds the splitter named by cfg. Zero fields take the
// recursive 1000/20 defaults.
func NewSplitter(cfg SplitterConfig) (Splitter, error) {
	def := DefaultSplitterConfig()
	if cfg.Type == "" {
		cfg.Type = def.Type
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = 0
	}

	switch cfg.Type {
	case SplitterCharacter:
		return NewCharacterSplitter(cfg.ChunkSize, cfg.ChunkOverlap), nil
	case SplitterRecursive:
		return NewRecursiveSplitter(cfg.ChunkSize, cfg.ChunkOverlap), nil
	case SplitterToken:
		return NewTokenSplitter(cfg.ChunkSize, cfg.ChunkOverlap, WordCounter), nil
	default:
		return nil, ErrRegistry.New(ErrUnsupportedSplitter).WithDetail("type", string(cfg.Type))
	}
}

// SplitAll runs s over every document.
func SplitAll(ctx context.Context, s Splitter, docs []*Document) ([]*Document, error) {
	var out []*Document
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunks, err := s.Split(ctx, d)
		if err != nil {
			return nil, err
		}
		out = append(out, chunks...)
	}
	return out, nil
}

func chunked(doc *Document, texts []string) []*Document {
	out := make([]*Document, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		c := doc.Clone()
		c.Content = t
		c.WithMetadata(MetadataChunkIndex, len(out))
		out = append(out, c)
	}
	return out
}

// CharacterSplitter splits on one separator and packs the pieces into
// chunks of at most ChunkSize characters.
type CharacterSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separator    string
}

func NewCharacterSplitter(chunkSize, chunkOverlap int) *CharacterSplitter {
	return &CharacterSplitter{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap, Separator: "\n\n"}
}

func (s *CharacterSplitter) Split(_ context.Context, doc *Document) ([]*Document, error) {
	if doc == nil || doc.Content == "" {
		return nil, nil
	}
	parts := strings.Split(doc.Content, s.Separator)
	return chunked(doc, merge(parts, s.Separator, s.ChunkSize, s.ChunkOverlap)), nil
}

// RecursiveSplitter tries separators from coarse to fine until every
// piece fits, then packs the pieces.
type RecursiveSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

func NewRecursiveSplitter(chunkSize, chunkOverlap int) *RecursiveSplitter {
	return &RecursiveSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separators:   []string{"\n\n", "\n", " ", ""},
	}
}

func (s *RecursiveSplitter) Split(_ context.Context, doc *Document) ([]*Document, error) {
	if doc == nil || doc.Content == "" {
		return nil, nil
	}
	return chunked(doc, s.split(doc.Content, s.Separators)), nil
}

func (s *RecursiveSplitter) split(text string, separators []string) []string {
	if len(text) <= s.ChunkSize {
		return []string{text}
	}

	sep, rest := "", []string(nil)
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep, rest = candidate, separators[i+1:]
			break
		}
	}
	if sep == "" {
		return byRunes(text, s.ChunkSize, s.ChunkOverlap)
	}

	var (
		out   []string
		small []string
	)
	for _, part := range strings.Split(text, sep) {
		if len(part) <= s.ChunkSize {
			small = append(small, part)
			continue
		}
		if len(small) > 0 {
			out = append(out, merge(small, sep, s.ChunkSize, s.ChunkOverlap)...)
			small = nil
		}
		out = append(out, s.split(part, rest)...)
	}
	if len(small) > 0 {
		out = append(out, merge(small, sep, s.ChunkSize, s.ChunkOverlap)...)
	}
	return out
}

// TokenCounter counts tokens in text.
type TokenCounter func(text string) int

// WordCounter treats each whitespace-separated word as one token.
func WordCounter(text string) int { return len(strings.Fields(text)) }

// TokenSplitter packs words into chunks of at most ChunkSize tokens,
// repeating the last ChunkOverlap words of each chunk at the start of the
// next.
type TokenSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	Counter      TokenCounter
}

func NewTokenSplitter(chunkSize, chunkOverlap int, counter TokenCounter) *TokenSplitter {
	if counter == nil {
		counter = WordCounter
	}
	return &TokenSplitter{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap, Counter: counter}
}

func (s *TokenSplitter) Split(_ context.Context, doc *Document) ([]*Document, error) {
	if doc == nil || doc.Content == "" {
		return nil, nil
	}

	var (
		chunks  []string
		current []string
		tokens  int
	)
	for _, word := range strings.Fields(doc.Content) {
		n := s.Counter(word)
		if tokens+n > s.ChunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			keep := min(s.ChunkOverlap, len(current)-1)
			current = append([]string(nil), current[len(current)-keep:]...)
			tokens = s.Counter(strings.Join(current, " "))
		}
		current = append(current, word)
		tokens += n
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunked(doc, chunks), nil
}

// merge packs parts joined by sep into chunks no longer than size. A part
// longer than size becomes its own chunk. Each new chunk starts with the
// trailing parts of the previous one that fit in overlap.
func merge(parts []string, sep string, size, overlap int) []string {
	var (
		out     []string
		window  []string
		written int
	)
	for _, p := range parts {
		if p == "" {
			continue
		}
		add := len(p)
		if len(window) > 0 {
			add += len(sep)
		}
		if written+add > size && len(window) > 0 {
			out = append(out, strings.TrimSpace(strings.Join(window, sep)))
			for len(window) > 0 && (written > overlap || written+len(p)+len(sep) > size) {
				written -= len(window[0])
				if len(window) > 1 {
					written -= len(sep)
				}
				window = window[1:]
			}
			add = len(p)
			if len(window) > 0 {
				add += len(sep)
			}
		}
		window = append(window, p)
		written += add
	}
	if len(window) > 0 {
		out = append(out, strings.TrimSpace(strings.Join(window, sep)))
	}
	return out
}

func byRunes(text string, size, overlap int) []string {
	runes := []rune(text)
	step := max(size-overlap, 1)
	var out []string
	for i := 0; i < len(runes); i += step {
		end := min(i+size, len(runes))
		out = append(out, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}
