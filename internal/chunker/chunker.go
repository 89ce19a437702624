package chunker

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"faqbot/internal/domain"
)

const (
	// DefaultSize is the default number of words per chunk.
	DefaultSize = 500
	// DefaultOverlap is the default number of words shared by consecutive chunks.
	DefaultOverlap = 50

	// idPrefixChars is how much chunk text feeds the chunk ID hash.
	idPrefixChars = 50
	// idHashChars is how many hex digits of the hash are kept.
	idHashChars = 12
)

// WordChunker splits document text into overlapping windows of words.
type WordChunker struct {
	size    int
	overlap int
}

// Option configures a WordChunker.
type Option func(*WordChunker)

// WithSize sets the window size in words. Non-positive values are ignored.
func WithSize(words int) Option {
	return func(c *WordChunker) {
		if words > 0 {
			c.size = words
		}
	}
}

// WithOverlap sets the overlap in words. Negative values are ignored.
func WithOverlap(words int) Option {
	return func(c *WordChunker) {
		if words >= 0 {
			c.overlap = words
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *WordChunker {
	c := &WordChunker{size: DefaultSize, overlap: DefaultOverlap}
	for _, opt := range opts {
		opt(c)
	}
	// The window must advance on every step.
	if c.overlap >= c.size {
		c.overlap = c.size / 4
	}
	return c
}

// Size returns the window size in words.
func (c *WordChunker) Size() int { return c.size }

// Overlap returns the overlap in words.
func (c *WordChunker) Overlap() int { return c.overlap }

// Chunk splits a single document. Chunk IDs depend only on the document ID,
// the chunk position and the chunk text, so re-chunking unchanged input
// yields identical IDs.
func (c *WordChunker) Chunk(doc domain.Document) []domain.Chunk {
	var chunks []domain.Chunk
	for i, text := range c.split(doc.Text) {
		chunks = append(chunks, domain.Chunk{
			ID:       ChunkID(doc.ID, i, text),
			Text:     text,
			Source:   doc.Source,
			DocID:    doc.ID,
			ChunkIdx: i,
		})
	}
	return chunks
}

// ChunkAll chunks every document in order and fails if nothing survives.
func (c *WordChunker) ChunkAll(docs []domain.Document) ([]domain.Chunk, error) {
	var all []domain.Chunk
	for _, d := range docs {
		all = append(all, c.Chunk(d)...)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("chunk %d documents: %w", len(docs), domain.ErrEmptyCorpus)
	}
	return all, nil
}

func (c *WordChunker) split(text string) []string {
	words := strings.Fields(text)

	var out []string
	for start := 0; start < len(words); {
		end := start + c.size
		if end > len(words) {
			end = len(words)
		}
		if chunk := strings.TrimSpace(strings.Join(words[start:end], " ")); chunk != "" {
			out = append(out, chunk)
		}
		if end >= len(words) {
			break
		}
		start = end - c.overlap
	}

	if len(out) == 0 {
		// Fall back to the leading characters of the raw text, unless there
		// is nothing but whitespace to keep.
		head := strings.TrimSpace(prefix(text, c.size))
		if head != "" {
			out = append(out, head)
		}
	}
	return out
}

// ChunkID derives the content-addressed identifier of a chunk.
func ChunkID(docID string, idx int, text string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%d_%s", docID, idx, prefix(text, idPrefixChars))))
	return docID + "_" + hex.EncodeToString(sum[:])[:idHashChars]
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
