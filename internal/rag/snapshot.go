package rag

import (
	"context"
	"fmt"
	"sync"
	"time"

	"faqbot/internal/domain"
	"faqbot/internal/embedder"
	"faqbot/internal/vecindex"
)

// Snapshot is a built, read-only index: Chunks[i] was embedded as
// Vectors[i] and is reported by Index as position i.
type Snapshot struct {
	Chunks  []domain.Chunk
	Vectors [][]float32
	Index   vecindex.Index
	Model   string
	BuiltAt time.Time

	mu      sync.Mutex
	refs    int
	retired bool
}

// NewSnapshot builds an index over already-computed vectors.
func NewSnapshot(chunks []domain.Chunk, vectors [][]float32, model string, builtAt time.Time, build vecindex.Builder) (*Snapshot, error) {
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("mismatched chunks (%d) and vectors (%d)", len(chunks), len(vectors))
	}
	if build == nil {
		build = vecindex.NewBruteForce
	}
	idx, err := build(vectors)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	return &Snapshot{
		Chunks:  chunks,
		Vectors: vectors,
		Index:   idx,
		Model:   model,
		BuiltAt: builtAt,
	}, nil
}

// Build embeds every chunk and indexes the result. On any failure no
// snapshot is returned.
func Build(ctx context.Context, chunks []domain.Chunk, emb embedder.Embedder, build vecindex.Builder) (*Snapshot, error) {
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyCorpus
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := emb.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(chunks), len(vectors))
	}
	return NewSnapshot(chunks, vectors, emb.Model(), time.Now().UTC(), build)
}

// Len returns the number of indexed chunks.
func (s *Snapshot) Len() int { return len(s.Chunks) }

// ChunkIDs returns chunk IDs in position order.
func (s *Snapshot) ChunkIDs() []string {
	ids := make([]string, len(s.Chunks))
	for i, c := range s.Chunks {
		ids[i] = c.ID
	}
	return ids
}

// Close releases the index immediately. Use Retire for a snapshot that
// may still be in use by a search.
func (s *Snapshot) Close() error {
	if s == nil || s.Index == nil {
		return nil
	}
	return s.Index.Close()
}

// acquire pins the snapshot for one search. It fails once retired.
func (s *Snapshot) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retired {
		return false
	}
	s.refs++
	return true
}

// release unpins the snapshot, closing it if it was retired meanwhile.
func (s *Snapshot) release() {
	s.mu.Lock()
	s.refs--
	done := s.retired && s.refs == 0
	s.mu.Unlock()
	if done {
		_ = s.Close()
	}
}

// Retire marks the snapshot as no longer served. The index closes when
// the last in-flight search releases it, or now if there is none.
func (s *Snapshot) Retire() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.retired {
		s.mu.Unlock()
		return
	}
	s.retired = true
	done := s.refs == 0
	s.mu.Unlock()
	if done {
		_ = s.Close()
	}
}
