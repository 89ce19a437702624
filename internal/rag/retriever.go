package rag

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"faqbot/internal/domain"
	"faqbot/internal/embedder"
)

// DefaultK is the retrieval fan-out when none is requested.
const DefaultK = 5

var errNoIndex = errors.New("index not built")

// Retriever maps a query to the closest chunks of the current snapshot.
// The snapshot can be replaced wholesale; it is never mutated.
type Retriever struct {
	snap     atomic.Pointer[Snapshot]
	emb      embedder.Embedder
	defaultK int
}

// NewRetriever creates a retriever over snap.
func NewRetriever(snap *Snapshot, emb embedder.Embedder, defaultK int) *Retriever {
	if defaultK <= 0 {
		defaultK = DefaultK
	}
	r := &Retriever{emb: emb, defaultK: defaultK}
	r.snap.Store(snap)
	return r
}

// Snapshot returns the snapshot currently served.
func (r *Retriever) Snapshot() *Snapshot { return r.snap.Load() }

// Replace swaps in a freshly built snapshot and returns the previous one.
// Callers Retire the previous snapshot rather than Close it.
func (r *Retriever) Replace(snap *Snapshot) *Snapshot {
	return r.snap.Swap(snap)
}

// acquire pins the current snapshot. A snapshot retired between the load
// and the pin has already been swapped out, so the loop reloads.
func (r *Retriever) acquire() *Snapshot {
	for {
		snap := r.snap.Load()
		if snap == nil {
			return nil
		}
		if snap.acquire() {
			return snap
		}
	}
}

// Retrieve embeds query and returns up to k hits, closest first. k <= 0
// means the default; k larger than the corpus returns the whole corpus.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.Hit, error) {
	snap := r.acquire()
	if snap == nil {
		return nil, errNoIndex
	}
	defer snap.release()
	if snap.Index == nil {
		return nil, errNoIndex
	}
	if k <= 0 {
		k = r.defaultK
	}
	if k > snap.Len() {
		k = snap.Len()
	}

	vec, err := embedder.EmbedSingle(ctx, r.emb, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	neighbors, err := snap.Index.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	hits := make([]domain.Hit, 0, len(neighbors))
	for _, n := range neighbors {
		if n.Position < 0 || n.Position >= snap.Len() {
			return nil, fmt.Errorf("index returned position %d outside corpus of %d", n.Position, snap.Len())
		}
		hits = append(hits, domain.Hit{Chunk: snap.Chunks[n.Position], Distance: n.Distance})
	}
	return hits, nil
}
