// Package index turns the configured corpus into a served snapshot: it
// loads, chunks, embeds and indexes documents, and persists the result so
// later runs reuse it until an explicit rebuild.
package index

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"faqbot/internal/chunker"
	"faqbot/internal/domain"
	"faqbot/internal/embedder"
	"faqbot/internal/faq"
	"faqbot/internal/rag"
	"faqbot/internal/store"
	"faqbot/internal/vecindex"
)

// Config holds the indexer configuration.
type Config struct {
	FAQPath      string
	DocsDir      string
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int
	Backend      string
	SnapshotPath string
}

// Stats reports what Open or Rebuild produced.
type Stats struct {
	Documents    int
	Chunks       int
	Backend      string
	Model        string
	FromSnapshot bool
	BuiltAt      time.Time
	Elapsed      time.Duration
}

// ProgressFunc receives stage updates while a rebuild runs.
type ProgressFunc func(stage string, done, total int)

// Indexer is the public API for building and loading the FAQ index.
type Indexer struct {
	store    *store.SnapshotStore
	embedder embedder.Embedder
	chunker  *chunker.WordChunker
	build    vecindex.Builder
	config   Config
	logger   *zap.Logger
}

// New creates a new Indexer with the given configuration.
func New(ctx context.Context, cfg Config, emb embedder.Embedder, logger *zap.Logger) (*Indexer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s, err := store.Open(ctx, cfg.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Indexer{
		store:    s,
		embedder: emb,
		chunker:  chunker.New(chunker.WithSize(cfg.ChunkSize), chunker.WithOverlap(cfg.ChunkOverlap)),
		build:    vecindex.Select(cfg.Backend, logger),
		config:   cfg,
		logger:   logger.Named("index"),
	}, nil
}

// Open serves the saved snapshot, building one first if none exists. A
// snapshot made with a different embedding model is reported, not rebuilt.
func (idx *Indexer) Open(ctx context.Context, onProgress ProgressFunc) (*rag.Snapshot, *Stats, error) {
	start := time.Now()
	saved, err := idx.store.Load(ctx, idx.embedder.Model())
	if store.IsMissing(err) {
		idx.logger.Info("no saved index, building")
		return idx.Rebuild(ctx, onProgress)
	}
	if err != nil {
		return nil, nil, err
	}

	if onProgress != nil {
		onProgress("Loading saved index...", 0, len(saved.Chunks))
	}
	snap, err := rag.NewSnapshot(saved.Chunks, saved.Vectors, saved.Model, saved.BuiltAt, idx.build)
	if err != nil {
		return nil, nil, err
	}
	stats := &Stats{
		Documents:    countDocs(snap.Chunks),
		Chunks:       snap.Len(),
		Backend:      snap.Index.Backend(),
		Model:        snap.Model,
		FromSnapshot: true,
		BuiltAt:      snap.BuiltAt,
		Elapsed:      time.Since(start),
	}
	idx.logger.Info("loaded saved index",
		zap.Int("chunks", stats.Chunks),
		zap.String("backend", stats.Backend),
		zap.Time("built_at", stats.BuiltAt),
	)
	return snap, stats, nil
}

// Rebuild reads the corpus and builds a fresh snapshot, replacing the saved
// one only after every stage succeeded.
func (idx *Indexer) Rebuild(ctx context.Context, onProgress ProgressFunc) (*rag.Snapshot, *Stats, error) {
	start := time.Now()
	progress := func(stage string, done, total int) {
		if onProgress != nil {
			onProgress(stage, done, total)
		}
	}

	progress("Loading documents...", 0, 0)
	docs, err := faq.Load(idx.config.FAQPath, idx.config.DocsDir)
	if err != nil {
		return nil, nil, err
	}

	progress("Chunking documents...", 0, len(docs))
	chunks, err := idx.chunker.ChunkAll(docs)
	if err != nil {
		return nil, nil, err
	}

	emb := embedder.Batched(idx.embedder, idx.config.BatchSize).OnProgress(func(done, total int) {
		progress("Embedding chunks...", done, total)
	})
	snap, err := rag.Build(ctx, chunks, emb, idx.build)
	if err != nil {
		idx.logger.Error("index build failed", zap.Error(err))
		return nil, nil, err
	}

	progress("Saving index...", len(chunks), len(chunks))
	if err := idx.store.Save(ctx, store.Snapshot{
		Chunks:  snap.Chunks,
		Vectors: snap.Vectors,
		Model:   snap.Model,
		BuiltAt: snap.BuiltAt,
	}); err != nil {
		snap.Close()
		return nil, nil, fmt.Errorf("save index: %w", err)
	}

	stats := &Stats{
		Documents: len(docs),
		Chunks:    snap.Len(),
		Backend:   snap.Index.Backend(),
		Model:     snap.Model,
		BuiltAt:   snap.BuiltAt,
		Elapsed:   time.Since(start),
	}
	idx.logger.Info("index built",
		zap.Int("documents", stats.Documents),
		zap.Int("chunks", stats.Chunks),
		zap.String("backend", stats.Backend),
		zap.String("model", stats.Model),
		zap.Duration("elapsed", stats.Elapsed),
	)
	return snap, stats, nil
}

// Info describes the saved snapshot without loading it.
func (idx *Indexer) Info(ctx context.Context) (store.Info, error) {
	return idx.store.Info(ctx)
}

// Clear deletes the saved snapshot. The next Open builds a new one.
func (idx *Indexer) Clear(ctx context.Context) error {
	if err := idx.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	idx.logger.Info("saved index cleared", zap.String("path", idx.store.Path()))
	return nil
}

// SnapshotPath is where the snapshot is saved.
func (idx *Indexer) SnapshotPath() string {
	return idx.store.Path()
}

// Close releases resources.
func (idx *Indexer) Close() error {
	return idx.store.Close()
}

func countDocs(chunks []domain.Chunk) int {
	seen := make(map[string]struct{})
	for _, c := range chunks {
		seen[c.DocID] = struct{}{}
	}
	return len(seen)
}
