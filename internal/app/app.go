// Package app assembles the runtime from configuration: service clients,
// the indexer, and the retriever/answerer pair shared by every front end.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"faqbot/internal/config"
	"faqbot/internal/domain"
	"faqbot/internal/embedder"
	"faqbot/internal/index"
	"faqbot/internal/llm"
	"faqbot/internal/rag"
	"faqbot/internal/store"
)

// App owns the long-lived pieces of one faqbot process.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Embedder  embedder.Embedder
	Generator llm.Generator
	Indexer   *index.Indexer

	mu        sync.Mutex
	retriever *rag.Retriever
}

// New wires clients and the indexer. When a required credential is missing
// it returns *domain.ConfigurationError so callers can report the feature
// as disabled.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NeedsCredential() {
		if _, ok := cfg.Credential(); !ok {
			return nil, &domain.ConfigurationError{Feature: "question answering", Setting: cfg.OpenAI.APIKeyEnv}
		}
	}
	emb, err := NewEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	gen, err := NewGenerator(cfg)
	if err != nil {
		return nil, err
	}
	idx, err := index.New(ctx, index.Config{
		FAQPath:      cfg.Corpus.FAQPath,
		DocsDir:      cfg.Corpus.DocsDir,
		ChunkSize:    cfg.Chunker.Size,
		ChunkOverlap: cfg.Chunker.Overlap,
		BatchSize:    cfg.Embedder.BatchSize,
		Backend:      cfg.Retrieval.Backend,
		SnapshotPath: cfg.Index.SnapshotPath,
	}, emb, logger)
	if err != nil {
		return nil, err
	}
	return &App{
		Config:    cfg,
		Logger:    logger,
		Embedder:  emb,
		Generator: gen,
		Indexer:   idx,
	}, nil
}

// NewEmbedder builds the configured embedding client.
func NewEmbedder(cfg *config.Config) (embedder.Embedder, error) {
	timeout := time.Duration(cfg.Embedder.TimeoutSecs) * time.Second
	switch cfg.Embedder.Provider {
	case config.ProviderOllama:
		return embedder.NewOllamaEmbedder(cfg.Ollama.BaseURL, cfg.Embedder.Model, timeout), nil
	case config.ProviderOpenAI:
		key, _ := cfg.Credential()
		return embedder.NewOpenAIEmbedder(cfg.OpenAI.BaseURL, key, cfg.Embedder.Model, timeout)
	}
	return nil, fmt.Errorf("unknown embedder provider %q", cfg.Embedder.Provider)
}

// NewGenerator builds the configured chat client.
func NewGenerator(cfg *config.Config) (llm.Generator, error) {
	timeout := time.Duration(cfg.Generator.TimeoutSecs) * time.Second
	switch cfg.Generator.Provider {
	case config.ProviderOllama:
		return llm.NewOllamaChat(cfg.Ollama.BaseURL, cfg.Generator.Model, timeout), nil
	case config.ProviderOpenAI:
		key, _ := cfg.Credential()
		return llm.NewOpenAIChat(cfg.OpenAI.BaseURL, key, cfg.Generator.Model, timeout)
	}
	return nil, fmt.Errorf("unknown generator provider %q", cfg.Generator.Provider)
}

// Open loads the saved index, building it on first use.
func (a *App) Open(ctx context.Context, onProgress index.ProgressFunc) (*index.Stats, error) {
	snap, stats, err := a.Indexer.Open(ctx, onProgress)
	if err != nil {
		return nil, err
	}
	a.serve(snap)
	return stats, nil
}

// Rebuild re-indexes the corpus and swaps the new snapshot in. The old
// snapshot keeps serving if the rebuild fails.
func (a *App) Rebuild(ctx context.Context, onProgress index.ProgressFunc) (*index.Stats, error) {
	snap, stats, err := a.Indexer.Rebuild(ctx, onProgress)
	if err != nil {
		return nil, err
	}
	a.serve(snap)
	return stats, nil
}

func (a *App) serve(snap *rag.Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.retriever == nil {
		a.retriever = rag.NewRetriever(snap, a.Embedder, a.Config.Retrieval.K)
		return
	}
	a.retriever.Replace(snap).Retire()
}

// Retriever returns the retriever, or nil before Open.
func (a *App) Retriever() *rag.Retriever {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.retriever
}

// Answerer returns an answerer over the served index with fan-out k
// (the configured default when k <= 0).
func (a *App) Answerer(k int) *rag.Answerer {
	if k <= 0 {
		k = a.Config.Retrieval.K
	}
	return &rag.Answerer{
		Retriever: a.Retriever(),
		Generator: a.Generator,
		K:         k,
		Logger:    a.Logger.Named("rag"),
	}
}

// Info describes the saved snapshot.
func (a *App) Info(ctx context.Context) (store.Info, error) {
	return a.Indexer.Info(ctx)
}

// MissingOllamaModels lists configured Ollama models that are not
// installed. It returns nil when no Ollama provider is configured.
func (a *App) MissingOllamaModels(ctx context.Context) ([]string, error) {
	var want []string
	if a.Config.Embedder.Provider == config.ProviderOllama {
		want = append(want, a.Config.Embedder.Model)
	}
	if a.Config.Generator.Provider == config.ProviderOllama {
		want = append(want, a.Config.Generator.Model)
	}
	if len(want) == 0 {
		return nil, nil
	}
	installed, err := llm.ListModels(ctx, a.Config.Ollama.BaseURL)
	if err != nil {
		return nil, err
	}
	return llm.MissingModels(installed, want...), nil
}

// Close releases the index and store.
func (a *App) Close() error {
	a.mu.Lock()
	if a.retriever != nil {
		a.retriever.Snapshot().Retire()
	}
	a.mu.Unlock()
	return a.Indexer.Close()
}
