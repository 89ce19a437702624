// Package embedder turns text into fixed-length vectors via an external
// embedding service.
package embedder

import (
	"context"
	"fmt"
)

// DefaultBatchSize bounds how many texts go into one embedding request.
const DefaultBatchSize = 100

// Embedder returns one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// BatchEmbedder splits large inputs into bounded requests against an inner
// Embedder. Results are concatenated in input order.
type BatchEmbedder struct {
	inner    Embedder
	size     int
	progress func(done, total int)
}

// Batched wraps e so no single request carries more than size texts.
func Batched(e Embedder, size int) *BatchEmbedder {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &BatchEmbedder{inner: e, size: size}
}

// OnProgress registers fn to be called after each completed batch.
func (b *BatchEmbedder) OnProgress(fn func(done, total int)) *BatchEmbedder {
	b.progress = fn
	return b
}

// Model returns the inner embedder's model.
func (b *BatchEmbedder) Model() string { return b.inner.Model() }

// Embed sends texts in batches and stops at the first failure.
func (b *BatchEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += b.size {
		end := i + b.size
		if end > len(texts) {
			end = len(texts)
		}
		embs, err := b.inner.Embed(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", i, end, err)
		}
		if len(embs) != end-i {
			return nil, fmt.Errorf("embed batch %d-%d: expected %d embeddings, got %d", i, end, end-i, len(embs))
		}
		out = append(out, embs...)
		if b.progress != nil {
			b.progress(end, len(texts))
		}
	}
	return out, nil
}

// EmbedSingle embeds one text as a single-item batch.
func EmbedSingle(ctx context.Context, e Embedder, text string) ([]float32, error) {
	results, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(results))
	}
	return results[0], nil
}
