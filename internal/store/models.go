package store

import (
	"time"

	"faqbot/internal/domain"
)

// Meta keys.
const (
	metaEmbeddingModel = "embedding_model"
	metaBuiltAt        = "built_at"
	metaChunkCount     = "chunk_count"
)

// Snapshot is a persisted index: chunks and their vectors share positions.
type Snapshot struct {
	Chunks  []domain.Chunk
	Vectors [][]float32
	Model   string
	BuiltAt time.Time
}

// Info summarizes a saved snapshot without loading its rows.
type Info struct {
	Model      string
	BuiltAt    time.Time
	ChunkCount int
}
