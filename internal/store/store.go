// Package store persists a built index so later runs can skip re-embedding
// the corpus.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"faqbot/internal/domain"
)

// DefaultPath is where the snapshot lives relative to the working directory.
const DefaultPath = ".faqbot/index.db"

// SnapshotStore reads and writes index snapshots in a SQLite file.
type SnapshotStore struct {
	db   *sql.DB
	path string
}

// Open creates or opens the snapshot database at path.
func Open(ctx context.Context, path string) (*SnapshotStore, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Init(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SnapshotStore{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *SnapshotStore) Path() string { return s.path }

// Close closes the underlying database.
func (s *SnapshotStore) Close() error { return s.db.Close() }

// Save replaces any stored snapshot with snap in a single transaction.
func (s *SnapshotStore) Save(ctx context.Context, snap Snapshot) error {
	if len(snap.Chunks) != len(snap.Vectors) {
		return fmt.Errorf("mismatched chunks (%d) and vectors (%d)", len(snap.Chunks), len(snap.Vectors))
	}
	if snap.BuiltAt.IsZero() {
		snap.BuiltAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{"DELETE FROM embeddings", "DELETE FROM chunks", "DELETE FROM meta"} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("clear snapshot: %w", err)
		}
	}

	chunkStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks (position, id, doc_id, chunk_idx, source, text) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer chunkStmt.Close()

	vecStmt, err := tx.PrepareContext(ctx, "INSERT INTO embeddings (position, vector) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer vecStmt.Close()

	for i, c := range snap.Chunks {
		if _, err := chunkStmt.ExecContext(ctx, i, c.ID, c.DocID, c.ChunkIdx, c.Source, c.Text); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ID, err)
		}
		if _, err := vecStmt.ExecContext(ctx, i, float32SliceToBytes(snap.Vectors[i])); err != nil {
			return fmt.Errorf("insert vector %d: %w", i, err)
		}
	}

	meta := map[string]string{
		metaEmbeddingModel: snap.Model,
		metaBuiltAt:        snap.BuiltAt.Format(time.RFC3339),
		metaChunkCount:     strconv.Itoa(len(snap.Chunks)),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("set meta %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// Info returns the saved snapshot's metadata or domain.ErrNoSnapshot.
func (s *SnapshotStore) Info(ctx context.Context) (Info, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return Info{}, err
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return Info{}, err
		}
		meta[k] = v
	}
	if err := rows.Err(); err != nil {
		return Info{}, err
	}
	if _, ok := meta[metaChunkCount]; !ok {
		return Info{}, domain.ErrNoSnapshot
	}

	info := Info{Model: meta[metaEmbeddingModel]}
	info.ChunkCount, err = strconv.Atoi(meta[metaChunkCount])
	if err != nil {
		return Info{}, fmt.Errorf("parse chunk count: %w", err)
	}
	if ts := meta[metaBuiltAt]; ts != "" {
		if info.BuiltAt, err = time.Parse(time.RFC3339, ts); err != nil {
			return Info{}, fmt.Errorf("parse build time: %w", err)
		}
	}
	return info, nil
}

// Load returns the saved snapshot ordered by position. When wantModel is
// non-empty and differs from the model the snapshot was built with, Load
// returns *domain.StaleSnapshotError.
func (s *SnapshotStore) Load(ctx context.Context, wantModel string) (*Snapshot, error) {
	info, err := s.Info(ctx)
	if err != nil {
		return nil, err
	}
	if wantModel != "" && info.Model != wantModel {
		return nil, &domain.StaleSnapshotError{BuiltWith: info.Model, Want: wantModel}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.position, c.id, c.doc_id, c.chunk_idx, c.source, c.text, e.vector
		FROM chunks c
		JOIN embeddings e ON e.position = c.position
		ORDER BY c.position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap := &Snapshot{
		Model:   info.Model,
		BuiltAt: info.BuiltAt,
		Chunks:  make([]domain.Chunk, 0, info.ChunkCount),
		Vectors: make([][]float32, 0, info.ChunkCount),
	}
	for rows.Next() {
		var (
			pos  int
			c    domain.Chunk
			blob []byte
		)
		if err := rows.Scan(&pos, &c.ID, &c.DocID, &c.ChunkIdx, &c.Source, &c.Text, &blob); err != nil {
			return nil, err
		}
		if pos != len(snap.Chunks) {
			return nil, fmt.Errorf("snapshot has a gap at position %d", len(snap.Chunks))
		}
		snap.Chunks = append(snap.Chunks, c)
		snap.Vectors = append(snap.Vectors, bytesToFloat32Slice(blob))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(snap.Chunks) != info.ChunkCount {
		return nil, fmt.Errorf("snapshot has %d chunks, meta says %d", len(snap.Chunks), info.ChunkCount)
	}
	if len(snap.Chunks) == 0 {
		return nil, domain.ErrNoSnapshot
	}
	return snap, nil
}

// Clear removes the stored snapshot.
func (s *SnapshotStore) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{"DELETE FROM embeddings", "DELETE FROM chunks", "DELETE FROM meta"} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// IsMissing reports whether err means no usable snapshot is saved.
func IsMissing(err error) bool {
	return errors.Is(err, domain.ErrNoSnapshot)
}

func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
