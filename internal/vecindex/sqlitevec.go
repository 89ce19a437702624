//go:build cgo

package vecindex

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// maxKNN is the largest k vec0 accepts in a KNN query.
const maxKNN = 4096

const knnQuery = `
	SELECT position, distance
	FROM vec_chunks
	WHERE embedding MATCH ?
	ORDER BY distance
	LIMIT ?
`

// scanQuery computes the same L2 distance over every row, for k beyond maxKNN.
const scanQuery = `
	SELECT position, vec_distance_l2(embedding, ?) AS distance
	FROM vec_chunks
	ORDER BY distance
	LIMIT ?
`

// Available reports whether the sqlite-vec backend is compiled in.
func Available() bool { return true }

// SQLiteVec holds vectors in an in-memory vec0 virtual table.
type SQLiteVec struct {
	db  *sql.DB
	dim int
	n   int
}

// NewSQLiteVec loads vectors into a private in-memory sqlite-vec database.
func NewSQLiteVec(vectors [][]float32) (Index, error) {
	dim, err := validate(vectors)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Each connection to :memory: is its own database.
	db.SetMaxOpenConns(1)

	ddl := fmt.Sprintf(
		"CREATE VIRTUAL TABLE vec_chunks USING vec0(position INTEGER PRIMARY KEY, embedding float[%d])",
		dim,
	)
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create vec table: %w", err)
	}
	if err := insertVectors(db, vectors); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteVec{db: db, dim: dim, n: len(vectors)}, nil
}

func insertVectors(db *sql.DB, vectors [][]float32) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT INTO vec_chunks (position, embedding) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, v := range vectors {
		blob, err := sqlite_vec.SerializeFloat32(v)
		if err != nil {
			return fmt.Errorf("serialize vector %d: %w", i, err)
		}
		if _, err := stmt.Exec(i, blob); err != nil {
			return fmt.Errorf("insert vector %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteVec) Len() int        { return s.n }
func (s *SQLiteVec) Backend() string { return BackendSQLiteVec }
func (s *SQLiteVec) Close() error    { return s.db.Close() }

// Search runs a vec0 KNN query, or a full L2 scan when k is above what
// KNN allows. Both report Euclidean distance.
func (s *SQLiteVec) Search(ctx context.Context, query []float32, k int) ([]Neighbor, error) {
	if len(query) != s.dim {
		return nil, fmt.Errorf("query has dimension %d, index has %d", len(query), s.dim)
	}
	k = clampK(k, s.n)
	if k <= 0 {
		return nil, nil
	}
	blob, err := sqlite_vec.SerializeFloat32(query)
	if err != nil {
		return nil, fmt.Errorf("serialize query: %w", err)
	}

	stmt := knnQuery
	if k > maxKNN {
		stmt = scanQuery
	}
	rows, err := s.db.QueryContext(ctx, stmt, blob, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]Neighbor, 0, k)
	for rows.Next() {
		var n Neighbor
		if err := rows.Scan(&n.Position, &n.Distance); err != nil {
			return nil, err
		}
		results = append(results, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Equal distances come back in unspecified order; rank them by position.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Position < results[j].Position
	})
	return results, nil
}
