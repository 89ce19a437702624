// Package vecindex provides exact nearest-neighbor search over a fixed set
// of embedding vectors. Two interchangeable backends exist: an accelerated
// one backed by sqlite-vec (cgo builds only) and a pure-Go brute-force scan.
package vecindex

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"faqbot/internal/domain"
)

// Backend names accepted by Select.
const (
	BackendAuto       = "auto"
	BackendSQLiteVec  = "sqlite-vec"
	BackendBruteForce = "bruteforce"
)

// Neighbor is one search result: the row position of the stored vector and
// its Euclidean distance to the query.
type Neighbor struct {
	Position int
	Distance float64
}

// Index is an immutable nearest-neighbor index. Search returns at most k
// neighbors in ascending distance order.
type Index interface {
	Search(ctx context.Context, query []float32, k int) ([]Neighbor, error)
	Len() int
	Backend() string
	Close() error
}

// Builder constructs an Index over vectors. Row i of vectors is reported
// as Position i.
type Builder func(vectors [][]float32) (Index, error)

// Select picks a Builder for the requested backend. Unknown names and an
// unavailable accelerated backend fall back to brute force.
func Select(preference string, logger *zap.Logger) Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch preference {
	case BackendBruteForce:
		return NewBruteForce
	case BackendSQLiteVec:
		if Available() {
			return NewSQLiteVec
		}
		logger.Warn("sqlite-vec backend unavailable in this build, using brute force")
		return NewBruteForce
	case BackendAuto, "":
		if Available() {
			return NewSQLiteVec
		}
		return NewBruteForce
	default:
		logger.Warn("unknown index backend, using auto", zap.String("backend", preference))
		return Select(BackendAuto, logger)
	}
}

// validate checks the vector set is non-empty and of uniform dimension,
// returning that dimension.
func validate(vectors [][]float32) (int, error) {
	if len(vectors) == 0 {
		return 0, domain.ErrEmptyCorpus
	}
	dim := len(vectors[0])
	if dim == 0 {
		return 0, fmt.Errorf("vector 0 has zero dimension")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return 0, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dim)
		}
	}
	return dim, nil
}

func clampK(k, n int) int {
	if k > n {
		return n
	}
	return k
}
