//go:build !cgo

package vecindex

import "faqbot/internal/domain"

// Available reports whether the sqlite-vec backend is compiled in.
func Available() bool { return false }

// NewSQLiteVec is unavailable without cgo.
func NewSQLiteVec(vectors [][]float32) (Index, error) {
	return nil, domain.ErrBackendUnavailable
}
