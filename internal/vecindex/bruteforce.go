package vecindex

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// BruteForce scans every stored vector on each query.
type BruteForce struct {
	dim     int
	vectors [][]float32
}

// NewBruteForce copies vectors into a new brute-force index.
func NewBruteForce(vectors [][]float32) (Index, error) {
	dim, err := validate(vectors)
	if err != nil {
		return nil, err
	}
	rows := make([][]float32, len(vectors))
	for i, v := range vectors {
		rows[i] = append([]float32(nil), v...)
	}
	return &BruteForce{dim: dim, vectors: rows}, nil
}

func (b *BruteForce) Len() int        { return len(b.vectors) }
func (b *BruteForce) Backend() string { return BackendBruteForce }
func (b *BruteForce) Close() error    { return nil }

// Search ranks all rows by Euclidean distance. Ties keep row order.
func (b *BruteForce) Search(ctx context.Context, query []float32, k int) ([]Neighbor, error) {
	if len(query) != b.dim {
		return nil, fmt.Errorf("query has dimension %d, index has %d", len(query), b.dim)
	}
	k = clampK(k, len(b.vectors))
	if k <= 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all := make([]Neighbor, len(b.vectors))
	for i, v := range b.vectors {
		all[i] = Neighbor{Position: i, Distance: euclidean(query, v)}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Distance < all[j].Distance
	})
	return all[:k], nil
}

func euclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
