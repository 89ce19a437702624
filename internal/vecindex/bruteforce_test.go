package vecindex

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faqbot/internal/domain"
)

var grid = [][]float32{
	{0, 0},
	{3, 4},
	{1, 0},
	{0, 10},
}

func TestNewBruteForce_Validation(t *testing.T) {
	_, err := NewBruteForce(nil)
	assert.ErrorIs(t, err, domain.ErrEmptyCorpus)

	_, err = NewBruteForce([][]float32{{1, 2}, {1}})
	assert.ErrorContains(t, err, "vector 1 has dimension 1, expected 2")
}

func TestBruteForce_Search(t *testing.T) {
	idx, err := NewBruteForce(grid)
	require.NoError(t, err)
	defer idx.Close()

	assert.Equal(t, 4, idx.Len())
	assert.Equal(t, BackendBruteForce, idx.Backend())

	got, err := idx.Search(context.Background(), []float32{0, 0}, 3)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, Neighbor{Position: 0, Distance: 0}, got[0])
	assert.Equal(t, Neighbor{Position: 2, Distance: 1}, got[1])
	assert.Equal(t, 1, got[2].Position)
	assert.InDelta(t, 5.0, got[2].Distance, 1e-9)
}

func TestBruteForce_KBounds(t *testing.T) {
	idx, err := NewBruteForce(grid)
	require.NoError(t, err)

	tests := []struct {
		name string
		k    int
		want int
	}{
		{"zero", 0, 0},
		{"negative", -2, 0},
		{"within", 2, 2},
		{"larger than index", 50, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.Search(context.Background(), []float32{1, 1}, tt.k)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestBruteForce_TiesKeepRowOrder(t *testing.T) {
	idx, err := NewBruteForce([][]float32{{1, 0}, {-1, 0}, {0, 1}, {0, -1}})
	require.NoError(t, err)

	got, err := idx.Search(context.Background(), []float32{0, 0}, 4)
	require.NoError(t, err)

	for i, n := range got {
		assert.Equal(t, i, n.Position)
		assert.Equal(t, 1.0, n.Distance)
	}
}

func TestBruteForce_DimensionMismatch(t *testing.T) {
	idx, err := NewBruteForce(grid)
	require.NoError(t, err)

	_, err = idx.Search(context.Background(), []float32{1, 2, 3}, 1)

	assert.Error(t, err)
}

func TestBruteForce_CopiesInput(t *testing.T) {
	vectors := [][]float32{{0, 0}, {5, 5}}
	idx, err := NewBruteForce(vectors)
	require.NoError(t, err)

	vectors[0][0] = 100

	got, err := idx.Search(context.Background(), []float32{0, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, got[0].Position)
}

func TestEuclidean(t *testing.T) {
	assert.Equal(t, 0.0, euclidean([]float32{1, 2}, []float32{1, 2}))
	assert.InDelta(t, math.Sqrt(2), euclidean([]float32{0, 0}, []float32{1, 1}), 1e-9)
}

func TestSelect(t *testing.T) {
	idx, err := Select(BackendBruteForce, nil)(grid)
	require.NoError(t, err)
	assert.Equal(t, BackendBruteForce, idx.Backend())

	idx, err = Select("no-such-backend", nil)(grid)
	require.NoError(t, err)
	defer idx.Close()
	if Available() {
		assert.Equal(t, BackendSQLiteVec, idx.Backend())
	} else {
		assert.Equal(t, BackendBruteForce, idx.Backend())
	}
}
