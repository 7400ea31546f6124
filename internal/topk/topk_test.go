// internal/topk/topk_test.go
package topk

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect_Basic(t *testing.T) {
	scores := []float32{0.1, 0.7, 0.3, 0.9, 0.05}
	res, err := Select(scores, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, res.Indices)
	assert.Equal(t, []float32{0.9, 0.7, 0.3}, res.Scores)
	assert.Equal(t, 3, res.Len())
}

func TestSelect_InvalidK(t *testing.T) {
	scores := []float32{1, 2, 3}
	for _, k := range []int{0, -1, 4, 100} {
		_, err := Select(scores, k)
		assert.ErrorIs(t, err, ErrInvalidArgument, "k=%d", k)
	}

	_, err := Select(nil, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSelect_TiesPreferLowerIndex(t *testing.T) {
	scores := []float32{0.5, 0.9, 0.5, 0.9, 0.5}
	res, err := Select(scores, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 0, 2, 4}, res.Indices)
}

func TestSelect_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(200)
		scores := make([]float32, n)
		for i := range scores {
			scores[i] = rng.Float32()*20 - 10
		}
		k := 1 + rng.Intn(n)

		res, err := Select(scores, k)
		require.NoError(t, err)
		require.Len(t, res.Indices, k)
		require.Len(t, res.Scores, k)

		for i := 0; i < k; i++ {
			idx := res.Indices[i]
			require.GreaterOrEqual(t, idx, 0)
			require.Less(t, idx, n)
			require.Equal(t, scores[idx], res.Scores[i])
			if i > 0 {
				require.GreaterOrEqual(t, res.Scores[i-1], res.Scores[i])
			}
		}
	}
}

func TestSelect_FullSortMatches(t *testing.T) {
	scores := []float32{3, -1, 7, 0, 2.5, 9, 4}
	res, err := Select(scores, len(scores))
	require.NoError(t, err)

	sorted := append([]float32(nil), scores...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })
	assert.Equal(t, sorted, res.Scores)
}

func TestSelect_NaNRanksLast(t *testing.T) {
	nan := float32(math.NaN())
	scores := []float32{0.2, nan, 0.9, nan, 0.5, 0.1}

	res, err := Select(scores, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 0, 5}, res.Indices)
	assert.Equal(t, []float32{0.9, 0.5, 0.2, 0.1}, res.Scores)

	all, err := Select(scores, len(scores))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 0, 5, 1, 3}, all.Indices)
}

func TestSelect_NaNKeepsNonIncreasingOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 100; iter++ {
		scores := make([]float32, 50)
		for i := range scores {
			if rng.Intn(4) == 0 {
				scores[i] = float32(math.NaN())
			} else {
				scores[i] = rng.Float32()
			}
		}

		res, err := Select(scores, len(scores))
		require.NoError(t, err)

		seenNaN := false
		for i, s := range res.Scores {
			if math.IsNaN(float64(s)) {
				seenNaN = true
				continue
			}
			require.False(t, seenNaN, "number after NaN at %d", i)
			if i > 0 {
				require.GreaterOrEqual(t, res.Scores[i-1], s)
			}
		}
	}
}
