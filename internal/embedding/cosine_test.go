package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semsearch/internal/document"
)

func TestCosineSimilarity(t *testing.T) {
	t.Run("Self Similarity Is One", func(t *testing.T) {
		v := []float32{0.3, -1.2, 4.5, 0.01}
		sim, err := CosineSimilarity(v, v)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sim, 1e-9)
	})

	t.Run("Symmetric", func(t *testing.T) {
		a := []float32{1, 2, 3}
		b := []float32{-2, 0.5, 7}
		ab, err := CosineSimilarity(a, b)
		require.NoError(t, err)
		ba, err := CosineSimilarity(b, a)
		require.NoError(t, err)
		assert.Equal(t, ab, ba)
	})

	t.Run("Orthogonal Is Zero", func(t *testing.T) {
		sim, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, sim, 1e-9)
	})

	t.Run("Opposite Is Minus One", func(t *testing.T) {
		sim, err := CosineSimilarity([]float32{1, 2}, []float32{-1, -2})
		require.NoError(t, err)
		assert.InDelta(t, -1.0, sim, 1e-9)
	})

	t.Run("Dimension Mismatch", func(t *testing.T) {
		_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
		assert.ErrorIs(t, err, document.ErrDimensionMismatch)
	})

	t.Run("Zero Vector Yields Zero", func(t *testing.T) {
		sim, err := CosineSimilarity([]float32{0, 0}, []float32{1, 2})
		require.NoError(t, err)
		assert.Equal(t, 0.0, sim)
	})
}
