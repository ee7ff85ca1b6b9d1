package search

import (
	"testing"

	"github.com/poiesic/corpus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		v := []float32{1, 2, 3}
		score, err := Cosine(v, v)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, score, 1e-9)
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		score, err := Cosine([]float32{1, 0}, []float32{0, 1})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, score, 1e-9)
	})

	t.Run("opposite vectors", func(t *testing.T) {
		score, err := Cosine([]float32{1, 2}, []float32{-1, -2})
		require.NoError(t, err)
		assert.InDelta(t, -1.0, score, 1e-9)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := []float32{0.3, -0.7, 0.2}
		b := []float32{0.9, 0.1, -0.4}
		ab, err := Cosine(a, b)
		require.NoError(t, err)
		ba, err := Cosine(b, a)
		require.NoError(t, err)
		assert.Equal(t, ab, ba)
	})

	t.Run("scale invariant", func(t *testing.T) {
		a := []float32{1, 2, 3}
		scaled := []float32{10, 20, 30}
		score, err := Cosine(a, scaled)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, score, 1e-6)
	})

	t.Run("zero vector scores zero", func(t *testing.T) {
		score, err := Cosine([]float32{0, 0, 0}, []float32{1, 2, 3})
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := Cosine([]float32{1, 2}, []float32{1, 2, 3})
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	})

	t.Run("empty vectors", func(t *testing.T) {
		score, err := Cosine([]float32{}, []float32{})
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
	})
}

func TestTopK(t *testing.T) {
	query := []float32{1, 0}
	candidates := []*core.Embedding{
		{ChunkId: 1, Vector: []float32{0, 1}},    // orthogonal
		{ChunkId: 2, Vector: []float32{1, 0}},    // identical
		{ChunkId: 3, Vector: []float32{1, 1}},    // in between
		{ChunkId: 4, Vector: []float32{-1, 0}},   // opposite
		{ChunkId: 5, Vector: []float32{2, 0}},    // identical direction
	}

	t.Run("ordered by similarity descending", func(t *testing.T) {
		hits, err := TopK(query, candidates, 10, nil)
		require.NoError(t, err)
		require.Len(t, hits, 5)
		for i := 1; i < len(hits); i++ {
			assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
		}
		// Chunks 2 and 5 tie at 1.0; chunk id breaks the tie.
		assert.Equal(t, core.ID(2), hits[0].ChunkId)
		assert.Equal(t, core.ID(5), hits[1].ChunkId)
		assert.Equal(t, core.ID(4), hits[4].ChunkId)
	})

	t.Run("truncates to k", func(t *testing.T) {
		hits, err := TopK(query, candidates, 2, nil)
		require.NoError(t, err)
		assert.Len(t, hits, 2)
	})

	t.Run("empty candidates yield empty", func(t *testing.T) {
		hits, err := TopK(query, nil, 10, nil)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("non-positive k yields empty", func(t *testing.T) {
		hits, err := TopK(query, candidates, 0, nil)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("dimension mismatch is a hard error", func(t *testing.T) {
		bad := []*core.Embedding{{ChunkId: 9, Vector: []float32{1, 2, 3}}}
		_, err := TopK(query, bad, 10, nil)
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	})
}
