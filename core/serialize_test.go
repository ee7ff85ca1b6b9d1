package core

import (
	"testing"

	com "github.com/mus-format/common-go"
	mus "github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/varint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkMUSRoundTrip(t *testing.T) {
	chunk := Chunk{
		Id:         IDFromContent("chunk"),
		DocumentId: 42,
		TopicId:    7,
		ChunkIndex: 3,
		Text:       "the quick brown fox",
		TokenCount: 4,
	}

	bs := make([]byte, ChunkMUS.Size(chunk))
	n := ChunkMUS.Marshal(chunk, bs)
	assert.Equal(t, len(bs), n)

	decoded, n, err := ChunkMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, len(bs), n)
	assert.Equal(t, chunk, decoded)

	t.Run("skip covers the full record", func(t *testing.T) {
		skipped, err := ChunkMUS.Skip(bs)
		require.NoError(t, err)
		assert.Equal(t, len(bs), skipped)
	})
}

func TestEmbeddingMUSRoundTrip(t *testing.T) {
	embedding := Embedding{
		ChunkId: 99,
		TopicId: 7,
		Model:   "text-embedding-3-small",
		Vector:  []float32{0.25, -1.5, 0.0, 3.75},
	}

	bs := make([]byte, EmbeddingMUS.Size(embedding))
	n := EmbeddingMUS.Marshal(embedding, bs)
	assert.Equal(t, len(bs), n)

	decoded, n, err := EmbeddingMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, len(bs), n)
	assert.Equal(t, embedding, decoded)

	t.Run("empty vector", func(t *testing.T) {
		empty := Embedding{ChunkId: 1, TopicId: 2, Model: "m"}
		bs := make([]byte, EmbeddingMUS.Size(empty))
		EmbeddingMUS.Marshal(empty, bs)
		decoded, _, err := EmbeddingMUS.Unmarshal(bs)
		require.NoError(t, err)
		assert.Empty(t, decoded.Vector)
	})
}

func TestVectorMUSCorruptedLength(t *testing.T) {
	t.Run("negative length errors instead of panicking", func(t *testing.T) {
		// Zigzag varint 0x01 decodes to -1.
		_, _, err := VectorMUS.Unmarshal([]byte{0x01})
		assert.ErrorIs(t, err, com.ErrNegativeLength)

		_, err = VectorMUS.Skip([]byte{0x01})
		assert.ErrorIs(t, err, com.ErrNegativeLength)
	})

	t.Run("length beyond the data errors", func(t *testing.T) {
		bs := make([]byte, varint.Int.Size(1<<20))
		varint.Int.Marshal(1<<20, bs)

		_, _, err := VectorMUS.Unmarshal(bs)
		assert.ErrorIs(t, err, mus.ErrTooSmallByteSlice)

		_, err = VectorMUS.Skip(bs)
		assert.ErrorIs(t, err, mus.ErrTooSmallByteSlice)
	})
}

func TestUnmarshalTruncatedData(t *testing.T) {
	chunk := Chunk{Id: 1, DocumentId: 2, TopicId: 3, Text: "text", TokenCount: 1}
	bs := make([]byte, ChunkMUS.Size(chunk))
	ChunkMUS.Marshal(chunk, bs)

	_, _, err := ChunkMUS.Unmarshal(bs[:len(bs)/2])
	assert.Error(t, err)
}
