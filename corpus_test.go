package corpus

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/poiesic/corpus/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCorpus(t *testing.T) *Corpus {
	t.Helper()

	cp, err := Open(filepath.Join(t.TempDir(), "corpus"), WithEmbedder(mock.NewMockEmbedder()))
	require.NoError(t, err)
	t.Cleanup(func() { cp.Close() })
	return cp
}

func TestOpen(t *testing.T) {
	t.Run("creates data directory layout", func(t *testing.T) {
		cp := newTestCorpus(t)

		assert.NotNil(t, cp.ChunkRepository())
		assert.NotNil(t, cp.EmbeddingRepository())
		assert.NotNil(t, cp.IndexManager())
		assert.NotNil(t, cp.Embedder())
	})
}

func TestCorpus_Close(t *testing.T) {
	cp, err := Open(filepath.Join(t.TempDir(), "corpus"), WithEmbedder(mock.NewMockEmbedder()))
	require.NoError(t, err)
	assert.NoError(t, cp.Close())
}

func TestCorpus_FactoryMethods(t *testing.T) {
	cp := newTestCorpus(t)

	t.Run("can create ingestion pipeline", func(t *testing.T) {
		pipeline, err := cp.NewIngestionPipeline()
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Release()
	})

	t.Run("can create retriever", func(t *testing.T) {
		retriever, err := cp.NewRetriever()
		require.NoError(t, err)
		require.NotNil(t, retriever)
	})
}

func TestCorpus_IngestThenRetrieve(t *testing.T) {
	cp := newTestCorpus(t)
	ctx := context.Background()

	pipeline, err := cp.NewIngestionPipeline()
	require.NoError(t, err)
	defer pipeline.Release()

	_, err = pipeline.IngestDocument(ctx, 1, "notes.txt",
		"hybrid retrieval blends lexical and semantic evidence")
	require.NoError(t, err)

	retriever, err := cp.NewRetriever()
	require.NoError(t, err)

	results, err := retriever.Retrieve(ctx, 1, "hybrid retrieval blends lexical and semantic evidence")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].HybridScore, 1e-9)
}
