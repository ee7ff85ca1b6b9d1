package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/corpus/ai/mock"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/index"
	"github.com/poiesic/corpus/storage"
	"github.com/poiesic/corpus/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModel = "test-model"

type pipelineFixture struct {
	chunkRepo     storage.ChunkRepository
	embeddingRepo storage.EmbeddingRepository
	indexManager  *index.Manager
	embedder      *mock.MockEmbedder
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	chunkRepo, embeddingRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		embeddingRepo.Close()
		chunkRepo.Close()
		backend.Close()
	})

	indexManager, err := index.NewManager(t.TempDir())
	require.NoError(t, err)

	return &pipelineFixture{
		chunkRepo:     chunkRepo,
		embeddingRepo: embeddingRepo,
		indexManager:  indexManager,
		embedder:      mock.NewMockEmbedder(),
	}
}

func (f *pipelineFixture) newPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()

	pipeline, err := NewPipeline(f.chunkRepo, f.embeddingRepo, f.indexManager, f.embedder, testModel, opts...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)
	return pipeline
}

func TestNewPipeline(t *testing.T) {
	f := newPipelineFixture(t)

	t.Run("valid configuration", func(t *testing.T) {
		pipeline := f.newPipeline(t)
		assert.NotNil(t, pipeline)
	})

	t.Run("with options", func(t *testing.T) {
		pipeline := f.newPipeline(t, WithPoolSize(2), WithChunking(100, 80))
		assert.NotNil(t, pipeline)
	})

	t.Run("nil chunk repository", func(t *testing.T) {
		_, err := NewPipeline(nil, f.embeddingRepo, f.indexManager, f.embedder, testModel)
		assert.Equal(t, ErrChunkRepositoryRequired, err)
	})

	t.Run("nil embedding repository", func(t *testing.T) {
		_, err := NewPipeline(f.chunkRepo, nil, f.indexManager, f.embedder, testModel)
		assert.Equal(t, ErrEmbeddingRepositoryRequired, err)
	})

	t.Run("nil index manager", func(t *testing.T) {
		_, err := NewPipeline(f.chunkRepo, f.embeddingRepo, nil, f.embedder, testModel)
		assert.Equal(t, ErrIndexManagerRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewPipeline(f.chunkRepo, f.embeddingRepo, f.indexManager, nil, testModel)
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func TestIngestDocument(t *testing.T) {
	f := newPipelineFixture(t)
	pipeline := f.newPipeline(t, WithChunking(5, 4))
	ctx := context.Background()

	text := "alpha beta gamma delta epsilon zeta eta theta iota kappa"
	chunks, err := pipeline.IngestDocument(ctx, 7, "paper.txt", text)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	t.Run("chunks stored with metadata", func(t *testing.T) {
		stored, err := f.chunkRepo.FindByTopic(ctx, 7)
		require.NoError(t, err)
		assert.Len(t, stored, 3)

		documentID := core.IDFromContent("paper.txt")
		for _, chunk := range stored {
			assert.Equal(t, documentID, chunk.DocumentId)
			assert.Equal(t, core.ID(7), chunk.TopicId)
			assert.NotZero(t, chunk.Id)
		}
	})

	t.Run("every chunk embedded", func(t *testing.T) {
		count, err := f.embeddingRepo.CountByTopic(ctx, 7, testModel)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("every chunk indexed", func(t *testing.T) {
		size, err := f.indexManager.Size(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 3, size)

		hits, err := f.indexManager.Search(ctx, 7, "epsilon", 10)
		require.NoError(t, err)
		assert.NotEmpty(t, hits)
	})

	t.Run("reingest is idempotent", func(t *testing.T) {
		_, err := pipeline.IngestDocument(ctx, 7, "paper.txt", text)
		require.NoError(t, err)

		count, err := f.chunkRepo.CountByTopic(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		size, err := f.indexManager.Size(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 3, size)
	})

	t.Run("text is cleaned before chunking", func(t *testing.T) {
		chunks, err := pipeline.IngestDocument(ctx, 8, "messy.txt", "bro-\nken   words\nhere")
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "broken words here", chunks[0].Text)
	})

	t.Run("empty document rejected", func(t *testing.T) {
		_, err := pipeline.IngestDocument(ctx, 7, "empty.txt", "   \n ")
		assert.ErrorIs(t, err, ErrEmptyDocument)
	})
}

func TestIngestDocument_ReplacesPreviousVersion(t *testing.T) {
	f := newPipelineFixture(t)
	pipeline := f.newPipeline(t, WithChunking(5, 4))
	ctx := context.Background()

	_, err := pipeline.IngestDocument(ctx, 1, "notes.txt", "alpha beta gamma")
	require.NoError(t, err)

	chunks, err := pipeline.IngestDocument(ctx, 1, "notes.txt", "delta epsilon")
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	t.Run("only the new version remains", func(t *testing.T) {
		stats, err := pipeline.Stats(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Chunks)
		assert.Equal(t, 1, stats.Embeddings)
		assert.Equal(t, 1, stats.IndexSize)
	})

	t.Run("stale content is not retrievable", func(t *testing.T) {
		stored, err := f.chunkRepo.FindByDocument(ctx, core.IDFromContent("notes.txt"))
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, "delta epsilon", stored[0].Text)

		hits, err := f.indexManager.Search(ctx, 1, "alpha", 10)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})
}

func TestIngestDocument_EmbedderFailure(t *testing.T) {
	f := newPipelineFixture(t)
	pipeline := f.newPipeline(t)
	ctx := context.Background()

	wantErr := errors.New("embedding service unavailable")
	f.embedder.EmbedTextsFunc = func(_ context.Context, _ []string) ([][]float32, error) {
		return nil, wantErr
	}

	_, err := pipeline.IngestDocument(ctx, 7, "doc.txt", "some document text")
	assert.ErrorIs(t, err, wantErr)
}

func TestIngestDocument_LargeDocumentBatches(t *testing.T) {
	f := newPipelineFixture(t)
	pipeline := f.newPipeline(t, WithChunking(10, 10), WithPoolSize(1))
	ctx := context.Background()

	// 500 tokens, size 10, stride 10: 50 chunks, several embedding batches.
	text := strings.Repeat("token ", 500)
	chunks, err := pipeline.IngestDocument(ctx, 7, "big.txt", text)
	require.NoError(t, err)
	assert.Len(t, chunks, 50)

	count, err := f.embeddingRepo.CountByTopic(ctx, 7, testModel)
	require.NoError(t, err)
	assert.Equal(t, 50, count)
	assert.Greater(t, f.embedder.CallCount(), 1)
}

func TestReindexTopic(t *testing.T) {
	f := newPipelineFixture(t)
	pipeline := f.newPipeline(t, WithChunking(5, 5))
	ctx := context.Background()

	_, err := pipeline.IngestDocument(ctx, 7, "doc.txt", "searchable content here")
	require.NoError(t, err)

	// Destroy the index out from under the pipeline, then rebuild.
	require.NoError(t, f.indexManager.DeleteIndex(7))
	require.NoError(t, pipeline.ReindexTopic(ctx, 7))

	hits, err := f.indexManager.Search(ctx, 7, "searchable", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestRemoveDocument(t *testing.T) {
	f := newPipelineFixture(t)
	pipeline := f.newPipeline(t, WithChunking(5, 5))
	ctx := context.Background()

	_, err := pipeline.IngestDocument(ctx, 7, "keep.txt", "document that stays around")
	require.NoError(t, err)
	_, err = pipeline.IngestDocument(ctx, 7, "remove.txt", "document that goes away entirely")
	require.NoError(t, err)

	require.NoError(t, pipeline.RemoveDocument(ctx, 7, "remove.txt"))

	t.Run("chunks gone", func(t *testing.T) {
		chunks, err := f.chunkRepo.FindByDocument(ctx, core.IDFromContent("remove.txt"))
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("embeddings gone", func(t *testing.T) {
		count, err := f.embeddingRepo.CountByTopic(ctx, 7, testModel)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("index entries gone", func(t *testing.T) {
		hits, err := f.indexManager.Search(ctx, 7, "goes", 10)
		require.NoError(t, err)
		assert.Empty(t, hits)

		hits, err = f.indexManager.Search(ctx, 7, "stays", 10)
		require.NoError(t, err)
		assert.Len(t, hits, 1)
	})

	t.Run("removing unknown document is not an error", func(t *testing.T) {
		assert.NoError(t, pipeline.RemoveDocument(ctx, 7, "never-ingested.txt"))
	})
}

func TestStats(t *testing.T) {
	f := newPipelineFixture(t)
	pipeline := f.newPipeline(t, WithChunking(5, 5))
	ctx := context.Background()

	t.Run("empty topic", func(t *testing.T) {
		stats, err := pipeline.Stats(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Chunks)
		assert.Equal(t, 0, stats.Embeddings)
		assert.Equal(t, 0, stats.IndexSize)
	})

	t.Run("after ingestion", func(t *testing.T) {
		_, err := pipeline.IngestDocument(ctx, 7, "doc.txt",
			"one two three four five six seven eight nine ten")
		require.NoError(t, err)

		stats, err := pipeline.Stats(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Chunks)
		assert.Equal(t, 2, stats.Embeddings)
		assert.Equal(t, 2, stats.IndexSize)
	})
}
