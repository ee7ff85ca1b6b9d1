package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/corpus/ai/mock"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
	"github.com/poiesic/corpus/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepos(t *testing.T) (storage.ChunkRepository, storage.EmbeddingRepository) {
	t.Helper()

	chunkRepo, embeddingRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		embeddingRepo.Close()
		chunkRepo.Close()
		backend.Close()
	})

	return chunkRepo, embeddingRepo
}

func seedChunks(t *testing.T, repo storage.ChunkRepository, topicID core.ID, count int) []*core.Chunk {
	t.Helper()
	ctx := context.Background()

	chunks := make([]*core.Chunk, count)
	for i := range chunks {
		chunks[i] = &core.Chunk{
			DocumentId: 1,
			TopicId:    topicID,
			ChunkIndex: i,
			Text:       "chunk text number " + string(rune('a'+i)),
		}
	}
	added, err := repo.AddChunks(ctx, chunks...)
	require.NoError(t, err)
	return added
}

func testConfig(model string) *Config {
	config := DefaultConfig()
	config.Model = model
	config.BatchSize = 2
	config.ReportInterval = 1
	config.RetryDelay = time.Millisecond
	return config
}

func TestNewReembedder(t *testing.T) {
	chunkRepo, embeddingRepo := newTestRepos(t)
	embedder := mock.NewMockEmbedder()

	t.Run("valid configuration", func(t *testing.T) {
		reembedder, err := NewReembedder(chunkRepo, embeddingRepo, embedder, testConfig("new-model"), &bytes.Buffer{})
		require.NoError(t, err)
		assert.NotNil(t, reembedder)
	})

	t.Run("nil config gets defaults but still needs a model", func(t *testing.T) {
		_, err := NewReembedder(chunkRepo, embeddingRepo, embedder, nil, &bytes.Buffer{})
		assert.ErrorIs(t, err, ErrModelRequired)
	})
}

func TestReembedderRun(t *testing.T) {
	chunkRepo, embeddingRepo := newTestRepos(t)
	ctx := context.Background()

	chunks := seedChunks(t, chunkRepo, 7, 5)

	// Existing embeddings under the old model.
	for _, chunk := range chunks {
		_, err := embeddingRepo.Create(ctx, &core.Embedding{
			ChunkId: chunk.Id, TopicId: 7, Model: "old-model", Vector: []float32{1, 2},
		})
		require.NoError(t, err)
	}

	embedder := mock.NewMockEmbedder()
	var progress bytes.Buffer
	reembedder, err := NewReembedder(chunkRepo, embeddingRepo, embedder, testConfig("new-model"), &progress)
	require.NoError(t, err)

	require.NoError(t, reembedder.Run(ctx, 7))

	t.Run("all chunks embedded under the new model", func(t *testing.T) {
		count, err := embeddingRepo.CountByTopic(ctx, 7, "new-model")
		require.NoError(t, err)
		assert.Equal(t, 5, count)
	})

	t.Run("old model left untouched", func(t *testing.T) {
		count, err := embeddingRepo.CountByTopic(ctx, 7, "old-model")
		require.NoError(t, err)
		assert.Equal(t, 5, count)

		got, err := embeddingRepo.Get(ctx, chunks[0].Id, "old-model")
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 2}, got.Vector)
	})

	t.Run("progress reported", func(t *testing.T) {
		assert.Contains(t, progress.String(), "Reembedding complete")
	})
}

func TestReembedderRun_EmptyTopic(t *testing.T) {
	chunkRepo, embeddingRepo := newTestRepos(t)

	var progress bytes.Buffer
	reembedder, err := NewReembedder(chunkRepo, embeddingRepo, mock.NewMockEmbedder(), testConfig("new-model"), &progress)
	require.NoError(t, err)

	require.NoError(t, reembedder.Run(context.Background(), 99))
	assert.Contains(t, progress.String(), "No chunks found")
}

func TestReembedderRun_EmbedderFailure(t *testing.T) {
	chunkRepo, embeddingRepo := newTestRepos(t)
	seedChunks(t, chunkRepo, 7, 2)

	embedder := mock.NewMockEmbedder()
	wantErr := errors.New("service down")
	embedder.EmbedTextsFunc = func(_ context.Context, _ []string) ([][]float32, error) {
		return nil, wantErr
	}

	reembedder, err := NewReembedder(chunkRepo, embeddingRepo, embedder, testConfig("new-model"), &bytes.Buffer{})
	require.NoError(t, err)

	err = reembedder.Run(context.Background(), 7)
	assert.ErrorIs(t, err, wantErr)
}

func TestChunkIterator(t *testing.T) {
	chunkRepo, _ := newTestRepos(t)
	seedChunks(t, chunkRepo, 7, 5)

	t.Run("batches cover all chunks", func(t *testing.T) {
		iterator := NewChunkIterator(chunkRepo, 2)
		var sizes []int
		err := iterator.ForEach(context.Background(), 7, func(batch []*core.Chunk) error {
			sizes = append(sizes, len(batch))
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []int{2, 2, 1}, sizes)
	})

	t.Run("callback error stops iteration", func(t *testing.T) {
		iterator := NewChunkIterator(chunkRepo, 2)
		wantErr := errors.New("stop")
		calls := 0
		err := iterator.ForEach(context.Background(), 7, func(_ []*core.Chunk) error {
			calls++
			return wantErr
		})
		assert.ErrorIs(t, err, wantErr)
		assert.Equal(t, 1, calls)
	})

	t.Run("empty topic makes no calls", func(t *testing.T) {
		iterator := NewChunkIterator(chunkRepo, 2)
		err := iterator.ForEach(context.Background(), 99, func(_ []*core.Chunk) error {
			t.Fatal("unexpected call")
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("non-positive batch size uses default", func(t *testing.T) {
		iterator := NewChunkIterator(chunkRepo, 0)
		calls := 0
		err := iterator.ForEach(context.Background(), 7, func(batch []*core.Chunk) error {
			calls++
			assert.Len(t, batch, 5)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})
}
