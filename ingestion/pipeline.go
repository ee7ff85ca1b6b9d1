package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/index"
	"github.com/poiesic/corpus/storage"
)

// embeddingBatchSize bounds how many chunk texts go to the embedder in
// one request.
const embeddingBatchSize = 16

// Pipeline orchestrates document ingestion: cleaning, chunking, embedding
// and lexical indexing. Embedding batches run concurrently on a worker pool.
type Pipeline struct {
	chunkRepository     storage.ChunkRepository
	embeddingRepository storage.EmbeddingRepository
	indexManager        *index.Manager
	embedder            ai.Embedder
	model               string
	pool                *ants.Pool
	chunkSize           int
	chunkStride         int
	logger              *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		p.pool = pool
		return nil
	}
}

// WithChunking sets the chunk window size and stride, in tokens.
// Defaults are DefaultChunkSize and DefaultChunkStride.
func WithChunking(size, stride int) Option {
	return func(p *Pipeline) error {
		if size > 0 {
			p.chunkSize = size
		}
		if stride > 0 {
			p.chunkStride = stride
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
// The model names the embedding model under which generated vectors are
// stored.
func NewPipeline(
	chunkRepository storage.ChunkRepository,
	embeddingRepository storage.EmbeddingRepository,
	indexManager *index.Manager,
	embedder ai.Embedder,
	model string,
	opts ...Option,
) (*Pipeline, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embeddingRepository == nil {
		return nil, ErrEmbeddingRepositoryRequired
	}
	if indexManager == nil {
		return nil, ErrIndexManagerRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		chunkRepository:     chunkRepository,
		embeddingRepository: embeddingRepository,
		indexManager:        indexManager,
		embedder:            embedder,
		model:               model,
		pool:                pool,
		chunkSize:           DefaultChunkSize,
		chunkStride:         DefaultChunkStride,
		logger:              slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// IngestDocument cleans and chunks the document text, stores the chunks,
// generates and stores embeddings, and indexes the chunks in the topic's
// lexical index. The document ID is derived from the document name; a
// previously ingested version of the same name is removed first, so
// re-ingesting replaces rather than duplicates.
// Returns the stored chunks.
func (p *Pipeline) IngestDocument(ctx context.Context, topicID core.ID, documentName, text string) ([]*core.Chunk, error) {
	documentID := core.IDFromContent(documentName)

	cleaned := CleanText(text)
	segments := ChunkText(cleaned, p.chunkSize, p.chunkStride)
	if len(segments) == 0 {
		return nil, ErrEmptyDocument
	}

	existing, err := p.chunkRepository.FindByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		if err := p.removeChunks(ctx, topicID, existing); err != nil {
			return nil, err
		}
		p.logger.Info("replacing previously ingested document",
			"document", documentName, "chunks", len(existing))
	}

	chunks := make([]*core.Chunk, len(segments))
	for i, segment := range segments {
		chunks[i] = &core.Chunk{
			DocumentId: documentID,
			TopicId:    topicID,
			ChunkIndex: i,
			Text:       segment.Text,
			TokenCount: segment.TokenCount,
		}
	}

	added, err := p.chunkRepository.AddChunks(ctx, chunks...)
	if err != nil {
		return nil, err
	}

	if err := p.embedChunks(ctx, added); err != nil {
		return nil, err
	}

	if err := p.indexManager.BatchUpsert(ctx, added, topicID); err != nil {
		return nil, err
	}

	p.logger.Info("ingested document",
		"document", documentName, "topicID", topicID, "chunks", len(added))
	return added, nil
}

// embedChunks generates and stores embeddings for the chunks, batched and
// submitted to the worker pool. The first batch error is returned after
// all batches finish.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []*core.Chunk) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	recordErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for start := 0; start < len(chunks); start += embeddingBatchSize {
		end := start + embeddingBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()

			texts := make([]string, len(batch))
			for i, chunk := range batch {
				texts[i] = chunk.Text
			}

			vectors, err := p.embedder.EmbedTexts(ctx, texts)
			if err != nil {
				p.logger.Error("error generating embeddings", "batchSize", len(batch), "err", err)
				recordErr(err)
				return
			}
			if len(vectors) != len(batch) {
				p.logger.Warn("embedder returned unexpected vector count",
					"expected", len(batch), "got", len(vectors))
			}

			for i, chunk := range batch {
				if i >= len(vectors) {
					break
				}
				_, err := p.embeddingRepository.Create(ctx, &core.Embedding{
					ChunkId: chunk.Id,
					TopicId: chunk.TopicId,
					Model:   p.model,
					Vector:  vectors[i],
				})
				if err != nil {
					p.logger.Error("error storing embedding", "chunkID", chunk.Id, "err", err)
					recordErr(err)
					return
				}
			}
		})
		if submitErr != nil {
			wg.Done()
			recordErr(submitErr)
		}
	}

	wg.Wait()
	return firstErr
}

// ReindexTopic rebuilds the topic's lexical index from the stored chunks.
func (p *Pipeline) ReindexTopic(ctx context.Context, topicID core.ID) error {
	chunks, err := p.chunkRepository.FindByTopic(ctx, topicID)
	if err != nil {
		return err
	}
	return p.indexManager.Rebuild(ctx, chunks, topicID)
}

// RemoveDocument deletes a document's chunks, their embeddings, and their
// lexical index entries. The document is addressed by the same name used
// at ingestion. Removing an unknown document is not an error.
func (p *Pipeline) RemoveDocument(ctx context.Context, topicID core.ID, documentName string) error {
	documentID := core.IDFromContent(documentName)

	chunks, err := p.chunkRepository.FindByDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		p.logger.Debug("no chunks found for document", "document", documentName)
		return nil
	}

	if err := p.removeChunks(ctx, topicID, chunks); err != nil {
		return err
	}

	p.logger.Info("removed document",
		"document", documentName, "topicID", topicID, "chunks", len(chunks))
	return nil
}

// removeChunks deletes the chunks along with their embeddings and lexical
// index entries.
func (p *Pipeline) removeChunks(ctx context.Context, topicID core.ID, chunks []*core.Chunk) error {
	ids := make([]core.ID, len(chunks))
	for i, chunk := range chunks {
		ids[i] = chunk.Id

		if err := p.embeddingRepository.DeleteByChunk(ctx, chunk.Id); err != nil {
			return err
		}
		if err := p.indexManager.Delete(ctx, chunk.Id, topicID); err != nil {
			return err
		}
	}
	return p.chunkRepository.DeleteChunks(ctx, ids...)
}

// TopicStats summarizes what is stored and indexed for a topic.
type TopicStats struct {
	Chunks     int
	Embeddings int
	IndexSize  int
}

// Stats reports chunk, embedding and lexical index counts for a topic.
func (p *Pipeline) Stats(ctx context.Context, topicID core.ID) (*TopicStats, error) {
	chunkCount, err := p.chunkRepository.CountByTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}
	embeddingCount, err := p.embeddingRepository.CountByTopic(ctx, topicID, p.model)
	if err != nil {
		return nil, err
	}
	indexSize, err := p.indexManager.Size(ctx, topicID)
	if err != nil {
		return nil, err
	}

	return &TopicStats{
		Chunks:     chunkCount,
		Embeddings: embeddingCount,
		IndexSize:  indexSize,
	}, nil
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
