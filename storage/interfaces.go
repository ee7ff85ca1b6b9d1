package storage

import (
	"context"

	"github.com/poiesic/corpus/core"
)

// ChunkRepository is the chunk catalog: it owns the canonical chunk
// records that retrieval resolves metadata from.
// Implementations must be thread-safe and support concurrent access.
type ChunkRepository interface {
	// AddChunks adds one or more chunks to storage.
	// Chunks with Id=0 get a deterministic content-derived ID. Adding a
	// chunk whose ID already exists overwrites the stored record, so the
	// operation is idempotent for identical content.
	// Returns the chunks with IDs populated.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunks retrieves multiple chunks by their IDs.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error)

	// FindByTopic retrieves all chunks belonging to a topic,
	// ordered by chunk ID.
	FindByTopic(ctx context.Context, topicID core.ID) ([]*core.Chunk, error)

	// FindByDocument retrieves all chunks belonging to a document,
	// ordered by chunk ID.
	FindByDocument(ctx context.Context, documentID core.ID) ([]*core.Chunk, error)

	// DeleteChunks removes chunks by their IDs.
	// Returns ErrNotFound if any chunk doesn't exist.
	DeleteChunks(ctx context.Context, ids ...core.ID) error

	// CountByTopic returns the number of chunks stored for a topic.
	CountByTopic(ctx context.Context, topicID core.ID) (int, error)

	// Close closes the repository and releases resources.
	Close() error
}

// EmbeddingRepository is the embedding store: fixed-length dense vectors
// keyed by (chunk, model).
// Implementations must be thread-safe and support concurrent access.
type EmbeddingRepository interface {
	// Create stores an embedding. If a record already exists for the
	// (ChunkId, Model) pair the call is a no-op and returns the stored
	// record; vectors are never mutated in place.
	Create(ctx context.Context, embedding *core.Embedding) (*core.Embedding, error)

	// Get retrieves the embedding for a (chunk, model) pair.
	// Returns ErrNotFound if no embedding exists.
	Get(ctx context.Context, chunkID core.ID, model string) (*core.Embedding, error)

	// FindByTopic retrieves all embeddings stored for a topic under the
	// given model, ordered by chunk ID.
	FindByTopic(ctx context.Context, topicID core.ID, model string) ([]*core.Embedding, error)

	// DeleteByChunk removes all embeddings for a chunk, across models.
	// Missing records are not an error.
	DeleteByChunk(ctx context.Context, chunkID core.ID) error

	// CountByTopic returns the number of embeddings stored for a topic
	// under the given model.
	CountByTopic(ctx context.Context, topicID core.ID, model string) (int, error)

	// Close closes the repository and releases resources.
	Close() error
}
