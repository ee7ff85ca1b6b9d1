// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
)

// EmbeddingRepository implements storage.EmbeddingRepository for BadgerDB.
type EmbeddingRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates a new EmbeddingRepository.
func NewEmbeddingRepository(backend *Backend) *EmbeddingRepository {
	return &EmbeddingRepository{
		backend: backend,
		logger:  slog.Default().With("component", "embedding-repository"),
	}
}

// Close is a no-op; the repository holds no resources beyond the backend.
func (r *EmbeddingRepository) Close() error {
	return nil
}

// Create stores an embedding. Duplicate (chunk, model) pairs are a no-op
// returning the already stored record.
func (r *EmbeddingRepository) Create(ctx context.Context, embedding *core.Embedding) (*core.Embedding, error) {
	var result *core.Embedding
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeEmbeddingKey(embedding.ChunkId, embedding.Model)

		existing, err := readEmbedding(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			r.logger.Debug("embedding already exists",
				"chunk", embedding.ChunkId, "model", embedding.Model)
			result = existing
			return nil
		}

		if err := tx.Set(key, storage.MarshalEmbedding(embedding)); err != nil {
			return err
		}

		topicKey := makeEmbeddingTopicKey(embedding.TopicId, embedding.Model, embedding.ChunkId)
		if err := tx.Set(topicKey, storage.MarshalID(embedding.ChunkId)); err != nil {
			return err
		}

		result = embedding
		return tx.Commit()
	}, true)
	return result, err
}

// Get retrieves the embedding for a (chunk, model) pair.
func (r *EmbeddingRepository) Get(ctx context.Context, chunkID core.ID, model string) (*core.Embedding, error) {
	var result *core.Embedding
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readEmbedding(tx, makeEmbeddingKey(chunkID, model))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// FindByTopic retrieves all embeddings for a topic under the given model,
// ordered by chunk ID.
func (r *EmbeddingRepository) FindByTopic(ctx context.Context, topicID core.ID, model string) ([]*core.Embedding, error) {
	var results []*core.Embedding
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialEmbeddingTopicKey(topicID, model)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunkID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				chunkID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			embedding, err := readEmbedding(tx, makeEmbeddingKey(chunkID, model))
			if err != nil {
				return err
			}
			if embedding != nil {
				results = append(results, embedding)
			}
		}
		return nil
	}, false)
	return results, err
}

// DeleteByChunk removes all embeddings for a chunk, across models.
func (r *EmbeddingRepository) DeleteByChunk(ctx context.Context, chunkID core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialEmbeddingKey(chunkID)

		// Collect first: deleting while iterating invalidates the iterator.
		var keys [][]byte
		var records []*core.Embedding
		collect := func() error {
			iter := tx.NewIterator(opts)
			defer iter.Close()
			for iter.Rewind(); iter.Valid(); iter.Next() {
				item := iter.Item()
				var embedding *core.Embedding
				if err := item.Value(func(val []byte) error {
					var err error
					embedding, err = storage.UnmarshalEmbedding(val)
					return err
				}); err != nil {
					return err
				}
				keys = append(keys, item.KeyCopy(nil))
				records = append(records, embedding)
			}
			return nil
		}
		if err := collect(); err != nil {
			return err
		}

		for i, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
			topicKey := makeEmbeddingTopicKey(records[i].TopicId, records[i].Model, records[i].ChunkId)
			if err := tx.Delete(topicKey); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// CountByTopic returns the number of embeddings stored for a topic under
// the given model.
func (r *EmbeddingRepository) CountByTopic(ctx context.Context, topicID core.ID, model string) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialEmbeddingTopicKey(topicID, model)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// readEmbedding reads an embedding record from the transaction.
// Returns nil without error if the key does not exist.
func readEmbedding(tx *badger.Txn, key []byte) (*core.Embedding, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var embedding *core.Embedding
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		embedding, unmarshalErr = storage.UnmarshalEmbedding(val)
		return unmarshalErr
	})
	return embedding, err
}
