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


package corpus

import (
	"log/slog"
	"path/filepath"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/ai/openai"
	"github.com/poiesic/corpus/index"
	"github.com/poiesic/corpus/ingestion"
	"github.com/poiesic/corpus/search"
	"github.com/poiesic/corpus/storage"
	"github.com/poiesic/corpus/storage/badger"
)

// Corpus is the top-level handle to a corpus data directory: the chunk
// and embedding stores, the per-topic lexical indexes, and the embedding
// service.
type Corpus struct {
	backend       *badger.Backend
	chunkRepo     storage.ChunkRepository
	embeddingRepo storage.EmbeddingRepository
	indexManager  *index.Manager
	embedder      ai.Embedder
	model         string
	logger        *slog.Logger
}

// CorpusOption configures a Corpus.
type CorpusOption func(*corpusOptions)

type corpusOptions struct {
	aiConfig *ai.Config
	embedder ai.Embedder
}

// WithAIConfig sets the embedding service configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) CorpusOption {
	return func(o *corpusOptions) {
		o.aiConfig = config
	}
}

// WithEmbedder injects an embedder directly, bypassing the embedding
// service configuration. Intended for tests.
func WithEmbedder(embedder ai.Embedder) CorpusOption {
	return func(o *corpusOptions) {
		o.embedder = embedder
	}
}

// Open opens (or creates) a corpus at dataDir. The chunk and embedding
// stores live under dataDir/db and the per-topic lexical indexes under
// dataDir/indexes.
func Open(dataDir string, opts ...CorpusOption) (*Corpus, error) {
	// Apply options
	options := &corpusOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filepath.Join(dataDir, "db"), false)
	if err != nil {
		return nil, err
	}

	chunkRepo := badger.NewChunkRepository(backend)
	embeddingRepo := badger.NewEmbeddingRepository(backend)

	// Create index manager
	indexManager, err := index.NewManager(filepath.Join(dataDir, "indexes"))
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create embedder with configured settings unless one was injected
	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	return &Corpus{
		backend:       backend,
		chunkRepo:     chunkRepo,
		embeddingRepo: embeddingRepo,
		indexManager:  indexManager,
		embedder:      embedder,
		model:         options.aiConfig.Model,
		logger:        slog.Default(),
	}, nil
}

func (c *Corpus) Close() error {
	// Close repositories
	if err := c.embeddingRepo.Close(); err != nil {
		c.logger.Error("error closing embedding repository", "err", err)
		return err
	}
	if err := c.chunkRepo.Close(); err != nil {
		c.logger.Error("error closing chunk repository", "err", err)
		return err
	}

	// Close backend
	if err := c.backend.Close(); err != nil {
		c.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (c *Corpus) ChunkRepository() storage.ChunkRepository {
	return c.chunkRepo
}

func (c *Corpus) EmbeddingRepository() storage.EmbeddingRepository {
	return c.embeddingRepo
}

func (c *Corpus) IndexManager() *index.Manager {
	return c.indexManager
}

func (c *Corpus) Embedder() ai.Embedder {
	return c.embedder
}

func (c *Corpus) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(c.chunkRepo, c.embeddingRepo, c.indexManager, c.embedder, c.model, opts...)
}

func (c *Corpus) NewRetriever(opts ...search.Option) (*search.Retriever, error) {
	return search.NewRetriever(c.chunkRepo, c.embeddingRepo, c.indexManager, c.embedder, c.model, opts...)
}
