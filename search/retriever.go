package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/index"
	"github.com/poiesic/corpus/storage"
)

// Retriever provides hybrid semantic and lexical retrieval over topic chunks.
//
// Tunables are guarded by a mutex; Retrieve takes a single snapshot of them
// at the start of each call, so a retrieval in flight is never affected by
// concurrent setter calls.
type Retriever struct {
	chunkRepository     storage.ChunkRepository
	embeddingRepository storage.EmbeddingRepository
	indexManager        *index.Manager
	embedder            ai.Embedder
	model               string
	logger              *slog.Logger

	mu     sync.RWMutex
	params core.Params
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithParams sets the initial retrieval tunables.
// Default is core.DefaultParams().
func WithParams(params core.Params) Option {
	return func(r *Retriever) error {
		if err := params.Validate(); err != nil {
			return err
		}
		r.params = params
		return nil
	}
}

// NewRetriever creates a new hybrid retriever.
// The model names the embedding model whose stored vectors are scanned
// during the semantic stage.
func NewRetriever(
	chunkRepository storage.ChunkRepository,
	embeddingRepository storage.EmbeddingRepository,
	indexManager *index.Manager,
	embedder ai.Embedder,
	model string,
	opts ...Option,
) (*Retriever, error) {
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

	r := &Retriever{
		chunkRepository:     chunkRepository,
		embeddingRepository: embeddingRepository,
		indexManager:        indexManager,
		embedder:            embedder,
		model:               model,
		logger:              slog.Default().With("component", "retriever"),
		params:              core.DefaultParams(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Params returns a copy of the current retrieval tunables.
func (r *Retriever) Params() core.Params {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.params
}

// SetParams replaces all retrieval tunables at once.
// Returns a validation error and leaves the current values untouched if
// any field is out of range.
func (r *Retriever) SetParams(params core.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.params = params
	return nil
}

// SetAlpha sets the semantic weight. Must be in [0, 1].
func (r *Retriever) SetAlpha(alpha float64) error {
	if alpha < 0 || alpha > 1 {
		return fmt.Errorf("%w: %v", core.ErrInvalidAlpha, alpha)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.params.Alpha = alpha
	return nil
}

// SetKSemantic sets the semantic candidate pool size. Must be positive.
func (r *Retriever) SetKSemantic(k int) error {
	if k <= 0 {
		return fmt.Errorf("%w: %d", core.ErrInvalidKSemantic, k)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.params.KSemantic = k
	return nil
}

// SetKLexical sets the lexical candidate pool size. Must be positive.
func (r *Retriever) SetKLexical(k int) error {
	if k <= 0 {
		return fmt.Errorf("%w: %d", core.ErrInvalidKLexical, k)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.params.KLexical = k
	return nil
}

// SetKContext sets the final context list size. Must be positive.
func (r *Retriever) SetKContext(k int) error {
	if k <= 0 {
		return fmt.Errorf("%w: %d", core.ErrInvalidKContext, k)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.params.KContext = k
	return nil
}

// Retrieve runs hybrid retrieval for the query against a topic.
// Returns up to KContext results, ranked by blended score descending.
func (r *Retriever) Retrieve(ctx context.Context, topicID core.ID, query string) ([]*core.RetrievalResult, error) {
	return r.RetrieveWithMonitor(ctx, topicID, query, nil)
}

// RetrieveWithMonitor runs hybrid retrieval with monitoring.
// The monitor receives callbacks at each stage of the retrieval process.
//
// The stages are: embed the query, scan stored embeddings for the top
// semantic candidates, query the topic's lexical index, normalize both
// score sets independently, blend them for the union of candidates, and
// resolve chunk metadata for the final ranked list.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, topicID core.ID, query string, monitor RetrievalMonitor) ([]*core.RetrievalResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	params := r.Params()

	monitor.Start(query)

	// 1. Embed the query
	queryVector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		r.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	monitor.AfterQueryEmbedding(len(queryVector))

	// 2. Semantic stage: exhaustive scan of the topic's stored vectors
	embeddings, err := r.embeddingRepository.FindByTopic(ctx, topicID, r.model)
	if err != nil {
		r.logger.Error("error loading embeddings for topic", "topicID", topicID, "err", err)
		return nil, err
	}
	semanticHits, err := TopK(queryVector, embeddings, params.KSemantic, r.logger)
	if err != nil {
		return nil, err
	}
	monitor.AfterSemanticSearch(semanticHits)

	// 3. Lexical stage: BM25 over the topic index
	lexicalHits, err := r.indexManager.Search(ctx, topicID, query, params.KLexical)
	if err != nil {
		r.logger.Error("error querying lexical index", "topicID", topicID, "err", err)
		return nil, err
	}
	monitor.AfterLexicalSearch(lexicalHits)

	// 4. Normalize each score set independently to [0, 1]
	semanticRaw := make(map[core.ID]float64, len(semanticHits))
	for _, hit := range semanticHits {
		semanticRaw[hit.ChunkId] = hit.Score
	}
	lexicalRaw := make(map[core.ID]float64, len(lexicalHits))
	for _, hit := range lexicalHits {
		lexicalRaw[hit.ChunkId] = hit.Score
	}
	semanticScores := NormalizeScores(semanticRaw)
	lexicalScores := NormalizeScores(lexicalRaw)
	monitor.AfterNormalization(semanticScores, lexicalScores)

	// 5. Blend scores for the union of candidates. A chunk absent from
	// one signal contributes 0.0 for that signal.
	candidates := make(map[core.ID]bool, len(semanticScores)+len(lexicalScores))
	for id := range semanticScores {
		candidates[id] = true
	}
	for id := range lexicalScores {
		candidates[id] = true
	}

	if len(candidates) == 0 {
		monitor.Finish([]*core.RetrievalResult{})
		return []*core.RetrievalResult{}, nil
	}

	candidateIds := make([]core.ID, 0, len(candidates))
	for id := range candidates {
		candidateIds = append(candidateIds, id)
	}

	// 6. Resolve chunk metadata. Chunks missing from the catalog are
	// skipped rather than failing the whole retrieval.
	chunks, err := r.chunkRepository.GetChunks(ctx, candidateIds...)
	if err != nil {
		r.logger.Error("error retrieving chunks", "chunkCount", len(candidateIds), "err", err)
		return nil, err
	}
	if len(chunks) < len(candidateIds) {
		r.logger.Warn("some candidate chunks are missing from storage",
			"candidates", len(candidateIds), "resolved", len(chunks))
	}
	monitor.AfterChunkRetrieval(chunks)

	results := make([]*core.RetrievalResult, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk == nil {
			continue
		}
		sem := semanticScores[chunk.Id]
		lex := lexicalScores[chunk.Id]
		results = append(results, &core.RetrievalResult{
			ChunkId:       chunk.Id,
			DocumentId:    chunk.DocumentId,
			TopicId:       chunk.TopicId,
			ChunkIndex:    chunk.ChunkIndex,
			Text:          chunk.Text,
			HybridScore:   params.Alpha*sem + (1-params.Alpha)*lex,
			SemanticScore: sem,
			LexicalScore:  lex,
		})
	}

	// Sort by hybrid score descending, chunk ID ascending on ties
	sort.Slice(results, func(i, j int) bool {
		if results[i].HybridScore != results[j].HybridScore {
			return results[i].HybridScore > results[j].HybridScore
		}
		return results[i].ChunkId < results[j].ChunkId
	})
	if len(results) > params.KContext {
		results = results[:params.KContext]
	}
	monitor.Finish(results)

	return results, nil
}
