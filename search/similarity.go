package search

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/poiesic/corpus/core"
)

// Cosine computes the cosine similarity between two vectors.
// Returns core.ErrDimensionMismatch if the vectors differ in length.
// Returns 0.0 when either vector has zero magnitude.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", core.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// TopK scans all candidate embeddings and returns the k most similar to the
// query vector, ordered by similarity descending. Ties are broken by chunk ID
// ascending. An empty candidate set yields an empty result.
func TopK(query []float32, candidates []*core.Embedding, k int, logger *slog.Logger) ([]*core.IndexHit, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if len(candidates) == 0 {
		logger.Warn("no embeddings available for semantic search")
		return []*core.IndexHit{}, nil
	}
	if k <= 0 {
		return []*core.IndexHit{}, nil
	}

	hits := make([]*core.IndexHit, 0, len(candidates))
	for _, embedding := range candidates {
		score, err := Cosine(query, embedding.Vector)
		if err != nil {
			return nil, fmt.Errorf("scoring chunk %d: %w", embedding.ChunkId, err)
		}
		hits = append(hits, &core.IndexHit{
			ChunkId: embedding.ChunkId,
			Score:   score,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkId < hits[j].ChunkId
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}
