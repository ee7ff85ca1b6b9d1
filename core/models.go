package core

import (
	"encoding/binary"
	"fmt"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Chunk is the atomic retrieval and indexing unit: a bounded slice of a
// source document's text, owned by exactly one document and one topic.
// Chunks are immutable once created.
type Chunk struct {
	Id         ID
	DocumentId ID
	TopicId    ID
	ChunkIndex int
	Text       string
	TokenCount int
}

// Embedding is a dense vector representation of a chunk's text under a
// specific embedding model. Unique per (ChunkId, Model); never mutated
// in place.
type Embedding struct {
	ChunkId ID
	TopicId ID
	Model   string
	Vector  []float32
}

// ContentID derives the chunk's deterministic identifier from its owning
// document, position and text. Identical content always produces the
// same ID.
func (c *Chunk) ContentID() ID {
	return IDFromContent(fmt.Sprintf("%d:%d:%d:%s", c.DocumentId, c.TopicId, c.ChunkIndex, c.Text))
}

// RetrievalResult is one ranked entry returned by hybrid retrieval.
// SemanticScore and LexicalScore are the normalized per-signal scores
// that produced HybridScore.
type RetrievalResult struct {
	ChunkId       ID
	DocumentId    ID
	TopicId       ID
	ChunkIndex    int
	Text          string
	HybridScore   float64
	SemanticScore float64
	LexicalScore  float64
}

// IndexHit is a single lexical search hit: a chunk matched by the
// BM25 index together with its raw relevance score.
type IndexHit struct {
	ChunkId    ID
	DocumentId ID
	ChunkIndex int
	Score      float64
}

// Params holds the hybrid retrieval tunables.
// Alpha weights the semantic signal against the lexical one; the three
// K values bound the semantic candidate set, the lexical candidate set,
// and the final context list respectively.
type Params struct {
	Alpha     float64
	KSemantic int
	KLexical  int
	KContext  int
}

// DefaultParams returns the standard retrieval tunables: a moderate
// semantic bias with generous candidate pools.
func DefaultParams() Params {
	return Params{
		Alpha:     0.6,
		KSemantic: 200,
		KLexical:  200,
		KContext:  30,
	}
}
