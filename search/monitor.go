package search

import (
	"github.com/poiesic/corpus/core"
)

// RetrievalMonitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results during retrieval.
type RetrievalMonitor interface {
	Start(query string)
	AfterQueryEmbedding(dimension int)
	AfterSemanticSearch(hits []*core.IndexHit)
	AfterLexicalSearch(hits []*core.IndexHit)
	AfterNormalization(semantic, lexical map[core.ID]float64)
	AfterChunkRetrieval(chunks []*core.Chunk)
	Finish(results []*core.RetrievalResult)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                 {}
func (n *noopMonitor) AfterQueryEmbedding(_ int)                      {}
func (n *noopMonitor) AfterSemanticSearch(_ []*core.IndexHit)         {}
func (n *noopMonitor) AfterLexicalSearch(_ []*core.IndexHit)          {}
func (n *noopMonitor) AfterNormalization(_, _ map[core.ID]float64)    {}
func (n *noopMonitor) AfterChunkRetrieval(_ []*core.Chunk)            {}
func (n *noopMonitor) Finish(_ []*core.RetrievalResult)               {}
