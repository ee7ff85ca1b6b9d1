// Package ingestion provides pipeline orchestration for processing documents.
//
// The Pipeline type manages the ingestion workflow for documents, including:
//   - Cleaning and chunking document text into overlapping token windows
//   - Adding chunks to storage
//   - Generating and storing embeddings in concurrent batches
//   - Indexing chunks in the topic's lexical index
//
// Embedding is performed concurrently using a worker pool to maximize
// throughput; ingestion fails if any batch fails, so a successful call
// means every stored chunk is embedded and indexed.
package ingestion
