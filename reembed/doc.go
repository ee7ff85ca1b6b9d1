// Package reembed provides functionality for reembedding stored chunks
// with a new or updated embedding model.
//
// This package supports batch processing of chunks, progress tracking,
// and retry logic with exponential backoff. Vectors are stored under the
// target model name, leaving any existing embeddings untouched, so a
// topic can be migrated to a new model and queried under either.
package reembed
