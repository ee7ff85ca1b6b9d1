package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/corpus/core"
)

// Key prefixes for different data types
const (
	chunkRecordPrefix    = "chkrec"
	chunkTopicPrefix     = "chktop"
	chunkDocumentPrefix  = "chkdoc"
	embeddingPrefix      = "embrec"
	embeddingTopicPrefix = "embtop"
)

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkRecordPrefix, id))
}

// makeChunkTopicKey generates a composite key for the topic index.
// Format: prefix:topicID:chunkID
func makeChunkTopicKey(topicID, chunkID core.ID) []byte {
	return makeCompositeKey(chunkTopicPrefix, topicID, chunkID)
}

// makePartialChunkTopicKey generates a partial key for topic scans.
func makePartialChunkTopicKey(topicID core.ID) []byte {
	return makePartialCompositeKey(chunkTopicPrefix, topicID)
}

// makeChunkDocumentKey generates a composite key for the document index.
// Format: prefix:documentID:chunkID
func makeChunkDocumentKey(documentID, chunkID core.ID) []byte {
	return makeCompositeKey(chunkDocumentPrefix, documentID, chunkID)
}

// makePartialChunkDocumentKey generates a partial key for document scans.
func makePartialChunkDocumentKey(documentID core.ID) []byte {
	return makePartialCompositeKey(chunkDocumentPrefix, documentID)
}

// makeEmbeddingKey generates the primary key for an embedding by
// (chunkID, model).
func makeEmbeddingKey(chunkID core.ID, model string) []byte {
	return []byte(fmt.Sprintf("%s:%d:%s", embeddingPrefix, chunkID, model))
}

// makePartialEmbeddingKey generates a partial key matching every model's
// embedding for a chunk.
func makePartialEmbeddingKey(chunkID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d:", embeddingPrefix, chunkID))
}

// makeEmbeddingTopicKey generates a composite key for the per-topic,
// per-model embedding index.
// Format: prefix:topicID:model:chunkID
func makeEmbeddingTopicKey(topicID core.ID, model string, chunkID core.ID) []byte {
	prefix := makePartialEmbeddingTopicKey(topicID, model)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkID))
	return buf
}

// makePartialEmbeddingTopicKey generates a partial key for (topic, model)
// embedding scans.
func makePartialEmbeddingTopicKey(topicID core.ID, model string) []byte {
	prefix := []byte(embeddingTopicPrefix + ":")
	buf := make([]byte, len(prefix)+8+1+len(model)+1)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(topicID))
	offset += 8
	buf[offset] = ':'
	offset++
	offset += copy(buf[offset:], []byte(model))
	buf[offset] = ':'
	return buf
}

// makeCompositeKey builds prefix:id1:id2 with both IDs in BigEndian order
// so lexicographic iteration yields ascending ID order.
func makeCompositeKey(prefix string, id1, id2 core.ID) []byte {
	prefixBytes := []byte(prefix + ":")
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id1))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id2))
	return buf
}

// makePartialCompositeKey builds prefix:id1 for prefix scans.
func makePartialCompositeKey(prefix string, id1 core.ID) []byte {
	prefixBytes := []byte(prefix + ":")
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id1))
	return buf
}
