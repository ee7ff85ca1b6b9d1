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


package index

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/poiesic/corpus/core"
)

const createTableSQL = `CREATE VIRTUAL TABLE IF NOT EXISTS chunks USING fts5(
	chunk_id UNINDEXED,
	document_id UNINDEXED,
	chunk_index UNINDEXED,
	content
)`

// Manager maintains one BM25-ranked full-text index per topic, each a
// standalone SQLite FTS5 database file under the base directory. The
// chunk_id column is the exact-match identifier; content is the analyzed
// text. Writers against the same topic must be externally serialized.
type Manager struct {
	baseDir string
	logger  *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// NewManager creates an index manager rooted at baseDir.
// The directory is created if it doesn't exist.
func NewManager(baseDir string, opts ...Option) (*Manager, error) {
	if baseDir == "" {
		return nil, ErrBaseDirRequired
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating index base directory: %w", err)
	}

	m := &Manager{
		baseDir: baseDir,
		logger:  slog.Default().With("component", "lexical-index"),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// topicPath returns the database file for a topic.
func (m *Manager) topicPath(topicID core.ID) string {
	return filepath.Join(m.baseDir, fmt.Sprintf("topic-%d.db", topicID))
}

// openTopic opens the topic database, creating the schema when create is set.
func (m *Manager) openTopic(topicID core.ID, create bool) (*sql.DB, error) {
	path := m.topicPath(topicID)
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening index for topic %d: %w", topicID, err)
	}
	if create {
		if _, err := db.Exec(createTableSQL); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating index schema for topic %d: %w", topicID, err)
		}
	}
	return db, nil
}

// Upsert replaces the indexed document for the chunk, or inserts it if
// absent. The change is committed and visible when the call returns.
func (m *Manager) Upsert(ctx context.Context, chunk *core.Chunk) error {
	db, err := m.openTopic(chunk.TopicId, true)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := upsertChunk(ctx, tx, chunk); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	m.logger.Debug("indexed chunk", "chunk", chunk.Id, "topic", chunk.TopicId)
	return nil
}

// BatchUpsert upserts all chunks belonging to topicID in one transaction.
// Chunks with a different TopicId are skipped with a warning rather than
// failing the batch.
func (m *Manager) BatchUpsert(ctx context.Context, chunks []*core.Chunk, topicID core.ID) error {
	if len(chunks) == 0 {
		m.logger.Debug("no chunks to index", "topic", topicID)
		return nil
	}

	db, err := m.openTopic(topicID, true)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	indexed := 0
	for _, chunk := range chunks {
		if chunk.TopicId != topicID {
			m.logger.Warn("chunk belongs to different topic, skipping",
				"chunk", chunk.Id, "chunkTopic", chunk.TopicId, "topic", topicID)
			continue
		}
		if err := upsertChunk(ctx, tx, chunk); err != nil {
			tx.Rollback()
			return err
		}
		indexed++
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	m.logger.Info("batch indexed chunks", "count", indexed, "topic", topicID)
	return nil
}

// Rebuild destroys the topic's on-disk index and recreates it from the
// given chunks.
func (m *Manager) Rebuild(ctx context.Context, chunks []*core.Chunk, topicID core.ID) error {
	if err := m.DeleteIndex(topicID); err != nil {
		return err
	}

	db, err := m.openTopic(topicID, true)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, chunk := range chunks {
		if err := insertChunk(ctx, tx, chunk); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	m.logger.Info("rebuilt index", "count", len(chunks), "topic", topicID)
	return nil
}

// Delete removes the indexed document for a chunk.
// A missing index or missing document is a no-op.
func (m *Manager) Delete(ctx context.Context, chunkID, topicID core.ID) error {
	if !m.Exists(topicID) {
		m.logger.Debug("index does not exist", "topic", topicID)
		return nil
	}

	db, err := m.openTopic(topicID, false)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, "DELETE FROM chunks WHERE chunk_id = ?", formatID(chunkID))
	if err != nil {
		return fmt.Errorf("deleting chunk %d from topic %d index: %w", chunkID, topicID, err)
	}

	m.logger.Debug("deleted chunk from index", "chunk", chunkID, "topic", topicID)
	return nil
}

// DeleteIndex removes the entire on-disk structure for a topic.
func (m *Manager) DeleteIndex(topicID core.ID) error {
	path := m.topicPath(topicID)
	for _, f := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing index for topic %d: %w", topicID, err)
		}
	}
	m.logger.Info("deleted index", "topic", topicID)
	return nil
}

// Search runs a BM25 query against the topic index. The query text is
// treated as unstructured input: FTS query syntax is escaped before
// matching. Results are ordered by descending score, chunk id ascending
// on ties. A missing topic index yields an empty result, not an error.
func (m *Manager) Search(ctx context.Context, topicID core.ID, queryText string, maxResults int) ([]*core.IndexHit, error) {
	if !m.fileExists(topicID) {
		m.logger.Warn("index does not exist", "topic", topicID)
		return nil, nil
	}

	escaped := escapeQuery(queryText)
	if escaped == "" {
		return nil, nil
	}

	db, err := m.openTopic(topicID, false)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	// FTS5 ranks are negative with better matches more negative, so
	// ascending rank order is descending relevance.
	rows, err := db.QueryContext(ctx,
		`SELECT chunk_id, document_id, chunk_index, bm25(chunks) AS rank
		 FROM chunks WHERE chunks MATCH ?
		 ORDER BY rank ASC, chunk_id ASC LIMIT ?`,
		escaped, maxResults)
	if err != nil {
		return nil, fmt.Errorf("searching topic %d index: %w", topicID, err)
	}
	defer rows.Close()

	var hits []*core.IndexHit
	for rows.Next() {
		var chunkID, documentID string
		var chunkIndex int
		var rank float64
		if err := rows.Scan(&chunkID, &documentID, &chunkIndex, &rank); err != nil {
			return nil, err
		}

		cid, err := parseID(chunkID)
		if err != nil {
			return nil, err
		}
		did, err := parseID(documentID)
		if err != nil {
			return nil, err
		}

		hits = append(hits, &core.IndexHit{
			ChunkId:    cid,
			DocumentId: did,
			ChunkIndex: chunkIndex,
			Score:      -rank,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	m.logger.Debug("lexical search completed", "topic", topicID, "hits", len(hits))
	return hits, nil
}

// Exists reports whether a non-empty index exists for the topic.
func (m *Manager) Exists(topicID core.ID) bool {
	if !m.fileExists(topicID) {
		return false
	}
	size, err := m.Size(context.Background(), topicID)
	if err != nil {
		m.logger.Debug("index exists but is not readable", "topic", topicID, "err", err)
		return false
	}
	return size > 0
}

// Size returns the number of indexed documents for a topic, or 0 if the
// index doesn't exist.
func (m *Manager) Size(ctx context.Context, topicID core.ID) (int, error) {
	if !m.fileExists(topicID) {
		return 0, nil
	}

	db, err := m.openTopic(topicID, false)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count); err != nil {
		return 0, fmt.Errorf("reading index size for topic %d: %w", topicID, err)
	}
	return count, nil
}

func (m *Manager) fileExists(topicID core.ID) bool {
	_, err := os.Stat(m.topicPath(topicID))
	return err == nil
}

// upsertChunk deletes any previous indexed document for the chunk and
// inserts the current one.
func upsertChunk(ctx context.Context, tx *sql.Tx, chunk *core.Chunk) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM chunks WHERE chunk_id = ?", formatID(chunk.Id)); err != nil {
		return err
	}
	return insertChunk(ctx, tx, chunk)
}

func insertChunk(ctx context.Context, tx *sql.Tx, chunk *core.Chunk) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO chunks (chunk_id, document_id, chunk_index, content) VALUES (?, ?, ?, ?)",
		formatID(chunk.Id), formatID(chunk.DocumentId), chunk.ChunkIndex, chunk.Text)
	return err
}

// formatID renders an ID as a fixed-width decimal string so that
// lexicographic ordering of the stored column matches numeric ordering.
func formatID(id core.ID) string {
	return fmt.Sprintf("%020d", id)
}

func parseID(s string) (core.ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q in index: %w", s, err)
	}
	return core.ID(v), nil
}
