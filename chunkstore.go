package cerebro

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// ChunkStore persists the chunked, embedded source material for each live
// session. It is a working cache, not a durable corpus: a session's rows
// are replaced wholesale when new material is processed and deleted when
// the session is cleared.
type ChunkStore struct {
	db *sql.DB
}

// StoredChunk is one row of a session's indexed material.
type StoredChunk struct {
	Num       int
	Text      string
	Embedding []float32
}

// OpenChunkStore opens (creating if necessary) the sqlite database at
// dbPath.
func OpenChunkStore(dbPath string) (*ChunkStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &ChunkStore{db: db}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database connection.
func (cs *ChunkStore) Close() error {
	return cs.db.Close()
}

func (cs *ChunkStore) createTables() error {
	query := `CREATE TABLE IF NOT EXISTS chunks (
		session_id TEXT NOT NULL,
		chunk_num INTEGER NOT NULL,
		text TEXT NOT NULL,
		embedding TEXT NOT NULL,
		PRIMARY KEY (session_id, chunk_num)
	)`
	if _, err := cs.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create chunks table: %w", err)
	}
	return nil
}

// ReplaceChunks atomically swaps in a session's chunk set: any previous
// rows for the session are gone before the new ones land, and a failure
// rolls the whole swap back.
func (cs *ChunkStore) ReplaceChunks(ctx context.Context, sessionID string, chunks []string, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}

	tx, err := cs.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to clear previous chunks: %w", err)
	}

	for i, text := range chunks {
		embJSON, err := EmbeddingToJSON(embeddings[i])
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO chunks (session_id, chunk_num, text, embedding) VALUES (?, ?, ?, ?)",
			sessionID, i, text, embJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

// Chunks returns all stored chunks for a session in order.
func (cs *ChunkStore) Chunks(ctx context.Context, sessionID string) ([]StoredChunk, error) {
	rows, err := cs.db.QueryContext(ctx,
		"SELECT chunk_num, text, embedding FROM chunks WHERE session_id = ? ORDER BY chunk_num",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get chunks: %w", err)
	}
	defer rows.Close()

	var chunks []StoredChunk
	for rows.Next() {
		var chunk StoredChunk
		var embJSON string
		if err := rows.Scan(&chunk.Num, &chunk.Text, &embJSON); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunk.Embedding, err = JSONToEmbedding(embJSON)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunks: %w", err)
	}
	return chunks, nil
}

// ChunkCount returns how many chunks a session has stored.
func (cs *ChunkStore) ChunkCount(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := cs.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE session_id = ?", sessionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// DeleteSession removes all chunks belonging to a session.
func (cs *ChunkStore) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := cs.db.ExecContext(ctx, "DELETE FROM chunks WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session chunks: %w", err)
	}
	return nil
}

// EmbeddingToJSON serializes an embedding vector for storage.
func EmbeddingToJSON(embedding []float32) (string, error) {
	data, err := json.Marshal(embedding)
	if err != nil {
		return "", fmt.Errorf("failed to marshal embedding: %w", err)
	}
	return string(data), nil
}

// JSONToEmbedding deserializes a stored embedding vector.
func JSONToEmbedding(embJSON string) ([]float32, error) {
	var embedding []float32
	if err := json.Unmarshal([]byte(embJSON), &embedding); err != nil {
		return nil, fmt.Errorf("failed to unmarshal embedding: %w", err)
	}
	return embedding, nil
}
