// Package sqlite provides a SQLite-backed vector store. Embeddings are
// stored as little-endian float32 blobs in one table keyed by
// (document_id, chunk_id); a collection is the set of rows sharing a
// document ID. Similarity is computed in process, which is fine for
// the per-document collection sizes this store serves.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/crateview/docquery/internal/adapters/driven/vectorstore/sqlite/migrations"
	"github.com/crateview/docquery/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore persists per-document embedding collections in SQLite.
type VectorStore struct {
	db   *sql.DB
	path string
}

// NewVectorStore creates a vector store at dataDir/vectors.db.
func NewVectorStore(dataDir string) (*VectorStore, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("vector store: data directory is required")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "vectors.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &VectorStore{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *VectorStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *VectorStore) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *VectorStore) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Upsert inserts or replaces entries in the document's collection.
func (s *VectorStore) Upsert(ctx context.Context, documentID string, entries []driven.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (document_id, chunk_id, content, locator, embedding)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(document_id, chunk_id) DO UPDATE SET
			content = excluded.content,
			locator = excluded.locator,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		blob := float32SliceToBytes(entry.Vector)
		if _, err := stmt.ExecContext(ctx, documentID, entry.ChunkID, entry.Text, entry.Locator, blob); err != nil {
			return fmt.Errorf("saving vector %s: %w", entry.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Search returns up to k entries ranked by descending cosine
// similarity. Ties break by chunk ID for stable ordering.
func (s *VectorStore) Search(ctx context.Context, documentID string, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, content, locator, embedding
		FROM vectors WHERE document_id = ?
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var hit driven.VectorHit
		var blob []byte
		if err := rows.Scan(&hit.ChunkID, &hit.Text, &hit.Locator, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		hit.DocumentID = documentID
		hit.Similarity = cosineSimilarity(query, bytesToFloat32Slice(blob))
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Collections lists document IDs that currently have rows.
func (s *VectorStore) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT document_id FROM vectors ORDER BY document_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer rows.Close()

	var ids []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating collections: %w", err)
	}
	return ids, nil
}

// Drop removes the document's collection. Unknown IDs are a no-op.
func (s *VectorStore) Drop(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM vectors WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("dropping collection: %w", err)
	}
	return nil
}

// Count returns the number of entries in the document's collection.
func (s *VectorStore) Count(ctx context.Context, documentID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vectors WHERE document_id = ?", documentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return count, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// cosineSimilarity computes the cosine of the angle between two
// vectors. Mismatched lengths or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
