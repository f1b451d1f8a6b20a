// Package sqlite provides SQLite-backed metadata storage: document
// records and chat history share one database file with embedded
// migrations.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/crateview/docquery/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/crateview/docquery/internal/core/domain"
	"github.com/crateview/docquery/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// the metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("store: data directory is required")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// WAL mode for better concurrency between API handlers.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// HistoryStore returns a HistoryStore interface backed by this store.
func (s *Store) HistoryStore() driven.HistoryStore {
	return &historyStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
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

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates a document record.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, original_name, stored_name, content_type, size, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			original_name = excluded.original_name,
			stored_name = excluded.stored_name,
			content_type = excluded.content_type,
			size = excluded.size,
			uploaded_at = excluded.uploaded_at
	`, doc.ID, doc.OriginalName, doc.StoredName, doc.ContentType, doc.Size, doc.UploadedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, original_name, stored_name, content_type, size, uploaded_at
		FROM documents WHERE id = ?
	`, id)

	var doc domain.Document
	var uploadedAt sql.NullTime
	if err := row.Scan(&doc.ID, &doc.OriginalName, &doc.StoredName,
		&doc.ContentType, &doc.Size, &uploadedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	if uploadedAt.Valid {
		doc.UploadedAt = uploadedAt.Time
	}
	return &doc, nil
}

// ListDocuments returns all documents, newest first.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, original_name, stored_name, content_type, size, uploaded_at
		FROM documents ORDER BY uploaded_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		var doc domain.Document
		var uploadedAt sql.NullTime
		if err := rows.Scan(&doc.ID, &doc.OriginalName, &doc.StoredName,
			&doc.ContentType, &doc.Size, &uploadedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if uploadedAt.Valid {
			doc.UploadedAt = uploadedAt.Time
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document record.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ==================== History Store ====================

// historyStore implements driven.HistoryStore.
type historyStore struct {
	store *Store
}

var _ driven.HistoryStore = (*historyStore)(nil)

// AppendTurn records a query and its answer in a session.
func (s *historyStore) AppendTurn(ctx context.Context, sessionID string, turn driven.Turn) error {
	if sessionID == "" {
		return domain.ErrInvalidInput
	}

	answerJSON, err := json.Marshal(turn.Answer)
	if err != nil {
		return fmt.Errorf("marshalling answer: %w", err)
	}

	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO chat_turns (session_id, query, answer, created_at)
		VALUES (?, ?, ?, ?)
	`, sessionID, turn.Query, string(answerJSON), createdAt)

	if err != nil {
		return fmt.Errorf("appending turn: %w", err)
	}
	return nil
}

// GetSession returns a session's turns in chronological order.
func (s *historyStore) GetSession(ctx context.Context, sessionID string) ([]driven.Turn, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT query, answer, created_at
		FROM chat_turns WHERE session_id = ?
		ORDER BY created_at, id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []driven.Turn //nolint:prealloc // size unknown from query
	for rows.Next() {
		var turn driven.Turn
		var answerJSON string
		var createdAt sql.NullTime
		if err := rows.Scan(&turn.Query, &answerJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		if err := json.Unmarshal([]byte(answerJSON), &turn.Answer); err != nil {
			return nil, fmt.Errorf("unmarshalling answer: %w", err)
		}
		if createdAt.Valid {
			turn.CreatedAt = createdAt.Time
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}
	return turns, nil
}

// ListSessions returns summaries of all sessions, newest first.
func (s *historyStore) ListSessions(ctx context.Context) ([]driven.SessionSummary, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT session_id,
		       COUNT(*) AS turn_count,
		       MAX(created_at) AS updated_at,
		       (SELECT query FROM chat_turns t2
		        WHERE t2.session_id = chat_turns.session_id
		        ORDER BY t2.created_at DESC, t2.id DESC LIMIT 1) AS last_query
		FROM chat_turns
		GROUP BY session_id
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []driven.SessionSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		var summary driven.SessionSummary
		var updatedAt sql.NullTime
		if err := rows.Scan(&summary.SessionID, &summary.TurnCount, &updatedAt, &summary.LastQuery); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if updatedAt.Valid {
			summary.UpdatedAt = updatedAt.Time
		}
		sessions = append(sessions, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}
