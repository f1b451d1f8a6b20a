// Package memory provides in-memory implementations of the metadata
// and blob stores for tests and ephemeral runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/crateview/docquery/internal/core/domain"
	"github.com/crateview/docquery/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore keeps document records in a map.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
}

// NewDocumentStore creates an empty in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]domain.Document)}
}

// SaveDocument stores or updates a document record.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[doc.ID] = *doc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListDocuments returns all documents, newest first.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].UploadedAt.After(docs[j].UploadedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

// DeleteDocument removes a document record.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, id)
	return nil
}
