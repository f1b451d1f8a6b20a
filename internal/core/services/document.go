package services

import (
	"context"

	"github.com/crateview/docquery/internal/core/domain"
	"github.com/crateview/docquery/internal/core/ports/driven"
	"github.com/crateview/docquery/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService exposes read access to stored documents.
type DocumentService struct {
	docs  driven.DocumentStore
	files driven.FileStore
}

// NewDocumentService creates a new document service.
func NewDocumentService(docs driven.DocumentStore, files driven.FileStore) *DocumentService {
	return &DocumentService{docs: docs, files: files}
}

// List returns all uploaded documents, newest first.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	return s.docs.ListDocuments(ctx)
}

// Get retrieves document metadata by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.docs.GetDocument(ctx, id)
}

// Content returns document metadata together with the raw stored
// bytes for download.
func (s *DocumentService) Content(ctx context.Context, id string) (*domain.Document, []byte, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.files.Load(ctx, doc.StoredName)
	if err != nil {
		return nil, nil, err
	}
	return doc, data, nil
}
