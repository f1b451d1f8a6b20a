package driven

import (
	"context"

	"github.com/crateview/docquery/internal/core/domain"
)

// DocumentStore persists document metadata. Backed by SQLite.
type DocumentStore interface {
	// SaveDocument stores or updates a document record.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns all documents, newest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// DeleteDocument removes a document record.
	DeleteDocument(ctx context.Context, id string) error
}
