package driving

import (
	"context"

	"github.com/crateview/docquery/internal/core/domain"
)

// DocumentService exposes read access to stored documents.
type DocumentService interface {
	// List returns all uploaded documents, newest first.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves document metadata by ID.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Content returns the raw stored bytes for download.
	Content(ctx context.Context, id string) (*domain.Document, []byte, error)
}
