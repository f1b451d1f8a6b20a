package driven

import (
	"context"

	"github.com/crateview/docquery/internal/core/domain"
)

// Extractor converts raw file bytes into a sequence of text records
// with positional metadata. Each extractor handles specific MIME types
// (e.g. CSV, PDF); no semantic processing happens here.
type Extractor interface {
	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Specific format extractors should return 50-89; fallback
	// extractors 1-9.
	Priority() int

	// Extract parses the file into records. A file that cannot be
	// parsed fails with a *domain.ExtractionError.
	Extract(ctx context.Context, filename string, data []byte) ([]domain.Record, error)
}

// ExtractorRegistry resolves an extractor for a content type.
type ExtractorRegistry interface {
	// ForMIMEType returns the highest-priority extractor for the MIME
	// type, or domain.ErrUnsupportedType if none is registered.
	ForMIMEType(mimeType string) (Extractor, error)

	// ResolveMIMEType picks the effective MIME type for an upload
	// from the declared content type and the filename. Browsers often
	// declare application/octet-stream; the extension decides then.
	ResolveMIMEType(filename, contentType string) string
}
