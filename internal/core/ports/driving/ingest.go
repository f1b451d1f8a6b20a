package driving

import (
	"context"

	"github.com/crateview/docquery/internal/core/domain"
)

// Upload is one file in an upload batch.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// IngestResult reports the outcome of ingesting one file. A batch
// always yields one result per upload; failures never abort siblings.
type IngestResult struct {
	// Document is the stored document metadata (zero when saving the
	// file itself failed).
	Document domain.Document

	// ChunksIndexed is the number of chunks written to the vector
	// store.
	ChunksIndexed int

	// Err is the per-file failure, if any (*domain.ExtractionError or
	// *domain.IndexingError).
	Err error
}

// IngestService runs the write path: save, extract, chunk, index.
type IngestService interface {
	// IngestBatch processes the uploads, in parallel across files.
	// Results are returned in input order. The returned error reflects
	// batch-level failures only (e.g. context cancellation), never a
	// single file's.
	IngestBatch(ctx context.Context, uploads []Upload) ([]IngestResult, error)

	// Reindex re-runs extract/chunk/index for a stored document.
	// Idempotent: an unchanged document produces the same chunk IDs
	// and the same stored vector count.
	Reindex(ctx context.Context, documentID string) (int, error)

	// Delete removes a document: vector collection first, then file
	// and metadata. A failed vector removal aborts the delete.
	Delete(ctx context.Context, documentID string) error
}
