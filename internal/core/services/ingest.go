package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/crateview/docquery/internal/core/domain"
	"github.com/crateview/docquery/internal/core/ports/driven"
	"github.com/crateview/docquery/internal/core/ports/driving"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// DefaultIngestConcurrency bounds how many files of a batch are
// processed at once.
const DefaultIngestConcurrency = 4

// IngestService runs the write path: save the raw file, extract
// records, chunk, embed and index. Files in a batch fail
// independently.
type IngestService struct {
	registry    driven.ExtractorRegistry
	files       driven.FileStore
	docs        driven.DocumentStore
	indexer     DocumentIndexer
	log         *zap.Logger
	concurrency int
	now         func() time.Time
	newID       func() string
}

// IngestOption configures the service.
type IngestOption func(*IngestService)

// WithIngestConcurrency sets the per-batch parallelism.
func WithIngestConcurrency(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithClock replaces the timestamp source (used in tests).
func WithClock(now func() time.Time) IngestOption {
	return func(s *IngestService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces the document ID source (used in tests).
func WithIDGenerator(newID func() string) IngestOption {
	return func(s *IngestService) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	registry driven.ExtractorRegistry,
	files driven.FileStore,
	docs driven.DocumentStore,
	indexer DocumentIndexer,
	log *zap.Logger,
	opts ...IngestOption,
) *IngestService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &IngestService{
		registry:    registry,
		files:       files,
		docs:        docs,
		indexer:     indexer,
		log:         log,
		concurrency: DefaultIngestConcurrency,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestBatch processes the uploads concurrently, one result per
// upload in input order. A file's failure lands in its result; only
// batch-level problems (context cancellation) surface as the error.
func (s *IngestService) IngestBatch(ctx context.Context, uploads []driving.Upload) ([]driving.IngestResult, error) {
	if len(uploads) == 0 {
		return nil, nil
	}

	results := make([]driving.IngestResult, len(uploads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, upload := range uploads {
		i, upload := i, upload
		g.Go(func() error {
			results[i] = s.ingestOne(gctx, upload)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("ingest batch: %w", err)
	}
	return results, nil
}

// ingestOne runs the full write path for a single upload.
func (s *IngestService) ingestOne(ctx context.Context, upload driving.Upload) driving.IngestResult {
	if upload.Filename == "" || len(upload.Data) == 0 {
		return driving.IngestResult{
			Err: fmt.Errorf("empty upload: %w", domain.ErrInvalidInput),
		}
	}

	id := s.newID()
	doc := domain.Document{
		ID:           id,
		OriginalName: upload.Filename,
		StoredName:   id + strings.ToLower(filepath.Ext(upload.Filename)),
		ContentType:  s.registry.ResolveMIMEType(upload.Filename, upload.ContentType),
		Size:         int64(len(upload.Data)),
		UploadedAt:   s.now(),
	}

	// Unsupported types are rejected before anything is stored.
	extractor, err := s.registry.ForMIMEType(doc.ContentType)
	if err != nil {
		return driving.IngestResult{
			Err: fmt.Errorf("%s: %w", upload.Filename, err),
		}
	}

	if err := s.files.Save(ctx, doc.StoredName, upload.Data); err != nil {
		return driving.IngestResult{Err: fmt.Errorf("saving %s: %w", upload.Filename, err)}
	}
	if err := s.docs.SaveDocument(ctx, &doc); err != nil {
		return driving.IngestResult{Err: fmt.Errorf("recording %s: %w", upload.Filename, err)}
	}

	records, err := extractor.Extract(ctx, upload.Filename, upload.Data)
	if err != nil {
		s.log.Warn("extraction failed",
			zap.String("document_id", doc.ID),
			zap.String("name", upload.Filename),
			zap.Error(err))
		return driving.IngestResult{Document: doc, Err: err}
	}

	indexed, err := s.indexer.Index(ctx, &doc, records)
	if err != nil {
		return driving.IngestResult{Document: doc, ChunksIndexed: indexed, Err: err}
	}

	s.log.Info("file ingested",
		zap.String("document_id", doc.ID),
		zap.String("name", doc.OriginalName),
		zap.Int("chunks", indexed))
	return driving.IngestResult{Document: doc, ChunksIndexed: indexed}
}

// Reindex re-runs extract/chunk/index for a stored document. Because
// chunk IDs are deterministic, an unchanged file overwrites its own
// entries and the collection count stays stable.
func (s *IngestService) Reindex(ctx context.Context, documentID string) (int, error) {
	doc, err := s.docs.GetDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}

	data, err := s.files.Load(ctx, doc.StoredName)
	if err != nil {
		return 0, fmt.Errorf("loading %s: %w", doc.OriginalName, err)
	}

	extractor, err := s.registry.ForMIMEType(doc.ContentType)
	if err != nil {
		return 0, err
	}

	records, err := extractor.Extract(ctx, doc.OriginalName, data)
	if err != nil {
		return 0, err
	}

	return s.indexer.Index(ctx, doc, records)
}

// Delete removes a document. The vector collection goes first: if
// that fails the file and metadata stay, so the document remains
// visible and retriable rather than half-deleted but still searchable.
func (s *IngestService) Delete(ctx context.Context, documentID string) error {
	doc, err := s.docs.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	if err := s.indexer.Remove(ctx, documentID); err != nil {
		return err
	}

	if err := s.files.Delete(ctx, doc.StoredName); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("deleting file %s: %w", doc.StoredName, err)
	}
	if err := s.docs.DeleteDocument(ctx, documentID); err != nil {
		return err
	}

	s.log.Info("document deleted",
		zap.String("document_id", documentID),
		zap.String("name", doc.OriginalName))
	return nil
}
