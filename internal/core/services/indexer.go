package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/crateview/docquery/internal/core/domain"
	"github.com/crateview/docquery/internal/core/ports/driven"
)

// Splitter cuts extracted records into overlapping chunks.
type Splitter interface {
	Split(documentID string, records []domain.Record) []domain.Chunk
}

// DocumentIndexer writes a document's chunks into the vector store and
// removes them again. Implemented by IndexerService; declared as an
// interface so ingestion can be tested with a mock.
type DocumentIndexer interface {
	// Index chunks, embeds and upserts the records. Returns the
	// number of chunks indexed.
	Index(ctx context.Context, doc *domain.Document, records []domain.Record) (int, error)

	// Remove drops the document's collection.
	Remove(ctx context.Context, documentID string) error
}

// Ensure IndexerService implements the interface.
var _ DocumentIndexer = (*IndexerService)(nil)

// IndexerService turns extracted records into indexed vectors. Writes
// to the same document are serialized so a re-index cannot interleave
// with itself; different documents index concurrently.
type IndexerService struct {
	splitter  Splitter
	embedder  driven.EmbeddingService
	vectors   driven.VectorStore
	log       *zap.Logger
	batchSize int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// DefaultEmbedBatchSize bounds how many chunks go into one embedding
// API call.
const DefaultEmbedBatchSize = 64

// NewIndexerService creates a new indexer service.
func NewIndexerService(
	splitter Splitter,
	embedder driven.EmbeddingService,
	vectors driven.VectorStore,
	log *zap.Logger,
) *IndexerService {
	if log == nil {
		log = zap.NewNop()
	}
	return &IndexerService{
		splitter:  splitter,
		embedder:  embedder,
		vectors:   vectors,
		log:       log,
		batchSize: DefaultEmbedBatchSize,
		locks:     make(map[string]*sync.Mutex),
	}
}

// lockFor returns the per-document mutex, creating it on first use.
func (s *IndexerService) lockFor(documentID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[documentID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[documentID] = l
	}
	return l
}

// Index chunks the records, embeds them in batches and upserts the
// result into the document's collection. Chunk IDs are deterministic,
// so indexing the same content twice overwrites rather than
// duplicates. On a partial failure the error reports how many chunks
// made it in.
func (s *IndexerService) Index(ctx context.Context, doc *domain.Document, records []domain.Record) (int, error) {
	lock := s.lockFor(doc.ID)
	lock.Lock()
	defer lock.Unlock()

	chunks := s.splitter.Split(doc.ID, records)
	if len(chunks) == 0 {
		s.log.Info("nothing to index", zap.String("document_id", doc.ID))
		return 0, nil
	}

	indexed := 0
	for start := 0; start < len(chunks); start += s.batchSize {
		end := start + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return indexed, &domain.IndexingError{DocumentID: doc.ID, Indexed: indexed, Err: err}
		}
		if len(vectors) != len(batch) {
			return indexed, &domain.IndexingError{
				DocumentID: doc.ID,
				Indexed:    indexed,
				Err:        domain.ErrEmbeddingUnavailable,
			}
		}

		entries := make([]driven.VectorEntry, len(batch))
		for i, chunk := range batch {
			entries[i] = driven.VectorEntry{
				ChunkID: chunk.ID,
				Text:    chunk.Text,
				Locator: chunk.Locator.String(),
				Vector:  vectors[i],
			}
		}

		if err := s.vectors.Upsert(ctx, doc.ID, entries); err != nil {
			return indexed, &domain.IndexingError{DocumentID: doc.ID, Indexed: indexed, Err: err}
		}
		indexed += len(batch)
	}

	s.log.Info("document indexed",
		zap.String("document_id", doc.ID),
		zap.String("name", doc.OriginalName),
		zap.Int("chunks", indexed))
	return indexed, nil
}

// Remove drops the document's collection. Unknown documents are a
// no-op.
func (s *IndexerService) Remove(ctx context.Context, documentID string) error {
	lock := s.lockFor(documentID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.vectors.Drop(ctx, documentID); err != nil {
		return &domain.IndexingError{DocumentID: documentID, Err: err}
	}
	return nil
}
