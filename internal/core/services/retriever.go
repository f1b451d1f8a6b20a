package services

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/crateview/docquery/internal/core/domain"
	"github.com/crateview/docquery/internal/core/ports/driven"
)

// EvidenceRetriever finds the chunks most similar to a query.
// Implemented by RetrieverService; declared as an interface so the
// query service can be tested with a mock.
type EvidenceRetriever interface {
	// Retrieve embeds the query once and searches the target
	// collections, returning a merged ranking of at most topK
	// evidence items. An empty result is not an error.
	Retrieve(ctx context.Context, query string, documentIDs []string, topK int) ([]domain.Evidence, error)
}

// Ensure RetrieverService implements the interface.
var _ EvidenceRetriever = (*RetrieverService)(nil)

// DefaultTopK is the evidence budget when none is requested.
const DefaultTopK = 5

// RetrieverService runs similarity search across per-document
// collections and merges the results into one global ranking.
type RetrieverService struct {
	embedder driven.EmbeddingService
	vectors  driven.VectorStore
	docs     driven.DocumentStore
	log      *zap.Logger
}

// NewRetrieverService creates a new retriever service.
func NewRetrieverService(
	embedder driven.EmbeddingService,
	vectors driven.VectorStore,
	docs driven.DocumentStore,
	log *zap.Logger,
) *RetrieverService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RetrieverService{
		embedder: embedder,
		vectors:  vectors,
		docs:     docs,
		log:      log,
	}
}

// Retrieve searches every target collection with the same query
// vector, asking each for topK candidates, then merges by descending
// similarity with (document ID, chunk ID) as the tie-break. Duplicate
// chunk IDs keep their highest score. Unknown document IDs in the
// filter contribute nothing rather than failing the query.
func (s *RetrieverService) Retrieve(ctx context.Context, query string, documentIDs []string, topK int) ([]domain.Evidence, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrInvalidInput
	}
	if topK < 1 {
		topK = DefaultTopK
	}

	targets := documentIDs
	if len(targets) == 0 {
		all, err := s.vectors.Collections(ctx)
		if err != nil {
			return nil, &domain.RetrievalError{Err: err}
		}
		targets = all
	}
	if len(targets) == 0 {
		return nil, nil
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &domain.RetrievalError{Err: err}
	}

	// Each collection contributes up to topK candidates; the merge
	// below cuts the union back down to topK.
	best := make(map[string]driven.VectorHit)
	for _, docID := range targets {
		hits, err := s.vectors.Search(ctx, docID, vector, topK)
		if err != nil {
			return nil, &domain.RetrievalError{Err: err}
		}
		for _, hit := range hits {
			if prev, ok := best[hit.ChunkID]; !ok || hit.Similarity > prev.Similarity {
				best[hit.ChunkID] = hit
			}
		}
	}
	if len(best) == 0 {
		return nil, nil
	}

	merged := make([]driven.VectorHit, 0, len(best))
	for _, hit := range best {
		merged = append(merged, hit)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Similarity != merged[j].Similarity {
			return merged[i].Similarity > merged[j].Similarity
		}
		if merged[i].DocumentID != merged[j].DocumentID {
			return merged[i].DocumentID < merged[j].DocumentID
		}
		return merged[i].ChunkID < merged[j].ChunkID
	})
	if len(merged) > topK {
		merged = merged[:topK]
	}

	names := s.documentNames(ctx, merged)

	evidence := make([]domain.Evidence, len(merged))
	for i, hit := range merged {
		evidence[i] = domain.Evidence{
			ChunkID:      hit.ChunkID,
			DocumentID:   hit.DocumentID,
			DocumentName: names[hit.DocumentID],
			Text:         hit.Text,
			Locator:      hit.Locator,
			Score:        hit.Similarity,
			Rank:         i,
		}
	}

	s.log.Debug("evidence retrieved",
		zap.Int("collections", len(targets)),
		zap.Int("evidence", len(evidence)))
	return evidence, nil
}

// documentNames resolves original filenames for citation display.
// A missing metadata record leaves the name empty instead of failing
// the query.
func (s *RetrieverService) documentNames(ctx context.Context, hits []driven.VectorHit) map[string]string {
	names := make(map[string]string)
	for _, hit := range hits {
		if _, ok := names[hit.DocumentID]; ok {
			continue
		}
		doc, err := s.docs.GetDocument(ctx, hit.DocumentID)
		if err != nil {
			names[hit.DocumentID] = ""
			continue
		}
		names[hit.DocumentID] = doc.OriginalName
	}
	return names
}
