package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/crateview/docquery/internal/core/domain"
	"github.com/crateview/docquery/internal/core/ports/driven"
	"github.com/crateview/docquery/internal/core/ports/driving"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryService runs the read path: retrieve evidence, compose a cited
// answer, and optionally record the turn in chat history.
type QueryService struct {
	retriever EvidenceRetriever
	composer  AnswerComposer
	history   driven.HistoryStore
	log       *zap.Logger
	topK      int
}

// QueryOption configures the service.
type QueryOption func(*QueryService)

// WithDefaultTopK sets the evidence budget used when a request does
// not specify one.
func WithDefaultTopK(k int) QueryOption {
	return func(s *QueryService) {
		if k > 0 {
			s.topK = k
		}
	}
}

// NewQueryService creates a new query service. The history store may
// be nil; turns are then not recorded.
func NewQueryService(
	retriever EvidenceRetriever,
	composer AnswerComposer,
	history driven.HistoryStore,
	log *zap.Logger,
	opts ...QueryOption,
) *QueryService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &QueryService{
		retriever: retriever,
		composer:  composer,
		history:   history,
		log:       log,
		topK:      DefaultTopK,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer retrieves evidence for the query and composes an answer.
// Generation failures degrade the answer; retrieval failures error.
func (s *QueryService) Answer(ctx context.Context, query string, opts driving.QueryOptions) (*driving.QueryResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidInput
	}

	topK := opts.TopK
	if topK < 1 {
		topK = s.topK
	}

	evidence, err := s.retriever.Retrieve(ctx, query, opts.DocumentIDs, topK)
	if err != nil {
		return nil, err
	}

	answer, degraded, err := s.composer.Compose(ctx, query, evidence)
	if err != nil {
		return nil, err
	}

	result := &driving.QueryResult{
		Answer:   answer,
		Evidence: evidence,
		Degraded: degraded,
	}

	if opts.SessionID != "" && s.history != nil {
		// History is best-effort; a failed write never fails the
		// answer the user already has.
		if err := s.history.AppendTurn(ctx, opts.SessionID, driven.Turn{
			Query:  query,
			Answer: answer,
		}); err != nil {
			s.log.Warn("recording chat turn failed",
				zap.String("session_id", opts.SessionID),
				zap.Error(err))
		}
	}

	return result, nil
}
