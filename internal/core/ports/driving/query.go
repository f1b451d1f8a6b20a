package driving

import (
	"context"

	"github.com/crateview/docquery/internal/core/domain"
)

// QueryOptions configures a question.
type QueryOptions struct {
	// TopK is the evidence budget; values < 1 fall back to the
	// configured default.
	TopK int

	// DocumentIDs restricts retrieval to these documents when
	// non-empty.
	DocumentIDs []string

	// SessionID, when set, appends the turn to the chat history.
	SessionID string
}

// QueryResult is the full read-path output.
type QueryResult struct {
	Answer   domain.StructuredAnswer
	Evidence []domain.Evidence

	// Degraded is true when the generation service failed and the
	// answer was substituted with a fallback.
	Degraded bool
}

// QueryService answers questions from indexed documents. It always
// returns a StructuredAnswer shape; generation failures degrade the
// answer rather than erroring the request.
type QueryService interface {
	Answer(ctx context.Context, query string, opts QueryOptions) (*QueryResult, error)
}
