package driven

import (
	"context"
	"time"

	"github.com/crateview/docquery/internal/core/domain"
)

// HistoryStore persists chat turns per session. It is an optional
// collaborator outside the retrieval core: the pipeline never reads it.
type HistoryStore interface {
	// AppendTurn records a query and its answer in a session,
	// creating the session on first use.
	AppendTurn(ctx context.Context, sessionID string, turn Turn) error

	// GetSession returns a session's turns in chronological order.
	GetSession(ctx context.Context, sessionID string) ([]Turn, error)

	// ListSessions returns summaries of all sessions, newest first.
	ListSessions(ctx context.Context) ([]SessionSummary, error)
}

// Turn is one query/answer pair in a session.
type Turn struct {
	Query     string
	Answer    domain.StructuredAnswer
	CreatedAt time.Time
}

// SessionSummary describes a session for listing.
type SessionSummary struct {
	SessionID string
	TurnCount int
	LastQuery string
	UpdatedAt time.Time
}
