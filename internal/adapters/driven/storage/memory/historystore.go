package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/crateview/docquery/internal/core/domain"
	"github.com/crateview/docquery/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// HistoryStore keeps chat sessions in a map.
type HistoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]driven.Turn
}

// NewHistoryStore creates an empty in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{sessions: make(map[string][]driven.Turn)}
}

// AppendTurn records a query and its answer in a session.
func (s *HistoryStore) AppendTurn(_ context.Context, sessionID string, turn driven.Turn) error {
	if sessionID == "" {
		return domain.ErrInvalidInput
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = append(s.sessions[sessionID], turn)
	return nil
}

// GetSession returns a session's turns in chronological order.
func (s *HistoryStore) GetSession(_ context.Context, sessionID string) ([]driven.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[sessionID]
	out := make([]driven.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// ListSessions returns summaries of all sessions, newest first.
func (s *HistoryStore) ListSessions(_ context.Context) ([]driven.SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]driven.SessionSummary, 0, len(s.sessions))
	for id, turns := range s.sessions {
		if len(turns) == 0 {
			continue
		}
		last := turns[len(turns)-1]
		summaries = append(summaries, driven.SessionSummary{
			SessionID: id,
			TurnCount: len(turns),
			LastQuery: last.Query,
			UpdatedAt: last.CreatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].UpdatedAt.Equal(summaries[j].UpdatedAt) {
			return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
		}
		return summaries[i].SessionID < summaries[j].SessionID
	})
	return summaries, nil
}
