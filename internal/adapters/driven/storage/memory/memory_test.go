package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crateview/docquery/internal/core/domain"
	"github.com/crateview/docquery/internal/core/ports/driven"
)

func TestDocumentStore(t *testing.T) {
	ctx := context.Background()
	s := NewDocumentStore()

	older := domain.Document{ID: "doc1", OriginalName: "one.csv", UploadedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}
	newer := domain.Document{ID: "doc2", OriginalName: "two.pdf", UploadedAt: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, s.SaveDocument(ctx, &older))
	require.NoError(t, s.SaveDocument(ctx, &newer))

	got, err := s.GetDocument(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "one.csv", got.OriginalName)

	all, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "doc2", all[0].ID)

	require.NoError(t, s.DeleteDocument(ctx, "doc1"))
	_, err = s.GetDocument(ctx, "doc1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, s.SaveDocument(ctx, &domain.Document{}), domain.ErrInvalidInput)
}

func TestDocumentStoreUpsert(t *testing.T) {
	ctx := context.Background()
	s := NewDocumentStore()

	require.NoError(t, s.SaveDocument(ctx, &domain.Document{ID: "doc1", Size: 10}))
	require.NoError(t, s.SaveDocument(ctx, &domain.Document{ID: "doc1", Size: 20}))

	got, err := s.GetDocument(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.Size)

	all, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore()

	require.NoError(t, s.Save(ctx, "doc1.csv", []byte("a,b\n1,2\n")))

	data, err := s.Load(ctx, "doc1.csv")
	require.NoError(t, err)
	assert.Equal(t, []byte("a,b\n1,2\n"), data)

	require.NoError(t, s.Delete(ctx, "doc1.csv"))
	_, err = s.Load(ctx, "doc1.csv")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "doc1.csv"), domain.ErrNotFound)

	assert.ErrorIs(t, s.Save(ctx, "", nil), domain.ErrInvalidInput)
}

func TestFileStoreCopiesData(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore()

	src := []byte("original")
	require.NoError(t, s.Save(ctx, "f", src))
	src[0] = 'X'

	data, err := s.Load(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), data)
}

func TestHistoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore()

	first := driven.Turn{
		Query:     "how much is a widget?",
		Answer:    domain.StructuredAnswer{Answer: "9.99"},
		CreatedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}
	second := driven.Turn{
		Query:     "and a gadget?",
		Answer:    domain.StructuredAnswer{Answer: "19.99"},
		CreatedAt: time.Date(2026, 8, 30, 11, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.AppendTurn(ctx, "sess1", first))
	require.NoError(t, s.AppendTurn(ctx, "sess1", second))

	turns, err := s.GetSession(ctx, "sess1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "how much is a widget?", turns[0].Query)
	assert.Equal(t, "19.99", turns[1].Answer.Answer)

	summaries, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "sess1", summaries[0].SessionID)
	assert.Equal(t, 2, summaries[0].TurnCount)
	assert.Equal(t, "and a gadget?", summaries[0].LastQuery)
	assert.Equal(t, second.CreatedAt, summaries[0].UpdatedAt)

	assert.ErrorIs(t, s.AppendTurn(ctx, "", first), domain.ErrInvalidInput)
}

func TestHistoryStoreUnknownSession(t *testing.T) {
	s := NewHistoryStore()

	turns, err := s.GetSession(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, turns)
}
