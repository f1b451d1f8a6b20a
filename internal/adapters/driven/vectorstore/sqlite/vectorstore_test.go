package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crateview/docquery/internal/core/ports/driven"
)

func newTestStore(t *testing.T) *VectorStore {
	t.Helper()
	s, err := NewVectorStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewVectorStoreRequiresDataDir(t *testing.T) {
	_, err := NewVectorStore("")
	assert.Error(t, err)
}

func TestUpsertSearchRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.Upsert(ctx, "doc1", []driven.VectorEntry{
		{ChunkID: "doc1:0", Text: "north", Locator: "row 0", Vector: []float32{0, 1}},
		{ChunkID: "doc1:1", Text: "east", Locator: "row 1", Vector: []float32{1, 0}},
		{ChunkID: "doc1:2", Text: "northeast", Locator: "row 2", Vector: []float32{1, 1}},
	})
	require.NoError(t, err)

	hits, err := s.Search(ctx, "doc1", []float32{0, 1}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "doc1:0", hits[0].ChunkID)
	assert.Equal(t, "doc1", hits[0].DocumentID)
	assert.Equal(t, "north", hits[0].Text)
	assert.Equal(t, "row 0", hits[0].Locator)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)

	assert.Equal(t, "doc1:2", hits[1].ChunkID)
	assert.InDelta(t, 0.7071, hits[1].Similarity, 1e-3)
}

func TestUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := []driven.VectorEntry{
		{ChunkID: "doc1:0", Text: "v1", Vector: []float32{1, 0}},
	}
	require.NoError(t, s.Upsert(ctx, "doc1", first))
	require.NoError(t, s.Upsert(ctx, "doc1", first))

	second := []driven.VectorEntry{
		{ChunkID: "doc1:0", Text: "v2", Locator: "page 1", Vector: []float32{0, 1}},
	}
	require.NoError(t, s.Upsert(ctx, "doc1", second))

	count, err := s.Count(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	hits, err := s.Search(ctx, "doc1", []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "v2", hits[0].Text)
	assert.Equal(t, "page 1", hits[0].Locator)
}

func TestCollectionsScopedByDocument(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Upsert(ctx, "beta", []driven.VectorEntry{
		{ChunkID: "beta:0", Text: "x", Vector: []float32{1}},
	}))
	require.NoError(t, s.Upsert(ctx, "alpha", []driven.VectorEntry{
		{ChunkID: "alpha:0", Text: "y", Vector: []float32{1}},
	}))

	ids, err := s.Collections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, ids)

	// Search never crosses collections.
	hits, err := s.Search(ctx, "alpha", []float32{1}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "alpha:0", hits[0].ChunkID)
}

func TestDrop(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Upsert(ctx, "doc1", []driven.VectorEntry{
		{ChunkID: "doc1:0", Text: "x", Vector: []float32{1}},
	}))
	require.NoError(t, s.Drop(ctx, "doc1"))
	require.NoError(t, s.Drop(ctx, "unknown"))

	count, err := s.Count(ctx, "doc1")
	require.NoError(t, err)
	assert.Zero(t, count)

	hits, err := s.Search(ctx, "doc1", []float32{1}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewVectorStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, "doc1", []driven.VectorEntry{
		{ChunkID: "doc1:0", Text: "persisted", Vector: []float32{1, 2, 3}},
	}))
	require.NoError(t, s.Close())

	s, err = NewVectorStore(dir)
	require.NoError(t, err)
	defer s.Close()

	hits, err := s.Search(ctx, "doc1", []float32{1, 2, 3}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "persisted", hits[0].Text)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
}

func TestVectorBlobRoundTrip(t *testing.T) {
	in := []float32{0.1, -2.5, 3.25, 0}
	out := bytesToFloat32Slice(float32SliceToBytes(in))
	assert.Equal(t, in, out)

	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
