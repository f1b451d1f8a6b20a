package local

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedDeterministic(t *testing.T) {
	ctx := context.Background()
	s := NewEmbeddingService()

	a, err := s.Embed(ctx, "widgets cost nine dollars")
	require.NoError(t, err)
	b, err := s.Embed(ctx, "widgets cost nine dollars")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, DefaultDimensions)
}

func TestEmbedUnitLength(t *testing.T) {
	s := NewEmbeddingService()
	vec, err := s.Embed(context.Background(), "one two three four")
	require.NoError(t, err)

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
}

func TestEmbedLexicalOverlap(t *testing.T) {
	ctx := context.Background()
	s := NewEmbeddingService()

	base, err := s.Embed(ctx, "the quick brown fox")
	require.NoError(t, err)
	similar, err := s.Embed(ctx, "the quick brown dog")
	require.NoError(t, err)
	unrelated, err := s.Embed(ctx, "quarterly revenue spreadsheet totals")
	require.NoError(t, err)

	assert.Greater(t, dot(base, similar), dot(base, unrelated))
}

func TestEmbedEmptyText(t *testing.T) {
	s := NewEmbeddingService()
	vec, err := s.Embed(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, vec, DefaultDimensions)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestEmbedBatch(t *testing.T) {
	ctx := context.Background()
	s := NewEmbeddingService(WithDimensions(32))
	assert.Equal(t, 32, s.Dimensions())

	vecs, err := s.EmbedBatch(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	single, err := s.Embed(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, single, vecs[0])
}

func TestTokenize(t *testing.T) {
	assert.Equal(t,
		[]string{"price", "9", "99", "per", "unit"},
		tokenize("Price: 9.99, per-unit!"))
	assert.Empty(t, tokenize("  ...  "))
}

// dot assumes unit vectors, so this is cosine similarity.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	if math.IsNaN(sum) {
		return 0
	}
	return sum
}
