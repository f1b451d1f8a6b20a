// Package local provides a deterministic embedding service with no
// external dependencies. Tokens are hashed into a fixed number of
// buckets and the resulting vector is L2-normalised, so identical
// texts always embed identically and lexical overlap translates into
// cosine similarity. Useful for tests and offline runs; not a
// substitute for a learned model.
package local

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/crateview/docquery/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions is the vector size when none is configured.
const DefaultDimensions = 256

// EmbeddingService embeds text by hashed bag-of-words.
type EmbeddingService struct {
	dimensions int
}

// Option configures the service.
type Option func(*EmbeddingService)

// WithDimensions sets the vector size.
func WithDimensions(n int) Option {
	return func(s *EmbeddingService) {
		if n > 0 {
			s.dimensions = n
		}
	}
}

// NewEmbeddingService creates a new local embedding service.
func NewEmbeddingService(opts ...Option) *EmbeddingService {
	s := &EmbeddingService{dimensions: DefaultDimensions}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, s.dimensions)
	for _, token := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[int(h.Sum32())%s.dimensions]++
	}
	normalize(vec)
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = vec
	}
	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return "local-hash"
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

// tokenize lowercases and splits on anything that is not a letter or
// digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// normalize scales the vector to unit length in place.
func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
