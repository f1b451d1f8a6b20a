package driven

import "context"

// EmbeddingService generates vector embeddings from text. The same
// service instance (same model, same dimensionality) must be used for
// indexing and for queries; mixing embedding spaces silently breaks
// similarity search.
//
// Implementations may include:
//   - OpenAI-compatible APIs (text-embedding-3-small, ...)
//   - A local deterministic embedder for tests and offline use
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	// Deterministic for identical input and model version.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
