package driven

import "context"

// VectorStore persists embeddings in per-document collections and
// supports nearest-neighbour search. A collection holds all
// (embedding, text, metadata) entries for exactly one document; every
// vector in a collection has matching dimensionality.
//
// There is no single shared index: deletion, search filtering and
// write serialization are all scoped by document ID.
type VectorStore interface {
	// Upsert inserts or replaces entries in the document's collection,
	// keyed by chunk ID. Re-indexing never duplicates rows.
	Upsert(ctx context.Context, documentID string, entries []VectorEntry) error

	// Search returns up to k entries from the document's collection
	// ranked by descending cosine similarity to the query vector.
	// An unknown document yields an empty result, not an error.
	Search(ctx context.Context, documentID string, query []float32, k int) ([]VectorHit, error)

	// Collections lists the document IDs that currently have a
	// collection.
	Collections(ctx context.Context) ([]string, error)

	// Drop removes the document's collection entirely. Dropping an
	// unknown collection is a no-op.
	Drop(ctx context.Context, documentID string) error

	// Count returns the number of entries in the document's collection.
	Count(ctx context.Context, documentID string) (int, error)

	// Close releases resources.
	Close() error
}

// VectorEntry is one stored (embedding, chunk, metadata) triple.
type VectorEntry struct {
	// ChunkID is the upsert key within the collection.
	ChunkID string

	// Text is the chunk content, stored for retrieval hydration.
	Text string

	// Locator is the rendered source position ("rows 0-2", "page 3").
	Locator string

	// Vector is the embedding.
	Vector []float32
}

// VectorHit is a similarity search result.
type VectorHit struct {
	ChunkID    string
	DocumentID string
	Text       string
	Locator    string

	// Similarity is cosine similarity; higher is more relevant.
	Similarity float64
}
