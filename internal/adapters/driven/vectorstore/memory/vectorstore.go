// Package memory provides an in-memory vector store for tests and
// ephemeral runs. Collections live in a map and vanish on close.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/crateview/docquery/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore keeps per-document collections in memory.
type VectorStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]driven.VectorEntry
}

// NewVectorStore creates an empty in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		collections: make(map[string]map[string]driven.VectorEntry),
	}
}

// Upsert inserts or replaces entries in the document's collection.
func (s *VectorStore) Upsert(_ context.Context, documentID string, entries []driven.VectorEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[documentID]
	if !ok {
		coll = make(map[string]driven.VectorEntry, len(entries))
		s.collections[documentID] = coll
	}
	for _, entry := range entries {
		vec := make([]float32, len(entry.Vector))
		copy(vec, entry.Vector)
		entry.Vector = vec
		coll[entry.ChunkID] = entry
	}
	return nil
}

// Search returns up to k entries ranked by descending cosine
// similarity. Ties break by chunk ID for stable ordering.
func (s *VectorStore) Search(_ context.Context, documentID string, query []float32, k int) ([]driven.VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll := s.collections[documentID]
	if len(coll) == 0 || k <= 0 {
		return nil, nil
	}

	hits := make([]driven.VectorHit, 0, len(coll))
	for _, entry := range coll {
		hits = append(hits, driven.VectorHit{
			ChunkID:    entry.ChunkID,
			DocumentID: documentID,
			Text:       entry.Text,
			Locator:    entry.Locator,
			Similarity: cosineSimilarity(query, entry.Vector),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Collections lists document IDs that currently have a collection.
func (s *VectorStore) Collections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.collections))
	for id := range s.collections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Drop removes the document's collection. Unknown IDs are a no-op.
func (s *VectorStore) Drop(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections, documentID)
	return nil
}

// Count returns the number of entries in the document's collection.
func (s *VectorStore) Count(_ context.Context, documentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.collections[documentID]), nil
}

// Close releases resources.
func (s *VectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collections = make(map[string]map[string]driven.VectorEntry)
	return nil
}

// cosineSimilarity computes the cosine of the angle between two
// vectors. Mismatched lengths or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
