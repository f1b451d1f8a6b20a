package domain

// Evidence is a query-time retrieval result: a chunk plus its rank and
// similarity score. Rebuilt per query, never persisted.
type Evidence struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the owning document.
	DocumentID string

	// DocumentName is the original filename, for citations.
	DocumentName string

	// Text is the chunk content.
	Text string

	// Locator is the chunk's rendered position in the source document
	// ("rows 0-2", "page 3", empty when untracked).
	Locator string

	// Score is the cosine similarity to the query (higher is better).
	Score float64

	// Rank is the 0-based position in the merged global ranking.
	Rank int
}

// Citation points at one piece of evidence backing a statement in the
// answer. Citations that do not resolve to supplied evidence are
// rejected during composition.
type Citation struct {
	ChunkID      string
	DocumentID   string
	DocumentName string
	Locator      string
	Snippet      string
	Confidence   float64
}

// StructuredAnswer is the final output of the read path: answer text,
// resolved citations, and a confidence estimate in [0,1].
type StructuredAnswer struct {
	Answer     string
	Citations  []Citation
	Confidence float64
}
