// Package chunker assembles extracted records into bounded-size text
// chunks suitable for embedding.
package chunker

import (
	"strings"

	"github.com/crateview/docquery/internal/core/domain"
)

// DefaultMaxChars is the default maximum characters per chunk.
const DefaultMaxChars = 1000

// DefaultOverlap is the default number of characters seeded from the
// previous chunk into the next one.
const DefaultOverlap = 200

// Chunker splits record sequences into chunks by greedy accumulation.
// Records are joined with a newline into one canonical stream; chunk
// boundaries fall on record boundaries unless a single record exceeds
// the limit, in which case it is hard-split at character boundaries.
type Chunker struct {
	maxChars int
	overlap  int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxChars sets the chunk size limit in characters.
func WithMaxChars(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxChars = n
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxChars: DefaultMaxChars,
		overlap:  DefaultOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	// Overlap must leave room for new content in every chunk.
	if c.overlap >= c.maxChars {
		c.overlap = c.maxChars / 4
	}
	return c
}

// MaxChars returns the configured chunk size limit.
func (c *Chunker) MaxChars() int { return c.maxChars }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split chunks the records for a document. Chunk IDs are a pure
// function of (documentID, sequence index), so re-chunking unchanged
// input reproduces identical IDs.
func (c *Chunker) Split(documentID string, records []domain.Record) []domain.Chunk {
	var (
		chunks  []domain.Chunk
		body    strings.Builder
		prefix  string
		locator domain.Locator
		first   = true
	)

	closeChunk := func() {
		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(documentID, len(chunks)),
			DocumentID: documentID,
			Text:       prefix + body.String(),
			Locator:    locator,
			Overlap:    len(prefix),
		})
		prefix = tail(chunks[len(chunks)-1].Text, c.overlap)
		body.Reset()
		locator = domain.Locator{}
	}

	for _, rec := range records {
		if rec.Text == "" {
			continue
		}
		seg := rec.Text
		if !first {
			seg = "\n" + seg
		}
		first = false

		if len(prefix)+body.Len()+len(seg) <= c.maxChars {
			body.WriteString(seg)
			locator = locator.Merge(rec.Locator)
			continue
		}

		// Record does not fit: close the running chunk first.
		if body.Len() > 0 {
			closeChunk()
		}

		// Hard-split any segment that alone exceeds the limit. Each
		// piece keeps the record's own locator.
		for len(prefix)+len(seg) > c.maxChars {
			room := c.maxChars - len(prefix)
			body.WriteString(seg[:room])
			locator = rec.Locator
			closeChunk()
			seg = seg[room:]
		}

		body.WriteString(seg)
		locator = rec.Locator
	}

	if body.Len() > 0 {
		closeChunk()
	}
	return chunks
}

// tail returns the last n characters of s.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
