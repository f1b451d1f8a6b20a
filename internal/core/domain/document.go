package domain

import (
	"strconv"
	"time"
)

// Document represents an uploaded file tracked by the system.
// File bytes live in the FileStore; everything else references the ID.
type Document struct {
	// ID is the unique identifier (uuid hex, no dashes).
	ID string

	// OriginalName is the filename as uploaded by the user.
	OriginalName string

	// StoredName is the on-disk filename (ID + original extension).
	StoredName string

	// ContentType is the MIME type reported at upload.
	ContentType string

	// Size is the byte size of the stored file.
	Size int64

	// UploadedAt is when the file was received.
	UploadedAt time.Time
}

// Record is one atomic unit extracted from a document before chunking:
// a table row, a PDF page, or a window of plain-text lines.
// Records are ephemeral; they exist only within an ingestion pass.
type Record struct {
	// Text is the normalised text of the unit.
	Text string

	// Locator ties the record back to its position in the source.
	Locator Locator
}

// Chunk is a bounded span of text assembled from adjacent records.
// It is the unit of embedding and retrieval.
type Chunk struct {
	// ID is deterministic: documentID + ":" + zero-based sequence index.
	// Re-chunking an unchanged document reproduces identical IDs, which
	// makes re-indexing an idempotent upsert.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Text is the chunk content, at most the configured maximum length.
	Text string

	// Locator is the merged range of the spanned records' locators.
	Locator Locator

	// Overlap is the number of leading characters seeded from the
	// previous chunk's tail. Zero for the first chunk. Stripping the
	// first Overlap characters of every chunk and concatenating
	// reconstructs the extracted text exactly.
	Overlap int
}

// ChunkID derives the deterministic chunk identifier for a document
// and sequence index.
func ChunkID(documentID string, seq int) string {
	return documentID + ":" + strconv.Itoa(seq)
}
