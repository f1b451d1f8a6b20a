package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a content type no extractor handles.
	ErrUnsupportedType = errors.New("unsupported content type")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Indexing and retrieval are impossible without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the generation service is not
	// configured. Answers degrade to retrieval-only summaries.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)

// ExtractionError reports a file that could not be parsed. It is scoped
// to one file: other files in the same upload batch proceed normally.
type ExtractionError struct {
	Filename string
	Reason   string
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.Filename, e.Reason, e.Err)
	}
	return fmt.Sprintf("extract %s: %s", e.Filename, e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// NewExtractionError builds an ExtractionError for a file.
func NewExtractionError(filename, reason string, err error) *ExtractionError {
	return &ExtractionError{Filename: filename, Reason: reason, Err: err}
}

// IndexingError reports a failed or incomplete index pass for one
// document. Indexed is the number of chunks committed before the
// failure; the document must be treated as not fully searchable until
// a retry succeeds.
type IndexingError struct {
	DocumentID string
	Indexed    int
	Err        error
}

func (e *IndexingError) Error() string {
	return fmt.Sprintf("index document %s: %d chunks committed: %v", e.DocumentID, e.Indexed, e.Err)
}

func (e *IndexingError) Unwrap() error { return e.Err }

// RetrievalError reports an unavailable vector store at query time.
// It is retryable; empty results are not an error.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError reports a failed or unusable generation call.
// Callers degrade to a fallback StructuredAnswer instead of
// propagating this to the end user.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate answer: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
