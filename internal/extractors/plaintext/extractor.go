// Package plaintext extracts records from plain text files. Small
// files become a single record; large files are split into fixed-size
// line windows so each record stays a sensible embedding unit.
package plaintext

import (
	"context"
	"strings"

	"github.com/crateview/docquery/internal/core/domain"
	"github.com/crateview/docquery/internal/core/ports/driven"
)

// DefaultSizeThreshold is the byte size above which a file is split
// into line windows.
const DefaultSizeThreshold = 8 * 1024

// DefaultWindowLines is the number of lines per window when splitting.
const DefaultWindowLines = 200

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text documents.
type Extractor struct {
	sizeThreshold int
	windowLines   int
}

// Option configures the extractor.
type Option func(*Extractor)

// WithSizeThreshold sets the split threshold in bytes.
func WithSizeThreshold(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.sizeThreshold = n
		}
	}
}

// WithWindowLines sets the lines per window when splitting.
func WithWindowLines(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.windowLines = n
		}
	}
}

// New creates a new plain text extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		sizeThreshold: DefaultSizeThreshold,
		windowLines:   DefaultWindowLines,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/markdown",
		"text/x-log",
		"application/json",
		"application/xml",
	}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 5 // Fallback extractor.
}

// Extract converts the file into records. Files at or below the size
// threshold become one record with no locator; larger files become one
// record per window of lines, with the locator marking the 1-based
// starting line.
func (e *Extractor) Extract(_ context.Context, filename string, data []byte) ([]domain.Record, error) {
	content := strings.TrimRight(string(data), "\n")
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	if len(data) <= e.sizeThreshold {
		return []domain.Record{{Text: content}}, nil
	}

	lines := strings.Split(content, "\n")
	var records []domain.Record
	for start := 0; start < len(lines); start += e.windowLines {
		end := start + e.windowLines
		if end > len(lines) {
			end = len(lines)
		}
		window := strings.TrimSpace(strings.Join(lines[start:end], "\n"))
		if window == "" {
			continue
		}
		records = append(records, domain.Record{
			Text:    window,
			Locator: domain.LineLocator(start+1, end),
		})
	}
	return records, nil
}
