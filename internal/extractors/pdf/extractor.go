// Package pdf extracts per-page text records from PDF files using the
// poppler pdftotext utility behind a mockable command runner.
package pdf

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/crateview/docquery/internal/core/domain"
	"github.com/crateview/docquery/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// CommandRunner executes an external command and returns its stdout.
// Abstracted for testing without a pdftotext binary.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Extractor handles PDF documents. pdftotext separates pages with a
// form feed; each page becomes one record with whitespace collapsed.
type Extractor struct {
	runner CommandRunner
}

// Option configures the extractor.
type Option func(*Extractor)

// WithRunner replaces the command runner (used in tests).
func WithRunner(r CommandRunner) Option {
	return func(e *Extractor) {
		if r != nil {
			e.runner = r
		}
	}
}

// New creates a new PDF extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{runner: execRunner{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract converts the PDF into one record per page with extractable
// text. Pages that yield no text are skipped; page numbers are 1-based.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) ([]domain.Record, error) {
	tmp, err := os.CreateTemp("", "docquery-*.pdf")
	if err != nil {
		return nil, domain.NewExtractionError(filename, "cannot stage PDF", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, domain.NewExtractionError(filename, "cannot stage PDF", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, domain.NewExtractionError(filename, "cannot stage PDF", err)
	}

	out, err := e.runner.Run(ctx, "pdftotext", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		return nil, domain.NewExtractionError(filename, "pdftotext failed (corrupt or encrypted PDF?)", err)
	}

	var records []domain.Record
	for i, page := range strings.Split(string(out), "\f") {
		text := normalizeWhitespace(page)
		if text == "" {
			continue
		}
		records = append(records, domain.Record{
			Text:    text,
			Locator: domain.PageLocator(i + 1),
		})
	}
	return records, nil
}

// normalizeWhitespace collapses runs of whitespace into single spaces.
// No layout reconstruction is attempted.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
