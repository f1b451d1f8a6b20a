package extractors

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/crateview/docquery/internal/core/domain"
	"github.com/crateview/docquery/internal/core/ports/driven"
	"github.com/crateview/docquery/internal/extractors/pdf"
	"github.com/crateview/docquery/internal/extractors/plaintext"
	"github.com/crateview/docquery/internal/extractors/tabular"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps MIME types to extractors, selecting by priority when
// several handle the same type.
type Registry struct {
	byMIME map[string][]driven.Extractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{byMIME: make(map[string][]driven.Extractor)}
}

// Register adds an extractor for all its supported MIME types.
func (r *Registry) Register(e driven.Extractor) {
	for _, mt := range e.SupportedMIMETypes() {
		r.byMIME[mt] = append(r.byMIME[mt], e)
	}
}

// ForMIMEType returns the highest-priority extractor for the MIME type.
func (r *Registry) ForMIMEType(mimeType string) (driven.Extractor, error) {
	candidates := r.byMIME[normalizeMIME(mimeType)]
	if len(candidates) == 0 {
		return nil, domain.ErrUnsupportedType
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Priority() > best.Priority() {
			best = c
		}
	}
	return best, nil
}

// Defaults returns a registry with all built-in extractors registered.
func Defaults() *Registry {
	r := NewRegistry()
	r.Register(tabular.NewCSV())
	r.Register(tabular.NewXLSX())
	r.Register(pdf.New())
	r.Register(plaintext.New())
	return r
}

// extensionMIME maps file extensions for uploads that arrive without a
// usable content type (browsers often send application/octet-stream).
var extensionMIME = map[string]string{
	".csv":  "text/csv",
	".tsv":  "text/tab-separated-values",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".log":  "text/plain",
}

// ResolveMIMEType satisfies the registry port; see the package-level
// function.
func (r *Registry) ResolveMIMEType(filename, contentType string) string {
	return ResolveMIMEType(filename, contentType)
}

// ResolveMIMEType picks the effective MIME type for an upload: the
// declared content type when specific, otherwise the file extension.
func ResolveMIMEType(filename, contentType string) string {
	ct := normalizeMIME(contentType)
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if mt, ok := extensionMIME[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return normalizeMIME(mt)
	}
	return ct
}

// normalizeMIME strips parameters like "; charset=utf-8".
func normalizeMIME(contentType string) string {
	mt := strings.TrimSpace(strings.ToLower(contentType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}
