package extractors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crateview/docquery/internal/core/domain"
	"github.com/crateview/docquery/internal/core/ports/driven"
)

type stubExtractor struct {
	mimes    []string
	priority int
}

func (s *stubExtractor) SupportedMIMETypes() []string { return s.mimes }
func (s *stubExtractor) Priority() int                { return s.priority }
func (s *stubExtractor) Extract(context.Context, string, []byte) ([]domain.Record, error) {
	return nil, nil
}

func TestRegistryForMIMEType(t *testing.T) {
	low := &stubExtractor{mimes: []string{"text/plain"}, priority: 5}
	high := &stubExtractor{mimes: []string{"text/plain"}, priority: 50}

	r := NewRegistry()
	r.Register(low)
	r.Register(high)

	got, err := r.ForMIMEType("text/plain")
	require.NoError(t, err)
	assert.Same(t, driven.Extractor(high), got)

	// Parameters are stripped before lookup.
	got, err = r.ForMIMEType("text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Same(t, driven.Extractor(high), got)
}

func TestRegistryUnsupportedType(t *testing.T) {
	r := NewRegistry()
	_, err := r.ForMIMEType("video/mp4")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestDefaults(t *testing.T) {
	r := Defaults()

	for _, mt := range []string{
		"text/csv",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/pdf",
		"text/plain",
		"text/markdown",
	} {
		_, err := r.ForMIMEType(mt)
		assert.NoError(t, err, mt)
	}
}

func TestResolveMIMEType(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		want        string
	}{
		{
			name:        "declared type wins",
			filename:    "data.bin",
			contentType: "text/csv",
			want:        "text/csv",
		},
		{
			name:        "parameters stripped",
			filename:    "data.csv",
			contentType: "Text/CSV; charset=utf-8",
			want:        "text/csv",
		},
		{
			name:        "octet-stream falls back to extension",
			filename:    "report.pdf",
			contentType: "application/octet-stream",
			want:        "application/pdf",
		},
		{
			name:        "no content type uses extension",
			filename:    "sheet.XLSX",
			contentType: "",
			want:        "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		},
		{
			name:        "log extension maps to plain text",
			filename:    "server.log",
			contentType: "",
			want:        "text/plain",
		},
		{
			name:        "unknown extension stays unresolved",
			filename:    "blob.xyzzy",
			contentType: "application/octet-stream",
			want:        "application/octet-stream",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveMIMEType(tt.filename, tt.contentType))
		})
	}
}
