// Package tabular extracts records from row-oriented files: CSV, TSV
// and XLSX workbooks. Each data row becomes one record rendered as
// "column: value" pairs; empty cells are omitted and empty rows are
// skipped.
package tabular

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/crateview/docquery/internal/core/domain"
	"github.com/crateview/docquery/internal/core/ports/driven"
)

// Ensure CSV implements the interface.
var _ driven.Extractor = (*CSV)(nil)

// CSV extracts records from comma- or tab-separated files. The first
// row is treated as the header and excluded from row numbering.
type CSV struct{}

// NewCSV creates a new CSV extractor.
func NewCSV() *CSV {
	return &CSV{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *CSV) SupportedMIMETypes() []string {
	return []string{
		"text/csv",
		"application/csv",
		"text/comma-separated-values",
		"text/tab-separated-values",
	}
}

// Priority returns the selection priority.
func (e *CSV) Priority() int {
	return 50
}

// Extract parses the file into one record per non-empty data row.
func (e *CSV) Extract(_ context.Context, filename string, data []byte) ([]domain.Record, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	if strings.HasSuffix(strings.ToLower(filename), ".tsv") {
		reader.Comma = '\t'
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, domain.NewExtractionError(filename, "malformed CSV", err)
	}
	if len(rows) < 2 {
		// Header only (or nothing): no data rows to index.
		return nil, nil
	}

	header := rows[0]
	var records []domain.Record
	for i, row := range rows[1:] {
		text := RenderRow(header, row)
		if text == "" {
			continue
		}
		records = append(records, domain.Record{
			Text:    text,
			Locator: domain.RowLocator("", i),
		})
	}
	return records, nil
}

// RenderRow renders one table row as "column: value" pairs joined with
// " | ". Cells without a value are omitted rather than rendered as a
// placeholder; columns beyond the header get a positional name.
func RenderRow(header, row []string) string {
	var pieces []string
	for i, cell := range row {
		val := strings.TrimSpace(cell)
		if val == "" {
			continue
		}
		name := ""
		if i < len(header) {
			name = strings.TrimSpace(header[i])
		}
		if name == "" {
			name = fmt.Sprintf("col_%d", i)
		}
		pieces = append(pieces, name+": "+val)
	}
	return strings.Join(pieces, " | ")
}
