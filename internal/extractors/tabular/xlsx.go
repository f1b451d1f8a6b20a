package tabular

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/crateview/docquery/internal/core/domain"
	"github.com/crateview/docquery/internal/core/ports/driven"
)

// Ensure XLSX implements the interface.
var _ driven.Extractor = (*XLSX)(nil)

// XLSX extracts records from OOXML workbooks by reading the ZIP
// container directly: workbook.xml for sheet names, sharedStrings.xml
// for the string table, and each worksheet's sheetData. All sheets are
// processed; the locator carries the sheet name alongside the row index.
type XLSX struct{}

// NewXLSX creates a new XLSX extractor.
func NewXLSX() *XLSX {
	return &XLSX{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *XLSX) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}
}

// Priority returns the selection priority.
func (e *XLSX) Priority() int {
	return 50
}

// Extract parses every sheet into one record per non-empty data row.
func (e *XLSX) Extract(_ context.Context, filename string, data []byte) ([]domain.Record, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, domain.NewExtractionError(filename, "not a valid workbook", err)
	}

	shared, err := readSharedStrings(reader)
	if err != nil {
		return nil, domain.NewExtractionError(filename, "malformed shared strings", err)
	}

	sheets, err := readSheetList(reader)
	if err != nil {
		return nil, domain.NewExtractionError(filename, "malformed workbook metadata", err)
	}

	var records []domain.Record
	for _, sheet := range sheets {
		rows, err := readSheetRows(reader, sheet.path, shared)
		if err != nil {
			return nil, domain.NewExtractionError(filename, "malformed worksheet "+sheet.name, err)
		}
		if len(rows) < 2 {
			continue
		}
		header := rows[0]
		for i, row := range rows[1:] {
			text := RenderRow(header, row)
			if text == "" {
				continue
			}
			records = append(records, domain.Record{
				Text:    text,
				Locator: domain.RowLocator(sheet.name, i),
			})
		}
	}
	return records, nil
}

type sheetRef struct {
	name string
	path string
}

// workbookXML mirrors the parts of xl/workbook.xml we need.
type workbookXML struct {
	Sheets struct {
		Sheet []struct {
			Name string `xml:"name,attr"`
			RID  string `xml:"id,attr"`
		} `xml:"sheet"`
	} `xml:"sheets"`
}

// relsXML mirrors xl/_rels/workbook.xml.rels.
type relsXML struct {
	Relationship []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// readSheetList returns the workbook's sheets in declared order.
func readSheetList(reader *zip.Reader) ([]sheetRef, error) {
	var wb workbookXML
	if err := unmarshalZipFile(reader, "xl/workbook.xml", &wb); err != nil {
		return nil, err
	}

	targets := make(map[string]string)
	var rels relsXML
	if err := unmarshalZipFile(reader, "xl/_rels/workbook.xml.rels", &rels); err == nil {
		for _, rel := range rels.Relationship {
			targets[rel.ID] = rel.Target
		}
	}

	sheets := make([]sheetRef, 0, len(wb.Sheets.Sheet))
	for i, sheet := range wb.Sheets.Sheet {
		target, ok := targets[sheet.RID]
		if !ok {
			// No relationship part: fall back to conventional naming.
			target = "worksheets/sheet" + strconv.Itoa(i+1) + ".xml"
		}
		sheets = append(sheets, sheetRef{
			name: sheet.Name,
			path: "xl/" + strings.TrimPrefix(target, "/xl/"),
		})
	}
	return sheets, nil
}

// sstXML mirrors xl/sharedStrings.xml. A string item is either a plain
// <t> or a sequence of rich-text runs each carrying its own <t>.
type sstXML struct {
	SI []struct {
		T *string `xml:"t"`
		R []struct {
			T string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

func readSharedStrings(reader *zip.Reader) ([]string, error) {
	var sst sstXML
	err := unmarshalZipFile(reader, "xl/sharedStrings.xml", &sst)
	if err != nil {
		if errors.Is(err, errZipEntryMissing) {
			return nil, nil // Workbook with no string cells.
		}
		return nil, err
	}

	shared := make([]string, len(sst.SI))
	for i, si := range sst.SI {
		if si.T != nil {
			shared[i] = *si.T
			continue
		}
		var b strings.Builder
		for _, run := range si.R {
			b.WriteString(run.T)
		}
		shared[i] = b.String()
	}
	return shared, nil
}

// worksheetXML mirrors the sheetData section of a worksheet part.
type worksheetXML struct {
	SheetData struct {
		Row []struct {
			C []struct {
				R  string  `xml:"r,attr"`
				T  string  `xml:"t,attr"`
				V  string  `xml:"v"`
				IS *struct {
					T string `xml:"t"`
				} `xml:"is"`
			} `xml:"c"`
		} `xml:"row"`
	} `xml:"sheetData"`
}

func readSheetRows(reader *zip.Reader, path string, shared []string) ([][]string, error) {
	var ws worksheetXML
	if err := unmarshalZipFile(reader, path, &ws); err != nil {
		if errors.Is(err, errZipEntryMissing) {
			return nil, nil
		}
		return nil, err
	}

	rows := make([][]string, 0, len(ws.SheetData.Row))
	for _, row := range ws.SheetData.Row {
		var cells []string
		for _, c := range row.C {
			col := columnIndex(c.R)
			if col < 0 {
				col = len(cells)
			}
			for len(cells) <= col {
				cells = append(cells, "")
			}
			cells[col] = cellValue(c.T, c.V, c.IS, shared)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// cellValue resolves a cell's displayed value from its type attribute.
func cellValue(typ, v string, is *struct {
	T string `xml:"t"`
}, shared []string) string {
	switch typ {
	case "s":
		idx, err := strconv.Atoi(v)
		if err != nil || idx < 0 || idx >= len(shared) {
			return ""
		}
		return shared[idx]
	case "inlineStr":
		if is != nil {
			return is.T
		}
		return ""
	case "b":
		if v == "1" {
			return "TRUE"
		}
		return "FALSE"
	default:
		// Numbers, formula results and dates all surface through v.
		return v
	}
}

// columnIndex converts the letter prefix of a cell reference ("BC12")
// to a 0-based column index. Returns -1 when the reference is absent.
func columnIndex(ref string) int {
	idx := 0
	seen := false
	for i := 0; i < len(ref); i++ {
		ch := ref[i]
		if ch < 'A' || ch > 'Z' {
			break
		}
		idx = idx*26 + int(ch-'A') + 1
		seen = true
	}
	if !seen {
		return -1
	}
	return idx - 1
}

// errZipEntryMissing signals an absent part inside the container.
var errZipEntryMissing = errors.New("zip entry missing")

func unmarshalZipFile(reader *zip.Reader, name string, out any) error {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return err
		}
		return xml.Unmarshal(content, out)
	}
	return errZipEntryMissing
}
