package domain

import "fmt"

// LocatorKind identifies the positional dimension a locator refers to.
type LocatorKind int

const (
	// LocatorNone marks content with no positional anchor
	// (e.g. a small plain-text file ingested whole).
	LocatorNone LocatorKind = iota

	// LocatorRow anchors to table rows (0-based, header excluded).
	LocatorRow

	// LocatorPage anchors to PDF pages (1-based).
	LocatorPage

	// LocatorLine anchors to plain-text line numbers (1-based).
	LocatorLine
)

// Locator is positional metadata tying a record or chunk back to its
// position in the source document. Start and End are inclusive; a
// single-position locator has Start == End.
type Locator struct {
	Kind  LocatorKind
	Sheet string
	Start int
	End   int
}

// RowLocator returns a locator for a single table row.
func RowLocator(sheet string, row int) Locator {
	return Locator{Kind: LocatorRow, Sheet: sheet, Start: row, End: row}
}

// PageLocator returns a locator for a single PDF page.
func PageLocator(page int) Locator {
	return Locator{Kind: LocatorPage, Start: page, End: page}
}

// LineLocator returns a locator for a window of lines starting at line.
func LineLocator(start, end int) Locator {
	return Locator{Kind: LocatorLine, Start: start, End: end}
}

// Merge widens the locator to cover other as well. Merging locators of
// different kinds (or different sheets) degrades to the receiver: chunks
// never span documents, but a tabular document could in principle mix
// sheets, in which case the first locator wins.
func (l Locator) Merge(other Locator) Locator {
	if l.Kind == LocatorNone {
		return other
	}
	if other.Kind != l.Kind || other.Sheet != l.Sheet {
		return l
	}
	merged := l
	if other.Start < merged.Start {
		merged.Start = other.Start
	}
	if other.End > merged.End {
		merged.End = other.End
	}
	return merged
}

// String renders the locator for prompts and citations:
// "row 3", "rows 0-2", "[Sheet1] rows 4-9", "page 7", "lines 200-399".
func (l Locator) String() string {
	var s string
	switch l.Kind {
	case LocatorRow:
		s = format("row", l.Start, l.End)
	case LocatorPage:
		s = format("page", l.Start, l.End)
	case LocatorLine:
		s = format("line", l.Start, l.End)
	default:
		return ""
	}
	if l.Sheet != "" {
		return fmt.Sprintf("[%s] %s", l.Sheet, s)
	}
	return s
}

func format(unit string, start, end int) string {
	if start == end {
		return fmt.Sprintf("%s %d", unit, start)
	}
	return fmt.Sprintf("%ss %d-%d", unit, start, end)
}
