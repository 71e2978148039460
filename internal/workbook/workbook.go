// Package workbook reads and rewrites spreadsheet files.
//
// All reads go through ReadShared so a file that is open in a desktop editor
// can still be parsed. Writes go through WriteAtomic, which builds the new
// workbook in a temp file next to the original and swaps it in with a rename.
package workbook

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

// ISOTimeLayout is the format used for date/time cell values throughout the
// service, matching what clients receive in raw_values.
const ISOTimeLayout = "2006-01-02T15:04:05"

// Cell is a single parsed cell.
type Cell struct {
	// Text is the display string; empty for blank cells. Date cells carry
	// their ISO-8601 rendering here.
	Text string

	// Value is the typed value: nil for blank, otherwise string, int64,
	// float64 or time.Time.
	Value any
}

// Table is one sheet's contents: a header row of column names plus data rows,
// each padded to the header's width.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// Document is a whole workbook read into memory, sheet order preserved.
type Document struct {
	Sheets []string
	Tables map[string]*Table
}

// File wraps an open workbook.
type File struct {
	x *excelize.File
}

// Open reads the workbook at path through the shared-access reader and parses
// it. The returned File holds no handle on the underlying path.
func Open(path string) (*File, error) {
	b, err := ReadShared(path)
	if err != nil {
		return nil, err
	}
	x, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return &File{x: x}, nil
}

// Close releases the parsed workbook.
func (f *File) Close() error {
	return f.x.Close()
}

// SheetNames returns the workbook's sheet names in workbook order.
func (f *File) SheetNames() []string {
	return f.x.GetSheetList()
}

// ListSheets returns the sheet names of the workbook at path.
func ListSheets(path string) ([]string, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.SheetNames(), nil
}

// ReadSheetAt reads one sheet of the workbook at path. Each call re-reads the
// file, so a caller retrying a transiently unreadable file observes its
// latest state.
func ReadSheetAt(path, sheet string) (*Table, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.ReadSheet(sheet)
}

// ReadSheet reads one sheet into a Table. The first row is the header; data
// rows are padded to the header width so callers can index by column. An
// empty sheet yields a Table with no columns.
func (f *File) ReadSheet(sheet string) (*Table, error) {
	rows, err := f.x.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}

	tbl := &Table{Columns: rows[0]}
	width := len(tbl.Columns)

	for r := 1; r < len(rows); r++ {
		cells := make([]Cell, width)
		for c := 0; c < width; c++ {
			var text string
			if c < len(rows[r]) {
				text = rows[r][c]
			}
			if text == "" {
				continue
			}
			cells[c] = f.readCell(sheet, c+1, r+1, text)
		}
		tbl.Rows = append(tbl.Rows, cells)
	}

	return tbl, nil
}

// ReadAll reads every sheet of the workbook, including ones the ingestion
// pipeline would skip. Used by the save path, which must rewrite the whole
// file.
func (f *File) ReadAll() (*Document, error) {
	doc := &Document{Tables: make(map[string]*Table)}
	for _, name := range f.SheetNames() {
		tbl, err := f.ReadSheet(name)
		if err != nil {
			return nil, err
		}
		doc.Sheets = append(doc.Sheets, name)
		doc.Tables[name] = tbl
	}
	return doc, nil
}

// readCell converts one non-empty cell to its typed form. Cells styled with a
// date/time number format are decoded from their serial value so clients see
// ISO-8601 instead of the locale-dependent display string.
func (f *File) readCell(sheet string, col, row int, text string) Cell {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return Cell{Text: text, Value: parseScalar(text)}
	}

	if t, ok := f.cellTime(sheet, name); ok {
		iso := t.Format(ISOTimeLayout)
		return Cell{Text: iso, Value: t}
	}

	return Cell{Text: text, Value: parseScalar(text)}
}

// cellTime reports whether the cell carries a date/time number format and, if
// so, decodes its serial value.
func (f *File) cellTime(sheet, cell string) (time.Time, bool) {
	styleID, err := f.x.GetCellStyle(sheet, cell)
	if err != nil || styleID == 0 {
		return time.Time{}, false
	}
	style, err := f.x.GetStyle(styleID)
	if err != nil || style == nil || !isDateFormat(style) {
		return time.Time{}, false
	}

	raw, err := f.x.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return time.Time{}, false
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseScalar narrows a cell's display string to int64 or float64 when it is
// numeric, otherwise keeps the string.
func parseScalar(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}
