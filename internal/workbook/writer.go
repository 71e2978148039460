package workbook

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// WriteAtomic rewrites the workbook at path with the document's contents and
// the captured formatting. The new file is built in a temp file in the same
// directory and swapped in with a rename, so the original is either fully
// replaced or left untouched.
//
// A rename refused because another process holds the target open for writing
// surfaces as an fs.ErrPermission-wrapped error; callers distinguish that
// from other I/O failures.
func WriteAtomic(path string, doc *Document, fm *Formatting) error {
	x := excelize.NewFile()
	defer x.Close()

	rowCounts := make(map[string]int, len(doc.Sheets))
	for i, sheet := range doc.Sheets {
		if i == 0 {
			if err := x.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := x.NewSheet(sheet); err != nil {
				return fmt.Errorf("create sheet %q: %w", sheet, err)
			}
		}

		tbl := doc.Tables[sheet]
		if tbl == nil || len(tbl.Columns) == 0 {
			continue
		}

		header := make([]any, len(tbl.Columns))
		for c, name := range tbl.Columns {
			header[c] = name
		}
		if err := x.SetSheetRow(sheet, "A1", &header); err != nil {
			return fmt.Errorf("write header of %q: %w", sheet, err)
		}

		for r, cells := range tbl.Rows {
			values := make([]any, len(cells))
			for c := range cells {
				values[c] = cells[c].Value
			}
			anchor, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return fmt.Errorf("write row %d of %q: %w", r, sheet, err)
			}
			if err := x.SetSheetRow(sheet, anchor, &values); err != nil {
				return fmt.Errorf("write row %d of %q: %w", r, sheet, err)
			}
		}
		rowCounts[sheet] = len(tbl.Rows)
	}

	fm.apply(x, rowCounts)

	tmp, err := os.CreateTemp(filepath.Dir(path), ".sheetboard-*.xlsx")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := x.SaveAs(tmpPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
