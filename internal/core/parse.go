package core

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sheetboard/sheetboard/internal/workbook"
)

// defaultSheetPattern matches unedited template sheet names ("Sheet1",
// "sheet23"), which are skipped during ingestion.
var defaultSheetPattern = regexp.MustCompile(`^sheet\d+$`)

// unnamedPattern matches auto-generated placeholder column names.
var unnamedPattern = regexp.MustCompile(`(?i)^unnamed`)

// skipSheetName reports whether a sheet name matches the default-naming
// pattern, ignoring case and surrounding whitespace.
func skipSheetName(name string) bool {
	return defaultSheetPattern.MatchString(strings.ToLower(strings.TrimSpace(name)))
}

// parseSheet normalizes one sheet's table into task entries, in row order.
// It returns nil when the sheet has nothing usable:
//
//   - fewer than 2 columns or no rows at all
//   - fewer than 2 columns left after truncating at the first column whose
//     name is blank, "nan" or an auto-generated "Unnamed" placeholder
//   - no rows left after truncating at the first row whose task-name cell
//     (the first retained column) is blank
func parseSheet(tbl *workbook.Table, sheetName, sourcePath string) []TaskEntry {
	if tbl == nil || len(tbl.Columns) < 2 || len(tbl.Rows) == 0 {
		return nil
	}

	columns := retainedColumns(tbl.Columns)
	if len(columns) < 2 {
		return nil
	}

	rows := truncateAtBlankTask(tbl.Rows)
	if len(rows) == 0 {
		return nil
	}

	var entries []TaskEntry
	for rowIdx, cells := range rows {
		taskName := cells[0].Text
		// Should not occur after truncation, but a literal "nan" or blank
		// task cell is never a task.
		if strings.TrimSpace(taskName) == "" || taskName == "nan" {
			continue
		}

		var details []string
		rawValues := make(map[string]any, len(columns))
		for c, col := range columns {
			rawValues[col] = rawValue(cells[c].Value)
			if c > 0 && strings.TrimSpace(cells[c].Text) != "" {
				details = append(details, fmt.Sprintf("%s: %s", col, cells[c].Text))
			}
		}

		entries = append(entries, TaskEntry{
			TaskName: taskName,
			Details:  strings.Join(details, "\n"),
			Metadata: &EntryMetadata{
				SourcePath: sourcePath,
				SheetName:  sheetName,
				RowIndex:   rowIdx,
				Columns:    columns,
				RawValues:  rawValues,
				TaskName:   taskName,
			},
		})
	}
	return entries
}

// retainedColumns keeps header names left to right until the first blank,
// "nan" or auto-generated name.
func retainedColumns(header []string) []string {
	var kept []string
	for _, col := range header {
		trimmed := strings.TrimSpace(col)
		if trimmed == "" || trimmed == "nan" || unnamedPattern.MatchString(trimmed) {
			break
		}
		kept = append(kept, col)
	}
	return kept
}

// truncateAtBlankTask cuts the row list at the first row whose first cell is
// blank. Rows past that point belong to footers, notes or stray formatting,
// not the task list.
func truncateAtBlankTask(rows [][]workbook.Cell) [][]workbook.Cell {
	for i, cells := range rows {
		if len(cells) == 0 || strings.TrimSpace(cells[0].Text) == "" {
			return rows[:i]
		}
	}
	return rows
}

// rawValue converts a parsed cell value to its wire form: nil for blank
// cells, ISO-8601 strings for date/time values, the scalar otherwise.
func rawValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format(workbook.ISOTimeLayout)
	}
	return v
}
