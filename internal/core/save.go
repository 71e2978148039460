package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sheetboard/sheetboard/internal/workbook"
)

// SaveRequest is a single-row edit. Updates targets existing columns;
// NewColumns creates columns (with empty cells on every other row) before
// setting this row's value. RowIndex and TaskName come from the entry
// metadata the client loaded and form the optimistic-concurrency check.
type SaveRequest struct {
	FilePath   string         `json:"file_path"`
	SheetName  string         `json:"sheet_name"`
	RowIndex   int            `json:"row_index"`
	TaskName   string         `json:"task_name"`
	Updates    map[string]any `json:"updates"`
	NewColumns map[string]any `json:"new_columns"`
}

// Saver validates and applies single-row edits to workbook files. While a
// save is rewriting its target the write guard is held, so the watcher
// ignores the filesystem events the rewrite produces; after the settle delay
// the saver triggers the same ingestion path the watcher uses.
type Saver struct {
	sources  *Sources
	guard    *WriteGuard
	pipeline *Pipeline
	settle   time.Duration
}

// NewSaver wires a saver.
func NewSaver(sources *Sources, guard *WriteGuard, pipeline *Pipeline, settle time.Duration) *Saver {
	return &Saver{sources: sources, guard: guard, pipeline: pipeline, settle: settle}
}

// Save applies one edit. Failures carry exactly one error kind; on any
// failure the target file is untouched. On success the cache has been
// refreshed to reflect the edit before Save returns.
func (s *Saver) Save(ctx context.Context, req SaveRequest) error {
	path, allowed := s.sources.Resolve(req.FilePath)
	if !allowed {
		return fmt.Errorf("%w: file not in allowed paths", ErrForbidden)
	}
	if !AllowedExtension(path) {
		return fmt.Errorf("%w: only spreadsheet files are supported", ErrInvalidInput)
	}
	if fi, err := os.Stat(path); err != nil || fi.IsDir() {
		return fmt.Errorf("%w: file not found", ErrNotFound)
	}
	if len(req.Updates) == 0 && len(req.NewColumns) == 0 {
		return fmt.Errorf("%w: no changes provided", ErrInvalidInput)
	}
	if err := validateColumnNames(req.Updates); err != nil {
		return err
	}
	if err := validateColumnNames(req.NewColumns); err != nil {
		return err
	}

	s.guard.Begin()
	released := false
	defer func() {
		if !released {
			s.guard.End()
		}
	}()

	if err := s.apply(path, req); err != nil {
		return err
	}

	slog.Info("saved task edit",
		"file", filepath.Base(path),
		"sheet", req.SheetName,
		"row", req.RowIndex,
	)

	// The edit is on disk past this point and the watcher discarded the
	// rewrite's own events, so the reload is the only way the cache catches
	// up. It runs detached from the request context: a client disconnect
	// cannot abort it.
	reloadCtx := context.WithoutCancel(ctx)

	// Let the filesystem settle before the reload re-reads the file.
	time.Sleep(s.settle)
	s.guard.End()
	released = true

	s.pipeline.AcceptAndPublish(reloadCtx)
	return nil
}

// apply re-reads the whole workbook, validates the row-level preconditions,
// applies the edit in memory and atomically rewrites the file.
func (s *Saver) apply(path string, req SaveRequest) error {
	f, err := workbook.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	doc, err := f.ReadAll()
	f.Close()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}

	tbl, ok := doc.Tables[req.SheetName]
	if !ok {
		return fmt.Errorf("%w: sheet not found", ErrNotFound)
	}
	if len(tbl.Columns) == 0 {
		return fmt.Errorf("%w: sheet has no columns", ErrInvalidInput)
	}

	colIndex := make(map[string]int, len(tbl.Columns))
	for i, col := range tbl.Columns {
		colIndex[col] = i
	}

	for col := range req.Updates {
		if _, ok := colIndex[col]; !ok {
			return fmt.Errorf("%w: unknown column %q", ErrInvalidInput, col)
		}
	}
	for col := range req.NewColumns {
		if _, ok := req.Updates[col]; ok {
			return fmt.Errorf("%w: column %q cannot appear in both updates and new_columns", ErrInvalidInput, col)
		}
	}
	if req.RowIndex < 0 || req.RowIndex >= len(tbl.Rows) {
		return fmt.Errorf("%w: invalid row index %d", ErrInvalidInput, req.RowIndex)
	}

	current := tbl.Rows[req.RowIndex][0].Text
	if current != req.TaskName {
		return fmt.Errorf("%w: row position changed: expected %q but found %q, please refresh and try again",
			ErrConflict, req.TaskName, current)
	}

	for col, value := range req.Updates {
		tbl.Rows[req.RowIndex][colIndex[col]] = cellFromValue(value)
	}
	for col, value := range req.NewColumns {
		idx, exists := colIndex[col]
		if !exists {
			idx = len(tbl.Columns)
			tbl.Columns = append(tbl.Columns, col)
			colIndex[col] = idx
			for r := range tbl.Rows {
				tbl.Rows[r] = append(tbl.Rows[r], workbook.Cell{})
			}
		}
		tbl.Rows[req.RowIndex][idx] = cellFromValue(value)
	}

	// Capture formatting from the file as it is on disk, so the rewrite is
	// visually indistinguishable beyond the edited cells. Best effort.
	fm, err := workbook.CaptureFormatting(path)
	if err != nil {
		slog.Warn("could not capture workbook formatting", "path", path, "error", err)
	}

	if err := workbook.WriteAtomic(path, doc, fm); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: the file is open for writing in another program, close it and try again", ErrLocked)
		}
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return nil
}

// validateColumnNames rejects blank names and values outside the scalar set
// accepted at the boundary (string, number, boolean, null).
func validateColumnNames(m map[string]any) error {
	for col, value := range m {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("%w: column names cannot be blank", ErrInvalidInput)
		}
		switch value.(type) {
		case nil, string, bool, float64, int, int64, time.Time:
		default:
			return fmt.Errorf("%w: unsupported value type for column %q", ErrInvalidInput, col)
		}
	}
	return nil
}

// cellFromValue converts a request value to a cell, normalizing the empty
// string to a blank cell.
func cellFromValue(v any) workbook.Cell {
	switch val := v.(type) {
	case nil:
		return workbook.Cell{}
	case string:
		if val == "" {
			return workbook.Cell{}
		}
		return workbook.Cell{Text: val, Value: val}
	case bool:
		return workbook.Cell{Text: fmt.Sprintf("%v", val), Value: val}
	case float64:
		return workbook.Cell{Text: trimFloat(val), Value: val}
	case int:
		return workbook.Cell{Text: fmt.Sprintf("%d", val), Value: int64(val)}
	case int64:
		return workbook.Cell{Text: fmt.Sprintf("%d", val), Value: val}
	case time.Time:
		return workbook.Cell{Text: val.Format(workbook.ISOTimeLayout), Value: val}
	default:
		return workbook.Cell{Text: fmt.Sprintf("%v", val), Value: fmt.Sprintf("%v", val)}
	}
}

func trimFloat(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
