package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSaver(t *testing.T, paths ...string) (*Saver, *Cache) {
	t.Helper()
	sources, err := NewSources(paths)
	require.NoError(t, err)
	cache := NewCache()
	guard := &WriteGuard{}
	pipeline := NewPipeline(sources, cache, nil,
		RetryPolicy{Attempts: 1},
		RetryPolicy{Attempts: 1},
	)
	return NewSaver(sources, guard, pipeline, 0), cache
}

func fileBytes(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

func validRequest(path string) SaveRequest {
	return SaveRequest{
		FilePath:  path,
		SheetName: "Plan",
		RowIndex:  0,
		TaskName:  "Build",
		Updates:   map[string]any{"Owner": "Carol"},
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.xlsx")
	planWorkbook(t, path)

	saver, cache := newTestSaver(t, path)

	req := validRequest(path)
	req.NewColumns = map[string]any{"Priority": "High"}
	require.NoError(t, saver.Save(context.Background(), req))

	// The save's own reload already ran.
	snap, version := cache.State()
	require.Equal(t, int64(1), version)

	build := snap.Sheets["Plan"]["Build"]
	require.Len(t, build, 1)
	assert.Equal(t, "Carol", build[0].Metadata.RawValues["Owner"])
	assert.Equal(t, "High", build[0].Metadata.RawValues["Priority"])

	// Untouched cells survive the rewrite.
	ship := snap.Sheets["Plan"]["Ship"]
	require.Len(t, ship, 1)
	assert.Equal(t, "Bob", ship[0].Metadata.RawValues["Owner"])
	assert.Equal(t, "blocked", ship[0].Metadata.RawValues["Status"])
	assert.Nil(t, ship[0].Metadata.RawValues["Priority"])
}

func TestSave_EmptyStringClearsCell(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.xlsx")
	planWorkbook(t, path)

	saver, cache := newTestSaver(t, path)

	req := validRequest(path)
	req.Updates = map[string]any{"Status": ""}
	require.NoError(t, saver.Save(context.Background(), req))

	snap, _ := cache.State()
	build := snap.Sheets["Plan"]["Build"]
	require.Len(t, build, 1)
	assert.Nil(t, build[0].Metadata.RawValues["Status"])
	assert.Equal(t, "Owner: Alice", build[0].Details)
}

func TestSave_PreconditionFailures(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.xlsx")
	planWorkbook(t, path)

	missing := filepath.Join(dir, "gone.xlsx")

	saver, _ := newTestSaver(t, path, missing)

	tests := []struct {
		name    string
		mutate  func(r *SaveRequest)
		wantErr error
	}{
		{"forbidden path", func(r *SaveRequest) {
			r.FilePath = filepath.Join(dir, "outside.xlsx")
		}, ErrForbidden},
		{"file not found", func(r *SaveRequest) {
			r.FilePath = missing
		}, ErrNotFound},
		{"no changes", func(r *SaveRequest) {
			r.Updates = nil
		}, ErrInvalidInput},
		{"blank column name", func(r *SaveRequest) {
			r.Updates = map[string]any{"  ": "x"}
		}, ErrInvalidInput},
		{"non-scalar value", func(r *SaveRequest) {
			r.Updates = map[string]any{"Owner": []string{"a"}}
		}, ErrInvalidInput},
		{"unknown sheet", func(r *SaveRequest) {
			r.SheetName = "Nope"
		}, ErrNotFound},
		{"unknown column", func(r *SaveRequest) {
			r.Updates = map[string]any{"Phase": "x"}
		}, ErrInvalidInput},
		{"conflicting column", func(r *SaveRequest) {
			r.NewColumns = map[string]any{"Owner": "x"}
		}, ErrInvalidInput},
		{"negative row index", func(r *SaveRequest) {
			r.RowIndex = -1
		}, ErrInvalidInput},
		{"row index past end", func(r *SaveRequest) {
			r.RowIndex = 99
		}, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := fileBytes(t, path)

			req := validRequest(path)
			tt.mutate(&req)

			err := saver.Save(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, fileBytes(t, path), "failed save must leave the file untouched")
		})
	}
}

func TestSave_CompletesAfterClientDisconnect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.xlsx")
	planWorkbook(t, path)

	saver, cache := newTestSaver(t, path)

	// The connection is gone before the save even starts. The edit must
	// still be written, reloaded and published; the watcher has already
	// discarded the rewrite's own events, so nothing else will catch up
	// the cache.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, saver.Save(ctx, validRequest(path)))

	snap, version := cache.State()
	require.Equal(t, int64(1), version, "disconnected save must still publish")
	build := snap.Sheets["Plan"]["Build"]
	require.Len(t, build, 1)
	assert.Equal(t, "Carol", build[0].Metadata.RawValues["Owner"])
	assert.False(t, saver.guard.Active())
}

func TestSave_BlankHeaderSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.xlsx")
	writeWorkbook(t, path, []string{"Notes"}, map[string][][]any{
		"Notes": {
			{},
			{"stray", "data"},
		},
	})

	saver, cache := newTestSaver(t, path)
	before := fileBytes(t, path)

	// Only NewColumns, so the unknown-column check never runs; the sheet
	// has a blank header row and must be rejected, not dereferenced.
	req := SaveRequest{
		FilePath:   path,
		SheetName:  "Notes",
		RowIndex:   0,
		NewColumns: map[string]any{"Task": "Build"},
	}
	err := saver.Save(context.Background(), req)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "no columns")

	assert.Equal(t, before, fileBytes(t, path), "rejected save must leave the file untouched")
	assert.Equal(t, int64(0), cache.Version())
	assert.False(t, saver.guard.Active())
}

func TestSave_OptimisticConcurrencyConflict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.xlsx")
	planWorkbook(t, path)

	saver, cache := newTestSaver(t, path)
	before := fileBytes(t, path)

	// Client loaded "Task A" at row 0, but the file now holds "Build" there.
	req := validRequest(path)
	req.TaskName = "Task A"

	err := saver.Save(context.Background(), req)
	require.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "Task A")
	assert.Contains(t, err.Error(), "Build")

	assert.Equal(t, before, fileBytes(t, path), "conflicted save must leave the file untouched")
	assert.Equal(t, int64(0), cache.Version(), "conflicted save must not publish")
}

func TestSave_ReleasesGuardOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.xlsx")
	planWorkbook(t, path)

	sources, err := NewSources([]string{path})
	require.NoError(t, err)
	guard := &WriteGuard{}
	pipeline := NewPipeline(sources, NewCache(), nil, RetryPolicy{Attempts: 1}, RetryPolicy{Attempts: 1})
	saver := NewSaver(sources, guard, pipeline, 0)

	req := validRequest(path)
	req.TaskName = "Task A"
	require.Error(t, saver.Save(context.Background(), req))
	assert.False(t, guard.Active())

	require.NoError(t, saver.Save(context.Background(), validRequest(path)))
	assert.False(t, guard.Active())
}

func TestSave_NewColumnBackfillsOtherRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.xlsx")
	planWorkbook(t, path)

	saver, cache := newTestSaver(t, path)

	req := SaveRequest{
		FilePath:   path,
		SheetName:  "Plan",
		RowIndex:   1,
		TaskName:   "Ship",
		NewColumns: map[string]any{"Due": "2026-01-15"},
	}
	require.NoError(t, saver.Save(context.Background(), req))

	snap, _ := cache.State()
	ship := snap.Sheets["Plan"]["Ship"]
	require.Len(t, ship, 1)
	assert.Equal(t, "2026-01-15", ship[0].Metadata.RawValues["Due"])

	build := snap.Sheets["Plan"]["Build"]
	require.Len(t, build, 1)
	require.Contains(t, build[0].Metadata.Columns, "Due")
	assert.Nil(t, build[0].Metadata.RawValues["Due"])
}

func TestSave_NumericValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.xlsx")
	planWorkbook(t, path)

	saver, cache := newTestSaver(t, path)

	req := validRequest(path)
	req.Updates = map[string]any{"Status": 3.0}
	require.NoError(t, saver.Save(context.Background(), req))

	snap, _ := cache.State()
	build := snap.Sheets["Plan"]["Build"]
	require.Len(t, build, 1)
	assert.Equal(t, int64(3), build[0].Metadata.RawValues["Status"])

	// Guard against a stuck write flag after success.
	assert.False(t, saver.guard.Active())
}
