package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/sheetboard/sheetboard/internal/workbook"
)

// Notifier receives a callback once per accepted snapshot. The subscription
// hub implements it; tests substitute their own.
type Notifier interface {
	NotifyAll()
}

// Pipeline ingests the configured workbooks into snapshots and publishes them
// to the cache. All of its failure handling is local: a source that cannot be
// read is skipped, and a refresh that produces no usable data is retried and
// then dropped in favor of the previous snapshot. Callers never see an error.
type Pipeline struct {
	sources  *Sources
	cache    *Cache
	notifier Notifier

	// readRetry guards individual file reads, reloadRetry guards whole
	// refresh passes whose result failed the validity gate.
	readRetry   RetryPolicy
	reloadRetry RetryPolicy
}

// NewPipeline wires a pipeline. notifier may be nil.
func NewPipeline(sources *Sources, cache *Cache, notifier Notifier, readRetry, reloadRetry RetryPolicy) *Pipeline {
	return &Pipeline{
		sources:     sources,
		cache:       cache,
		notifier:    notifier,
		readRetry:   readRetry,
		reloadRetry: reloadRetry,
	}
}

// Refresh parses every configured workbook into a fresh snapshot. Sources and
// sheets that cannot be read are logged and skipped; if nothing at all parses,
// the placeholder snapshot is returned.
func (p *Pipeline) Refresh(ctx context.Context) *Snapshot {
	sheets := make(map[string]map[string][]TaskEntry)
	var sheetNames []string

	for _, path := range p.sources.Paths() {
		var names []string
		err := p.readRetry.Do(ctx, func() error {
			var lerr error
			names, lerr = workbook.ListSheets(path)
			return lerr
		})
		if err != nil {
			slog.Error("skipping unreadable workbook", "path", path, "error", err)
			continue
		}

		for _, sheetName := range names {
			if skipSheetName(sheetName) {
				slog.Debug("skipping default-named sheet", "sheet", sheetName, "path", path)
				continue
			}

			var tbl *workbook.Table
			err := p.readRetry.Do(ctx, func() error {
				var lerr error
				tbl, lerr = workbook.ReadSheetAt(path, sheetName)
				return lerr
			})
			if err != nil {
				slog.Warn("skipping unreadable sheet", "sheet", sheetName, "path", path, "error", err)
				continue
			}

			entries := parseSheet(tbl, sheetName, path)
			if entries == nil {
				slog.Debug("skipping sheet without usable data", "sheet", sheetName, "path", path)
				continue
			}

			// Later sources merge into sheets of the same name.
			if _, ok := sheets[sheetName]; !ok {
				sheets[sheetName] = make(map[string][]TaskEntry)
				sheetNames = append(sheetNames, sheetName)
			}
			for _, e := range entries {
				sheets[sheetName][e.TaskName] = append(sheets[sheetName][e.TaskName], e)
			}
			slog.Info("loaded sheet", "sheet", sheetName, "path", path, "tasks", len(entries))
		}
	}

	if len(sheetNames) == 0 {
		slog.Warn("no usable sheets found, serving placeholder")
		return placeholderSnapshot()
	}

	return &Snapshot{
		Sheets:      sheets,
		SheetNames:  sheetNames,
		LastUpdated: time.Now(),
	}
}

// AcceptAndPublish refreshes and, if the result passes the validity gate,
// publishes it to the cache and notifies subscribers. A refresh that would
// replace real cached data with the placeholder is retried a bounded number
// of times and then dropped, keeping the previous snapshot; the version is
// unchanged in that case.
//
// Every accepted snapshot bumps the version by one, whether or not its
// content differs from the previous one.
func (p *Pipeline) AcceptAndPublish(ctx context.Context) {
	attempts := p.reloadRetry.Attempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		snap := p.Refresh(ctx)

		current, _ := p.cache.State()
		if !isReal(snap) && isReal(current) {
			if attempt < attempts-1 {
				slog.Warn("refresh produced no real data, retrying",
					"attempt", attempt+1, "max_attempts", attempts)
				if err := sleep(ctx, p.reloadRetry.Delay); err != nil {
					return
				}
				continue
			}
			slog.Warn("refresh kept producing no real data, keeping previous snapshot",
				"attempts", attempts)
			return
		}

		version := p.cache.Publish(snap)
		slog.Info("snapshot published", "version", version, "sheets", len(snap.SheetNames))
		if p.notifier != nil {
			p.notifier.NotifyAll()
		}
		return
	}
}
