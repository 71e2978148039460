package core

import "sync"

// WriteGuard is the process-wide write-in-progress flag. A save sets it for
// the duration of its file rewrite so the filesystem watcher can tell the
// save's own events apart from external edits and skip them. The flag is
// mutex-protected because the watcher checks it from its own goroutine.
//
// It is not a write-write mutex: two concurrent saves are not serialized
// against each other by this flag, only against the watcher.
type WriteGuard struct {
	mu     sync.Mutex
	active bool
}

// Begin marks a write as in progress.
func (g *WriteGuard) Begin() {
	g.mu.Lock()
	g.active = true
	g.mu.Unlock()
}

// End clears the write-in-progress flag.
func (g *WriteGuard) End() {
	g.mu.Lock()
	g.active = false
	g.mu.Unlock()
}

// Active reports whether a write is in progress.
func (g *WriteGuard) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}
