package core

import "sync"

// Cache is the single shared store of parsed workbook data. The snapshot and
// version are replaced together under one mutex, so readers always observe a
// complete snapshot with its matching version. The version increments by
// exactly one per accepted publish and never resets while the process runs.
//
// The mutex is a real lock, not a cooperative construct: the filesystem
// watcher publishes from its own goroutine while request handlers read.
type Cache struct {
	mu       sync.RWMutex
	snapshot *Snapshot
	version  int64
}

// NewCache returns an empty cache at version 0.
func NewCache() *Cache {
	return &Cache{}
}

// State returns the current snapshot and version as one consistent pair.
// The snapshot is nil until the first publish; it must be treated as
// read-only by callers.
func (c *Cache) State() (*Snapshot, int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot, c.version
}

// Version returns the current version without the snapshot.
func (c *Cache) Version() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Publish atomically replaces the snapshot and returns the new version.
func (c *Cache) Publish(s *Snapshot) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = s
	c.version++
	return c.version
}
