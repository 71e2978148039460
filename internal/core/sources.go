package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

// allowedExtensions are the workbook file types the service reads and writes.
var allowedExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xls":  true,
}

// Sources is the fixed allow-list of workbook files, loaded at process start.
// A source's identity is its normalized, symlink-resolved path; every path
// arriving from a request or a filesystem event is normalized the same way
// before comparison.
type Sources struct {
	paths []string
	ids   map[string]bool
}

// NewSources builds the allow-list from configured paths. Relative paths are
// resolved against the working directory.
func NewSources(paths []string) (*Sources, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no workbook paths configured")
	}

	s := &Sources{ids: make(map[string]bool, len(paths))}
	for _, p := range paths {
		id := Normalize(p)
		if s.ids[id] {
			continue
		}
		s.ids[id] = true
		s.paths = append(s.paths, id)
	}
	return s, nil
}

// Normalize returns the absolute, symlink-resolved form of path. When the
// path does not exist (yet, or anymore) the cleaned absolute form is used.
func Normalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return filepath.Clean(abs)
}

// Paths returns the normalized source paths in configuration order.
func (s *Sources) Paths() []string {
	return s.paths
}

// Resolve normalizes path and reports whether it is a configured source.
func (s *Sources) Resolve(path string) (string, bool) {
	id := Normalize(path)
	return id, s.ids[id]
}

// Contains reports whether path resolves to a configured source.
func (s *Sources) Contains(path string) bool {
	_, ok := s.Resolve(path)
	return ok
}

// AllowedExtension reports whether path has a supported workbook extension.
func AllowedExtension(path string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsEditorArtifact reports whether a basename looks like a lock or temp file
// left by a desktop spreadsheet editor (for example "~$budget.xlsx").
func IsEditorArtifact(name string) bool {
	return strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".~")
}
