package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSources_RequiresPaths(t *testing.T) {
	_, err := NewSources(nil)
	assert.Error(t, err)
}

func TestSources_ResolveAllowList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	s, err := NewSources([]string{path})
	require.NoError(t, err)

	resolved, ok := s.Resolve(path)
	assert.True(t, ok)
	assert.Equal(t, Normalize(path), resolved)

	// A different file in the same directory is not allowed.
	_, ok = s.Resolve(filepath.Join(dir, "other.xlsx"))
	assert.False(t, ok)

	// Path traversal back to the allowed file still resolves to it.
	dodged := filepath.Join(dir, "sub", "..", "tasks.xlsx")
	_, ok = s.Resolve(dodged)
	assert.True(t, ok)
}

func TestSources_SymlinkResolvesToTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "tasks.xlsx")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	link := filepath.Join(dir, "link.xlsx")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	s, err := NewSources([]string{target})
	require.NoError(t, err)
	assert.True(t, s.Contains(link))
}

func TestSources_DeduplicatesPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	s, err := NewSources([]string{path, path})
	require.NoError(t, err)
	assert.Len(t, s.Paths(), 1)
}

func TestAllowedExtension(t *testing.T) {
	assert.True(t, AllowedExtension("a.xlsx"))
	assert.True(t, AllowedExtension("b.XLSM"))
	assert.True(t, AllowedExtension("c.xls"))
	assert.False(t, AllowedExtension("d.csv"))
	assert.False(t, AllowedExtension("e.xlsx.bak"))
	assert.False(t, AllowedExtension("noext"))
}

func TestIsEditorArtifact(t *testing.T) {
	assert.True(t, IsEditorArtifact("~$budget.xlsx"))
	assert.True(t, IsEditorArtifact(".~lock.budget.xlsx#"))
	assert.False(t, IsEditorArtifact("budget.xlsx"))
}
