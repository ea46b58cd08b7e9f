// Package testutil provides small helpers for building source trees in
// temporary directories and asserting on synthesized outputs.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteFile creates a file (and its parents) under root with the given
// content
func WriteFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// MkDir creates a directory (and its parents) under root
func MkDir(t *testing.T, root, rel string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(path, 0755))
	return path
}

// Symlink creates a symlink under root pointing at target
func Symlink(t *testing.T, root, rel, target string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.Symlink(target, path))
	return path
}

// ReadFile returns the content of a file under root
func ReadFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, rel))
	require.NoError(t, err)
	return string(data)
}

// Exists reports whether a path exists under root (without following
// symlinks)
func Exists(t *testing.T, root, rel string) bool {
	t.Helper()
	_, err := os.Lstat(filepath.Join(root, rel))
	if err != nil {
		require.True(t, os.IsNotExist(err), "unexpected error for %s: %v", rel, err)
		return false
	}
	return true
}

// ModTime returns a file's modification time, for asserting that a
// second run did not rewrite an output
func ModTime(t *testing.T, root, rel string) int64 {
	t.Helper()
	info, err := os.Stat(filepath.Join(root, rel))
	require.NoError(t, err)
	return info.ModTime().UnixNano()
}
