package httpclient

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestOSFileSystemMove(t *testing.T) {
	dir := t.TempDir()
	from := writeFile(t, dir, "src.bin", "data")
	to := filepath.Join(dir, "dst.bin")

	require.NoError(t, OSFileSystem{}.Move(from, to))

	got, err := os.ReadFile(to)
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
	_, err = os.Stat(from)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestOSFileSystemMoveRefusesExistingDestination(t *testing.T) {
	dir := t.TempDir()
	from := writeFile(t, dir, "src.bin", "new")
	to := writeFile(t, dir, "dst.bin", "old")

	err := OSFileSystem{}.Move(from, to)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrExist)

	got, _ := os.ReadFile(to)
	assert.Equal(t, "old", string(got))
	_, err = os.Stat(from)
	assert.NoError(t, err, "source must be left in place")
}

func TestOSFileSystemMoveMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := OSFileSystem{}.Move(filepath.Join(dir, "missing"), filepath.Join(dir, "dst"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestOSFileSystemMoveMissingDestinationDir(t *testing.T) {
	dir := t.TempDir()
	from := writeFile(t, dir, "src.bin", "data")
	err := OSFileSystem{}.Move(from, filepath.Join(dir, "nope", "dst.bin"))
	assert.Error(t, err)
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	from := writeFile(t, dir, "src.bin", "copied")
	to := filepath.Join(dir, "dst.bin")

	require.NoError(t, copyFile(from, to))
	got, err := os.ReadFile(to)
	require.NoError(t, err)
	assert.Equal(t, "copied", string(got))

	assert.ErrorIs(t, copyFile(from, to), fs.ErrExist)
}
