package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}
}

func TestFindModelFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "b.srm", "a.srm", "notes.txt", "nested/c.srm", "nested/params.hcl")

	got, err := FindModelFiles(root)
	require.NoError(t, err)
	want := []string{
		filepath.Join(root, "a.srm"),
		filepath.Join(root, "b.srm"),
		filepath.Join(root, "nested", "c.srm"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestFindModelFiles_SingleFile(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "model.txt")

	got, err := FindModelFiles(filepath.Join(root, "model.txt"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "model.txt")}, got)
}

func TestFindModelFiles_Missing(t *testing.T) {
	_, err := FindModelFiles(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFindFilesByExtension_EmptyExtensionPanics(t *testing.T) {
	assert.Panics(t, func() { _, _ = FindFilesByExtension(t.TempDir(), "") })
}
