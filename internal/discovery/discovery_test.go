package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestArchivesFlatAndSorted(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "UP2.tar"))
	touch(t, filepath.Join(root, "UP1.tar"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "nested", "UP3.tar"))
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir.tar"), 0o755))

	got, err := Archives(root, ".tar")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "UP1.tar"), filepath.Join(root, "UP2.tar")}, got)
}

func TestArchivesEmptyRoot(t *testing.T) {
	got, err := Archives(t.TempDir(), ".tar")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestArchivesMissingRoot(t *testing.T) {
	_, err := Archives(filepath.Join(t.TempDir(), "absent"), ".tar")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWalkRecursive(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "ab", "pdb1abc.ent.gz"))
	touch(t, filepath.Join(root, "cd", "ef", "pdb2cde.ent.gz"))
	touch(t, filepath.Join(root, "cd", "readme"))

	got, err := Walk(root, ".ent.gz")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "ab", "pdb1abc.ent.gz"),
		filepath.Join(root, "cd", "ef", "pdb2cde.ent.gz"),
	}, got)
}

func TestWalkMissingRoot(t *testing.T) {
	_, err := Walk(filepath.Join(t.TempDir(), "absent"), ".ent.gz")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
