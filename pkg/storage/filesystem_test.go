package storage

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndOpen(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	path, err := store.Save("certificates/cert-1.pdf", []byte("pdf bytes"))
	require.NoError(t, err)
	require.Equal(t, "certificates/cert-1.pdf", path)
	require.True(t, store.Exists(path))

	file, err := store.Open(path)
	require.NoError(t, err)
	defer file.Close()
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	require.Equal(t, []byte("pdf bytes"), data)
}

func TestLocalStorageSaveStream(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	path, err := store.SaveStream("timetables/tt-1.pdf", bytes.NewReader([]byte("schedule")))
	require.NoError(t, err)
	require.True(t, store.Exists(path))
}

func TestLocalStorageDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	path, err := store.Save("doc.txt", []byte("x"))
	require.NoError(t, err)
	require.NoError(t, store.Delete(path))
	require.False(t, store.Exists(path))

	// deleting a missing file is not an error
	require.NoError(t, store.Delete("missing.txt"))
}

func TestLocalStoragePathResolution(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(base, "a/b.txt"), store.Path("a/b.txt"))
}
