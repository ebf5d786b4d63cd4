package fsutil

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_RoundTrip(t *testing.T) {
	fs := OSFileSystem{}
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "00001.flo")

	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
	w, err := fs.Create(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("PIEH"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.True(t, fs.Exists(path))
	assert.False(t, fs.Exists(filepath.Join(dir, "missing.flo")))

	data, err := fs.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PIEH", string(data))

	f, err := fs.Open(path)
	require.NoError(t, err)
	defer f.Close()
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "PIEH", string(got))
}

func TestMemoryFileSystem_CreateVisibleOnClose(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("out/00001.flo")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)

	data, err := mfs.ReadFile("out/00001.flo")
	require.NoError(t, err)
	assert.Empty(t, data, "contents should not be visible before Close")

	require.NoError(t, w.Close())
	data, err = mfs.ReadFile("out/00001.flo")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestMemoryFileSystem_OpenAndMissing(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("traj.csv", []byte("1,2,3"), 0644))

	f, err := mfs.Open("./traj.csv")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "1,2,3", string(data))
	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
	assert.Equal(t, "traj.csv", info.Name())

	_, err = mfs.Open("nope.csv")
	assert.Error(t, err)
	_, err = mfs.ReadFile("nope.csv")
	assert.Error(t, err)
}

func TestMemoryFileSystem_Dirs(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.MkdirAll("a/b/c", 0755))

	assert.True(t, mfs.Exists("a"))
	assert.True(t, mfs.Exists("a/b"))
	assert.True(t, mfs.Exists("a/b/c"))
	assert.False(t, mfs.Exists("a/x"))
}

func TestMemoryFileSystem_Files(t *testing.T) {
	mfs := NewMemoryFileSystem()
	for _, name := range []string{"out/00002.flo", "out/00001.flo", "other/x.flo"} {
		require.NoError(t, mfs.WriteFile(name, nil, 0644))
	}

	assert.Equal(t, []string{"out/00001.flo", "out/00002.flo"}, mfs.Files("out"))
	assert.Len(t, mfs.Files("."), 3)
}

func TestMemoryFileSystem_InjectedFailures(t *testing.T) {
	mfs := NewMemoryFileSystem()
	diskFull := errors.New("disk full")

	mfs.FailCreate("out/00001.flo", diskFull)
	_, err := mfs.Create("out/00001.flo")
	assert.ErrorIs(t, err, diskFull)

	mfs.FailWrite("out/00002.flo", diskFull)
	w, err := mfs.Create("out/00002.flo")
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	assert.ErrorIs(t, err, diskFull)
}
