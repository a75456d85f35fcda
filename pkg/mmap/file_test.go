//go:build linux || darwin

package mmap_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/mmap"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestOpen(t *testing.T) {
	content := []byte("0123456789abcdef")
	f, err := mmap.Open(writeFile(t, content))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, content, f.Bytes())
	assert.Equal(t, int64(len(content)), f.Size())
	require.NoError(t, f.Sequential())

	buf := make([]byte, 4)
	n, err := f.ReadAt(buf, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "abcd", string(buf))

	pos, err := f.Seek(-3, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(13), pos)
	rest, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "def", string(rest))
}

func TestWillNeed(t *testing.T) {
	content := make([]byte, 3*os.Getpagesize()+17)
	f, err := mmap.Open(writeFile(t, content))
	require.NoError(t, err)
	defer f.Close()

	assert.NoError(t, f.WillNeed(0, int64(len(content))))
	assert.NoError(t, f.WillNeed(int64(os.Getpagesize())+5, 10))
	assert.NoError(t, f.WillNeed(int64(len(content))-1, 1<<20))
	assert.NoError(t, f.WillNeed(-1, 10))
	assert.NoError(t, f.WillNeed(int64(len(content)), 10))
}

func TestClose(t *testing.T) {
	f, err := mmap.Open(writeFile(t, []byte("abc")))
	require.NoError(t, err)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	assert.Nil(t, f.Bytes())

	err = f.Sequential()
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))

	_, err = f.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpenErrors(t *testing.T) {
	_, err := mmap.Open(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))

	_, err = mmap.Open(writeFile(t, nil))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
	assert.Contains(t, err.Error(), "empty")
}
