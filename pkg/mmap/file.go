// Package mmap maps read-only input files into memory so random-access
// readers (Arrow IPC files, Parquet footers and row groups) are served from
// the page cache instead of read syscalls.
package mmap

import (
	"bytes"
	"os"
	"sync"

	"github.com/ajitpratap0/colbridge/pkg/errors"
)

// File is a read-only memory-mapped file. It implements io.Reader,
// io.ReaderAt and io.Seeker over the mapped bytes.
type File struct {
	*bytes.Reader

	path string
	data []byte

	mu     sync.Mutex
	closed bool
}

// Open maps path into memory. The file descriptor is closed once the mapping
// exists; the mapping stays valid until Close.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open file").
			WithDetail("path", path)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to stat file").
			WithDetail("path", path)
	}

	size := stat.Size()
	if size == 0 {
		return nil, errors.New(errors.ErrorTypeFile, "cannot map an empty file").
			WithDetail("path", path)
	}
	if int64(int(size)) != size {
		return nil, errors.Newf(errors.ErrorTypeCapability, "file of %d bytes is too large to map", size).
			WithDetail("path", path)
	}

	data, err := mmap(int(f.Fd()), 0, int(size), ProtRead, MapShared)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to mmap file").
			WithDetail("path", path)
	}

	return &File{
		Reader: bytes.NewReader(data),
		path:   path,
		data:   data,
	}, nil
}

// Bytes returns the mapped contents. The slice is only valid until Close.
func (f *File) Bytes() []byte { return f.data }

func (f *File) Path() string { return f.path }

// Sequential advises the kernel that the mapping will be read front to back.
func (f *File) Sequential() error {
	return f.advise(MadvSequential, 0, len(f.data))
}

// WillNeed asks the kernel to page in [off, off+n) ahead of use. The range is
// widened to page boundaries and clipped to the file.
func (f *File) WillNeed(off, n int64) error {
	if off < 0 || off >= int64(len(f.data)) || n <= 0 {
		return nil
	}
	page := int64(os.Getpagesize())
	start := off / page * page
	end := (off + n + page - 1) / page * page
	if end > int64(len(f.data)) {
		end = int64(len(f.data))
	}
	return f.advise(MadvWillneed, int(start), int(end))
}

func (f *File) advise(advice, start, end int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New(errors.ErrorTypeFile, "mapping is closed").WithDetail("path", f.path)
	}
	if err := madvise(f.data[start:end], advice); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "madvise failed").WithDetail("path", f.path)
	}
	return nil
}

// Close unmaps the file. Slices obtained from Bytes must not be used
// afterwards. Close is idempotent.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	f.Reader = bytes.NewReader(nil)

	data := f.data
	f.data = nil
	if err := munmap(data); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to unmap file").
			WithDetail("path", f.path)
	}
	return nil
}
