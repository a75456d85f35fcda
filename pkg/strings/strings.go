// Package strings provides zero-copy conversions between byte slices and
// strings, and a pooled Sprintf used on error paths.
package strings

import (
	"fmt"
	"sync"
	"unsafe"
)

// BytesToString converts byte slice to string without allocation
// WARNING: The returned string shares memory with the byte slice.
// Do not modify the byte slice after calling this function.
func BytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// StringToBytes converts string to byte slice without allocation
// WARNING: The returned byte slice shares memory with the string.
// Do not modify the returned slice.
func StringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// Builder provides string building over a reusable byte buffer
type Builder struct {
	buf []byte
}

// NewBuilder creates a new string builder
func NewBuilder(capacity int) *Builder {
	return &Builder{
		buf: make([]byte, 0, capacity),
	}
}

// WriteString appends a string to the builder
func (b *Builder) WriteString(s string) {
	b.buf = append(b.buf, s...)
}

// Write implements io.Writer
func (b *Builder) Write(p []byte) (n int, err error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// String returns the built string. It shares memory with the builder and is
// only valid until the next Reset.
func (b *Builder) String() string {
	return BytesToString(b.buf)
}

// Len returns the number of bytes written
func (b *Builder) Len() int {
	return len(b.buf)
}

// Reset clears the builder, keeping its capacity
func (b *Builder) Reset() {
	b.buf = b.buf[:0]
}

var builderPool = sync.Pool{
	New: func() interface{} {
		return NewBuilder(256)
	},
}

// maxPooledCapacity keeps oversized builders out of the pool.
const maxPooledCapacity = 64 * 1024

// Sprintf provides a pooled alternative to fmt.Sprintf
func Sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}

	builder := builderPool.Get().(*Builder)
	builder.Reset()
	defer func() {
		if cap(builder.buf) <= maxPooledCapacity {
			builderPool.Put(builder)
		}
	}()

	fmt.Fprintf(builder, format, args...)

	return Clone(builder.String())
}
