// Package json provides JSON serialization for colbridge outputs on top of
// goccy/go-json, with pooled buffers and an ordered-object line writer.
package json

import (
	"bytes"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"
)

const maxPooledBuffer = 1024 * 1024

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledBuffer {
		return
	}
	bufferPool.Put(buf)
}

// MarshalIndent is a drop-in replacement for encoding/json.MarshalIndent
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// LineWriter writes line-delimited JSON objects whose keys keep the order in
// which they were added. Each object is built in a pooled buffer and written
// to the destination in one call. Not safe for concurrent use.
type LineWriter struct {
	w      io.Writer
	buf    *bytes.Buffer
	enc    *gojson.Encoder
	fields int
}

// NewLineWriter creates a line writer on w. Call Close to release its buffer.
func NewLineWriter(w io.Writer) *LineWriter {
	buf := GetBuffer()
	enc := gojson.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &LineWriter{w: w, buf: buf, enc: enc}
}

// Begin starts a new object.
func (lw *LineWriter) Begin() {
	lw.buf.Reset()
	lw.buf.WriteByte('{')
	lw.fields = 0
}

// Field appends key and value to the current object.
func (lw *LineWriter) Field(key string, value interface{}) error {
	if lw.fields > 0 {
		lw.buf.WriteByte(',')
	}
	lw.fields++

	if err := lw.encode(key); err != nil {
		return err
	}
	lw.buf.WriteByte(':')
	return lw.encode(value)
}

// End closes the current object and writes it as one line.
func (lw *LineWriter) End() error {
	lw.buf.WriteString("}\n")
	_, err := lw.w.Write(lw.buf.Bytes())
	return err
}

// Close returns the writer's buffer to the pool. It does not close the
// destination.
func (lw *LineWriter) Close() {
	if lw.buf != nil {
		PutBuffer(lw.buf)
		lw.buf = nil
	}
}

func (lw *LineWriter) encode(v interface{}) error {
	if err := lw.enc.Encode(v); err != nil {
		return err
	}
	// Remove trailing newline added by Encode
	if n := lw.buf.Len(); n > 0 && lw.buf.Bytes()[n-1] == '\n' {
		lw.buf.Truncate(n - 1)
	}
	return nil
}
