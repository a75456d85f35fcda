// Package source produces columnar chunks from Arrow IPC, Parquet and CSV
// inputs, optionally compressed.
//
// Each call to Producer.Next wraps one Arrow record batch as a
// columnar.Chunk without copying column data:
//
//	p, err := source.Open("events.arrows.zst", source.Options{})
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//
//	for {
//		chunk, err := p.Next(ctx)
//		if err == io.EOF {
//			break
//		}
//		...
//		chunk.Release()
//	}
package source

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colbridge/pkg/columnar"
	"github.com/ajitpratap0/colbridge/pkg/compression"
	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/logger"
	"github.com/ajitpratap0/colbridge/pkg/mmap"
)

// Format represents an input format
type Format string

const (
	// IPC is the Arrow IPC streaming format
	IPC Format = "ipc"
	// IPCFile is the Arrow IPC random-access file format
	IPCFile Format = "ipc-file"
	// Parquet is Apache Parquet format
	Parquet Format = "parquet"
	// CSV is comma separated values with a header row
	CSV Format = "csv"
)

// DefaultBatchSize is the number of rows per chunk for formats where the
// reader chooses the batch size (Parquet, CSV).
const DefaultBatchSize = 64 * 1024

// Producer yields chunks until it returns io.EOF. Each returned chunk is
// owned by the caller, who must release it.
type Producer interface {
	Next(ctx context.Context) (*columnar.Chunk, error)
	// Schema returns the input schema. It may be nil until the first Next
	// for formats whose schema is inferred from data.
	Schema() *arrow.Schema
	Close() error
}

// Options configures Open.
type Options struct {
	// Format overrides detection from the file extension.
	Format Format
	// Compression overrides detection from the file extension.
	Compression compression.Algorithm
	// BatchSize is the row count per chunk for Parquet and CSV.
	BatchSize int
	// Allocator backs every buffer the reader allocates.
	Allocator memory.Allocator
	// Mmap maps uncompressed IPC files and Parquet inputs into memory
	// instead of reading them through the file descriptor. Open falls back
	// to plain reads when the file cannot be mapped.
	Mmap   bool
	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Allocator == nil {
		o.Allocator = memory.DefaultAllocator
	}
	o.Logger = logger.OrNop(o.Logger)
	return o
}

// ParseFormat converts a configuration string to a Format. The empty string
// means detect from the path.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", IPC, IPCFile, Parquet, CSV:
		return f, nil
	case "arrow":
		return IPCFile, nil
	case "arrows", "stream":
		return IPC, nil
	default:
		return "", errors.Newf(errors.ErrorTypeConfig, "unsupported input format %q", s)
	}
}

// DetectFormat infers the input format from path, ignoring any compression
// extension.
func DetectFormat(path string) (Format, error) {
	_, base := compression.FromPath(path)
	switch ext := strings.ToLower(filepath.Ext(base)); ext {
	case ".arrows", ".ipc":
		return IPC, nil
	case ".arrow", ".feather":
		return IPCFile, nil
	case ".parquet", ".pq":
		return Parquet, nil
	case ".csv":
		return CSV, nil
	default:
		return "", errors.Newf(errors.ErrorTypeCapability, "cannot detect input format of %s", path).
			WithDetail("extension", ext)
	}
}

// Open opens path and returns a producer for it. The format and compression
// are taken from opts, or detected from the file name.
func Open(path string, opts Options) (Producer, error) {
	opts = opts.withDefaults()

	format := opts.Format
	if format == "" {
		var err error
		if format, err = DetectFormat(path); err != nil {
			return nil, err
		}
	}
	alg := opts.Compression
	if alg == "" {
		alg, _ = compression.FromPath(path)
	}

	opts.Logger.Debug("opening input",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.String("compression", string(alg)),
		zap.Bool("mmap", opts.Mmap))

	if opts.Mmap && randomAccess(format) && uncompressed(alg) {
		p, err := openMapped(path, format, opts)
		if err == nil {
			return p, nil
		}
		opts.Logger.Debug("mmap unavailable, reading file", zap.Error(err))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open input").
			WithDetail("path", path)
	}

	p, err := open(f, format, alg, opts)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read input").
			WithDetail("path", path).
			WithDetail("format", string(format))
	}
	return p, nil
}

func open(f *os.File, format Format, alg compression.Algorithm, opts Options) (Producer, error) {
	// Random-access formats read directly from an uncompressed file; a
	// compressed one is inflated into memory first.
	if randomAccess(format) {
		var src readAtSeeker = f
		closers := []io.Closer{f}
		if !uncompressed(alg) {
			data, err := inflate(f, alg)
			if err != nil {
				return nil, err
			}
			f.Close()
			src, closers = bytes.NewReader(data), nil
		}
		if format == IPCFile {
			return newIPCFileProducer(src, opts, closers...)
		}
		// The parquet reader closes its source when it is an io.Closer.
		return newParquetProducer(src, opts)
	}

	r, err := compression.NewReader(f, alg)
	if err != nil {
		return nil, err
	}
	closers := []io.Closer{r, f}

	switch format {
	case IPC:
		return newIPCProducer(r, opts, closers...)
	case CSV:
		return newCSVProducer(r, opts, closers...), nil
	default:
		r.Close()
		return nil, errors.Newf(errors.ErrorTypeCapability, "unsupported input format %q", format)
	}
}

// openMapped serves a random-access format from a memory mapping of path.
func openMapped(path string, format Format, opts Options) (Producer, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	if err := m.Sequential(); err != nil {
		opts.Logger.Debug("madvise failed", zap.Error(err))
	}

	var p Producer
	if format == IPCFile {
		p, err = newIPCFileProducer(m, opts, m)
	} else {
		p, err = newParquetProducer(m, opts)
	}
	if err != nil {
		m.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read input").
			WithDetail("path", path).
			WithDetail("format", string(format))
	}
	return p, nil
}

func randomAccess(format Format) bool {
	return format == IPCFile || format == Parquet
}

func uncompressed(alg compression.Algorithm) bool {
	return alg == "" || alg == compression.None
}

func inflate(r io.Reader, alg compression.Algorithm) ([]byte, error) {
	dec, err := compression.NewReader(r, alg)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decompress input").
			WithDetail("compression", string(alg))
	}
	return data, nil
}

type readAtSeeker interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}
