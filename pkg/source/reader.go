package source

import (
	"context"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colbridge/pkg/columnar"
	"github.com/ajitpratap0/colbridge/pkg/errors"
)

// recordProducer adapts any Arrow record reader to a Producer.
type recordProducer struct {
	rr      array.RecordReader
	closers []io.Closer
	logger  *zap.Logger
	format  Format
	chunks  int
	rows    int64
	closed  bool
}

func (p *recordProducer) Next(ctx context.Context) (*columnar.Chunk, error) {
	if p.closed {
		return nil, errors.New(errors.ErrorTypeValidation, "producer is closed")
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !p.rr.Next() {
			if err := p.rr.Err(); err != nil && err != io.EOF {
				return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read record batch").
					WithDetail("format", string(p.format)).
					WithDetail("batch", p.chunks)
			}
			return nil, io.EOF
		}

		rec := p.rr.Record()
		if rec.NumRows() == 0 || rec.NumCols() == 0 {
			continue
		}
		chunk, err := columnar.FromRecord(rec)
		if err != nil {
			return nil, err
		}
		p.chunks++
		p.rows += rec.NumRows()
		return chunk, nil
	}
}

func (p *recordProducer) Schema() *arrow.Schema { return p.rr.Schema() }

func (p *recordProducer) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.rr.Release()
	p.logger.Debug("input closed",
		zap.String("format", string(p.format)),
		zap.Int("chunks", p.chunks),
		zap.Int64("rows", p.rows))
	return closeAll(p.closers)
}

func closeAll(closers []io.Closer) error {
	var first error
	for _, c := range closers {
		if err := c.Close(); err != nil && first == nil {
			first = errors.Wrap(err, errors.ErrorTypeFile, "failed to close input")
		}
	}
	return first
}

// NewIPCProducer reads the Arrow IPC streaming format from r. Dictionary and
// run-end-encoded columns are passed through without decoding.
func NewIPCProducer(r io.Reader, opts Options) (Producer, error) {
	return newIPCProducer(r, opts.withDefaults())
}

func newIPCProducer(r io.Reader, opts Options, closers ...io.Closer) (Producer, error) {
	rdr, err := ipc.NewReader(r, ipc.WithAllocator(opts.Allocator))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to create arrow stream reader")
	}
	return &recordProducer{rr: rdr, closers: closers, logger: opts.Logger, format: IPC}, nil
}

// NewCSVProducer reads CSV with a header row from r. Column types are
// inferred from the first batch.
func NewCSVProducer(r io.Reader, opts Options) Producer {
	return newCSVProducer(r, opts.withDefaults())
}

func newCSVProducer(r io.Reader, opts Options, closers ...io.Closer) Producer {
	rdr := csv.NewInferringReader(r,
		csv.WithHeader(true),
		csv.WithChunk(opts.BatchSize),
		csv.WithAllocator(opts.Allocator),
		csv.WithNullReader(true, ""),
	)
	return &recordProducer{rr: rdr, closers: closers, logger: opts.Logger, format: CSV}
}

// NewParquetProducer reads a Parquet file. Row groups are decoded in batches
// of opts.BatchSize rows.
func NewParquetProducer(r readAtSeeker, opts Options) (Producer, error) {
	return newParquetProducer(r, opts.withDefaults())
}

func newParquetProducer(r readAtSeeker, opts Options, closers ...io.Closer) (Producer, error) {
	pf, err := file.NewParquetReader(r, file.WithReadProps(parquet.NewReaderProperties(opts.Allocator)))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to create parquet reader")
	}

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: int64(opts.BatchSize)}, opts.Allocator)
	if err != nil {
		pf.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to create arrow reader")
	}

	rr, err := fr.GetRecordReader(context.Background(), nil, nil)
	if err != nil {
		pf.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to get record reader")
	}

	opts.Logger.Debug("parquet input",
		zap.Int("row_groups", pf.NumRowGroups()),
		zap.Int64("rows", pf.NumRows()))

	return &recordProducer{
		rr:      rr,
		closers: append([]io.Closer{pf}, closers...),
		logger:  opts.Logger,
		format:  Parquet,
	}, nil
}

// fileProducer walks the record batches of an Arrow IPC file in order.
type fileProducer struct {
	rdr     *ipc.FileReader
	closers []io.Closer
	logger  *zap.Logger
	next    int
	rows    int64
	closed  bool
}

// NewIPCFileProducer reads the Arrow IPC random-access file format.
func NewIPCFileProducer(r readAtSeeker, opts Options) (Producer, error) {
	return newIPCFileProducer(r, opts.withDefaults())
}

func newIPCFileProducer(r readAtSeeker, opts Options, closers ...io.Closer) (Producer, error) {
	rdr, err := ipc.NewFileReader(r, ipc.WithAllocator(opts.Allocator))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to create arrow file reader")
	}
	return &fileProducer{rdr: rdr, closers: closers, logger: opts.Logger}, nil
}

func (p *fileProducer) Next(ctx context.Context) (*columnar.Chunk, error) {
	if p.closed {
		return nil, errors.New(errors.ErrorTypeValidation, "producer is closed")
	}
	for ; p.next < p.rdr.NumRecords(); p.next++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := p.rdr.RecordAt(p.next)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read record batch").
				WithDetail("format", string(IPCFile)).
				WithDetail("batch", p.next)
		}
		if rec.NumRows() == 0 || rec.NumCols() == 0 {
			rec.Release()
			continue
		}

		chunk, err := columnar.FromRecord(rec)
		rec.Release()
		if err != nil {
			return nil, err
		}
		p.rows += int64(chunk.NumOfRows())
		p.next++
		return chunk, nil
	}
	return nil, io.EOF
}

func (p *fileProducer) Schema() *arrow.Schema { return p.rdr.Schema() }

func (p *fileProducer) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.logger.Debug("input closed",
		zap.String("format", string(IPCFile)),
		zap.Int("batches", p.rdr.NumRecords()),
		zap.Int64("rows", p.rows))

	err := p.rdr.Close()
	if cerr := closeAll(p.closers); err == nil {
		err = cerr
	}
	return err
}
