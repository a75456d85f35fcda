package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colbridge/pkg/compression"
	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/logger"
)

var (
	sampleEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	categories  = []string{"alpha", "beta", "gamma", "delta"}
	regions     = []string{"north", "south", "east", "west"}
)

// regionRun is the number of consecutive rows sharing a region.
const regionRun = 16

// GenerateOptions configures sample data generation.
type GenerateOptions struct {
	Format      Format
	Compression compression.Algorithm
	Level       compression.Level
	Rows        int
	BatchSize   int
	// Encoded adds a dictionary-encoded and a run-end-encoded column.
	// Parquet output does not support it.
	Encoded   bool
	Allocator memory.Allocator
	Logger    *zap.Logger
}

// SampleSchema returns the schema of generated data.
func SampleSchema(encoded bool) *arrow.Schema {
	fields := []arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "flag", Type: arrow.FixedWidthTypes.Boolean},
		{Name: "qty", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		{Name: "ratio", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "amount", Type: &arrow.Decimal128Type{Precision: 12, Scale: 2}},
		{Name: "label", Type: arrow.BinaryTypes.String},
		{Name: "payload", Type: arrow.BinaryTypes.Binary},
		{Name: "day", Type: arrow.FixedWidthTypes.Date32},
		{Name: "ts", Type: &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}},
	}
	if encoded {
		fields = append(fields,
			arrow.Field{Name: "category", Nullable: true, Type: &arrow.DictionaryType{
				IndexType: arrow.PrimitiveTypes.Int32, ValueType: arrow.BinaryTypes.String}},
			arrow.Field{Name: "region", Type: arrow.RunEndEncodedOf(
				arrow.PrimitiveTypes.Int32, arrow.BinaryTypes.String)},
		)
	}
	return arrow.NewSchema(fields, nil)
}

// SampleRecord builds rows [offset, offset+rows) of the sample data set.
// Values depend only on the global row number, so any batching of the same
// range yields the same cells.
func SampleRecord(mem memory.Allocator, offset, rows int, encoded bool) arrow.Record {
	b := array.NewRecordBuilder(mem, SampleSchema(false))
	defer b.Release()

	ids := b.Field(0).(*array.Int64Builder)
	flags := b.Field(1).(*array.BooleanBuilder)
	qty := b.Field(2).(*array.Int32Builder)
	ratio := b.Field(3).(*array.Float64Builder)
	amount := b.Field(4).(*array.Decimal128Builder)
	label := b.Field(5).(*array.StringBuilder)
	payload := b.Field(6).(*array.BinaryBuilder)
	day := b.Field(7).(*array.Date32Builder)
	ts := b.Field(8).(*array.TimestampBuilder)

	for g := offset; g < offset+rows; g++ {
		ids.Append(int64(g))
		flags.Append(g%2 == 0)
		if g%11 == 10 {
			qty.AppendNull()
		} else {
			qty.Append(int32(g % 100))
		}
		if g%5 == 4 {
			ratio.AppendNull()
		} else {
			ratio.Append(float64(g) / 8)
		}
		amount.Append(decimal128.FromI64(int64(g) * 137))
		label.Append(fmt.Sprintf("item-%d", g))
		payload.Append([]byte{byte(g), byte(g >> 8)})
		day.Append(arrow.Date32FromTime(sampleEpoch.AddDate(0, 0, g%366)))
		ts.Append(arrow.Timestamp(sampleEpoch.Add(time.Duration(g) * time.Second).UnixMicro()))
	}

	if !encoded {
		return b.NewRecord()
	}

	// Encoded columns are assembled from their children so every batch
	// carries the same dictionary.
	plain := b.NewRecord()
	defer plain.Release()

	cols := append([]arrow.Array{}, plain.Columns()...)
	category := categoryColumn(mem, offset, rows)
	defer category.Release()
	region := regionColumn(mem, offset, rows)
	defer region.Release()
	cols = append(cols, category, region)

	return array.NewRecord(SampleSchema(true), cols, int64(rows))
}

func categoryColumn(mem memory.Allocator, offset, rows int) arrow.Array {
	vb := array.NewStringBuilder(mem)
	defer vb.Release()
	vb.AppendValues(categories, nil)
	dict := vb.NewArray()
	defer dict.Release()

	ib := array.NewInt32Builder(mem)
	defer ib.Release()
	for g := offset; g < offset+rows; g++ {
		if g%7 == 6 {
			ib.AppendNull()
		} else {
			ib.Append(int32(g % len(categories)))
		}
	}
	idx := ib.NewArray()
	defer idx.Release()

	typ := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int32, ValueType: arrow.BinaryTypes.String}
	return array.NewDictionaryArray(typ, idx, dict)
}

func regionColumn(mem memory.Allocator, offset, rows int) arrow.Array {
	eb := array.NewInt32Builder(mem)
	defer eb.Release()
	vb := array.NewStringBuilder(mem)
	defer vb.Release()

	for g := offset; g < offset+rows; {
		end := min((g/regionRun+1)*regionRun, offset+rows)
		eb.Append(int32(end - offset))
		vb.Append(regions[(g/regionRun)%len(regions)])
		g = end
	}

	ends := eb.NewArray()
	defer ends.Release()
	values := vb.NewArray()
	defer values.Release()
	return array.NewRunEndEncodedArray(ends, values, rows, 0)
}

type recordWriter interface {
	Write(rec arrow.Record) error
	Close() error
}

// Generate writes opts.Rows rows of sample data to w in batches of
// opts.BatchSize. It returns the number of batches written.
func Generate(ctx context.Context, w io.Writer, opts GenerateOptions) (int, error) {
	if opts.Format == "" {
		opts.Format = IPC
	}
	if opts.Rows < 0 {
		return 0, errors.Newf(errors.ErrorTypeValidation, "row count must not be negative, got %d", opts.Rows)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1024
	}
	if opts.Allocator == nil {
		opts.Allocator = memory.DefaultAllocator
	}
	log := logger.OrNop(opts.Logger)

	cw, err := compression.NewWriter(w, opts.Compression, opts.Level)
	if err != nil {
		return 0, err
	}

	rw, err := newRecordWriter(cw, opts)
	if err != nil {
		cw.Close()
		return 0, err
	}

	batches := 0
	for offset := 0; offset < opts.Rows; offset += opts.BatchSize {
		if err := ctx.Err(); err != nil {
			rw.Close()
			cw.Close()
			return batches, err
		}
		rec := SampleRecord(opts.Allocator, offset, min(opts.BatchSize, opts.Rows-offset), opts.Encoded)
		err := rw.Write(rec)
		rec.Release()
		if err != nil {
			rw.Close()
			cw.Close()
			return batches, errors.Wrap(err, errors.ErrorTypeFile, "failed to write record batch").
				WithDetail("batch", batches)
		}
		batches++
	}

	if err := rw.Close(); err != nil {
		cw.Close()
		return batches, errors.Wrap(err, errors.ErrorTypeFile, "failed to finish output")
	}
	if err := cw.Close(); err != nil {
		return batches, errors.Wrap(err, errors.ErrorTypeFile, "failed to flush compressed output")
	}

	log.Debug("sample data written",
		zap.String("format", string(opts.Format)),
		zap.Int("rows", opts.Rows),
		zap.Int("batches", batches))
	return batches, nil
}

func newRecordWriter(w io.Writer, opts GenerateOptions) (recordWriter, error) {
	schema := SampleSchema(opts.Encoded)
	switch opts.Format {
	case IPC:
		return ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(opts.Allocator)), nil
	case IPCFile:
		fw, err := ipc.NewFileWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(opts.Allocator))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create arrow file writer")
		}
		return fw, nil
	case Parquet:
		if opts.Encoded {
			return nil, errors.New(errors.ErrorTypeCapability, "parquet output does not support run-end-encoded columns")
		}
		// The parquet writer closes its sink; hide Close so the compressor
		// is flushed exactly once.
		fw, err := pqarrow.NewFileWriter(schema, struct{ io.Writer }{w},
			parquet.NewWriterProperties(parquet.WithAllocator(opts.Allocator)),
			pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(opts.Allocator)))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create parquet writer")
		}
		return fw, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeCapability, "cannot generate %q output", opts.Format)
	}
}

// GenerateFile writes sample data to path. Format and compression default to
// what the file name implies.
func GenerateFile(ctx context.Context, path string, opts GenerateOptions) (int, error) {
	if opts.Format == "" {
		format, err := DetectFormat(path)
		if err != nil {
			return 0, err
		}
		opts.Format = format
	}
	if opts.Compression == "" {
		opts.Compression, _ = compression.FromPath(path)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeFile, "failed to create output").
			WithDetail("path", path)
	}
	n, err := Generate(ctx, f, opts)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = errors.Wrap(cerr, errors.ErrorTypeFile, "failed to close output")
	}
	return n, err
}
