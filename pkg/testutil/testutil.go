// Package testutil provides testing utilities for colbridge: loggers,
// contexts, and Arrow fixtures allocated from a leak-checked allocator.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// TestLogger creates a test logger that writes to the test output.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// Allocator returns a checked allocator that fails the test if any buffer is
// still allocated when the test finishes.
func Allocator(t testing.TB) *memory.CheckedAllocator {
	t.Helper()
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	t.Cleanup(func() { mem.AssertSize(t, 0) })
	return mem
}

type appender[T any] interface {
	AppendValues(values []T, valid []bool)
	NewArray() arrow.Array
	Release()
}

func build[T any](b appender[T], values []T, valid []bool) arrow.Array {
	defer b.Release()
	b.AppendValues(values, valid)
	return b.NewArray()
}

// The builders below take values and an optional validity slice (nil means
// all valid). The caller owns the returned array and must release it.

func Bools(mem memory.Allocator, values []bool, valid []bool) arrow.Array {
	return build[bool](array.NewBooleanBuilder(mem), values, valid)
}

func Int8s(mem memory.Allocator, values []int8, valid []bool) arrow.Array {
	return build[int8](array.NewInt8Builder(mem), values, valid)
}

func Int16s(mem memory.Allocator, values []int16, valid []bool) arrow.Array {
	return build[int16](array.NewInt16Builder(mem), values, valid)
}

func Int32s(mem memory.Allocator, values []int32, valid []bool) arrow.Array {
	return build[int32](array.NewInt32Builder(mem), values, valid)
}

func Int64s(mem memory.Allocator, values []int64, valid []bool) arrow.Array {
	return build[int64](array.NewInt64Builder(mem), values, valid)
}

func Uint8s(mem memory.Allocator, values []uint8, valid []bool) arrow.Array {
	return build[uint8](array.NewUint8Builder(mem), values, valid)
}

func Uint16s(mem memory.Allocator, values []uint16, valid []bool) arrow.Array {
	return build[uint16](array.NewUint16Builder(mem), values, valid)
}

func Uint32s(mem memory.Allocator, values []uint32, valid []bool) arrow.Array {
	return build[uint32](array.NewUint32Builder(mem), values, valid)
}

func Float32s(mem memory.Allocator, values []float32, valid []bool) arrow.Array {
	return build[float32](array.NewFloat32Builder(mem), values, valid)
}

func Float64s(mem memory.Allocator, values []float64, valid []bool) arrow.Array {
	return build[float64](array.NewFloat64Builder(mem), values, valid)
}

func Strings(mem memory.Allocator, values []string, valid []bool) arrow.Array {
	return build[string](array.NewStringBuilder(mem), values, valid)
}

func Binaries(mem memory.Allocator, values [][]byte, valid []bool) arrow.Array {
	return build[[]byte](array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary), values, valid)
}

func Dates(mem memory.Allocator, values []time.Time, valid []bool) arrow.Array {
	days := make([]arrow.Date32, len(values))
	for i, v := range values {
		days[i] = arrow.Date32FromTime(v)
	}
	return build[arrow.Date32](array.NewDate32Builder(mem), days, valid)
}

// Timestamps builds a microsecond UTC timestamp array.
func Timestamps(mem memory.Allocator, values []time.Time, valid []bool) arrow.Array {
	ts := make([]arrow.Timestamp, len(values))
	for i, v := range values {
		ts[i] = arrow.Timestamp(v.UnixMicro())
	}
	typ := &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}
	return build[arrow.Timestamp](array.NewTimestampBuilder(mem, typ), ts, valid)
}

// Decimals builds a decimal128 array from unscaled integers.
func Decimals(mem memory.Allocator, precision, scale int32, unscaled []int64, valid []bool) arrow.Array {
	nums := make([]decimal128.Num, len(unscaled))
	for i, v := range unscaled {
		nums[i] = decimal128.FromI64(v)
	}
	typ := &arrow.Decimal128Type{Precision: precision, Scale: scale}
	return build[decimal128.Num](array.NewDecimal128Builder(mem, typ), nums, valid)
}

// DictionaryStrings builds a dictionary-encoded string array with int32
// indices. A false entry in valid marks the index slot null.
func DictionaryStrings(mem memory.Allocator, dict []string, indices []int32, valid []bool) arrow.Array {
	values := Strings(mem, dict, nil)
	defer values.Release()
	idx := Int32s(mem, indices, valid)
	defer idx.Release()

	typ := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int32, ValueType: arrow.BinaryTypes.String}
	return array.NewDictionaryArray(typ, idx, values)
}

// RunEnds builds a run-end-encoded array over values with int32 run ends.
// values is retained; the caller keeps its own reference.
func RunEnds(mem memory.Allocator, runEnds []int32, values arrow.Array) arrow.Array {
	ends := Int32s(mem, runEnds, nil)
	defer ends.Release()

	length := 0
	if n := len(runEnds); n > 0 {
		length = int(runEnds[n-1])
	}
	return array.NewRunEndEncodedArray(ends, values, length, 0)
}

// Record assembles a record from named columns. It takes ownership of cols.
func Record(names []string, cols ...arrow.Array) arrow.Record {
	fields := make([]arrow.Field, len(cols))
	for i, col := range cols {
		fields[i] = arrow.Field{Name: names[i], Type: col.DataType(), Nullable: true}
	}

	rows := int64(0)
	if len(cols) > 0 {
		rows = int64(cols[0].Len())
	}
	rec := array.NewRecord(arrow.NewSchema(fields, nil), cols, rows)
	for _, col := range cols {
		col.Release()
	}
	return rec
}
