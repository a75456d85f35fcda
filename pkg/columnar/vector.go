package columnar

import (
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/colbridge/pkg/errors"
)

// accessors is the per-vector getter table. It is filled once when the vector
// is built: the slot matching the declared type reads the physical encoding,
// every other slot raises a type-mismatch panic.
type accessors struct {
	isNull  func(row int) bool
	boolean func(row int) bool
	i8      func(row int) int8
	i16     func(row int) int16
	i32     func(row int) int32
	i64     func(row int) int64
	f32     func(row int) float32
	f64     func(row int) float64
	dec     func(row int) decimal.Decimal
	str     func(row int) string
	bin     func(row int) []byte
	date    func(row int) time.Time
	ts      func(row int) time.Time
}

func mismatch[T any](getter string, declared DataType) func(int) T {
	return func(int) T {
		panic(errors.TypeMismatch(getter, declared.String()))
	}
}

func mismatchTable(declared DataType) accessors {
	return accessors{
		boolean: mismatch[bool]("GetBoolean", declared),
		i8:      mismatch[int8]("GetByte", declared),
		i16:     mismatch[int16]("GetShort", declared),
		i32:     mismatch[int32]("GetInt", declared),
		i64:     mismatch[int64]("GetLong", declared),
		f32:     mismatch[float32]("GetFloat", declared),
		f64:     mismatch[float64]("GetDouble", declared),
		dec:     mismatch[decimal.Decimal]("GetDecimal", declared),
		str:     mismatch[string]("GetString", declared),
		bin:     mismatch[[]byte]("GetBinary", declared),
		date:    mismatch[time.Time]("GetDate", declared),
		ts:      mismatch[time.Time]("GetTimestamp", declared),
	}
}

// ColumnVector is a Vector backed by an Arrow array. It reads the array's
// buffers in place; no value is copied when the vector is built or read.
type ColumnVector struct {
	typ  DataType
	rows int
	arr  arrow.Array
	acc  accessors
}

// FromArrow wraps arr as a ColumnVector. Plain, dictionary-encoded and
// run-end-encoded arrays are accepted; the logical type comes from the value
// type. The vector retains arr until Release is called.
func FromArrow(arr arrow.Array) (*ColumnVector, error) {
	if arr == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "arrow array is nil")
	}

	typ, acc, err := bind(arr, nil)
	if err != nil {
		return nil, err
	}

	arr.Retain()
	return &ColumnVector{
		typ:  typ,
		rows: arr.Len(),
		arr:  arr,
		acc:  acc,
	}, nil
}

// Type returns the declared logical type
func (v *ColumnVector) Type() DataType { return v.typ }

// NumOfRows returns the number of rows, nulls included
func (v *ColumnVector) NumOfRows() int { return v.rows }

// Arrow returns the backing array. It stays valid until Release.
func (v *ColumnVector) Arrow() arrow.Array { return v.arr }

// Release drops the vector's reference to the backing array.
func (v *ColumnVector) Release() {
	if v.arr != nil {
		v.arr.Release()
		v.arr = nil
	}
}

func (v *ColumnVector) checkRow(row int) {
	if uint(row) >= uint(v.rows) {
		panic(errors.OutOfRange("row", row, v.rows))
	}
}

func (v *ColumnVector) IsNullAt(row int) bool {
	v.checkRow(row)
	return v.acc.isNull(row)
}

func (v *ColumnVector) GetBoolean(row int) bool {
	v.checkRow(row)
	return v.acc.boolean(row)
}

func (v *ColumnVector) GetByte(row int) int8 {
	v.checkRow(row)
	return v.acc.i8(row)
}

func (v *ColumnVector) GetShort(row int) int16 {
	v.checkRow(row)
	return v.acc.i16(row)
}

func (v *ColumnVector) GetInt(row int) int32 {
	v.checkRow(row)
	return v.acc.i32(row)
}

func (v *ColumnVector) GetLong(row int) int64 {
	v.checkRow(row)
	return v.acc.i64(row)
}

func (v *ColumnVector) GetFloat(row int) float32 {
	v.checkRow(row)
	return v.acc.f32(row)
}

func (v *ColumnVector) GetDouble(row int) float64 {
	v.checkRow(row)
	return v.acc.f64(row)
}

func (v *ColumnVector) GetDecimal(row int) decimal.Decimal {
	v.checkRow(row)
	return v.acc.dec(row)
}

// GetString returns the value as a string sharing memory with the backing
// buffer. It is valid on string and binary columns.
func (v *ColumnVector) GetString(row int) string {
	v.checkRow(row)
	return v.acc.str(row)
}

// GetBinary returns the value as a byte slice sharing memory with the backing
// buffer. It is valid on string and binary columns; callers must not modify it.
func (v *ColumnVector) GetBinary(row int) []byte {
	v.checkRow(row)
	return v.acc.bin(row)
}

// GetDate returns midnight UTC of the stored day.
func (v *ColumnVector) GetDate(row int) time.Time {
	v.checkRow(row)
	return v.acc.date(row)
}

// GetTimestamp returns the stored instant in UTC.
func (v *ColumnVector) GetTimestamp(row int) time.Time {
	v.checkRow(row)
	return v.acc.ts(row)
}
