package vectorized

import (
	"time"

	"github.com/shopspring/decimal"
)

// DataType is the execution engine's logical column type.
type DataType uint8

const (
	BooleanType DataType = iota + 1
	ByteType
	ShortType
	IntegerType
	LongType
	FloatType
	DoubleType
	DecimalType
	StringType
	BinaryType
	DateType
	TimestampType
)

func (t DataType) String() string {
	switch t {
	case BooleanType:
		return "BooleanType"
	case ByteType:
		return "ByteType"
	case ShortType:
		return "ShortType"
	case IntegerType:
		return "IntegerType"
	case LongType:
		return "LongType"
	case FloatType:
		return "FloatType"
	case DoubleType:
		return "DoubleType"
	case DecimalType:
		return "DecimalType"
	case StringType:
		return "StringType"
	case BinaryType:
		return "BinaryType"
	case DateType:
		return "DateType"
	case TimestampType:
		return "TimestampType"
	default:
		return "UnknownType"
	}
}

// IsNumeric reports whether values of t have a total numeric order.
func (t DataType) IsNumeric() bool {
	switch t {
	case ByteType, ShortType, IntegerType, LongType, FloatType, DoubleType, DecimalType:
		return true
	}
	return false
}

// Column is the contract the engine polls a batch column through. Row
// offsets are in [0, Batch.NumRows()). Typed getters are only meaningful on
// non-null rows of the matching DataType.
type Column interface {
	DataType() DataType
	IsNullAt(row int) bool

	GetBoolean(row int) bool
	GetByte(row int) int8
	GetShort(row int) int16
	GetInt(row int) int32
	GetLong(row int) int64
	GetFloat(row int) float32
	GetDouble(row int) float64
	GetDecimal(row int) decimal.Decimal
	GetString(row int) string
	GetBinary(row int) []byte
	GetDate(row int) time.Time
	GetTimestamp(row int) time.Time
}

// CountNulls returns how many of the first n rows of col are null.
func CountNulls(col Column, n int) int {
	nulls := 0
	for row := 0; row < n; row++ {
		if col.IsNullAt(row) {
			nulls++
		}
	}
	return nulls
}

// Value reads row of col as a Go value of the column's type, or nil when the
// row is null.
func Value(col Column, row int) any {
	if col.IsNullAt(row) {
		return nil
	}
	switch col.DataType() {
	case BooleanType:
		return col.GetBoolean(row)
	case ByteType:
		return col.GetByte(row)
	case ShortType:
		return col.GetShort(row)
	case IntegerType:
		return col.GetInt(row)
	case LongType:
		return col.GetLong(row)
	case FloatType:
		return col.GetFloat(row)
	case DoubleType:
		return col.GetDouble(row)
	case DecimalType:
		return col.GetDecimal(row)
	case StringType:
		return col.GetString(row)
	case BinaryType:
		return col.GetBinary(row)
	case DateType:
		return col.GetDate(row)
	case TimestampType:
		return col.GetTimestamp(row)
	}
	return nil
}
