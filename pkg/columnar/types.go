package columnar

import (
	"time"

	"github.com/shopspring/decimal"
)

// DataType is the declared logical type of a column vector. The set is closed:
// every vector reports exactly one of these values for its whole lifetime.
type DataType int

const (
	TypeBoolean DataType = iota
	TypeByte
	TypeShort
	TypeInt
	TypeLong
	TypeFloat
	TypeDouble
	TypeDecimal
	TypeString
	TypeBinary
	TypeDate
	TypeTimestamp
)

var dataTypeNames = [...]string{
	TypeBoolean:   "boolean",
	TypeByte:      "byte",
	TypeShort:     "short",
	TypeInt:       "int",
	TypeLong:      "long",
	TypeFloat:     "float",
	TypeDouble:    "double",
	TypeDecimal:   "decimal",
	TypeString:    "string",
	TypeBinary:    "binary",
	TypeDate:      "date",
	TypeTimestamp: "timestamp",
}

func (t DataType) String() string {
	if t < 0 || int(t) >= len(dataTypeNames) {
		return "unknown"
	}
	return dataTypeNames[t]
}

// Valid reports whether t is one of the declared logical types.
func (t DataType) Valid() bool {
	return t >= TypeBoolean && t <= TypeTimestamp
}

// Field names a column ordinal. Names are informational; chunks and batches
// are always addressed by ordinal.
type Field struct {
	Name string
	Type DataType
}

// Vector is the read-only contract a storage column exposes to the adapter
// layer. Every accessor takes a row offset in [0, NumOfRows()); offsets
// outside that range panic with an out-of-range error. Typed getters are only
// meaningful when IsNullAt(row) is false, and a getter that does not match
// Type() panics with a type-mismatch error.
type Vector interface {
	Type() DataType
	NumOfRows() int
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
