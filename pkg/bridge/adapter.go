package bridge

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/colbridge/pkg/columnar"
	"github.com/ajitpratap0/colbridge/pkg/vectorized"
)

var engineTypes = [...]vectorized.DataType{
	columnar.TypeBoolean:   vectorized.BooleanType,
	columnar.TypeByte:      vectorized.ByteType,
	columnar.TypeShort:     vectorized.ShortType,
	columnar.TypeInt:       vectorized.IntegerType,
	columnar.TypeLong:      vectorized.LongType,
	columnar.TypeFloat:     vectorized.FloatType,
	columnar.TypeDouble:    vectorized.DoubleType,
	columnar.TypeDecimal:   vectorized.DecimalType,
	columnar.TypeString:    vectorized.StringType,
	columnar.TypeBinary:    vectorized.BinaryType,
	columnar.TypeDate:      vectorized.DateType,
	columnar.TypeTimestamp: vectorized.TimestampType,
}

// EngineType maps a storage type to the engine type it is exposed as.
func EngineType(t columnar.DataType) vectorized.DataType {
	if !t.Valid() {
		return 0
	}
	return engineTypes[t]
}

// Adapter presents a storage column vector as an engine column. It holds a
// plain reference to the vector and forwards every call unchanged; it must
// not outlive the chunk that owns the vector.
type Adapter struct {
	vector   columnar.Vector
	dataType vectorized.DataType
}

var _ vectorized.Column = (*Adapter)(nil)

// NewAdapter wraps v. The engine type is resolved here, once.
func NewAdapter(v columnar.Vector) *Adapter {
	return &Adapter{
		vector:   v,
		dataType: EngineType(v.Type()),
	}
}

// Unwrap returns the wrapped storage vector.
func (a *Adapter) Unwrap() columnar.Vector { return a.vector }

func (a *Adapter) DataType() vectorized.DataType { return a.dataType }

func (a *Adapter) IsNullAt(row int) bool { return a.vector.IsNullAt(row) }

func (a *Adapter) GetBoolean(row int) bool { return a.vector.GetBoolean(row) }

func (a *Adapter) GetByte(row int) int8 { return a.vector.GetByte(row) }

func (a *Adapter) GetShort(row int) int16 { return a.vector.GetShort(row) }

func (a *Adapter) GetInt(row int) int32 { return a.vector.GetInt(row) }

func (a *Adapter) GetLong(row int) int64 { return a.vector.GetLong(row) }

func (a *Adapter) GetFloat(row int) float32 { return a.vector.GetFloat(row) }

func (a *Adapter) GetDouble(row int) float64 { return a.vector.GetDouble(row) }

func (a *Adapter) GetDecimal(row int) decimal.Decimal { return a.vector.GetDecimal(row) }

func (a *Adapter) GetString(row int) string { return a.vector.GetString(row) }

func (a *Adapter) GetBinary(row int) []byte { return a.vector.GetBinary(row) }

func (a *Adapter) GetDate(row int) time.Time { return a.vector.GetDate(row) }

func (a *Adapter) GetTimestamp(row int) time.Time { return a.vector.GetTimestamp(row) }
