package columnar

import (
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/colbridge/pkg/errors"
	stringpool "github.com/ajitpratap0/colbridge/pkg/strings"
)

// index maps a logical row to a slot of the array an accessor reads from.
// A nil index is the identity.
type index func(row int) int

func (ix index) then(next func(int) int) index {
	if ix == nil {
		return next
	}
	return func(row int) int { return next(ix(row)) }
}

func at[T any](value func(int) T, ix index) func(int) T {
	if ix == nil {
		return value
	}
	return func(row int) T { return value(ix(row)) }
}

func widen[S, T int8 | int16 | int32 | int64 | uint8 | uint16 | uint32](value func(int) S) func(int) T {
	return func(i int) T { return T(value(i)) }
}

// bind resolves the logical type of arr and builds its accessor table. ix
// translates logical rows into slots of arr when arr sits below an encoding
// layer (dictionary values, run-end values).
func bind(arr arrow.Array, ix index) (DataType, accessors, error) {
	switch a := arr.(type) {
	case *array.Dictionary:
		return bindDictionary(a, ix)
	case *array.RunEndEncoded:
		return bindRunEnds(a, ix)
	}

	var (
		typ DataType
		acc accessors
	)

	switch a := arr.(type) {
	case *array.Boolean:
		typ, acc = TypeBoolean, mismatchTable(TypeBoolean)
		acc.boolean = at(a.Value, ix)
	case *array.Int8:
		typ, acc = TypeByte, mismatchTable(TypeByte)
		acc.i8 = at(a.Value, ix)
	case *array.Int16:
		typ, acc = TypeShort, mismatchTable(TypeShort)
		acc.i16 = at(a.Value, ix)
	case *array.Int32:
		typ, acc = TypeInt, mismatchTable(TypeInt)
		acc.i32 = at(a.Value, ix)
	case *array.Int64:
		typ, acc = TypeLong, mismatchTable(TypeLong)
		acc.i64 = at(a.Value, ix)
	case *array.Uint8:
		typ, acc = TypeShort, mismatchTable(TypeShort)
		acc.i16 = at(widen[uint8, int16](a.Value), ix)
	case *array.Uint16:
		typ, acc = TypeInt, mismatchTable(TypeInt)
		acc.i32 = at(widen[uint16, int32](a.Value), ix)
	case *array.Uint32:
		typ, acc = TypeLong, mismatchTable(TypeLong)
		acc.i64 = at(widen[uint32, int64](a.Value), ix)
	case *array.Float32:
		typ, acc = TypeFloat, mismatchTable(TypeFloat)
		acc.f32 = at(a.Value, ix)
	case *array.Float64:
		typ, acc = TypeDouble, mismatchTable(TypeDouble)
		acc.f64 = at(a.Value, ix)
	case *array.Decimal128:
		scale := a.DataType().(*arrow.Decimal128Type).Scale
		typ, acc = TypeDecimal, mismatchTable(TypeDecimal)
		acc.dec = at(func(i int) decimal.Decimal {
			return decimal.NewFromBigInt(a.Value(i).BigInt(), -scale)
		}, ix)
	case *array.String:
		typ, acc = TypeString, mismatchTable(TypeString)
		acc.str = at(a.Value, ix)
		acc.bin = at(func(i int) []byte { return stringpool.StringToBytes(a.Value(i)) }, ix)
	case *array.LargeString:
		typ, acc = TypeString, mismatchTable(TypeString)
		acc.str = at(a.Value, ix)
		acc.bin = at(func(i int) []byte { return stringpool.StringToBytes(a.Value(i)) }, ix)
	case *array.Binary:
		typ, acc = TypeBinary, mismatchTable(TypeBinary)
		acc.bin = at(a.Value, ix)
		acc.str = at(func(i int) string { return stringpool.BytesToString(a.Value(i)) }, ix)
	case *array.LargeBinary:
		typ, acc = TypeBinary, mismatchTable(TypeBinary)
		acc.bin = at(a.Value, ix)
		acc.str = at(func(i int) string { return stringpool.BytesToString(a.Value(i)) }, ix)
	case *array.FixedSizeBinary:
		typ, acc = TypeBinary, mismatchTable(TypeBinary)
		acc.bin = at(a.Value, ix)
		acc.str = at(func(i int) string { return stringpool.BytesToString(a.Value(i)) }, ix)
	case *array.Date32:
		typ, acc = TypeDate, mismatchTable(TypeDate)
		acc.date = at(func(i int) time.Time { return a.Value(i).ToTime().UTC() }, ix)
	case *array.Date64:
		typ, acc = TypeDate, mismatchTable(TypeDate)
		// Date64 may carry a time of day; only the day is kept.
		acc.date = at(func(i int) time.Time { return a.Value(i).ToTime().UTC().Truncate(24 * time.Hour) }, ix)
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		typ, acc = TypeTimestamp, mismatchTable(TypeTimestamp)
		acc.ts = at(func(i int) time.Time { return a.Value(i).ToTime(unit).UTC() }, ix)
	default:
		return 0, accessors{}, errors.Newf(errors.ErrorTypeCapability,
			"unsupported arrow type %s", arr.DataType()).
			WithDetail("arrow_type", arr.DataType().String())
	}

	acc.isNull = at(arr.IsNull, ix)
	return typ, acc, nil
}

// bindDictionary reads values through the dictionary. A row is null when its
// index slot is null or when the dictionary entry it points at is null.
func bindDictionary(d *array.Dictionary, ix index) (DataType, accessors, error) {
	dict := d.Dictionary()
	typ, acc, err := bind(dict, ix.then(d.GetValueIndex))
	if err != nil {
		return 0, accessors{}, err
	}

	indexNull := at(d.IsNull, ix)
	valueNull := at(func(slot int) bool { return dict.IsNull(d.GetValueIndex(slot)) }, ix)
	acc.isNull = func(row int) bool {
		return indexNull(row) || valueNull(row)
	}
	return typ, acc, nil
}

// bindRunEnds reads values of the run containing the row. Run-end-encoded
// arrays carry no validity bitmap of their own; nulls live in the values.
func bindRunEnds(r *array.RunEndEncoded, ix index) (DataType, accessors, error) {
	return bind(r.Values(), ix.then(r.GetPhysicalIndex))
}
