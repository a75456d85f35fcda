package vectorized

import (
	"iter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/colbridge/pkg/errors"
)

// Batch is an ordered list of columns plus the number of rows valid in each.
// Column i of the batch is the column with ordinal i.
type Batch struct {
	columns []Column
	numRows int
}

// NewBatch creates a batch over columns with zero rows. Call SetNumRows to
// publish the row count.
func NewBatch(columns ...Column) *Batch {
	return &Batch{columns: columns}
}

// SetNumRows sets the number of rows valid in every column.
func (b *Batch) SetNumRows(n int) {
	if n < 0 {
		panic(errors.Newf(errors.ErrorTypeValidation, "negative row count %d", n))
	}
	b.numRows = n
}

func (b *Batch) NumRows() int { return b.numRows }

func (b *Batch) NumCols() int { return len(b.columns) }

// Column returns the column at ordinal. It panics with an out-of-range error
// when ordinal is outside [0, NumCols()).
func (b *Batch) Column(ordinal int) Column {
	if uint(ordinal) >= uint(len(b.columns)) {
		panic(errors.OutOfRange("column ordinal", ordinal, len(b.columns)))
	}
	return b.columns[ordinal]
}

// Row returns a view of row r across all columns.
func (b *Batch) Row(r int) Row {
	if uint(r) >= uint(b.numRows) {
		panic(errors.OutOfRange("row", r, b.numRows))
	}
	return Row{batch: b, row: r}
}

// Rows iterates the batch row by row.
func (b *Batch) Rows() iter.Seq2[int, Row] {
	return func(yield func(int, Row) bool) {
		for r := 0; r < b.numRows; r++ {
			if !yield(r, Row{batch: b, row: r}) {
				return
			}
		}
	}
}

// Row is a view of one row of a batch. It reads through to the columns and
// holds no values of its own.
type Row struct {
	batch *Batch
	row   int
}

// RowID returns the row offset within the batch.
func (r Row) RowID() int { return r.row }

// NumFields returns the number of columns in the batch.
func (r Row) NumFields() int { return r.batch.NumCols() }

// IsNullAt reports whether the value at ordinal is null.
func (r Row) IsNullAt(ordinal int) bool { return r.batch.Column(ordinal).IsNullAt(r.row) }

// Get returns the value at ordinal, or nil when it is null.
func (r Row) Get(ordinal int) any { return Value(r.batch.Column(ordinal), r.row) }

// GetBoolean reads a boolean column. Like the other typed getters it
// panics on an out-of-range ordinal or a column of another type.
func (r Row) GetBoolean(ordinal int) bool { return r.batch.Column(ordinal).GetBoolean(r.row) }

// GetByte reads an int8 column.
func (r Row) GetByte(ordinal int) int8 { return r.batch.Column(ordinal).GetByte(r.row) }

// GetShort reads an int16 column.
func (r Row) GetShort(ordinal int) int16 { return r.batch.Column(ordinal).GetShort(r.row) }

// GetInt reads an int32 column.
func (r Row) GetInt(ordinal int) int32 { return r.batch.Column(ordinal).GetInt(r.row) }

// GetLong reads an int64 column.
func (r Row) GetLong(ordinal int) int64 { return r.batch.Column(ordinal).GetLong(r.row) }

// GetFloat reads a float32 column.
func (r Row) GetFloat(ordinal int) float32 { return r.batch.Column(ordinal).GetFloat(r.row) }

// GetDouble reads a float64 column.
func (r Row) GetDouble(ordinal int) float64 { return r.batch.Column(ordinal).GetDouble(r.row) }

// GetString reads a string column, or a binary column as text.
func (r Row) GetString(ordinal int) string { return r.batch.Column(ordinal).GetString(r.row) }

// GetBinary reads a binary column, or the bytes of a string column. The
// slice shares the column's storage.
func (r Row) GetBinary(ordinal int) []byte { return r.batch.Column(ordinal).GetBinary(r.row) }

// GetDecimal reads a decimal column.
func (r Row) GetDecimal(ordinal int) decimal.Decimal {
	return r.batch.Column(ordinal).GetDecimal(r.row)
}

// GetDate reads a date column as midnight UTC.
func (r Row) GetDate(ordinal int) time.Time { return r.batch.Column(ordinal).GetDate(r.row) }

// GetTimestamp reads a timestamp column in UTC.
func (r Row) GetTimestamp(ordinal int) time.Time {
	return r.batch.Column(ordinal).GetTimestamp(r.row)
}
