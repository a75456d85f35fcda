package columnar

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/colbridge/pkg/errors"
)

// Chunk is an ordered set of column vectors sharing one row count. The
// position of a vector is its column ordinal. A chunk owns its vectors and is
// read-only once built.
type Chunk struct {
	vectors []Vector
	fields  []Field
	numRows int
}

// NewChunk builds a chunk from vectors in ordinal order. The row count is
// taken from the first vector; every other vector must report the same count.
func NewChunk(vectors ...Vector) (*Chunk, error) {
	return NewChunkWithFields(nil, vectors...)
}

// NewChunkWithFields is NewChunk with column names attached. fields may be nil;
// otherwise it must have one entry per vector.
func NewChunkWithFields(fields []Field, vectors ...Vector) (*Chunk, error) {
	if len(vectors) == 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "chunk must contain at least one column vector")
	}
	for i, v := range vectors {
		if v == nil {
			return nil, errors.Newf(errors.ErrorTypeValidation, "column vector %d is nil", i).
				WithDetail("ordinal", i)
		}
	}

	numRows := vectors[0].NumOfRows()
	for i, v := range vectors[1:] {
		if n := v.NumOfRows(); n != numRows {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"column vector %d has %d rows, chunk has %d", i+1, n, numRows).
				WithDetail("ordinal", i+1).
				WithDetail("rows", n).
				WithDetail("expected_rows", numRows)
		}
	}

	if fields == nil {
		fields = make([]Field, len(vectors))
		for i, v := range vectors {
			fields[i] = Field{Type: v.Type()}
		}
	} else if len(fields) != len(vectors) {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"chunk has %d fields for %d column vectors", len(fields), len(vectors))
	}

	return &Chunk{
		vectors: vectors,
		fields:  fields,
		numRows: numRows,
	}, nil
}

// FromRecord wraps every column of rec with FromArrow. The chunk retains the
// columns, so rec may be released by the caller once FromRecord returns.
func FromRecord(rec arrow.Record) (*Chunk, error) {
	if rec == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "arrow record is nil")
	}

	schema := rec.Schema()
	vectors := make([]Vector, 0, rec.NumCols())
	fields := make([]Field, 0, rec.NumCols())

	release := func() {
		for _, v := range vectors {
			v.(*ColumnVector).Release()
		}
	}

	for i, col := range rec.Columns() {
		v, err := FromArrow(col)
		if err != nil {
			release()
			return nil, errors.Wrap(err, errors.ErrorTypeCapability,
				"column "+schema.Field(i).Name).
				WithDetail("ordinal", i)
		}
		vectors = append(vectors, v)
		fields = append(fields, Field{Name: schema.Field(i).Name, Type: v.Type()})
	}

	chunk, err := NewChunkWithFields(fields, vectors...)
	if err != nil {
		release()
		return nil, err
	}
	return chunk, nil
}

// Column returns the vector at ordinal. It panics with an out-of-range error
// when ordinal is outside [0, NumOfCols()).
func (c *Chunk) Column(ordinal int) Vector {
	if uint(ordinal) >= uint(len(c.vectors)) {
		panic(errors.OutOfRange("column ordinal", ordinal, len(c.vectors)))
	}
	return c.vectors[ordinal]
}

func (c *Chunk) NumOfCols() int { return len(c.vectors) }

func (c *Chunk) NumOfRows() int { return c.numRows }

// Field returns the metadata of the column at ordinal.
func (c *Chunk) Field(ordinal int) Field {
	if uint(ordinal) >= uint(len(c.fields)) {
		panic(errors.OutOfRange("column ordinal", ordinal, len(c.fields)))
	}
	return c.fields[ordinal]
}

// Fields returns column metadata in ordinal order.
func (c *Chunk) Fields() []Field { return c.fields }

// Release releases every vector that holds storage buffers. Batches built
// from the chunk must not be read afterwards.
func (c *Chunk) Release() {
	for _, v := range c.vectors {
		if r, ok := v.(interface{ Release() }); ok {
			r.Release()
		}
	}
}
