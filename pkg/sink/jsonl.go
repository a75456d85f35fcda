package sink

import (
	"context"
	"encoding/base64"
	"io"
	"time"

	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/json"
	"github.com/ajitpratap0/colbridge/pkg/vectorized"
)

// JSONLines writes one JSON object per row, keyed by column name in ordinal
// order. Decimals are written as strings, binary values as base64 and
// dates and timestamps as RFC 3339 strings.
type JSONLines struct {
	lw    *json.LineWriter
	names []string
	rows  int64
}

// NewJSONLines creates a JSON lines writer on out.
func NewJSONLines(out io.Writer, names []string) *JSONLines {
	return &JSONLines{lw: json.NewLineWriter(out), names: names}
}

// NameColumns sets object keys unless the writer was created with some.
func (j *JSONLines) NameColumns(names []string) {
	if len(j.names) == 0 {
		j.names = names
	}
}

func (j *JSONLines) Consume(ctx context.Context, batch *vectorized.Batch) error {
	names := columnNames(j.names, batch.NumCols())
	for r, row := range batch.Rows() {
		if r%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		j.lw.Begin()
		for c, name := range names {
			if err := j.lw.Field(name, jsonValue(batch.Column(c), row.RowID())); err != nil {
				return errors.Wrap(err, errors.ErrorTypeData, "failed to encode value").
					WithDetail("column", name).
					WithDetail("row", r)
			}
		}
		if err := j.lw.End(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write row")
		}
		j.rows++
	}
	return nil
}

func jsonValue(col vectorized.Column, row int) interface{} {
	if col.IsNullAt(row) {
		return nil
	}
	switch col.DataType() {
	case vectorized.DecimalType:
		return col.GetDecimal(row).String()
	case vectorized.BinaryType:
		return base64.StdEncoding.EncodeToString(col.GetBinary(row))
	case vectorized.DateType:
		return col.GetDate(row).Format(time.DateOnly)
	case vectorized.TimestampType:
		return col.GetTimestamp(row).Format(time.RFC3339Nano)
	default:
		return vectorized.Value(col, row)
	}
}

// Rows returns the number of rows written so far.
func (j *JSONLines) Rows() int64 { return j.rows }

func (j *JSONLines) Close() error {
	j.lw.Close()
	return nil
}
