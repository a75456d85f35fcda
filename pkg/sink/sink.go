// Package sink holds downstream consumers of assembled batches.
//
// A Consumer reads a batch while the chunk behind it is alive; it must not
// keep references to column values after Consume returns, because the
// pipeline releases the chunk right after.
package sink

import (
	"context"
	"io"
	"strconv"

	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/vectorized"
)

// Consumer drains batches.
type Consumer interface {
	// Consume reads batch. The batch is only valid during the call.
	Consume(ctx context.Context, batch *vectorized.Batch) error
	// Close flushes any buffered output.
	Close() error
}

// ColumnNamer is implemented by consumers that label output by column name.
// The pipeline calls NameColumns with the field names of the first chunk,
// before the first Consume. Names given at construction take precedence.
type ColumnNamer interface {
	NameColumns(names []string)
}

// Format names a consumer implementation.
type Format string

const (
	FormatSummary Format = "summary"
	FormatJSONL   Format = "jsonl"
	FormatDiscard Format = "discard"
)

// ParseFormat converts a configuration string to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatSummary, FormatJSONL, FormatDiscard:
		return f, nil
	case "":
		return FormatSummary, nil
	default:
		return "", errors.Newf(errors.ErrorTypeConfig, "unknown output format %q", s)
	}
}

// New creates the consumer for format writing to out.
func New(format Format, out io.Writer, names []string) (Consumer, error) {
	switch format {
	case FormatSummary, "":
		return NewSummary(out, names), nil
	case FormatJSONL:
		return NewJSONLines(out, names), nil
	case FormatDiscard:
		return NewDiscard(), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown output format %q", format)
	}
}

// columnNames returns names padded with positional names up to n columns.
func columnNames(names []string, n int) []string {
	out := make([]string, n)
	for i := range out {
		if i < len(names) && names[i] != "" {
			out[i] = names[i]
		} else {
			out[i] = "c" + strconv.Itoa(i)
		}
	}
	return out
}

// Discard reads every cell of each batch and keeps nothing. It is the
// baseline consumer for measuring assembly cost.
type Discard struct {
	rows  int64
	cells int64
}

func NewDiscard() *Discard { return &Discard{} }

func (d *Discard) Consume(ctx context.Context, batch *vectorized.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for c := 0; c < batch.NumCols(); c++ {
		col := batch.Column(c)
		for r := 0; r < batch.NumRows(); r++ {
			_ = vectorized.Value(col, r)
			d.cells++
		}
	}
	d.rows += int64(batch.NumRows())
	return nil
}

// Rows returns the number of rows consumed so far.
func (d *Discard) Rows() int64 { return d.rows }

// Cells returns the number of cells read so far.
func (d *Discard) Cells() int64 { return d.cells }

func (d *Discard) Close() error { return nil }
