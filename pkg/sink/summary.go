package sink

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/colbridge/pkg/vectorized"
)

// ColumnStats describes one column across every consumed batch.
type ColumnStats struct {
	Name     string
	Type     vectorized.DataType
	Nulls    int64
	HasRange bool
	Min      decimal.Decimal
	Max      decimal.Decimal
}

// Summary counts rows and nulls per column and tracks min/max of numeric
// columns. Close prints the result.
type Summary struct {
	out     io.Writer
	names   []string
	batches int64
	rows    int64
	columns []ColumnStats
}

// NewSummary creates a summary printing to out. names labels columns by
// ordinal and may be shorter than the batch.
func NewSummary(out io.Writer, names []string) *Summary {
	return &Summary{out: out, names: names}
}

// NameColumns sets column labels unless the summary was created with some.
func (s *Summary) NameColumns(names []string) {
	if len(s.names) == 0 {
		s.names = names
	}
}

func (s *Summary) Consume(ctx context.Context, batch *vectorized.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.columns == nil {
		names := columnNames(s.names, batch.NumCols())
		s.columns = make([]ColumnStats, batch.NumCols())
		for i := range s.columns {
			s.columns[i] = ColumnStats{Name: names[i], Type: batch.Column(i).DataType()}
		}
	}

	n := batch.NumRows()
	for i := range s.columns {
		if i >= batch.NumCols() {
			break
		}
		col := batch.Column(i)
		stats := &s.columns[i]
		stats.Nulls += int64(vectorized.CountNulls(col, n))
		if col.DataType().IsNumeric() {
			for r := 0; r < n; r++ {
				if v, ok := numeric(col, r); ok {
					stats.observe(v)
				}
			}
		}
	}

	s.batches++
	s.rows += int64(n)
	return nil
}

func (c *ColumnStats) observe(v decimal.Decimal) {
	if !c.HasRange {
		c.Min, c.Max, c.HasRange = v, v, true
		return
	}
	if v.LessThan(c.Min) {
		c.Min = v
	}
	if v.GreaterThan(c.Max) {
		c.Max = v
	}
}

// numeric reads a non-null numeric cell. NaN and infinite floats have no
// decimal form and are skipped.
func numeric(col vectorized.Column, row int) (decimal.Decimal, bool) {
	if col.IsNullAt(row) {
		return decimal.Decimal{}, false
	}
	switch col.DataType() {
	case vectorized.ByteType:
		return decimal.NewFromInt(int64(col.GetByte(row))), true
	case vectorized.ShortType:
		return decimal.NewFromInt(int64(col.GetShort(row))), true
	case vectorized.IntegerType:
		return decimal.NewFromInt32(col.GetInt(row)), true
	case vectorized.LongType:
		return decimal.NewFromInt(col.GetLong(row)), true
	case vectorized.FloatType:
		return fromFloat(float64(col.GetFloat(row)))
	case vectorized.DoubleType:
		return fromFloat(col.GetDouble(row))
	case vectorized.DecimalType:
		return col.GetDecimal(row), true
	}
	return decimal.Decimal{}, false
}

func fromFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromFloat(f), true
}

// Rows returns the number of rows consumed so far.
func (s *Summary) Rows() int64 { return s.rows }

// Batches returns the number of batches consumed so far.
func (s *Summary) Batches() int64 { return s.batches }

// Columns returns per-column statistics in ordinal order.
func (s *Summary) Columns() []ColumnStats { return s.columns }

// Close prints the summary.
func (s *Summary) Close() error {
	bold := color.New(color.Bold)
	if _, err := bold.Fprintln(s.out, "Scan summary:"); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "\trows: %s, batches: %s, columns: %d\n",
		humanize.Comma(s.rows), humanize.Comma(s.batches), len(s.columns))

	for _, c := range s.columns {
		pct := 0.0
		if s.rows > 0 {
			pct = float64(c.Nulls) / float64(s.rows) * 100
		}
		fmt.Fprintf(s.out, "\t\tname: %s, type: %v, nulls: %s (%.2f%%)",
			c.Name, c.Type, humanize.Comma(c.Nulls), pct)
		if c.HasRange {
			fmt.Fprintf(s.out, ", min: %s, max: %s", c.Min.String(), c.Max.String())
		}
		if _, err := fmt.Fprintln(s.out); err != nil {
			return err
		}
	}
	return nil
}
