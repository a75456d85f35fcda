package sink

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colbridge/pkg/bridge"
	"github.com/ajitpratap0/colbridge/pkg/columnar"
	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/testutil"
	"github.com/ajitpratap0/colbridge/pkg/vectorized"
)

func init() {
	color.NoColor = true
}

func batchOf(t *testing.T, names []string, cols ...arrow.Array) *vectorized.Batch {
	t.Helper()
	rec := testutil.Record(names, cols...)
	chunk, err := columnar.FromRecord(rec)
	rec.Release()
	require.NoError(t, err)
	t.Cleanup(chunk.Release)
	return bridge.CreateColumnarBatch(chunk)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatSummary, f)

	f, err = ParseFormat("jsonl")
	require.NoError(t, err)
	assert.Equal(t, FormatJSONL, f)

	_, err = ParseFormat("xml")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestColumnNames(t *testing.T) {
	assert.Equal(t, []string{"id", "c1", "c2"}, columnNames([]string{"id", ""}, 3))
	assert.Equal(t, []string{"a"}, columnNames([]string{"a", "b"}, 1))
}

func TestSummary(t *testing.T) {
	mem := testutil.Allocator(t)
	ctx := context.Background()

	var out bytes.Buffer
	s := NewSummary(&out, []string{"id", "price", "name"})

	first := batchOf(t, []string{"id", "price", "name"},
		testutil.Int32s(mem, []int32{5, 0, -2}, []bool{true, false, true}),
		testutil.Decimals(mem, 8, 2, []int64{1999, 250, 0}, []bool{true, true, false}),
		testutil.Strings(mem, []string{"a", "b", "c"}, nil),
	)
	second := batchOf(t, []string{"id", "price", "name"},
		testutil.Int32s(mem, []int32{11}, nil),
		testutil.Decimals(mem, 8, 2, []int64{100}, nil),
		testutil.Strings(mem, []string{""}, []bool{false}),
	)

	require.NoError(t, s.Consume(ctx, first))
	require.NoError(t, s.Consume(ctx, second))

	assert.Equal(t, int64(4), s.Rows())
	assert.Equal(t, int64(2), s.Batches())

	cols := s.Columns()
	require.Len(t, cols, 3)

	assert.Equal(t, vectorized.IntegerType, cols[0].Type)
	assert.Equal(t, int64(1), cols[0].Nulls)
	assert.True(t, cols[0].Min.Equal(decimal.NewFromInt(-2)))
	assert.True(t, cols[0].Max.Equal(decimal.NewFromInt(11)))

	assert.Equal(t, int64(1), cols[1].Nulls)
	assert.Equal(t, "1", cols[1].Min.String())
	assert.Equal(t, "19.99", cols[1].Max.String())

	assert.Equal(t, int64(1), cols[2].Nulls)
	assert.False(t, cols[2].HasRange)

	require.NoError(t, s.Close())
	text := out.String()
	assert.Contains(t, text, "rows: 4, batches: 2, columns: 3")
	assert.Contains(t, text, "name: id, type: IntegerType, nulls: 1 (25.00%), min: -2, max: 11")
	assert.Contains(t, text, "name: name, type: StringType, nulls: 1 (25.00%)\n")
}

func TestSummarySkipsNaN(t *testing.T) {
	mem := testutil.Allocator(t)
	var out bytes.Buffer
	s := NewSummary(&out, nil)

	b := batchOf(t, []string{"x"}, testutil.Float64s(mem, []float64{math.NaN(), 1.5}, nil))
	require.NoError(t, s.Consume(context.Background(), b))

	assert.Equal(t, "c0", s.Columns()[0].Name)
	assert.Equal(t, "1.5", s.Columns()[0].Min.String())
}

func TestJSONLines(t *testing.T) {
	mem := testutil.Allocator(t)
	day := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	at := time.Date(2024, 2, 29, 12, 0, 0, 500, time.UTC)

	b := batchOf(t, []string{"id", "name", "amount", "blob", "day", "at", "ok"},
		testutil.Int64s(mem, []int64{1, 2}, nil),
		testutil.Strings(mem, []string{"x", ""}, []bool{true, false}),
		testutil.Decimals(mem, 10, 3, []int64{12345, -1}, nil),
		testutil.Binaries(mem, [][]byte{[]byte("hi"), {}}, nil),
		testutil.Dates(mem, []time.Time{day, day}, nil),
		testutil.Timestamps(mem, []time.Time{at, at}, []bool{true, false}),
		testutil.Bools(mem, []bool{true, false}, nil),
	)

	var out bytes.Buffer
	j := NewJSONLines(&out, []string{"id", "name", "amount", "blob", "day", "at", "ok"})
	require.NoError(t, j.Consume(context.Background(), b))
	require.NoError(t, j.Close())

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t,
		`{"id":1,"name":"x","amount":"12.345","blob":"aGk=","day":"2024-02-29","at":"2024-02-29T12:00:00Z","ok":true}`,
		lines[0])
	assert.Equal(t,
		`{"id":2,"name":null,"amount":"-0.001","blob":"","day":"2024-02-29","at":null,"ok":false}`,
		lines[1])
	assert.Equal(t, int64(2), j.Rows())
}

func TestConsumersHonourCancellation(t *testing.T) {
	mem := testutil.Allocator(t)
	b := batchOf(t, []string{"v"}, testutil.Int8s(mem, []int8{1}, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	for name, c := range map[string]Consumer{
		"summary": NewSummary(&out, nil),
		"jsonl":   NewJSONLines(&out, nil),
		"discard": NewDiscard(),
	} {
		assert.ErrorIs(t, c.Consume(ctx, b), context.Canceled, name)
	}
}

func TestDiscard(t *testing.T) {
	mem := testutil.Allocator(t)
	b := batchOf(t, []string{"a", "b"},
		testutil.Int16s(mem, []int16{1, 2, 3}, nil),
		testutil.Float32s(mem, []float32{1, 2, 3}, []bool{false, true, true}),
	)

	d := NewDiscard()
	require.NoError(t, d.Consume(context.Background(), b))
	assert.Equal(t, int64(3), d.Rows())
	assert.Equal(t, int64(6), d.Cells())
	assert.NoError(t, d.Close())
}

func TestNew(t *testing.T) {
	var out bytes.Buffer
	for format, want := range map[Format]Consumer{
		FormatSummary: &Summary{},
		FormatJSONL:   &JSONLines{},
		FormatDiscard: &Discard{},
	} {
		c, err := New(format, &out, nil)
		require.NoError(t, err)
		assert.IsType(t, want, c)
	}

	_, err := New("xml", &out, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestNameColumns(t *testing.T) {
	mem := testutil.Allocator(t)
	batch := batchOf(t, []string{"id"}, testutil.Int32s(mem, []int32{7}, nil))

	var out bytes.Buffer
	j := NewJSONLines(&out, nil)
	var namer ColumnNamer = j
	namer.NameColumns([]string{"id"})
	require.NoError(t, j.Consume(context.Background(), batch))
	require.NoError(t, j.Close())
	assert.Equal(t, "{\"id\":7}\n", out.String())

	s := NewSummary(&out, []string{"given"})
	s.NameColumns([]string{"ignored"})
	require.NoError(t, s.Consume(context.Background(), batch))
	assert.Equal(t, "given", s.Columns()[0].Name)
}
