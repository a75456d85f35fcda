package source_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colbridge/pkg/columnar"
	"github.com/ajitpratap0/colbridge/pkg/compression"
	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/source"
	"github.com/ajitpratap0/colbridge/pkg/testutil"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want source.Format
	}{
		{"events.arrows", source.IPC},
		{"events.ipc.zst", source.IPC},
		{"events.arrow", source.IPCFile},
		{"/data/events.feather.lz4", source.IPCFile},
		{"events.parquet", source.Parquet},
		{"events.PARQUET.gz", source.Parquet},
		{"events.csv.sz", source.CSV},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := source.DetectFormat(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := source.DetectFormat("events.json")
	assert.True(t, errors.IsType(err, errors.ErrorTypeCapability))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]source.Format{
		"":        "",
		"IPC":     source.IPC,
		"stream":  source.IPC,
		"arrow":   source.IPCFile,
		"parquet": source.Parquet,
		"csv":     source.CSV,
	} {
		got, err := source.ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := source.ParseFormat("avro")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

// drain reads every chunk of p and checks the id and label columns against
// the sample data set.
func drain(t *testing.T, p source.Producer, encoded bool) (chunks, rows int) {
	t.Helper()
	ctx := context.Background()

	for {
		chunk, err := p.Next(ctx)
		if err == io.EOF {
			return chunks, rows
		}
		require.NoError(t, err)

		ids, labels := chunk.Column(0), chunk.Column(5)
		for r := 0; r < chunk.NumOfRows(); r++ {
			g := rows + r
			require.Equal(t, int64(g), ids.GetLong(r))
			require.Equal(t, fmt.Sprintf("item-%d", g), labels.GetString(r))
		}
		if encoded {
			category, region := chunk.Column(9), chunk.Column(10)
			assert.Equal(t, columnar.TypeString, category.Type())
			for r := 0; r < chunk.NumOfRows(); r++ {
				g := rows + r
				if g%7 == 6 {
					require.True(t, category.IsNullAt(r))
				} else {
					require.Equal(t, []string{"alpha", "beta", "gamma", "delta"}[g%4], category.GetString(r))
				}
				require.Equal(t, []string{"north", "south", "east", "west"}[(g/16)%4], region.GetString(r))
			}
		}

		chunks++
		rows += chunk.NumOfRows()
		chunk.Release()
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		encoded bool
		checked bool
		mmap    bool
	}{
		{name: "ipc stream", file: "data.arrows", encoded: true, checked: true},
		{name: "ipc stream zstd", file: "data.arrows.zst", encoded: true, checked: true},
		{name: "ipc stream lz4", file: "data.ipc.lz4", encoded: true, checked: true},
		{name: "ipc stream snappy", file: "data.ipc.sz", encoded: true, checked: true},
		// ipc.FileReader in arrow-go v18.0.0 never releases the messages it
		// reads dictionaries from, so encoded IPC files skip the leak check.
		{name: "ipc file", file: "data.arrow", encoded: true},
		{name: "ipc file gzip", file: "data.arrow.gz", encoded: true},
		{name: "ipc file plain", file: "data.arrow", checked: true},
		{name: "ipc file plain gzip", file: "data.arrow.gz", checked: true},
		{name: "parquet", file: "data.parquet"},
		{name: "parquet zstd", file: "data.parquet.zst"},
		{name: "ipc file mmap", file: "data.arrow", encoded: true, mmap: true},
		{name: "ipc file gzip mmap", file: "data.arrow.gz", encoded: true, mmap: true},
		{name: "ipc file plain mmap", file: "data.arrow", checked: true, mmap: true},
		{name: "parquet mmap", file: "data.parquet", mmap: true},
		{name: "ipc stream mmap", file: "data.arrows", encoded: true, checked: true, mmap: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			batches, err := source.GenerateFile(context.Background(), path, source.GenerateOptions{
				Rows:      1000,
				BatchSize: 300,
				Encoded:   tt.encoded,
			})
			require.NoError(t, err)
			assert.Equal(t, 4, batches)

			var mem memory.Allocator = memory.DefaultAllocator
			if tt.checked {
				mem = testutil.Allocator(t)
			}

			p, err := source.Open(path, source.Options{
				Allocator: mem,
				Mmap:      tt.mmap,
				Logger:    testutil.TestLogger(t),
			})
			require.NoError(t, err)

			_, rows := drain(t, p, tt.encoded)
			assert.Equal(t, 1000, rows)
			require.NoError(t, p.Close())
			assert.NoError(t, p.Close())
		})
	}
}

func TestOpenOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	_, err := source.GenerateFile(context.Background(), path, source.GenerateOptions{
		Format:      source.IPC,
		Compression: compression.S2,
		Rows:        50,
	})
	require.NoError(t, err)

	_, err = source.Open(path, source.Options{})
	require.Error(t, err)

	p, err := source.Open(path, source.Options{Format: source.IPC, Compression: compression.S2})
	require.NoError(t, err)
	defer p.Close()

	chunks, rows := drain(t, p, false)
	assert.Equal(t, 1, chunks)
	assert.Equal(t, 50, rows)
	assert.Equal(t, 9, p.Schema().NumFields())
}

func TestCSVProducer(t *testing.T) {
	mem := testutil.Allocator(t)
	in := "id,name,score\n1,a,1.5\n2,,2.5\n3,c,\n"

	p := source.NewCSVProducer(strings.NewReader(in), source.Options{BatchSize: 2, Allocator: mem})
	defer p.Close()

	ctx := context.Background()
	first, err := p.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, first.NumOfRows())
	assert.Equal(t, []columnar.Field{
		{Name: "id", Type: columnar.TypeLong},
		{Name: "name", Type: columnar.TypeString},
		{Name: "score", Type: columnar.TypeDouble},
	}, first.Fields())
	assert.Equal(t, "a", first.Column(1).GetString(0))
	assert.True(t, first.Column(1).IsNullAt(1))
	assert.Equal(t, 2.5, first.Column(2).GetDouble(1))
	first.Release()

	second, err := p.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, second.NumOfRows())
	assert.Equal(t, int64(3), second.Column(0).GetLong(0))
	assert.True(t, second.Column(2).IsNullAt(0))
	second.Release()

	_, err = p.Next(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestEmptyBatchesAreSkipped(t *testing.T) {
	mem := testutil.Allocator(t)

	var buf bytes.Buffer
	schema := arrow.NewSchema([]arrow.Field{{Name: "v", Type: arrow.PrimitiveTypes.Int32, Nullable: true}}, nil)
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	for _, values := range [][]int32{{1, 2}, {}, {3}} {
		rec := testutil.Record([]string{"v"}, testutil.Int32s(mem, values, nil))
		require.NoError(t, w.Write(rec))
		rec.Release()
	}
	require.NoError(t, w.Close())

	p, err := source.NewIPCProducer(&buf, source.Options{Allocator: mem})
	require.NoError(t, err)
	defer p.Close()

	var got []int
	for {
		chunk, err := p.Next(context.Background())
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, chunk.NumOfRows())
		chunk.Release()
	}
	assert.Equal(t, []int{2, 1}, got)
}

func TestNextHonorsCancellation(t *testing.T) {
	var buf bytes.Buffer
	_, err := source.Generate(context.Background(), &buf, source.GenerateOptions{Rows: 10})
	require.NoError(t, err)

	p, err := source.NewIPCProducer(&buf, source.Options{})
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := source.Open(filepath.Join(dir, "missing.arrows"), source.Options{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))

	_, err = source.Open(filepath.Join(dir, "data.json"), source.Options{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeCapability))

	garbage := filepath.Join(dir, "garbage.arrow")
	require.NoError(t, os.WriteFile(garbage, []byte("not an arrow file"), 0o600))
	_, err = source.Open(garbage, source.Options{})
	assert.Error(t, err)
}

func TestGenerateRejectsEncodedParquet(t *testing.T) {
	_, err := source.Generate(context.Background(), io.Discard, source.GenerateOptions{
		Format:  source.Parquet,
		Rows:    10,
		Encoded: true,
	})
	assert.True(t, errors.IsType(err, errors.ErrorTypeCapability))
}

func TestSampleRecordIndependentOfBatching(t *testing.T) {
	mem := testutil.Allocator(t)

	whole := source.SampleRecord(mem, 0, 40, true)
	defer whole.Release()
	head := source.SampleRecord(mem, 0, 17, true)
	defer head.Release()
	tail := source.SampleRecord(mem, 17, 23, true)
	defer tail.Release()

	wc, err := columnar.FromRecord(whole)
	require.NoError(t, err)
	defer wc.Release()

	row := 0
	for _, part := range []arrow.Record{head, tail} {
		pc, err := columnar.FromRecord(part)
		require.NoError(t, err)
		for r := 0; r < pc.NumOfRows(); r++ {
			for c := 0; c < pc.NumOfCols(); c++ {
				assert.Equal(t, wc.Column(c).IsNullAt(row), pc.Column(c).IsNullAt(r))
			}
			assert.Equal(t, wc.Column(10).GetString(row), pc.Column(10).GetString(r))
			assert.Equal(t, wc.Column(9).IsNullAt(row), pc.Column(9).IsNullAt(r))
			row++
		}
		pc.Release()
	}
	assert.Equal(t, 40, row)
}
