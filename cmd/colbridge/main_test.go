package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colbridge/pkg/compression"
	"github.com/ajitpratap0/colbridge/pkg/errors"
)

func init() {
	color.NoColor = true
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "colbridge v"+version)
}

func TestGenerateThenScan(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "sample.arrows.zst")

	out, err := execute(t, "generate", input, "--rows", "500", "--batch-size", "128")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 500 rows in 4 batches to "+input)

	out, err = execute(t, "scan", input)
	require.NoError(t, err)
	assert.Contains(t, out, "Scan summary:")
	assert.Contains(t, out, "rows: 500, batches: 4, columns: 11")
	assert.Contains(t, out, "name: category, type: StringType")
	assert.Contains(t, out, "name: region, type: StringType, nulls: 0 (0.00%)")
}

func TestScanMapped(t *testing.T) {
	input := filepath.Join(t.TempDir(), "sample.arrow")

	_, err := execute(t, "generate", input, "--rows", "300", "--batch-size", "100")
	require.NoError(t, err)

	out, err := execute(t, "scan", input, "--mmap")
	require.NoError(t, err)
	assert.Contains(t, out, "rows: 300, batches: 3, columns: 11")
}

func TestScanToCompressedJSONLines(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "sample.parquet")
	output := filepath.Join(dir, "rows.jsonl.gz")

	_, err := execute(t, "generate", input, "--rows", "10")
	require.NoError(t, err)

	_, err = execute(t, "scan", input, "--output", "jsonl", "--out", output, "--max-chunks", "1")
	require.NoError(t, err)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	r, err := compression.NewReader(f, compression.Gzip)
	require.NoError(t, err)
	defer r.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 10)
	assert.True(t, strings.HasPrefix(lines[3], `{"id":3,"flag":false,`), lines[3])
}

func TestScanWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "sample.arrow")
	_, err := execute(t, "generate", input, "--rows", "64", "--plain")
	require.NoError(t, err)

	cfgPath := filepath.Join(dir, "scan.yaml")
	t.Setenv("SAMPLE_INPUT", input)
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
source:
  path: ${SAMPLE_INPUT}
output:
  format: discard
metrics:
  enabled: true
`), 0o600))

	out, err := execute(t, "scan", "--config", cfgPath, "--stats")
	require.NoError(t, err)
	assert.Contains(t, out, `"rows": 64`)
}

func TestScanEnvironmentOverride(t *testing.T) {
	t.Setenv("COLBRIDGE_OUTPUT_FORMAT", "xml")
	_, err := execute(t, "scan", "missing.arrows")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestScanErrors(t *testing.T) {
	_, err := execute(t, "scan")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = execute(t, "scan", filepath.Join(t.TempDir(), "missing.arrows"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))

	_, err = execute(t, "scan", "data.arrows", "--output", "xml")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestBench(t *testing.T) {
	out, err := execute(t, "bench", "--rows", "1000", "--batch-size", "256", "--count", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Scanning 1,000 rows")
	assert.Contains(t, out, "iteration 2: ")
}
