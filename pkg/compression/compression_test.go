package compression

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colbridge/pkg/errors"
)

var payload = bytes.Repeat([]byte("column vectors share one row count; "), 200)

func TestRoundTrip(t *testing.T) {
	algorithms := []Algorithm{None, Gzip, Snappy, S2, LZ4, Zstd, Deflate}
	levels := []Level{Fastest, Default, Best}

	for _, alg := range algorithms {
		for _, level := range levels {
			t.Run(string(alg), func(t *testing.T) {
				var buf bytes.Buffer
				w, err := NewWriter(&buf, alg, level)
				require.NoError(t, err)
				_, err = w.Write(payload)
				require.NoError(t, err)
				require.NoError(t, w.Close())

				if alg != None {
					assert.Less(t, buf.Len(), len(payload))
				}

				r, err := NewReader(&buf, alg)
				require.NoError(t, err)
				got, err := io.ReadAll(r)
				require.NoError(t, err)
				require.NoError(t, r.Close())
				assert.Equal(t, payload, got)
			})
		}
	}
}

func TestFromPath(t *testing.T) {
	tests := []struct {
		path string
		alg  Algorithm
		base string
	}{
		{"data.arrow.zst", Zstd, "data.arrow"},
		{"data.parquet.LZ4", LZ4, "data.parquet"},
		{"/tmp/x.csv.gz", Gzip, "/tmp/x.csv"},
		{"x.arrows.sz", Snappy, "x.arrows"},
		{"x.arrows.snappy", Snappy, "x.arrows"},
		{"x.arrows.s2", S2, "x.arrows"},
		{"x.arrow", None, "x.arrow"},
		{"noext", None, "noext"},
	}
	for _, tt := range tests {
		alg, base := FromPath(tt.path)
		assert.Equal(t, tt.alg, alg, tt.path)
		assert.Equal(t, tt.base, base, tt.path)
	}
}

func TestExtensionMatchesFromPath(t *testing.T) {
	for _, alg := range []Algorithm{Gzip, Snappy, S2, LZ4, Zstd, Deflate} {
		got, base := FromPath("f.arrow" + Extension(alg))
		assert.Equal(t, alg, got)
		assert.Equal(t, "f.arrow", base)
	}
	assert.Equal(t, "", Extension(None))
}

func TestParseAlgorithm(t *testing.T) {
	alg, err := ParseAlgorithm("ZSTD")
	require.NoError(t, err)
	assert.Equal(t, Zstd, alg)

	alg, err = ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, None, alg)

	_, err = ParseAlgorithm("brotli")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestCorruptInput(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("not gzip")), Gzip)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))

	r, err := NewReader(bytes.NewReader([]byte("not zstd at all")), Zstd)
	require.NoError(t, err)
	_, err = io.ReadAll(r)
	assert.Error(t, err)
	r.Close()
}
