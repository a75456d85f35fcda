package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colbridge/pkg/config"
	"github.com/ajitpratap0/colbridge/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "summary", cfg.Output.Format)
	assert.Equal(t, 2, cfg.Scan.Prefetch)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoad(t *testing.T) {
	t.Setenv("COLBRIDGE_DATA", "/data")
	t.Setenv("COLBRIDGE_LEVEL", "")

	path := writeConfig(t, `
source:
  path: ${COLBRIDGE_DATA}/events.arrows.zst
  batch_size: 4096
output:
  format: jsonl
  path: out.jsonl.gz
scan:
  prefetch: 4
  timeout: 90s
logging:
  level: ${COLBRIDGE_LEVEL:-debug}
metrics:
  enabled: true
tracing:
  enabled: true
  sampling_rate: 0.5
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/data/events.arrows.zst", cfg.Source.Path)
	assert.Equal(t, 4096, cfg.Source.BatchSize)
	assert.Equal(t, "jsonl", cfg.Output.Format)
	assert.Equal(t, 4, cfg.Scan.Prefetch)
	assert.Equal(t, 90*time.Second, cfg.Scan.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "scan", cfg.Metrics.Component)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, 0.5, cfg.Tracing.SamplingRate)
	assert.Equal(t, "colbridge", cfg.Tracing.ServiceName)
}

func TestLoadEmptyFileKeepsDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = config.Load(writeConfig(t, "source:\n  paht: typo.arrows\n"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = config.Load(writeConfig(t, "scan: [not, a, map]\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"source format", func(c *config.Config) { c.Source.Format = "avro" }, "source.format"},
		{"source compression", func(c *config.Config) { c.Source.Compression = "brotli" }, "source.compression"},
		{"batch size", func(c *config.Config) { c.Source.BatchSize = 0 }, "source.batch_size"},
		{"output format", func(c *config.Config) { c.Output.Format = "xml" }, "output.format"},
		{"output compression", func(c *config.Config) { c.Output.Compression = "rar" }, "output.compression"},
		{"prefetch", func(c *config.Config) { c.Scan.Prefetch = -1 }, "scan.prefetch"},
		{"max chunks", func(c *config.Config) { c.Scan.MaxChunks = -5 }, "scan.max_chunks"},
		{"log level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"log encoding", func(c *config.Config) { c.Logging.Encoding = "xml" }, "logging.encoding"},
		{"metrics component", func(c *config.Config) {
			c.Metrics.Enabled = true
			c.Metrics.Component = ""
		}, "metrics.component"},
		{"sampling rate", func(c *config.Config) { c.Tracing.SamplingRate = 1.5 }, "tracing.sampling_rate"},
		{"exporter", func(c *config.Config) { c.Tracing.Exporter = "jaeger" }, "tracing.exporter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

			var e *errors.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.field, e.Details["field"])
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Source.Path = "events.parquet"
	cfg.Scan.MaxChunks = 10

	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, config.Save(path, cfg))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Source, loaded.Source)
	assert.Equal(t, cfg.Output, loaded.Output)
	assert.Equal(t, cfg.Scan, loaded.Scan)
	assert.Equal(t, cfg.Logging.Level, loaded.Logging.Level)
	assert.Equal(t, cfg.Tracing.BatchTimeout, loaded.Tracing.BatchTimeout)
}
