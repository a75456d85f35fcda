package config

import (
	"bytes"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/colbridge/pkg/compression"
	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/logger"
	"github.com/ajitpratap0/colbridge/pkg/observability"
	"github.com/ajitpratap0/colbridge/pkg/sink"
	"github.com/ajitpratap0/colbridge/pkg/source"
)

// Config is the complete configuration of a scan.
type Config struct {
	Source  SourceConfig                `yaml:"source"`
	Output  OutputConfig                `yaml:"output"`
	Scan    ScanConfig                  `yaml:"scan"`
	Logging logger.Config               `yaml:"logging"`
	Metrics MetricsConfig               `yaml:"metrics"`
	Tracing observability.TracingConfig `yaml:"tracing"`
}

// SourceConfig selects and decodes the input.
type SourceConfig struct {
	Path string `yaml:"path"`
	// Format and Compression are detected from Path when empty.
	Format      string `yaml:"format"`
	Compression string `yaml:"compression"`
	// BatchSize is the number of rows per chunk for Parquet and CSV.
	BatchSize int `yaml:"batch_size"`
	// Mmap maps uncompressed IPC files and Parquet inputs into memory.
	Mmap bool `yaml:"mmap"`
}

// OutputConfig selects the consumer.
type OutputConfig struct {
	Format string `yaml:"format"` // summary, jsonl or discard
	// Path is the output file. Empty or "-" means stdout.
	Path        string `yaml:"path"`
	Compression string `yaml:"compression"`
}

// ScanConfig controls the pipeline.
type ScanConfig struct {
	Prefetch  int           `yaml:"prefetch"`
	MaxChunks int64         `yaml:"max_chunks"`
	Timeout   time.Duration `yaml:"timeout"`
}

// MetricsConfig controls Prometheus instrumentation.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Component string `yaml:"component"`
	// Listen serves /metrics on this address during the scan when set.
	Listen string `yaml:"listen"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			BatchSize: source.DefaultBatchSize,
		},
		Output: OutputConfig{
			Format: string(sink.FormatSummary),
		},
		Scan: ScanConfig{
			Prefetch: 2,
			Timeout:  30 * time.Minute,
		},
		Logging: logger.Config{
			Level:    "warn",
			Encoding: "console",
		},
		Metrics: MetricsConfig{
			Component: "scan",
		},
		Tracing: observability.DefaultTracingConfig(),
	}
}

// Load reads a YAML file over Default, substituting environment variables
// first. The result is not validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file").
			WithDetail("path", path)
	}

	cfg := Default()
	if err := Parse([]byte(substituteEnvVars(string(data))), cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse config file").
			WithDetail("path", path)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, keeping values the document does not set.
// Unknown keys are rejected.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to marshal config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write config file").
			WithDetail("path", path)
	}
	return nil
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if _, err := source.ParseFormat(c.Source.Format); err != nil {
		return invalid("source.format", err)
	}
	if _, err := parseCompression(c.Source.Compression); err != nil {
		return invalid("source.compression", err)
	}
	if c.Source.BatchSize <= 0 {
		return invalid("source.batch_size",
			errors.Newf(errors.ErrorTypeConfig, "batch size must be positive, got %d", c.Source.BatchSize))
	}

	if _, err := sink.ParseFormat(c.Output.Format); err != nil {
		return invalid("output.format", err)
	}
	if _, err := parseCompression(c.Output.Compression); err != nil {
		return invalid("output.compression", err)
	}

	if c.Scan.Prefetch < 0 {
		return invalid("scan.prefetch",
			errors.Newf(errors.ErrorTypeConfig, "prefetch must not be negative, got %d", c.Scan.Prefetch))
	}
	if c.Scan.MaxChunks < 0 {
		return invalid("scan.max_chunks",
			errors.Newf(errors.ErrorTypeConfig, "chunk limit must not be negative, got %d", c.Scan.MaxChunks))
	}

	if c.Logging.Level != "" {
		if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
			return invalid("logging.level", err)
		}
	}
	switch c.Logging.Encoding {
	case "", "json", "console":
	default:
		return invalid("logging.encoding",
			errors.Newf(errors.ErrorTypeConfig, "unknown log encoding %q", c.Logging.Encoding))
	}

	if c.Metrics.Enabled && c.Metrics.Component == "" {
		return invalid("metrics.component", errors.New(errors.ErrorTypeConfig, "component must be set"))
	}

	if r := c.Tracing.SamplingRate; r < 0 || r > 1 {
		return invalid("tracing.sampling_rate",
			errors.Newf(errors.ErrorTypeConfig, "sampling rate must be within [0, 1], got %g", r))
	}
	switch c.Tracing.Exporter {
	case "", "stdout", "none":
	default:
		return invalid("tracing.exporter",
			errors.Newf(errors.ErrorTypeConfig, "unknown trace exporter %q", c.Tracing.Exporter))
	}
	return nil
}

func invalid(field string, err error) error {
	return errors.Wrap(err, errors.ErrorTypeConfig, "invalid "+field).
		WithDetail("field", field)
}

func parseCompression(s string) (compression.Algorithm, error) {
	if s == "" {
		return "", nil
	}
	return compression.ParseAlgorithm(s)
}

// substituteEnvVars replaces ${VAR} and ${VAR:-fallback}. An unterminated
// reference is left as is.
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		name, fallback, _ := strings.Cut(content[start+2:end], ":-")
		value := os.Getenv(name)
		if value == "" {
			value = fallback
		}

		b.WriteString(content[:start])
		b.WriteString(value)
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}
