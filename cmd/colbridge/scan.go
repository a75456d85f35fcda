package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colbridge/internal/pipeline"
	"github.com/ajitpratap0/colbridge/pkg/compression"
	"github.com/ajitpratap0/colbridge/pkg/config"
	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/json"
	"github.com/ajitpratap0/colbridge/pkg/logger"
	"github.com/ajitpratap0/colbridge/pkg/metrics"
	"github.com/ajitpratap0/colbridge/pkg/observability"
	"github.com/ajitpratap0/colbridge/pkg/sink"
	"github.com/ajitpratap0/colbridge/pkg/source"
)

func newScanCommand(opts *options) *cobra.Command {
	var printStats bool

	cmd := &cobra.Command{
		Use:   "scan [file]",
		Short: "Scan a columnar file into a summary or JSON lines",
		Long: `Scan reads an Arrow IPC stream or file, Parquet or CSV input chunk by chunk,
exposes each chunk as a columnar batch and hands it to the selected output.

The input format and compression are detected from the file name:

  colbridge scan events.arrows.zst
  colbridge scan events.parquet --output jsonl --out events.jsonl.gz
  colbridge scan data.bin --format ipc --compression s2`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := opts.bind(cmd, map[string]string{
				"source.format":      "format",
				"source.compression": "compression",
				"source.batch_size":  "batch-size",
				"source.mmap":        "mmap",
				"output.format":      "output",
				"output.path":        "out",
				"output.compression": "out-compression",
				"scan.prefetch":      "prefetch",
				"scan.max_chunks":    "max-chunks",
				"scan.timeout":       "timeout",
				"metrics.enabled":    "metrics",
				"metrics.listen":     "metrics-listen",
				"tracing.enabled":    "trace",
			})
			if err != nil {
				return err
			}

			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Source.Path = args[0]
			}
			if cfg.Source.Path == "" {
				return errors.New(errors.ErrorTypeConfig, "no input file given")
			}

			return opts.profiled(func() error {
				stats, err := runScan(cmd.Context(), cfg, cmd.OutOrStdout())
				if err != nil || !printStats {
					return err
				}
				data, err := json.MarshalIndent(stats, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), string(data))
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.String("format", "", "Input format (ipc, ipc-file, parquet, csv); detected from the file name when empty")
	f.String("compression", "", "Input compression (zstd, lz4, snappy, s2, gzip, deflate, none); detected when empty")
	f.Int("batch-size", source.DefaultBatchSize, "Rows per chunk for Parquet and CSV input")
	f.Bool("mmap", false, "Memory-map uncompressed IPC file and Parquet input")
	f.StringP("output", "f", string(sink.FormatSummary), "Output format (summary, jsonl, discard)")
	f.StringP("out", "o", "", "Output file; stdout when empty")
	f.String("out-compression", "", "Output compression; detected from --out when empty")
	f.Int("prefetch", 2, "Chunks read ahead of the consumer")
	f.Int64("max-chunks", 0, "Stop after this many chunks (0 = all)")
	f.Duration("timeout", 0, "Abort the scan after this long (0 = configured timeout)")
	f.Bool("metrics", false, "Collect Prometheus metrics")
	f.String("metrics-listen", "", "Serve /metrics on this address during the scan")
	f.Bool("trace", false, "Export OpenTelemetry spans to stderr")
	f.BoolVar(&printStats, "stats", false, "Print scan statistics as JSON to stderr")
	return cmd
}

func runScan(ctx context.Context, cfg *config.Config, stdout io.Writer) (pipeline.Stats, error) {
	if err := logger.Init(cfg.Logging); err != nil {
		return pipeline.Stats{}, err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get().With(zap.String("component", "colbridge-cli"))

	shutdown, err := observability.InitTracing(cfg.Tracing)
	if err != nil {
		return pipeline.Stats{}, err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warn("failed to flush traces", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Scan.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Scan.Timeout)
		defer cancel()
	}
	ctx = logger.WithSource(ctx, cfg.Source.Path)

	producer, err := openSource(cfg.Source, log)
	if err != nil {
		return pipeline.Stats{}, err
	}
	defer func() {
		if err := producer.Close(); err != nil {
			log.Warn("failed to close input", zap.Error(err))
		}
	}()

	out, closeOut, err := openOutput(cfg.Output, stdout)
	if err != nil {
		return pipeline.Stats{}, err
	}
	format, _ := sink.ParseFormat(cfg.Output.Format)
	consumer, err := sink.New(format, out, nil)
	if err != nil {
		closeOut()
		return pipeline.Stats{}, err
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		collector = metrics.NewCollector(reg, cfg.Metrics.Component)

		if cfg.Metrics.Listen != "" {
			srv, err := metrics.Serve(cfg.Metrics.Listen, reg, log)
			if err != nil {
				closeOut()
				return pipeline.Stats{}, err
			}
			defer func() { _ = srv.Stop(context.Background()) }()
		}
	}

	p := pipeline.New(producer, consumer, &pipeline.Config{
		Prefetch:  cfg.Scan.Prefetch,
		MaxChunks: cfg.Scan.MaxChunks,
		SinkName:  string(format),
	}, log).WithMetrics(collector)

	stats, err := p.Run(ctx)
	if cerr := consumer.Close(); err == nil {
		err = cerr
	}
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	return stats, err
}

func openSource(cfg config.SourceConfig, log *zap.Logger) (source.Producer, error) {
	format, err := source.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	opts := source.Options{
		Format:    format,
		BatchSize: cfg.BatchSize,
		Mmap:      cfg.Mmap,
		Logger:    log,
	}
	if cfg.Compression != "" {
		if opts.Compression, err = compression.ParseAlgorithm(cfg.Compression); err != nil {
			return nil, err
		}
	}
	return source.Open(cfg.Path, opts)
}

// openOutput returns the writer for cfg and a function that flushes and
// closes it. Stdout is never closed.
func openOutput(cfg config.OutputConfig, stdout io.Writer) (io.Writer, func() error, error) {
	if cfg.Path == "" || cfg.Path == "-" {
		return stdout, func() error { return nil }, nil
	}

	alg, _ := compression.FromPath(cfg.Path)
	if cfg.Compression != "" {
		var err error
		if alg, err = compression.ParseAlgorithm(cfg.Compression); err != nil {
			return nil, nil, err
		}
	}

	f, err := os.Create(cfg.Path)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create output").
			WithDetail("path", cfg.Path)
	}
	w, err := compression.NewWriter(f, alg, compression.Default)
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	return w, func() error {
		werr := w.Close()
		ferr := f.Close()
		if werr != nil {
			return errors.Wrap(werr, errors.ErrorTypeFile, "failed to flush output")
		}
		if ferr != nil {
			return errors.Wrap(ferr, errors.ErrorTypeFile, "failed to close output")
		}
		return nil
	}, nil
}
