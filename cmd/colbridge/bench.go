package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/colbridge/internal/pipeline"
	"github.com/ajitpratap0/colbridge/pkg/logger"
	"github.com/ajitpratap0/colbridge/pkg/sink"
	"github.com/ajitpratap0/colbridge/pkg/source"
)

type benchOptions struct {
	rows       int
	batchSize  int
	iterations int
	plain      bool
	prefetch   int
}

func newBenchCommand(opts *options) *cobra.Command {
	var b benchOptions

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure scan throughput over in-memory sample data",
		Long: `Bench generates an Arrow IPC stream in memory, then scans it repeatedly into a
consumer that reads every cell and keeps nothing. Each iteration reports rows
and cells per second, so the cost of batch assembly and cell access can be
compared across encodings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if err := logger.Init(cfg.Logging); err != nil {
				return err
			}
			return opts.profiled(func() error {
				return runBench(cmd.Context(), b, cmd.OutOrStdout())
			})
		},
	}

	f := cmd.Flags()
	f.IntVar(&b.rows, "rows", 1_000_000, "Rows per iteration")
	f.IntVar(&b.batchSize, "batch-size", 65_536, "Rows per record batch")
	f.IntVar(&b.iterations, "count", 3, "Number of iterations")
	f.IntVar(&b.prefetch, "prefetch", 2, "Chunks read ahead of the consumer")
	f.BoolVar(&b.plain, "plain", false, "Omit the dictionary and run-end-encoded columns")
	return cmd
}

func runBench(ctx context.Context, b benchOptions, out io.Writer) error {
	var data bytes.Buffer
	if _, err := source.Generate(ctx, &data, source.GenerateOptions{
		Rows:      b.rows,
		BatchSize: b.batchSize,
		Encoded:   !b.plain,
	}); err != nil {
		return err
	}

	bold := color.New(color.Bold)
	bold.Fprintf(out, "Scanning %s rows (%s in memory, %d iterations)\n",
		humanize.Comma(int64(b.rows)), humanize.Bytes(uint64(data.Len())), b.iterations)

	log := logger.Get()
	for i := 1; i <= b.iterations; i++ {
		producer, err := source.NewIPCProducer(bytes.NewReader(data.Bytes()), source.Options{Logger: log})
		if err != nil {
			return err
		}

		consumer := sink.NewDiscard()
		stats, err := pipeline.New(producer, consumer, &pipeline.Config{
			Prefetch: b.prefetch,
			SinkName: string(sink.FormatDiscard),
		}, log).Run(ctx)
		producer.Close()
		if err != nil {
			return err
		}

		seconds := stats.Duration.Seconds()
		fmt.Fprintf(out, "\titeration %d: %s in %d chunks, %s rows/s, %s cells/s\n",
			i, stats.Duration.Round(time.Microsecond), stats.Chunks,
			humanize.Comma(int64(float64(stats.Rows)/seconds)),
			humanize.Comma(int64(float64(consumer.Cells())/seconds)))
	}
	return nil
}
