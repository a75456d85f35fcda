package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/colbridge/pkg/compression"
	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/source"
)

func newGenerateCommand(opts *options) *cobra.Command {
	var (
		rows      int
		batchSize int
		format    string
		codec     string
		plain     bool
	)

	cmd := &cobra.Command{
		Use:   "generate <file>",
		Short: "Write a sample data set for the scan path",
		Long: `Generate writes deterministic sample rows covering every column type. Arrow
outputs also carry a dictionary-encoded and a run-end-encoded column unless
--plain is given.

  colbridge generate sample.arrows.zst --rows 1000000
  colbridge generate sample.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			gen := source.GenerateOptions{
				Rows:      rows,
				BatchSize: batchSize,
				Encoded:   !plain,
			}

			var err error
			if gen.Format, err = source.ParseFormat(format); err != nil {
				return err
			}
			if gen.Format == "" {
				if gen.Format, err = source.DetectFormat(path); err != nil {
					return err
				}
			}
			if gen.Format == source.Parquet || gen.Format == source.CSV {
				gen.Encoded = false
			}
			if codec != "" {
				if gen.Compression, err = compression.ParseAlgorithm(codec); err != nil {
					return err
				}
			}

			return opts.profiled(func() error {
				batches, err := source.GenerateFile(cmd.Context(), path, gen)
				if err != nil {
					return err
				}
				info, err := os.Stat(path)
				if err != nil {
					return errors.Wrap(err, errors.ErrorTypeFile, "failed to stat output")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s rows in %d batches to %s (%s)\n",
					humanize.Comma(int64(rows)), batches, path, humanize.Bytes(uint64(info.Size())))
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.IntVar(&rows, "rows", 100_000, "Number of rows to write")
	f.IntVar(&batchSize, "batch-size", 8192, "Rows per record batch")
	f.StringVar(&format, "format", "", "Output format (ipc, ipc-file, parquet); detected from the file name when empty")
	f.StringVar(&codec, "compression", "", "Compression; detected from the file name when empty")
	f.BoolVar(&plain, "plain", false, "Omit the dictionary and run-end-encoded columns")
	return cmd
}
