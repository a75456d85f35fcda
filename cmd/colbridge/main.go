// Command colbridge scans columnar files through the zero-copy batch bridge.
package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ajitpratap0/colbridge/pkg/config"
	"github.com/ajitpratap0/colbridge/pkg/errors"
)

var version = "0.1.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// options carries state shared by every subcommand.
type options struct {
	v          *viper.Viper
	configFile string
	cpuProfile string
	memProfile string
}

func newRootCommand() *cobra.Command {
	opts := &options{v: viper.New()}
	opts.v.SetEnvPrefix("COLBRIDGE")
	opts.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	opts.v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "colbridge",
		Short: "colbridge - zero-copy columnar batch bridge",
		Long: `colbridge exposes Arrow, Parquet and CSV data as engine batches without
copying column values, and scans them into summaries or JSON lines.

Settings come from, in increasing priority: built-in defaults, the --config
YAML file, COLBRIDGE_* environment variables (for example
COLBRIDGE_SOURCE_BATCH_SIZE) and command-line flags.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "Path to YAML configuration file")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&opts.cpuProfile, "cpuprofile", "", "Write a CPU profile to file")
	pf.StringVar(&opts.memProfile, "memprofile", "", "Write a heap profile to file on exit")
	_ = opts.v.BindPFlag("logging.level", pf.Lookup("log-level"))

	root.AddCommand(
		newVersionCommand(),
		newScanCommand(opts),
		newGenerateCommand(opts),
		newBenchCommand(opts),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "colbridge v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// load builds the effective configuration: defaults, then the config file,
// then environment variables and flags known to viper.
func (o *options) load() (*config.Config, error) {
	cfg := config.Default()
	if o.configFile != "" {
		var err error
		if cfg, err = config.Load(o.configFile); err != nil {
			return nil, err
		}
	}

	o.overrideString("logging.level", &cfg.Logging.Level)
	o.overrideString("source.format", &cfg.Source.Format)
	o.overrideString("source.compression", &cfg.Source.Compression)
	o.overrideInt("source.batch_size", &cfg.Source.BatchSize)
	o.overrideBool("source.mmap", &cfg.Source.Mmap)
	o.overrideString("output.format", &cfg.Output.Format)
	o.overrideString("output.path", &cfg.Output.Path)
	o.overrideString("output.compression", &cfg.Output.Compression)
	o.overrideInt("scan.prefetch", &cfg.Scan.Prefetch)
	if o.v.IsSet("scan.max_chunks") {
		cfg.Scan.MaxChunks = o.v.GetInt64("scan.max_chunks")
	}
	if o.v.IsSet("scan.timeout") {
		cfg.Scan.Timeout = o.v.GetDuration("scan.timeout")
	}
	o.overrideBool("metrics.enabled", &cfg.Metrics.Enabled)
	o.overrideString("metrics.listen", &cfg.Metrics.Listen)
	o.overrideBool("tracing.enabled", &cfg.Tracing.Enabled)

	if cfg.Metrics.Listen != "" {
		cfg.Metrics.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *options) overrideString(key string, dst *string) {
	if o.v.IsSet(key) {
		*dst = o.v.GetString(key)
	}
}

func (o *options) overrideInt(key string, dst *int) {
	if o.v.IsSet(key) {
		*dst = o.v.GetInt(key)
	}
}

func (o *options) overrideBool(key string, dst *bool) {
	if o.v.IsSet(key) {
		*dst = o.v.GetBool(key)
	}
}

// bind maps command flags onto configuration keys.
func (o *options) bind(cmd *cobra.Command, keys map[string]string) error {
	for key, flag := range keys {
		if err := o.v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, "failed to bind flag --"+flag)
		}
	}
	return nil
}

// profiled runs fn with the CPU and heap profiles requested on the command
// line.
func (o *options) profiled(fn func() error) error {
	if o.cpuProfile != "" {
		f, err := os.Create(o.cpuProfile)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to start CPU profile")
		}
		defer pprof.StopCPUProfile()
	}

	err := fn()

	if o.memProfile != "" {
		if perr := writeHeapProfile(o.memProfile); err == nil {
			err = perr
		}
	}
	return err
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create heap profile")
	}
	defer f.Close()

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write heap profile")
	}
	return nil
}
