// Package pipeline drives a scan: chunks are pulled from a source producer,
// assembled into batches and handed to a sink consumer, then released.
//
// # Overview
//
// Reading runs one goroutine ahead of consumption. Up to Prefetch chunks are
// buffered between the two, so decoding the next record batch overlaps with
// consuming the current one. A chunk is released only after the consumer
// returns, and every batch built from it is dropped at that point.
//
// # Basic Usage
//
//	p := pipeline.New(producer, consumer, &pipeline.Config{Prefetch: 4}, logger)
//	stats, err := p.Run(ctx)
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/colbridge/pkg/bridge"
	"github.com/ajitpratap0/colbridge/pkg/columnar"
	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/logger"
	"github.com/ajitpratap0/colbridge/pkg/metrics"
	"github.com/ajitpratap0/colbridge/pkg/observability"
	"github.com/ajitpratap0/colbridge/pkg/sink"
	"github.com/ajitpratap0/colbridge/pkg/source"
)

// Config controls a scan.
type Config struct {
	// Prefetch is the number of chunks read ahead of the consumer.
	Prefetch int `yaml:"prefetch"`
	// MaxChunks stops the scan after this many chunks. Zero means no limit.
	MaxChunks int64 `yaml:"max_chunks"`
	// SinkName labels consume latency metrics.
	SinkName string `yaml:"-"`
}

// DefaultConfig returns the default scan configuration.
func DefaultConfig() *Config {
	return &Config{
		Prefetch: 2,
		SinkName: "sink",
	}
}

// Pipeline moves chunks from a producer to a consumer.
type Pipeline struct {
	producer  source.Producer
	consumer  sink.Consumer
	config    *Config
	logger    *zap.Logger
	metrics   *metrics.Collector
	tracer    trace.Tracer
	meters    *observability.ScanInstruments
	assembler *bridge.Assembler
}

// New creates a pipeline. It does not take ownership of producer or
// consumer; the caller closes both after Run.
func New(producer source.Producer, consumer sink.Consumer, config *Config, log *zap.Logger) *Pipeline {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Prefetch < 0 {
		config.Prefetch = 0
	}
	if config.SinkName == "" {
		config.SinkName = "sink"
	}

	log = logger.OrNop(log)
	meters, err := observability.NewScanInstruments(nil)
	if err != nil {
		log.Warn("scan instruments unavailable", zap.Error(err))
	}
	return &Pipeline{
		producer:  producer,
		consumer:  consumer,
		config:    config,
		logger:    log,
		meters:    meters,
		assembler: bridge.NewAssembler(log, nil),
	}
}

// WithMetrics reports batch, chunk and latency metrics to c.
func (p *Pipeline) WithMetrics(c *metrics.Collector) *Pipeline {
	p.metrics = c
	p.assembler = bridge.NewAssembler(p.logger, c)
	return p
}

// WithTracer records scan and chunk spans on t instead of the global tracer.
func (p *Pipeline) WithTracer(t trace.Tracer) *Pipeline {
	p.tracer = t
	return p
}

// WithInstruments records OpenTelemetry scan metrics on meters.
func (p *Pipeline) WithInstruments(meters *observability.ScanInstruments) *Pipeline {
	p.meters = meters
	return p
}

// Run scans the producer to exhaustion, or until ctx is done, the consumer
// fails or MaxChunks is reached. Every chunk read is released before Run
// returns, including chunks still buffered when the scan stops early.
func (p *Pipeline) Run(ctx context.Context) (stats Stats, err error) {
	stats.ScanID = uuid.NewString()
	stats.StartTime = time.Now()

	ctx = logger.WithScanID(ctx, stats.ScanID)
	ctx, span := observability.StartSpan(ctx, p.tracer, "colbridge.scan")
	defer func() {
		span.SetAttribute("colbridge.chunks", stats.Chunks)
		span.SetAttribute("colbridge.rows", stats.Rows)
		span.Finish(err)
	}()

	log := logger.FromContext(ctx, p.logger)
	log.Info("starting scan",
		zap.Int("prefetch", p.config.Prefetch),
		zap.String("sink", p.config.SinkName))

	monitor, merr := metrics.NewResourceMonitor()
	if merr != nil {
		log.Debug("resource monitoring unavailable", zap.Error(merr))
	}
	throughput := metrics.NewThroughputTracker(p.metrics)
	chunks := make(chan *columnar.Chunk, p.config.Prefetch)
	g, gctx := errgroup.WithContext(ctx)
	readCtx, stopReading := context.WithCancel(gctx)
	defer stopReading()

	g.Go(func() error {
		defer close(chunks)
		err := p.read(readCtx, chunks)
		if err != nil && readCtx.Err() != nil && gctx.Err() == nil {
			// The consumer stopped the scan; its result is the one reported.
			return nil
		}
		return err
	})

	g.Go(func() error {
		defer func() {
			stopReading()
			drain(chunks)
		}()
		namer, named := p.consumer.(sink.ColumnNamer)
		for chunk := range chunks {
			if err := gctx.Err(); err != nil {
				chunk.Release()
				return err
			}
			if named {
				namer.NameColumns(fieldNames(chunk))
				named = false
			}

			seq := int(stats.Chunks)
			start := time.Now()
			err := p.consume(gctx, seq, chunk)
			stats.ConsumeTime += time.Since(start)

			rows := chunk.NumOfRows()
			stats.Columns = max(stats.Columns, chunk.NumOfCols())
			chunk.Release()
			p.metrics.ChunkReleased()

			if err != nil {
				return err
			}
			stats.Chunks++
			stats.Rows += int64(rows)
			throughput.Increment(int64(rows))
			p.meters.ChunkConsumed(gctx, rows)

			if p.config.MaxChunks > 0 && stats.Chunks >= p.config.MaxChunks {
				return errStop
			}
		}
		return nil
	})

	err = g.Wait()
	if err == errStop {
		err = nil
	}

	stats.Duration = time.Since(stats.StartTime)
	stats.ThroughputRPS = throughput.GetAndReset()
	if monitor != nil {
		usage := monitor.Usage()
		stats.MemoryRSS, stats.CPUPercent = usage.MemoryRSS, usage.CPUPercent
		p.metrics.ObserveResources(usage)
	}
	p.meters.ScanFinished(ctx, stats.Duration, err)

	if err != nil {
		log.Error("scan failed",
			zap.Error(err),
			zap.Int64("chunks", stats.Chunks),
			zap.Int64("rows", stats.Rows))
		return stats, err
	}

	log.Info("scan completed",
		zap.Int64("chunks", stats.Chunks),
		zap.Int64("rows", stats.Rows),
		zap.Duration("duration", stats.Duration),
		zap.Float64("throughput_rps", stats.ThroughputRPS))
	return stats, nil
}

// Scan runs a pipeline with config over producer and consumer.
func Scan(ctx context.Context, producer source.Producer, consumer sink.Consumer, config *Config, log *zap.Logger) (Stats, error) {
	return New(producer, consumer, config, log).Run(ctx)
}

// errStop ends the read side once MaxChunks chunks have been consumed.
var errStop = errors.New(errors.ErrorTypeInternal, "chunk limit reached")

func (p *Pipeline) read(ctx context.Context, out chan<- *columnar.Chunk) error {
	for {
		chunk, err := p.producer.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if ctx.Err() == nil {
				p.metrics.ScanError(StageRead)
			}
			return err
		}

		select {
		case out <- chunk:
		case <-ctx.Done():
			chunk.Release()
			return ctx.Err()
		}
	}
}

// consume assembles one batch over chunk and passes it to the consumer.
// Out-of-range and type-mismatch panics raised while the consumer reads the
// batch are returned as errors.
func (p *Pipeline) consume(ctx context.Context, seq int, chunk *columnar.Chunk) (err error) {
	ctx = logger.WithChunk(ctx, seq)
	ctx, span := observability.StartSpan(ctx, p.tracer, "colbridge.chunk")
	span.SetAttribute("colbridge.chunk.seq", seq)
	span.SetAttribute("colbridge.chunk.rows", chunk.NumOfRows())
	span.SetAttribute("colbridge.chunk.columns", chunk.NumOfCols())
	defer func() { span.Finish(err) }()

	stage := StageAssemble
	defer func() {
		if err != nil && ctx.Err() == nil {
			p.metrics.ScanError(stage)
			logger.FromContext(ctx, p.logger).Debug("chunk failed",
				zap.String("stage", stage),
				zap.Error(err))
		}
	}()
	defer errors.Recover(&err)

	batch := p.assembler.CreateBatch(chunk)

	stage = StageConsume
	timer := metrics.NewTimer(p.config.SinkName)
	err = p.consumer.Consume(ctx, batch)
	p.metrics.ObserveConsume(timer.Name(), timer.Stop())
	return err
}

func fieldNames(chunk *columnar.Chunk) []string {
	names := make([]string, chunk.NumOfCols())
	for i, f := range chunk.Fields() {
		names[i] = f.Name
	}
	return names
}

func drain(chunks <-chan *columnar.Chunk) {
	for chunk := range chunks {
		chunk.Release()
	}
}
