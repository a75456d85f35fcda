// Package metrics provides Prometheus instrumentation for colbridge.
//
// A Collector owns one set of metrics registered on a caller-supplied
// prometheus.Registerer, so tests and embedders can use an isolated registry
// instead of the process-wide default.
//
// # Basic Usage
//
//	reg := prometheus.NewRegistry()
//	collector := metrics.NewCollector(reg, "scan")
//
//	collector.BatchAssembled(batch.NumCols(), batch.NumRows())
//	timer := metrics.NewTimer("consume")
//	consumer.Consume(ctx, batch)
//	collector.ObserveConsume("summary", timer.Stop())
//
// All Collector methods are no-ops on a nil *Collector, which lets
// components treat metrics as optional.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "colbridge"

// Collector records assembly and scan metrics for one component.
type Collector struct {
	name           string
	batches        prometheus.Counter
	rows           prometheus.Counter
	batchColumns   prometheus.Observer
	chunksReleased prometheus.Counter
	consumeLatency *prometheus.HistogramVec
	scanErrors     *prometheus.CounterVec
	throughput     prometheus.Gauge
	residentBytes  prometheus.Gauge
	cpuPercent     prometheus.Gauge
	startTime      time.Time
}

// NewCollector registers the colbridge metrics on reg, labelled with
// component. A nil reg gets a private registry. Registering two collectors
// with the same component on one registry panics.
func NewCollector(reg prometheus.Registerer, component string) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	labels := prometheus.Labels{"component": component}

	return &Collector{
		name: component,
		batches: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "batches_assembled_total",
			Help:        "Total number of columnar batches assembled from chunks",
			ConstLabels: labels,
		}),
		rows: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "rows_assembled_total",
			Help:        "Total number of rows exposed through assembled batches",
			ConstLabels: labels,
		}),
		batchColumns: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "batch_columns",
			Help:        "Number of columns per assembled batch",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(1, 2, 10),
		}),
		chunksReleased: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "chunks_released_total",
			Help:        "Total number of chunks released after their batches drained",
			ConstLabels: labels,
		}),
		consumeLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "consume_latency_nanoseconds",
			Help:        "Time a consumer spent on one batch in nanoseconds",
			ConstLabels: labels,
			Buckets: []float64{
				1e3, // 1μs
				1e4, // 10μs
				1e5, // 100μs
				1e6, // 1ms
				1e7, // 10ms
				1e8, // 100ms
				1e9, // 1s
			},
		}, []string{"sink"}),
		scanErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "scan_errors_total",
			Help:        "Total number of scans aborted, by pipeline stage",
			ConstLabels: labels,
		}, []string{"stage"}),
		throughput: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "throughput_rows_per_second",
			Help:        "Rows per second over the last measurement window",
			ConstLabels: labels,
		}),
		residentBytes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "process_resident_bytes",
			Help:        "Resident set size of the scanning process at the last sample",
			ConstLabels: labels,
		}),
		cpuPercent: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "process_cpu_percent",
			Help:        "Average CPU utilisation of the scanning process since monitoring started",
			ConstLabels: labels,
		}),
		startTime: time.Now(),
	}
}

// Name returns the component label
func (c *Collector) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// StartTime returns when the collector was created
func (c *Collector) StartTime() time.Time {
	if c == nil {
		return time.Time{}
	}
	return c.startTime
}

// BatchAssembled records one batch of cols columns and rows rows.
func (c *Collector) BatchAssembled(cols, rows int) {
	if c == nil {
		return
	}
	c.batches.Inc()
	c.rows.Add(float64(rows))
	c.batchColumns.Observe(float64(cols))
}

func (c *Collector) ChunkReleased() {
	if c == nil {
		return
	}
	c.chunksReleased.Inc()
}

// ObserveConsume records the time sink spent consuming one batch.
func (c *Collector) ObserveConsume(sink string, d time.Duration) {
	if c == nil {
		return
	}
	c.consumeLatency.WithLabelValues(sink).Observe(float64(d.Nanoseconds()))
}

// ScanError counts a scan aborted at stage (read, assemble, consume).
func (c *Collector) ScanError(stage string) {
	if c == nil {
		return
	}
	c.scanErrors.WithLabelValues(stage).Inc()
}

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the label the timer was created with
func (t *Timer) Name() string { return t.name }

// Stop returns the elapsed duration since creation. It may be called more
// than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ThroughputTracker tracks rows per second over time windows and publishes
// the rate to its collector. Safe for concurrent use.
type ThroughputTracker struct {
	mu        sync.Mutex
	count     int64
	lastReset time.Time
	collector *Collector
}

// NewThroughputTracker creates a tracker reporting to collector, which may be nil.
func NewThroughputTracker(collector *Collector) *ThroughputTracker {
	return &ThroughputTracker{
		lastReset: time.Now(),
		collector: collector,
	}
}

// Increment adds n to the row count.
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
}

// GetAndReset returns rows per second since the last reset, publishes it and
// starts a new window.
func (t *ThroughputTracker) GetAndReset() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.lastReset).Seconds()
	if elapsed == 0 {
		return 0
	}

	throughput := float64(t.count) / elapsed
	t.count = 0
	t.lastReset = time.Now()

	if t.collector != nil {
		t.collector.throughput.Set(throughput)
	}
	return throughput
}
