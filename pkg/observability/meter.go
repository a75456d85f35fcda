package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ajitpratap0/colbridge/pkg/errors"
)

// Meter returns the colbridge meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(InstrumentationName)
}

// ScanInstruments records scan progress as OpenTelemetry metrics. A nil
// *ScanInstruments records nothing.
type ScanInstruments struct {
	chunks   metric.Int64Counter
	rows     metric.Int64Counter
	duration metric.Float64Histogram
}

// NewScanInstruments creates the scan instruments on meter, or on Meter()
// when meter is nil.
func NewScanInstruments(meter metric.Meter) (*ScanInstruments, error) {
	if meter == nil {
		meter = Meter()
	}

	chunks, err := meter.Int64Counter("colbridge.scan.chunks",
		metric.WithDescription("Chunks consumed"),
		metric.WithUnit("{chunk}"))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create chunk counter")
	}

	rows, err := meter.Int64Counter("colbridge.scan.rows",
		metric.WithDescription("Rows consumed"),
		metric.WithUnit("{row}"))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create row counter")
	}

	duration, err := meter.Float64Histogram("colbridge.scan.duration",
		metric.WithDescription("Wall time of complete scans"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create duration histogram")
	}

	return &ScanInstruments{chunks: chunks, rows: rows, duration: duration}, nil
}

// ChunkConsumed counts one chunk of rows rows.
func (s *ScanInstruments) ChunkConsumed(ctx context.Context, rows int) {
	if s == nil {
		return
	}
	s.chunks.Add(ctx, 1)
	s.rows.Add(ctx, int64(rows))
}

// ScanFinished records the duration of a scan and whether it failed.
func (s *ScanInstruments) ScanFinished(ctx context.Context, d time.Duration, err error) {
	if s == nil {
		return
	}
	s.duration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.Bool("error", err != nil)))
}
