package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestScanInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	inst, err := NewScanInstruments(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	inst.ChunkConsumed(ctx, 100)
	inst.ChunkConsumed(ctx, 20)
	inst.ScanFinished(ctx, 2*time.Second, nil)
	inst.ScanFinished(ctx, time.Second, errors.New("boom"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	got := map[string]metricdata.Aggregation{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		got[m.Name] = m.Data
	}

	chunks := got["colbridge.scan.chunks"].(metricdata.Sum[int64])
	require.Len(t, chunks.DataPoints, 1)
	assert.Equal(t, int64(2), chunks.DataPoints[0].Value)

	rows := got["colbridge.scan.rows"].(metricdata.Sum[int64])
	assert.Equal(t, int64(120), rows.DataPoints[0].Value)

	duration := got["colbridge.scan.duration"].(metricdata.Histogram[float64])
	assert.Len(t, duration.DataPoints, 2)
}

func TestNilScanInstruments(t *testing.T) {
	var inst *ScanInstruments
	inst.ChunkConsumed(context.Background(), 1)
	inst.ScanFinished(context.Background(), time.Second, nil)

	global, err := NewScanInstruments(nil)
	require.NoError(t, err)
	global.ChunkConsumed(context.Background(), 1)
}
