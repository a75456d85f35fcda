// Package bridge exposes storage chunks as engine batches without copying
// column data. Each storage vector is wrapped in an Adapter and the adapters
// are collected, in ordinal order, into a vectorized.Batch.
package bridge

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/colbridge/pkg/columnar"
	"github.com/ajitpratap0/colbridge/pkg/logger"
	"github.com/ajitpratap0/colbridge/pkg/metrics"
	"github.com/ajitpratap0/colbridge/pkg/vectorized"
)

// CreateColumnarBatch builds a batch whose column i reads chunk.Column(i) and
// whose row count is chunk.NumOfRows(). The batch shares the chunk's storage
// and is valid until the chunk is released. Every call returns a new batch.
func CreateColumnarBatch(chunk *columnar.Chunk) *vectorized.Batch {
	columns := make([]vectorized.Column, chunk.NumOfCols())
	for i := range columns {
		columns[i] = NewAdapter(chunk.Column(i))
	}

	batch := vectorized.NewBatch(columns...)
	batch.SetNumRows(chunk.NumOfRows())
	return batch
}

// Assembler is CreateColumnarBatch with logging and metrics. A nil
// *Assembler behaves like CreateColumnarBatch.
type Assembler struct {
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewAssembler creates an assembler. Both arguments may be nil.
func NewAssembler(log *zap.Logger, collector *metrics.Collector) *Assembler {
	return &Assembler{
		logger:  logger.OrNop(log),
		metrics: collector,
	}
}

// CreateBatch assembles a batch from chunk.
func (a *Assembler) CreateBatch(chunk *columnar.Chunk) *vectorized.Batch {
	batch := CreateColumnarBatch(chunk)
	if a == nil {
		return batch
	}

	a.metrics.BatchAssembled(batch.NumCols(), batch.NumRows())
	if ce := a.logger.Check(zap.DebugLevel, "assembled columnar batch"); ce != nil {
		ce.Write(
			zap.Int("columns", batch.NumCols()),
			zap.Int("rows", batch.NumRows()),
		)
	}
	return batch
}
