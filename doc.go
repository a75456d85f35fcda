// Package colbridge exposes storage-engine column vectors to a vectorized
// execution engine without copying column data.
//
// # Architecture
//
// Data flows through four layers:
//
//  1. pkg/columnar holds storage column vectors (typed, nullable, read-only)
//     and the Chunk that groups them under one row count. Arrow arrays,
//     including dictionary and run-end encoded ones, are wrapped in place.
//  2. pkg/bridge adapts each storage vector to the engine's ColumnVector
//     contract, forwarding every read to the underlying vector.
//  3. pkg/bridge.CreateColumnarBatch assembles the adapters into a
//     vectorized.ColumnarBatch whose row count is the chunk's.
//  4. internal/pipeline drives producers (pkg/source) and consumers
//     (pkg/sink) chunk by chunk, releasing each chunk once consumed.
//
// # Quick Start
//
//	chunk, err := columnar.NewChunk(ids, names)
//	if err != nil {
//		return err
//	}
//	defer chunk.Release()
//
//	batch := bridge.CreateColumnarBatch(chunk)
//	for row := 0; row < batch.NumRows(); row++ {
//		fmt.Println(batch.Column(0).GetLong(row), batch.Column(1).GetString(row))
//	}
//
// # Key Packages
//
//	pkg/columnar      - Storage column vectors and chunks over Arrow arrays
//	pkg/vectorized    - Engine-side ColumnVector and ColumnarBatch contracts
//	pkg/bridge        - Zero-copy adapter and batch assembler
//	pkg/source        - Arrow IPC, Parquet and CSV chunk producers
//	pkg/sink          - Batch consumers (summary, JSON lines, discard)
//	pkg/config        - YAML configuration with environment substitution
//	pkg/errors        - Structured error handling
//	pkg/logger        - Structured logging on zap
//	pkg/metrics       - Prometheus metrics and process resource sampling
//	pkg/observability - OpenTelemetry tracing and metrics
//
// # Command Line
//
// cmd/colbridge scans a file through the bridge:
//
//	colbridge generate events.arrows.zst --rows 1000000
//	colbridge scan events.arrows.zst --output jsonl --out events.jsonl.gz
//	colbridge bench --rows 1000000 --count 5
package colbridge
