package pipeline

import "time"

// Stats summarizes a completed scan.
type Stats struct {
	ScanID string `json:"scan_id"`

	Chunks  int64 `json:"chunks"`
	Rows    int64 `json:"rows"`
	Columns int   `json:"columns"`

	StartTime     time.Time     `json:"start_time"`
	Duration      time.Duration `json:"duration"`
	ConsumeTime   time.Duration `json:"consume_time"`
	ThroughputRPS float64       `json:"throughput_rps"`

	MemoryRSS  uint64  `json:"memory_rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
}

// Stage names label scan errors by where they occurred.
const (
	StageRead     = "read"
	StageAssemble = "assemble"
	StageConsume  = "consume"
)
