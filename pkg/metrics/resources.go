package metrics

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/ajitpratap0/colbridge/pkg/errors"
)

// ResourceUsage is a point-in-time sample of the process.
type ResourceUsage struct {
	CPUPercent     float64
	MemoryRSS      uint64
	GoroutineCount int
	ThreadCount    int32
}

// ResourceMonitor samples CPU and memory use of the current process.
type ResourceMonitor struct {
	process      *process.Process
	startCPUTime float64
	startTime    time.Time
	mu           sync.Mutex
}

// NewResourceMonitor starts monitoring the current process. CPU use is
// averaged from this point.
func NewResourceMonitor() (*ResourceMonitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to inspect process")
	}

	m := &ResourceMonitor{process: proc, startTime: time.Now()}
	if times, err := proc.Times(); err == nil {
		m.startCPUTime = times.User + times.System
	}
	return m, nil
}

// Usage samples the process. Fields the platform cannot report are zero.
func (m *ResourceMonitor) Usage() ResourceUsage {
	m.mu.Lock()
	defer m.mu.Unlock()

	usage := ResourceUsage{GoroutineCount: runtime.NumGoroutine()}

	if times, err := m.process.Times(); err == nil {
		if elapsed := time.Since(m.startTime).Seconds(); elapsed > 0 {
			usage.CPUPercent = (times.User + times.System - m.startCPUTime) / elapsed * 100
		}
	}
	if mem, err := m.process.MemoryInfo(); err == nil {
		usage.MemoryRSS = mem.RSS
	}
	usage.ThreadCount, _ = m.process.NumThreads()
	return usage
}

// ObserveResources publishes a resource sample.
func (c *Collector) ObserveResources(u ResourceUsage) {
	if c == nil {
		return
	}
	c.residentBytes.Set(float64(u.MemoryRSS))
	c.cpuPercent.Set(u.CPUPercent)
}
