// Package monitor periodically logs the exporter's own resource usage.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// Saturation levels derived from process CPU utilization.
const (
	SaturationNormal    = "normal"
	SaturationHigh      = "high"
	SaturationSaturated = "saturated"
)

// Monitor tracks process resource usage and saturation indicators.
type Monitor struct {
	interval time.Duration
	logger   *slog.Logger
	wg       sync.WaitGroup
	proc     *process.Process
}

// usage is one resource sample.
type usage struct {
	cpuPercent  float64
	utilization float64
	cores       int
	goroutines  int
	rssBytes    uint64
	heapAlloc   uint64
	heapSys     uint64
	numGC       uint32
}

// New creates a new monitor with specified collection interval.
func New(interval time.Duration, logger *slog.Logger) (*Monitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to get process handle: %w", err)
	}

	return &Monitor{
		interval: interval,
		logger:   logger,
		proc:     proc,
	}, nil
}

// Run starts the monitoring loop in a background goroutine.
// The loop exits when ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	m.wg.Go(func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		// Immediate first collection
		m.log(m.sample())

		for {
			select {
			case <-ctx.Done():
				m.logger.Debug("monitor shutdown complete")
				return
			case <-ticker.C:
				m.log(m.sample())
			}
		}
	})
}

// Wait blocks until the monitor goroutine exits.
func (m *Monitor) Wait() {
	m.wg.Wait()
}

func (m *Monitor) sample() usage {
	processCPU, err := m.proc.CPUPercent()
	if err != nil {
		m.logger.Warn("failed to get CPU percent", "error", err)
		processCPU = 0
	}

	var rss uint64
	if mem, err := m.proc.MemoryInfo(); err != nil {
		m.logger.Warn("failed to get memory info", "error", err)
	} else {
		rss = mem.RSS
	}

	cores := runtime.GOMAXPROCS(-1)

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return usage{
		cpuPercent:  processCPU,
		utilization: utilization(processCPU, cores),
		cores:       cores,
		goroutines:  runtime.NumGoroutine(),
		rssBytes:    rss,
		heapAlloc:   ms.HeapAlloc,
		heapSys:     ms.HeapSys,
		numGC:       ms.NumGC,
	}
}

func (m *Monitor) log(u usage) {
	mb := func(b uint64) float64 {
		return float64(b) / (1024 * 1024)
	}

	sat := saturation(u.utilization)

	m.logger.LogAttrs(
		context.Background(),
		slog.LevelInfo,
		"resource",
		slog.String("cpu", fmt.Sprintf("%.4f%%", u.cpuPercent)),
		slog.String("util", fmt.Sprintf("%.4f%%", u.utilization*100)),
		slog.Int("cores", u.cores),
		slog.Int("gor", u.goroutines),
		slog.String("mem", fmt.Sprintf("rss:%.2fMB alloc:%.2fMB sys:%.2fMB", mb(u.rssBytes), mb(u.heapAlloc), mb(u.heapSys))),
		slog.Uint64("gc", uint64(u.numGC)),
		slog.String("sat", sat),
	)

	if sat == SaturationSaturated {
		m.logger.Warn(
			"cpu saturation detected",
			"cpu", u.cpuPercent,
			"util_pct", u.utilization*100,
			"action", "reduce scrape frequency or increase GOMAXPROCS",
		)
	}
}

// utilization returns process CPU as a fraction of all usable cores.
func utilization(cpuPercent float64, cores int) float64 {
	maxCPU := float64(cores * 100)
	if maxCPU <= 0 {
		return 0
	}
	return cpuPercent / maxCPU
}

func saturation(util float64) string {
	switch {
	case util > 0.95:
		return SaturationSaturated
	case util > 0.80:
		return SaturationHigh
	default:
		return SaturationNormal
	}
}
