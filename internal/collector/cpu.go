// CPU usage source, backed by gopsutil.
package collector

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

// CPUResult holds the collected CPU usage.
type CPUResult struct {
	Overall float64
}

// CPUSource collects overall CPU utilization.
type CPUSource struct {
	window time.Duration
}

// NewCPUSource creates a CPU source that measures over the given window.
// A zero window compares against the previous call instead of blocking.
func NewCPUSource(window time.Duration) *CPUSource {
	return &CPUSource{window: window}
}

// Name returns the source identifier.
func (c *CPUSource) Name() string { return SourceCPU }

// Collect gathers overall CPU usage. It blocks for the configured window.
func (c *CPUSource) Collect(ctx context.Context) (interface{}, error) {
	overall, err := cpu.PercentWithContext(ctx, c.window, false)
	if err != nil {
		return nil, err
	}
	var result CPUResult
	if len(overall) > 0 {
		result.Overall = overall[0]
	}
	return result, nil
}

// IsAvailable returns true; CPU metrics are available on all platforms.
func (c *CPUSource) IsAvailable() bool { return true }
