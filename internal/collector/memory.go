// RAM usage source, backed by gopsutil.
package collector

import (
	"context"

	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryResult holds the collected memory usage.
type MemoryResult struct {
	UsedPercent float64
	Used        uint64
	Total       uint64
}

// MemorySource collects RAM usage.
type MemorySource struct{}

// NewMemorySource creates a new memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{}
}

// Name returns the source identifier.
func (m *MemorySource) Name() string { return SourceMemory }

// Collect gathers memory usage (percent, used bytes, total bytes).
func (m *MemorySource) Collect(ctx context.Context) (interface{}, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return MemoryResult{
		UsedPercent: v.UsedPercent,
		Used:        v.Used,
		Total:       v.Total,
	}, nil
}

// IsAvailable returns true; memory metrics are available on all platforms.
func (m *MemorySource) IsAvailable() bool { return true }
