//go:build !windows

package platform

import (
	"context"
	"runtime"
)

// UnixPlatform is the Platform for Linux and macOS. CPU temperatures on these
// systems come from gopsutil's sensor reader, so only the GPU query is extra.
type UnixPlatform struct {
	hasSMI bool
}

// New creates the platform instance for this OS.
func New() Platform {
	return &UnixPlatform{hasSMI: smiAvailable()}
}

// Name returns the platform identifier.
func (p *UnixPlatform) Name() string { return runtime.GOOS }

// CPUTemperature returns nil; hwmon/SMC sensors are read through gopsutil.
func (p *UnixPlatform) CPUTemperature(context.Context) (*float64, error) {
	return nil, nil
}

// GPUStats queries nvidia-smi when present.
func (p *UnixPlatform) GPUStats(ctx context.Context) (*GPUStats, error) {
	if !p.hasSMI {
		return nil, nil
	}
	return querySMI(ctx)
}

// HasGPUTooling reports whether nvidia-smi was found at startup.
func (p *UnixPlatform) HasGPUTooling() bool { return p.hasSMI }
