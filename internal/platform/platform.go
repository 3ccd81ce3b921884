// Package platform provides an OS abstraction layer for readings that
// gopsutil cannot supply on every OS.
package platform

import "context"

// GPUStats is one reading from the vendor GPU tooling.
type GPUStats struct {
	Name        string
	Utilization float64  // percent
	Temperature *float64 // °C, nil when the driver does not report it
}

// Platform provides OS-specific readings beyond what gopsutil offers.
type Platform interface {
	// Name returns the platform name (windows, linux, darwin, ...).
	Name() string

	// CPUTemperature returns a CPU temperature when the OS exposes one outside
	// the hardware sensors gopsutil reads. Returns nil if unavailable.
	CPUTemperature(ctx context.Context) (*float64, error)

	// GPUStats returns utilization and temperature of the first GPU.
	// Returns nil if no supported GPU tooling is present.
	GPUStats(ctx context.Context) (*GPUStats, error)

	// HasGPUTooling reports whether GPUStats can return data on this host.
	HasGPUTooling() bool
}
