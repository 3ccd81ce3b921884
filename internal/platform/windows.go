//go:build windows

package platform

import (
	"context"
	"fmt"

	"github.com/yusufpapurcu/wmi"
)

// thermalZone maps MSAcpi_ThermalZoneTemperature. CurrentTemperature is in
// tenths of a Kelvin.
type thermalZone struct {
	InstanceName       string
	CurrentTemperature uint32
}

const thermalZoneQuery = "SELECT InstanceName, CurrentTemperature FROM MSAcpi_ThermalZoneTemperature"

// WindowsPlatform implements Platform for Windows systems.
type WindowsPlatform struct {
	hasSMI bool
}

// New creates a new Windows platform instance.
func New() Platform {
	return &WindowsPlatform{hasSMI: smiAvailable()}
}

// Name returns the platform identifier.
func (p *WindowsPlatform) Name() string { return "windows" }

// CPUTemperature reads the hottest ACPI thermal zone through WMI. The class
// usually requires an elevated process; access errors are returned as-is.
func (p *WindowsPlatform) CPUTemperature(ctx context.Context) (*float64, error) {
	type result struct {
		zones []thermalZone
		err   error
	}
	done := make(chan result, 1)
	go func() {
		var zones []thermalZone
		err := wmi.QueryNamespace(thermalZoneQuery, &zones, `root\WMI`)
		done <- result{zones, err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		return nil, fmt.Errorf("wmi thermal zone: %w", res.err)
	}

	var hottest *float64
	for _, z := range res.zones {
		c := kelvinTenthsToCelsius(z.CurrentTemperature)
		if hottest == nil || c > *hottest {
			hottest = &c
		}
	}
	return hottest, nil
}

// GPUStats queries nvidia-smi for NVIDIA GPUs.
// Returns nil if nvidia-smi is not available.
func (p *WindowsPlatform) GPUStats(ctx context.Context) (*GPUStats, error) {
	if !p.hasSMI {
		return nil, nil
	}
	return querySMI(ctx)
}

// HasGPUTooling reports whether nvidia-smi was found at startup.
func (p *WindowsPlatform) HasGPUTooling() bool { return p.hasSMI }

func kelvinTenthsToCelsius(v uint32) float64 {
	return float64(v)/10 - 273.15
}
