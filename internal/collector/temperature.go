// CPU/GPU temperature source: hottest reading across matching hardware
// sensors, with a platform fallback for the CPU.
package collector

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
	"go.uber.org/zap"

	"github.com/Guliveer/infoboard/agent/internal/platform"
)

// Sensor name substrings used to identify CPU temperature sensors across platforms.
// Linux:  coretemp_core_0_input, k10temp_tctl_input, acpitz_temp1_input, zenpower_tctl_input
// macOS:  TC0P (CPU proximity), TC0D (CPU die), TCXC (CPU core)
var cpuSensorKeys = []string{
	"cpu", "core", "package",
	"tctl", "tdie", "k10temp", "coretemp",
	"tc0p", "tc0d", "tcxc",
	"acpitz", "zenpower",
}

// Sensor name substrings used to identify GPU temperature sensors.
// Linux:  amdgpu_edge_input, nouveau_temp1_input
// macOS:  TG0P (GPU proximity), TG0D (GPU die)
var gpuSensorKeys = []string{
	"gpu", "nvidia", "radeon",
	"tg0p", "tg0d",
	"amdgpu", "nouveau",
}

const (
	minValidTemp = 0.0
	// Readings above this are sensor errors.
	maxValidTemp = 150.0
)

// TemperatureResult holds sensor temperatures. Nil means not found.
type TemperatureResult struct {
	CPUTemp *float64
	GPUTemp *float64
}

// TemperatureSource collects CPU and GPU temperatures from hardware sensors.
type TemperatureSource struct {
	platform platform.Platform
	logger   *zap.Logger
}

// NewTemperatureSource creates a temperature source. The platform provides a
// CPU temperature fallback (WMI on Windows); pass nil to disable it.
func NewTemperatureSource(p platform.Platform, logger *zap.Logger) *TemperatureSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemperatureSource{platform: p, logger: logger}
}

// Name returns the source identifier.
func (t *TemperatureSource) Name() string { return SourceTemperature }

// Collect reads all sensors and keeps the hottest CPU and GPU values.
// A sensor read error is not fatal: the platform fallback may still answer.
func (t *TemperatureSource) Collect(ctx context.Context) (interface{}, error) {
	temps, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil {
		t.logger.Debug("Temperature sensors not fully available", zap.Error(err))
	}

	result := TemperatureResult{
		CPUTemp: hottest(temps, cpuSensorKeys),
		GPUTemp: hottest(temps, gpuSensorKeys),
	}
	if result.CPUTemp == nil {
		result.CPUTemp = t.platformCPUFallback(ctx)
	}
	return result, nil
}

// IsAvailable returns true. Temperatures are optional, so the source is always registered.
func (t *TemperatureSource) IsAvailable() bool { return true }

func (t *TemperatureSource) platformCPUFallback(ctx context.Context) *float64 {
	if t.platform == nil {
		return nil
	}
	temp, err := t.platform.CPUTemperature(ctx)
	if err != nil {
		t.logger.Debug("Platform CPU temperature fallback failed", zap.Error(err))
		return nil
	}
	if temp == nil || !isValidTemperature(*temp) {
		return nil
	}
	return temp
}

// hottest returns the maximum valid reading among sensors matching keys.
func hottest(temps []host.TemperatureStat, keys []string) *float64 {
	var max float64
	found := false
	for _, t := range temps {
		if !isValidTemperature(t.Temperature) {
			continue
		}
		if !matchesSensor(strings.ToLower(t.SensorKey), keys) {
			continue
		}
		if !found || t.Temperature > max {
			max = t.Temperature
			found = true
		}
	}
	if !found {
		return nil
	}
	return &max
}

// matchesSensor checks if the sensor name contains any of the given key substrings.
func matchesSensor(name string, keys []string) bool {
	for _, key := range keys {
		if strings.Contains(name, key) {
			return true
		}
	}
	return false
}

func isValidTemperature(temp float64) bool {
	return temp > minValidTemp && temp <= maxValidTemp
}
