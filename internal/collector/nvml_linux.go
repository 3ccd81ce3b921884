//go:build linux && cgo

package collector

import (
	"context"
	"fmt"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"go.uber.org/zap"
)

// NVMLSource reads GPU 0 through the NVIDIA Management Library.
type NVMLSource struct {
	device      nvml.Device
	deviceName  string
	initialized bool
}

// NewNVMLSource initializes NVML. On hosts without the NVIDIA driver the
// source reports itself unavailable instead of failing.
func NewNVMLSource(logger *zap.Logger) *NVMLSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NVMLSource{}

	if ret := nvml.Init(); ret != nvml.SUCCESS {
		logger.Debug("NVML not available", zap.String("reason", nvml.ErrorString(ret)))
		return s
	}
	s.initialized = true

	device, ret := nvml.DeviceGetHandleByIndex(0)
	if ret != nvml.SUCCESS {
		logger.Debug("No NVML device", zap.String("reason", nvml.ErrorString(ret)))
		return s
	}
	s.device = device
	if name, ret := device.GetName(); ret == nvml.SUCCESS {
		s.deviceName = name
		logger.Info("Detected GPU", zap.String("name", name))
	}
	return s
}

// Name returns the source identifier.
func (s *NVMLSource) Name() string { return SourceGPU }

// Describe identifies the backend in logs.
func (s *NVMLSource) Describe() string { return "gpu/nvml" }

// Collect reads utilization and core temperature.
func (s *NVMLSource) Collect(context.Context) (interface{}, error) {
	util, ret := s.device.GetUtilizationRates()
	if ret != nvml.SUCCESS {
		return nil, fmt.Errorf("nvml utilization: %s", nvml.ErrorString(ret))
	}

	result := GPUResult{Device: s.deviceName, Utilization: float64(util.Gpu)}
	if temp, ret := s.device.GetTemperature(nvml.TEMPERATURE_GPU); ret == nvml.SUCCESS {
		t := float64(temp)
		result.Temperature = &t
	}
	return result, nil
}

// IsAvailable reports whether NVML initialized and found a device.
func (s *NVMLSource) IsAvailable() bool { return s.device != nil }

// Close shuts NVML down.
func (s *NVMLSource) Close() error {
	if !s.initialized {
		return nil
	}
	s.initialized = false
	if ret := nvml.Shutdown(); ret != nvml.SUCCESS {
		return fmt.Errorf("nvml shutdown: %s", nvml.ErrorString(ret))
	}
	return nil
}
