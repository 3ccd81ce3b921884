//go:build !linux || !cgo

package collector

import (
	"context"

	"go.uber.org/zap"

	"github.com/Guliveer/infoboard/agent/internal/errors"
)

// NVMLSource is unavailable on this build; GPU readings come from nvidia-smi.
type NVMLSource struct{}

// NewNVMLSource returns an unavailable source.
func NewNVMLSource(*zap.Logger) *NVMLSource { return &NVMLSource{} }

// Name returns the source identifier.
func (s *NVMLSource) Name() string { return SourceGPU }

// Describe identifies the backend in logs.
func (s *NVMLSource) Describe() string { return "gpu/nvml" }

// Collect always fails on this build.
func (s *NVMLSource) Collect(context.Context) (interface{}, error) {
	return nil, errors.New(errors.ErrSourceUnavailable)
}

// IsAvailable returns false.
func (s *NVMLSource) IsAvailable() bool { return false }

// Close is a no-op.
func (s *NVMLSource) Close() error { return nil }
