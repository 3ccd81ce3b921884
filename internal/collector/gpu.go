package collector

import (
	"context"
	stderrors "errors"
	"io"

	"go.uber.org/zap"

	"github.com/Guliveer/infoboard/agent/internal/errors"
	"github.com/Guliveer/infoboard/agent/internal/platform"
)

// GPUResult holds one GPU reading.
type GPUResult struct {
	Device      string
	Utilization float64  // percent
	Temperature *float64 // °C, nil if not reported
}

// SMISource reads the first GPU through the platform's vendor tooling (nvidia-smi).
type SMISource struct {
	platform platform.Platform
}

// NewSMISource creates a GPU source backed by the platform GPU query.
func NewSMISource(p platform.Platform) *SMISource {
	return &SMISource{platform: p}
}

// Name returns the source identifier.
func (s *SMISource) Name() string { return SourceGPU }

// Describe identifies the backend in logs.
func (s *SMISource) Describe() string { return "gpu/nvidia-smi" }

// Collect queries the platform for the first GPU's utilization and temperature.
func (s *SMISource) Collect(ctx context.Context) (interface{}, error) {
	stats, err := s.platform.GPUStats(ctx)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return nil, errors.New(errors.ErrSourceUnavailable).WithMessage("no GPU reported by nvidia-smi")
	}
	return GPUResult{
		Device:      stats.Name,
		Utilization: stats.Utilization,
		Temperature: stats.Temperature,
	}, nil
}

// IsAvailable reports whether the platform found GPU tooling at startup.
func (s *SMISource) IsAvailable() bool {
	return s.platform != nil && s.platform.HasGPUTooling()
}

// FallbackSource tries several sources of the same kind in order and returns
// the first successful reading.
type FallbackSource struct {
	name    string
	sources []Source
}

// NewFallbackSource keeps only the available members, in priority order.
// The result is itself unavailable when no member is.
func NewFallbackSource(name string, logger *zap.Logger, sources ...Source) *FallbackSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &FallbackSource{name: name}
	for _, s := range sources {
		if s.IsAvailable() {
			f.sources = append(f.sources, s)
			continue
		}
		logger.Debug("Fallback member not available",
			zap.String("source", name),
			zap.String("member", describe(s)))
		closeSource(s, logger)
	}
	return f
}

// Name returns the shared source identifier.
func (f *FallbackSource) Name() string { return f.name }

// Collect returns the first member reading that succeeds.
func (f *FallbackSource) Collect(ctx context.Context) (interface{}, error) {
	var errs []error
	for _, s := range f.sources {
		data, err := s.Collect(ctx)
		if err == nil {
			return data, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return nil, errors.New(errors.ErrSourceUnavailable)
	}
	return nil, stderrors.Join(errs...)
}

// IsAvailable reports whether at least one member is available.
func (f *FallbackSource) IsAvailable() bool { return len(f.sources) > 0 }

// Close closes every member that holds resources.
func (f *FallbackSource) Close() error {
	var errs []error
	for _, s := range f.sources {
		if c, ok := s.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return stderrors.Join(errs...)
}

func describe(s Source) string {
	if d, ok := s.(interface{ Describe() string }); ok {
		return d.Describe()
	}
	return s.Name()
}

func closeSource(s Source, logger *zap.Logger) {
	if c, ok := s.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Debug("Closing source failed", zap.String("source", describe(s)), zap.Error(err))
		}
	}
}
