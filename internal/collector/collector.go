package collector

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/infoboard/agent/internal/errors"
	"github.com/Guliveer/infoboard/agent/internal/models"
)

// Collector runs every registered source once per tick and assembles the
// readings into a SystemSnapshot. A failing, slow or absent source leaves its
// field at the default (0.0 usage, unknown temperature); Collect never fails.
type Collector struct {
	sources []Source
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a Collector that gives each source at most timeout per tick.
func New(timeout time.Duration, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Register adds a source if it's available on the current host.
// Unavailable sources are logged, released and skipped.
func (c *Collector) Register(s Source) {
	if !s.IsAvailable() {
		c.logger.Warn("Source not available, using default", zap.String("name", describe(s)))
		closeSource(s, c.logger)
		return
	}
	c.sources = append(c.sources, s)
	c.logger.Info("Registered source", zap.String("name", describe(s)))
}

// Sources returns a copy of all registered sources.
func (c *Collector) Sources() []Source {
	result := make([]Source, len(c.sources))
	copy(result, c.sources)
	return result
}

type sourceResult struct {
	name string
	data interface{}
	err  error
}

// Collect queries all sources concurrently and returns a complete snapshot.
// Sources still running when the deadline passes are abandoned.
func (c *Collector) Collect(ctx context.Context) models.SystemSnapshot {
	capturedAt := c.now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// Buffered so abandoned sources never block on send.
	results := make(chan sourceResult, len(c.sources))
	for _, s := range c.sources {
		go func(s Source) {
			results <- runSource(ctx, s)
		}(s)
	}

	readings := make(map[string]interface{}, len(c.sources))
	pending := make(map[string]bool, len(c.sources))
	for _, s := range c.sources {
		pending[s.Name()] = true
	}

wait:
	for range c.sources {
		select {
		case r := <-results:
			delete(pending, r.name)
			if r.err != nil {
				c.logger.Warn("Source failed, using default",
					zap.String("source", r.name),
					zap.Error(errors.Wrap(errors.ErrSourceUnavailable, r.err)))
				continue
			}
			readings[r.name] = r.data
		case <-ctx.Done():
			break wait
		}
	}
	for name := range pending {
		c.logger.Warn("Source timed out, using default",
			zap.String("source", name),
			zap.Duration("timeout", c.timeout))
	}

	return assemble(capturedAt, readings)
}

// Close releases sources that hold resources (e.g. NVML).
func (c *Collector) Close() error {
	var errs []error
	for _, s := range c.sources {
		if closer, ok := s.(io.Closer); ok {
			errs = append(errs, closer.Close())
		}
	}
	return stderrors.Join(errs...)
}

// runSource isolates a single source, turning a panic into an error.
func runSource(ctx context.Context, s Source) (r sourceResult) {
	r.name = s.Name()
	defer func() {
		if p := recover(); p != nil {
			r.data, r.err = nil, errors.Wrapf(errors.ErrInternal, fmt.Errorf("%v", p), "source %s panicked", r.name)
		}
	}()
	r.data, r.err = s.Collect(ctx)
	return r
}

// assemble maps source readings onto a snapshot, rounding as the wire format expects.
func assemble(capturedAt time.Time, readings map[string]interface{}) models.SystemSnapshot {
	snapshot := models.SystemSnapshot{CapturedAt: capturedAt}

	if cpu, ok := readings[SourceCPU].(CPUResult); ok {
		snapshot.CPUUsage = percent(cpu.Overall)
	}

	if mem, ok := readings[SourceMemory].(MemoryResult); ok {
		snapshot.RAMUsage = percent(mem.UsedPercent)
		snapshot.RAMTotal = models.BytesToGiB(mem.Total)
		snapshot.RAMUsed = models.BytesToGiB(mem.Used)
	}

	if gpu, ok := readings[SourceGPU].(GPUResult); ok {
		snapshot.GPUUsage = percent(gpu.Utilization)
		snapshot.GPUTemp = models.TemperatureFromPtr(gpu.Temperature)
	}

	if temp, ok := readings[SourceTemperature].(TemperatureResult); ok {
		snapshot.CPUTemp = models.TemperatureFromPtr(temp.CPUTemp)
		if !snapshot.GPUTemp.Known {
			snapshot.GPUTemp = models.TemperatureFromPtr(temp.GPUTemp)
		}
	}

	return snapshot
}

// percent clamps to 0–100 and rounds to one decimal. Readings that are not
// finite count as 0.
func percent(v float64) float64 {
	switch {
	case math.IsNaN(v), math.IsInf(v, 0), v < 0:
		return 0
	case v > 100:
		return 100
	}
	return models.Round1(v)
}
