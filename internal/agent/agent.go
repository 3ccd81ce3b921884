// Package agent drives the link: it finds the board, keeps one connection
// open and streams a snapshot over it every tick, reconnecting on failure.
// Nothing in the loop is fatal; it runs until stopped.
package agent

import (
	"bytes"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/infoboard/agent/internal/errors"
	"github.com/Guliveer/infoboard/agent/internal/locator"
	"github.com/Guliveer/infoboard/agent/internal/models"
	"github.com/Guliveer/infoboard/agent/internal/wire"
)

// Locator finds a port the board can be reached on.
type Locator interface {
	Locate(ctx context.Context) (locator.Candidate, bool)
}

// Transport is the connection the frames are written to.
type Transport interface {
	Open(ctx context.Context, name string) error
	Write(ctx context.Context, p []byte) error
	Close() error
	IsConnected() bool
	Idle() time.Duration
	Endpoint() string
	LastActivity() time.Time
}

// Collector samples the host.
type Collector interface {
	Collect(ctx context.Context) models.SystemSnapshot
}

// Options holds the loop timings.
type Options struct {
	Interval          time.Duration // pause between successful sends
	ReconnectInterval time.Duration // pause after a failed locate or open
	IdleTimeout       time.Duration // connection without activity for longer is dropped; 0 disables
}

// Agent is the link loop.
type Agent struct {
	locator   Locator
	transport Transport
	collector Collector
	opts      Options
	logger    *zap.Logger

	after func(time.Duration) <-chan time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates an Agent.
func New(loc Locator, tr Transport, col Collector, opts Options, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		locator:   loc,
		transport: tr,
		collector: col,
		opts:      opts,
		logger:    logger,
		after:     time.After,
		stop:      make(chan struct{}),
	}
}

// Run loops until ctx is cancelled or Stop is called, then releases the
// connection. It always returns nil; failures are logged and retried.
func (a *Agent) Run(ctx context.Context) error {
	defer a.transport.Close()

	a.logger.Info("Agent running",
		zap.Duration("interval", a.opts.Interval),
		zap.Duration("reconnect_interval", a.opts.ReconnectInterval))

	for {
		if a.stopped(ctx) {
			a.logger.Info("Agent stopping")
			return nil
		}

		if a.opts.IdleTimeout > 0 && a.transport.IsConnected() {
			if idle := a.transport.Idle(); idle > a.opts.IdleTimeout {
				a.logger.Warn("Connection idle, reconnecting",
					zap.String("port", a.transport.Endpoint()),
					zap.Duration("idle", idle),
					zap.Time("last_activity", a.transport.LastActivity()))
				a.transport.Close()
			}
		}

		if !a.transport.IsConnected() {
			if !a.connect(ctx) {
				if !a.wait(ctx, a.opts.ReconnectInterval) {
					return nil
				}
				continue
			}
			// Stop may have arrived while locating or opening.
			if a.stopped(ctx) {
				a.logger.Info("Agent stopping")
				return nil
			}
		}

		// A failed send has already dropped the connection; go straight
		// back to locating.
		if !a.send(ctx) {
			continue
		}
		if !a.wait(ctx, a.opts.Interval) {
			return nil
		}
	}
}

// Stop asks Run to return and releases the connection. It may be called
// from any goroutine, any number of times, before or during Run.
func (a *Agent) Stop() {
	a.stopOnce.Do(func() {
		close(a.stop)
		a.transport.Close()
	})
}

func (a *Agent) connect(ctx context.Context) bool {
	candidate, ok := a.locator.Locate(ctx)
	if !ok {
		a.logger.Debug("No endpoint located, retrying",
			zap.Duration("after", a.opts.ReconnectInterval),
			zap.Error(errors.New(errors.ErrEndpointNotFound)))
		return false
	}
	if a.stopped(ctx) {
		return false
	}
	if err := a.transport.Open(ctx, candidate.Port); err != nil {
		a.logger.Warn("Open failed, retrying",
			zap.String("port", candidate.Port),
			zap.Duration("after", a.opts.ReconnectInterval),
			zap.Error(err))
		return false
	}
	return true
}

// send collects one snapshot and writes it. It reports false when the write
// failed and the connection is gone.
func (a *Agent) send(ctx context.Context) bool {
	snapshot := a.collector.Collect(ctx)

	frame, err := wire.Encode(snapshot)
	if err != nil {
		a.logger.Error("Encoding snapshot failed", zap.Error(err))
		return true
	}

	endpoint := a.transport.Endpoint()
	if err := a.transport.Write(ctx, frame); err != nil {
		a.logger.Warn("Write failed, reconnecting",
			zap.String("port", endpoint),
			zap.String("code", string(errors.CodeOf(err))),
			zap.Bool("timeout", errors.HasCode(err, errors.ErrTimeout)),
			zap.Error(err))
		return false
	}

	a.logger.Info("Sent snapshot",
		zap.String("port", endpoint),
		zap.Float64("cpu", snapshot.CPUUsage),
		zap.Float64("gpu", snapshot.GPUUsage),
		zap.Float64("ram", snapshot.RAMUsage),
		zap.Stringer("cpu_temp", snapshot.CPUTemp))
	a.logger.Debug("Payload", zap.ByteString("frame", bytes.TrimSuffix(frame, []byte{wire.Delimiter})))
	return true
}

// wait sleeps for d. It reports false when woken by Stop or ctx.
func (a *Agent) wait(ctx context.Context, d time.Duration) bool {
	select {
	case <-a.after(d):
		return true
	case <-a.stop:
		return false
	case <-ctx.Done():
		return false
	}
}

func (a *Agent) stopped(ctx context.Context) bool {
	select {
	case <-a.stop:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
