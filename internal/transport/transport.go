// Package transport owns the serial connection to the display board and
// implements its Disconnected → Connecting → Connected state machine.
// Every failure returns to Disconnected; nothing is terminal.
package transport

import (
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/infoboard/agent/internal/errors"
	"github.com/Guliveer/infoboard/agent/internal/serialport"
)

// Options configures port parameters and operation deadlines.
type Options struct {
	BaudRate     int
	OpenTimeout  time.Duration
	WriteTimeout time.Duration
	ProbeTimeout time.Duration
}

// Transport holds at most one open port. Writes are only attempted while
// Connected; any write error tears the port down. Methods are safe for
// concurrent use so Close can be called from a signal handler.
type Transport struct {
	driver serialport.Driver
	opts   Options
	logger *zap.Logger
	now    func() time.Time

	mu           sync.Mutex
	state        State
	port         serialport.Port
	endpoint     string
	lastActivity time.Time
}

// New creates a disconnected Transport.
func New(driver serialport.Driver, opts Options, logger *zap.Logger) *Transport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transport{
		driver: driver,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// Open connects to the named port. Opening the port that is already
// connected is a no-op; opening a different one releases the current port
// first. On failure the transport is Disconnected and the error carries
// ErrOpenFailure.
func (t *Transport) Open(ctx context.Context, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == Connected {
		if t.endpoint == name {
			return nil
		}
		t.closeLocked("switching endpoint")
	}

	t.state = Connecting
	t.logger.Debug("Opening port", zap.String("port", name), zap.Int("baud", t.opts.BaudRate))

	port, err := openBounded(ctx, t.driver, name, t.opts.BaudRate, t.opts.OpenTimeout)
	if err != nil {
		t.state = Disconnected
		return errors.Wrapf(errors.ErrOpenFailure, err, "open %s", name)
	}

	t.port = port
	t.endpoint = name
	t.state = Connected
	t.lastActivity = t.now()
	t.logger.Info("Connected", zap.String("port", name), zap.Int("baud", t.opts.BaudRate))
	return nil
}

// Write sends one frame and waits for it to drain. It is rejected without
// I/O unless Connected. Any I/O error, short write or timeout closes the
// port; the frame is not retried.
func (t *Transport) Write(ctx context.Context, p []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Connected {
		return errors.New(errors.ErrNotConnected)
	}

	if err := writeBounded(ctx, t.port, p, t.opts.WriteTimeout); err != nil {
		endpoint := t.endpoint
		t.closeLocked("write failed")
		return errors.Wrapf(errors.ErrWriteFailure, err, "write %s", endpoint)
	}
	t.lastActivity = t.now()
	return nil
}

// Probe checks that a port can be opened, then closes it again. It does not
// touch the transport's own connection.
func (t *Transport) Probe(ctx context.Context, name string) error {
	port, err := openBounded(ctx, t.driver, name, t.opts.BaudRate, t.opts.ProbeTimeout)
	if err != nil {
		return errors.Wrapf(errors.ErrOpenFailure, err, "probe %s", name)
	}
	if err := port.Close(); err != nil {
		t.logger.Debug("Closing probed port failed", zap.String("port", name), zap.Error(err))
	}
	return nil
}

// Close releases the port if one is held. Safe to call repeatedly.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeLocked("closed")
}

// IsConnected reports whether a port is held. It has no side effects.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == Connected
}

// State returns the current connection state.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Endpoint returns the connected port name, or "" when disconnected.
func (t *Transport) Endpoint() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.endpoint
}

// LastActivity returns when the connection was opened or last carried a frame.
func (t *Transport) LastActivity() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastActivity
}

// Idle returns how long a connected transport has gone without activity.
// It is zero when disconnected.
func (t *Transport) Idle() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Connected {
		return 0
	}
	return t.now().Sub(t.lastActivity)
}

// closeLocked releases the port and returns to Disconnected.
// Must be called with t.mu held.
func (t *Transport) closeLocked(reason string) error {
	t.state = Disconnected
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.logger.Info("Disconnected", zap.String("port", t.endpoint), zap.String("reason", reason))
	if err != nil {
		t.logger.Debug("Closing port failed", zap.String("port", t.endpoint), zap.Error(err))
	}
	t.port = nil
	t.endpoint = ""
	return err
}

// openBounded opens a port but gives up after timeout. A port that opens
// after the deadline is closed by the opening goroutine.
func openBounded(ctx context.Context, d serialport.Driver, name string, baud int, timeout time.Duration) (serialport.Port, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		port serialport.Port
		err  error
	}
	done := make(chan result, 1)
	go func() {
		port, err := d.Open(name, baud)
		done <- result{port, err}
	}()

	select {
	case r := <-done:
		return r.port, r.err
	case <-ctx.Done():
		go func() {
			if r := <-done; r.port != nil {
				r.port.Close()
			}
		}()
		return nil, errors.Wrap(errors.ErrTimeout, ctx.Err())
	}
}

// writeBounded writes and drains p within timeout. On timeout the write
// goroutine is left to finish against a port the caller is about to close.
func writeBounded(ctx context.Context, port serialport.Port, p []byte, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		n, err := port.Write(p)
		if err == nil && n < len(p) {
			err = io.ErrShortWrite
		}
		if err == nil {
			err = port.Drain()
		}
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return errors.Wrap(errors.ErrTimeout, ctx.Err())
	}
}
