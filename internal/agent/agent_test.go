package agent

import (
	"context"
	stderrors "errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Guliveer/infoboard/agent/internal/collector"
	"github.com/Guliveer/infoboard/agent/internal/locator"
	"github.com/Guliveer/infoboard/agent/internal/models"
	"github.com/Guliveer/infoboard/agent/internal/serialport"
	"github.com/Guliveer/infoboard/agent/internal/transport"
	"github.com/Guliveer/infoboard/agent/internal/wire"
)

// --- serial fakes for the end-to-end run ---

type recordingPort struct {
	mu     sync.Mutex
	frames []string
}

func (p *recordingPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, string(b))
	return len(b), nil
}

func (p *recordingPort) Drain() error { return nil }
func (p *recordingPort) Close() error { return nil }

// flakyDriver fails the first failures opens of the board port.
type flakyDriver struct {
	mu       sync.Mutex
	ports    []serialport.PortInfo
	board    string
	failures int
	port     *recordingPort
}

func (d *flakyDriver) List() ([]serialport.PortInfo, error) { return d.ports, nil }

func (d *flakyDriver) Open(name string, _ int) (serialport.Port, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if name != d.board {
		return nil, stderrors.New("no device")
	}
	if d.failures > 0 {
		d.failures--
		return nil, stderrors.New("device busy")
	}
	return d.port, nil
}

type staticSource struct {
	name string
	data interface{}
}

func (s staticSource) Name() string                                 { return s.name }
func (s staticSource) Collect(context.Context) (interface{}, error) { return s.data, nil }
func (s staticSource) IsAvailable() bool                            { return true }

// --- in-package fakes for loop behaviour ---

type fakeLocator struct {
	mu    sync.Mutex
	calls int
	found bool
}

func (l *fakeLocator) Locate(context.Context) (locator.Candidate, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if !l.found {
		return locator.Candidate{}, false
	}
	return locator.Candidate{Port: "COM7"}, true
}

type fakeTransport struct {
	mu         sync.Mutex
	connected  bool
	opens      int
	closes     int
	writes     int
	failWrites int
	idle       time.Duration
}

func (t *fakeTransport) Open(context.Context, string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.opens++
	t.connected = true
	t.idle = 0
	return nil
}

func (t *fakeTransport) Write(context.Context, []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return stderrors.New("not connected")
	}
	t.writes++
	if t.failWrites > 0 {
		t.failWrites--
		t.connected = false
		return stderrors.New("write failed")
	}
	return nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closes++
	t.connected = false
	return nil
}

func (t *fakeTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

func (t *fakeTransport) Idle() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.idle
}

func (t *fakeTransport) Endpoint() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return ""
	}
	return "COM7"
}

func (t *fakeTransport) LastActivity() time.Time { return time.Time{} }

// stoppingLocator finds the board but calls stop while doing so.
type stoppingLocator struct {
	stop func()
}

func (l stoppingLocator) Locate(context.Context) (locator.Candidate, bool) {
	l.stop()
	return locator.Candidate{Port: "COM7"}, true
}

type fixedCollector struct{}

func (fixedCollector) Collect(context.Context) models.SystemSnapshot {
	return models.SystemSnapshot{CapturedAt: time.Now(), CPUUsage: 10, RAMUsage: 20}
}

var testOptions = Options{
	Interval:          2 * time.Second,
	ReconnectInterval: 5 * time.Second,
	IdleTimeout:       30 * time.Second,
}

// fakeSleeps makes every wait return at once and records its duration. The
// agent is stopped during the ticks-th wait for the send interval.
func fakeSleeps(a *Agent, ticks int, onWait func(time.Duration)) *[]time.Duration {
	var slept []time.Duration
	a.after = func(d time.Duration) <-chan time.Time {
		slept = append(slept, d)
		if onWait != nil {
			onWait(d)
		}
		if d == a.opts.Interval {
			ticks--
			if ticks == 0 {
				a.Stop()
				return make(chan time.Time)
			}
		}
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}
	return &slept
}

var timestampField = regexp.MustCompile(`"timestamp":"[^"]*"`)

func TestRun_EndToEnd(t *testing.T) {
	port := &recordingPort{}
	drv := &flakyDriver{
		ports: []serialport.PortInfo{
			{Name: "COM3", Description: "Communications Port"},
			{Name: "COM7", Description: "ESP32-InfoBoard"},
		},
		board:    "COM7",
		failures: 2,
		port:     port,
	}

	logger := zap.NewNop()
	tr := transport.New(drv, transport.Options{
		BaudRate:     115200,
		OpenTimeout:  time.Second,
		WriteTimeout: time.Second,
		ProbeTimeout: time.Second,
	}, logger)
	loc := locator.New(drv, tr, locator.Options{
		DeviceName:    "ESP32-InfoBoard",
		FallbackPorts: []string{"COM1"},
	}, logger)

	col := collector.New(time.Second, logger)
	col.Register(staticSource{name: collector.SourceCPU, data: collector.CPUResult{Overall: 42.35}})
	col.Register(staticSource{name: collector.SourceMemory, data: collector.MemoryResult{
		UsedPercent: 55.0,
		Total:       16 << 30,
		Used:        9448928051, // 8.8 GiB
	}})

	a := New(loc, tr, col, testOptions, logger)
	slept := fakeSleeps(a, 3, nil)

	require.NoError(t, a.Run(context.Background()))

	assert.Equal(t, []time.Duration{
		5 * time.Second, 5 * time.Second,
		2 * time.Second, 2 * time.Second, 2 * time.Second,
	}, *slept)

	require.Len(t, port.frames, 3)
	want := `{"type":"system","timestamp":"-","cpu_usage":42.4,"gpu_usage":0.0,"ram_usage":55.0,"ram_total":16.0,"ram_used":8.8,"cpu_temp":"--","gpu_temp":"--"}` + "\n"
	for _, frame := range port.frames {
		assert.Equal(t, want, timestampField.ReplaceAllString(frame, `"timestamp":"-"`))

		decoded, err := wire.Decode([]byte(frame))
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), decoded.CapturedAt, time.Minute)
	}

	assert.Equal(t, transport.Disconnected, tr.State(), "Run releases the port")
}

func TestRun_StopBeforeRun(t *testing.T) {
	loc := &fakeLocator{found: true}
	tr := &fakeTransport{}
	a := New(loc, tr, fixedCollector{}, testOptions, zap.NewNop())

	a.Stop()
	a.Stop()

	require.NoError(t, a.Run(context.Background()))
	assert.Zero(t, loc.calls)
	assert.Zero(t, tr.opens)
}

func TestRun_StopDuringLocateSendsNothing(t *testing.T) {
	tr := &fakeTransport{}
	var a *Agent
	a = New(stoppingLocator{stop: func() { a.Stop() }}, tr, fixedCollector{}, testOptions, zap.NewNop())
	fakeSleeps(a, 1, nil)

	require.NoError(t, a.Run(context.Background()))
	assert.Zero(t, tr.opens, "no port is opened after Stop")
	assert.Zero(t, tr.writes, "no frame is written after Stop")
}

func TestRun_NoEndpointBacksOff(t *testing.T) {
	loc := &fakeLocator{}
	tr := &fakeTransport{}
	a := New(loc, tr, fixedCollector{}, testOptions, zap.NewNop())

	attempts := 0
	a.after = func(d time.Duration) <-chan time.Time {
		assert.Equal(t, testOptions.ReconnectInterval, d)
		attempts++
		if attempts == 3 {
			a.Stop()
			return make(chan time.Time)
		}
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}

	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, 3, loc.calls)
	assert.Zero(t, tr.opens)
	assert.Zero(t, tr.writes, "nothing is sampled or sent without a connection")
}

func TestRun_WriteFailureReconnectsImmediately(t *testing.T) {
	loc := &fakeLocator{found: true}
	tr := &fakeTransport{failWrites: 1}
	a := New(loc, tr, fixedCollector{}, testOptions, zap.NewNop())
	slept := fakeSleeps(a, 1, nil)

	require.NoError(t, a.Run(context.Background()))

	assert.Equal(t, 2, tr.opens)
	assert.Equal(t, 2, tr.writes)
	assert.Equal(t, 2, loc.calls)
	assert.Equal(t, []time.Duration{2 * time.Second}, *slept, "no tick sleep after a failed write")
}

func TestRun_IdleConnectionIsDropped(t *testing.T) {
	loc := &fakeLocator{found: true}
	tr := &fakeTransport{}
	a := New(loc, tr, fixedCollector{}, testOptions, zap.NewNop())

	first := true
	fakeSleeps(a, 2, func(time.Duration) {
		if first {
			first = false
			tr.mu.Lock()
			tr.idle = time.Minute
			tr.mu.Unlock()
		}
	})

	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, 2, tr.opens)
	assert.Equal(t, 2, tr.writes)
}

func TestRun_StopWakesSleep(t *testing.T) {
	loc := &fakeLocator{}
	tr := &fakeTransport{}
	a := New(loc, tr, fixedCollector{}, Options{
		Interval:          time.Hour,
		ReconnectInterval: time.Hour,
	}, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		loc.mu.Lock()
		defer loc.mu.Unlock()
		return loc.calls == 1
	}, time.Second, 5*time.Millisecond)

	a.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestRun_ContextCancel(t *testing.T) {
	loc := &fakeLocator{found: true}
	tr := &fakeTransport{}
	a := New(loc, tr, fixedCollector{}, Options{
		Interval:          time.Hour,
		ReconnectInterval: time.Hour,
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		tr.mu.Lock()
		defer tr.mu.Unlock()
		return tr.writes == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, tr.IsConnected())
}
