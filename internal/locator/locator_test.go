package locator

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Guliveer/infoboard/agent/internal/serialport"
)

type fakeLister struct {
	ports []serialport.PortInfo
	err   error
}

func (f *fakeLister) List() ([]serialport.PortInfo, error) { return f.ports, f.err }

type fakeProber struct {
	openable map[string]bool
	probed   []string
}

func (f *fakeProber) Probe(_ context.Context, name string) error {
	f.probed = append(f.probed, name)
	if f.openable[name] {
		return nil
	}
	return stderrors.New("cannot open")
}

func openable(names ...string) *fakeProber {
	p := &fakeProber{openable: map[string]bool{}}
	for _, n := range names {
		p.openable[n] = true
	}
	return p
}

func TestMarkers(t *testing.T) {
	m := Markers("ESP32-InfoBoard")
	require.Len(t, m, 3)
	assert.Equal(t, []string{"esp32-infoboard", "esp32"}, m[0])
	assert.Contains(t, m[1], "rfcomm")
	assert.Contains(t, m[2], "cp210")

	assert.Equal(t, []string{"esp32"}, Markers("")[0])
	assert.Equal(t, []string{"esp32"}, Markers("ESP32")[0])
}

func TestClassify(t *testing.T) {
	l := New(&fakeLister{}, openable(), Options{DeviceName: "ESP32-InfoBoard", FallbackPorts: []string{}}, zap.NewNop())

	tests := []struct {
		name string
		port serialport.PortInfo
		want int
	}{
		{"device name in description", serialport.PortInfo{Name: "COM7", Description: "esp32-infoboard"}, 0},
		{"esp32 in port name", serialport.PortInfo{Name: "/dev/cu.ESP32-SerialPort"}, 0},
		{"bluetooth link", serialport.PortInfo{Name: "COM5", Description: "Standard Serial over Bluetooth link (COM5)"}, 1},
		{"rfcomm device", serialport.PortInfo{Name: "/dev/rfcomm0"}, 1},
		{"cp210x bridge", serialport.PortInfo{Name: "COM3", Description: "Silicon Labs CP210x USB to UART Bridge"}, 2},
		{"linux usb serial", serialport.PortInfo{Name: "/dev/ttyUSB0"}, 2},
		{"mac usbmodem", serialport.PortInfo{Name: "/dev/cu.usbmodem1101"}, 2},
		{"first group wins", serialport.PortInfo{Name: "COM4", Description: "ESP32 CH340"}, 0},
		{"unrelated", serialport.PortInfo{Name: "COM1", Description: "Communications Port"}, Unranked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, l.Classify(tt.port))
		})
	}
}

func TestRank_StableWithinGroup(t *testing.T) {
	l := New(&fakeLister{}, openable(), Options{DeviceName: "ESP32-InfoBoard"}, zap.NewNop())

	ranked := l.Rank([]serialport.PortInfo{
		{Name: "/dev/ttyUSB1"},
		{Name: "/dev/ttyS0"},
		{Name: "/dev/rfcomm1"},
		{Name: "/dev/ttyUSB0"},
		{Name: "COM9", Description: "ESP32-InfoBoard"},
	})

	var names []string
	for _, c := range ranked {
		names = append(names, c.Port)
	}
	assert.Equal(t, []string{"COM9", "/dev/rfcomm1", "/dev/ttyUSB1", "/dev/ttyUSB0"}, names)
}

func TestLocate_FindsMatchRegardlessOfPosition(t *testing.T) {
	for pos := 0; pos < 4; pos++ {
		ports := []serialport.PortInfo{
			{Name: "COM1", Description: "Communications Port"},
			{Name: "COM2", Description: "Printer"},
			{Name: "COM3", Description: "Modem"},
		}
		target := serialport.PortInfo{Name: "COM7", Description: "Standard Serial over Bluetooth link"}
		ports = append(ports[:pos], append([]serialport.PortInfo{target}, ports[pos:]...)...)

		l := New(&fakeLister{ports: ports}, openable("COM7"), Options{FallbackPorts: []string{"COM99"}}, zap.NewNop())
		c, ok := l.Locate(context.Background())
		require.True(t, ok, "position %d", pos)
		assert.Equal(t, "COM7", c.Port)
		assert.Equal(t, 1, c.Rank)
	}
}

func TestLocate_NothingFound(t *testing.T) {
	prober := openable()
	l := New(&fakeLister{err: stderrors.New("enumeration unsupported")}, prober,
		Options{FallbackPorts: []string{"COM1", "COM2"}}, zap.NewNop())

	c, ok := l.Locate(context.Background())
	assert.False(t, ok)
	assert.Empty(t, c.Port)
	assert.Equal(t, []string{"COM1", "COM2"}, prober.probed)
}

func TestLocate_RankedBeforeFallback(t *testing.T) {
	prober := openable("COM3")
	l := New(&fakeLister{ports: []serialport.PortInfo{
		{Name: "COM8", Description: "USB-SERIAL CH340"},
		{Name: "COM5", Description: "Standard Serial over Bluetooth link"},
	}}, prober, Options{FallbackPorts: []string{"COM5", "COM3", "COM8"}}, zap.NewNop())

	c, ok := l.Locate(context.Background())
	require.True(t, ok)
	assert.Equal(t, "COM3", c.Port)
	assert.Equal(t, Unranked, c.Rank)
	// Bluetooth first, then USB serial, then fallbacks not yet probed.
	assert.Equal(t, []string{"COM5", "COM8", "COM3"}, prober.probed)
}

func TestLocate_FirstOpenableWins(t *testing.T) {
	prober := openable("/dev/rfcomm0", "/dev/ttyUSB0")
	l := New(&fakeLister{ports: []serialport.PortInfo{
		{Name: "/dev/ttyUSB0"},
		{Name: "/dev/rfcomm0"},
	}}, prober, Options{FallbackPorts: []string{"/dev/ttyACM0"}}, zap.NewNop())

	c, ok := l.Locate(context.Background())
	require.True(t, ok)
	assert.Equal(t, "/dev/rfcomm0", c.Port)
	assert.Equal(t, []string{"/dev/rfcomm0"}, prober.probed)
}

func TestLocate_ExplicitPortOnly(t *testing.T) {
	prober := openable("COM3")
	lister := &fakeLister{ports: []serialport.PortInfo{{Name: "COM3", Description: "ESP32"}}}

	l := New(lister, prober, Options{Port: "COM12", FallbackPorts: []string{"COM3"}}, zap.NewNop())
	_, ok := l.Locate(context.Background())
	assert.False(t, ok)
	assert.Equal(t, []string{"COM12"}, prober.probed)

	prober.openable["COM12"] = true
	c, ok := l.Locate(context.Background())
	require.True(t, ok)
	assert.Equal(t, "COM12", c.Port)
}

func TestLocate_CancelledContext(t *testing.T) {
	prober := openable("/dev/rfcomm0")
	l := New(&fakeLister{ports: []serialport.PortInfo{{Name: "/dev/rfcomm0"}}}, prober,
		Options{FallbackPorts: []string{"/dev/ttyUSB0"}}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := l.Locate(ctx)
	assert.False(t, ok)
	assert.Empty(t, prober.probed)
}
