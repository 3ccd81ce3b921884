package serialport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.bug.st/serial/enumerator"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		in   enumerator.PortDetails
		want string
	}{
		{"empty", enumerator.PortDetails{Name: "COM1"}, ""},
		{"product only", enumerator.PortDetails{Name: "COM7", Product: "Standard Serial over Bluetooth link"}, "Standard Serial over Bluetooth link"},
		{
			"usb bridge",
			enumerator.PortDetails{Name: "/dev/ttyUSB0", IsUSB: true, VID: "10c4", PID: "ea60", SerialNumber: "0001", Product: "CP2102 USB to UART Bridge Controller"},
			"CP2102 USB to UART Bridge Controller USB VID:PID=10C4:EA60 SER=0001",
		},
		{"usb without serial", enumerator.PortDetails{IsUSB: true, VID: "1a86", PID: "7523"}, "USB VID:PID=1A86:7523"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(&tt.in))
		})
	}
}
