// Package serialport adapts go.bug.st/serial to the small surface the link
// needs: enumerate ports with descriptor text, open at a baud rate, write,
// drain and close.
package serialport

import (
	"fmt"
	"io"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// PortInfo describes one enumerated serial port.
type PortInfo struct {
	Name        string // platform identifier, e.g. "COM7" or "/dev/rfcomm0"
	Description string // human-readable descriptor used for keyword matching
}

// Port is an open serial connection.
type Port interface {
	io.Writer
	// Drain blocks until all written bytes have been transmitted.
	Drain() error
	Close() error
}

// Driver enumerates and opens serial ports.
type Driver interface {
	List() ([]PortInfo, error)
	Open(name string, baudRate int) (Port, error)
}

// System is the Driver backed by the operating system's serial ports.
type System struct{}

// NewSystem returns the OS serial driver.
func NewSystem() *System { return &System{} }

// List returns all serial ports with their descriptor text. When the detailed
// enumerator is unsupported it falls back to bare port names.
func (System) List() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err == nil {
		ports := make([]PortInfo, 0, len(details))
		for _, d := range details {
			ports = append(ports, PortInfo{Name: d.Name, Description: Describe(d)})
		}
		return ports, nil
	}

	names, listErr := serial.GetPortsList()
	if listErr != nil {
		return nil, fmt.Errorf("list serial ports: %w", listErr)
	}
	ports := make([]PortInfo, 0, len(names))
	for _, n := range names {
		ports = append(ports, PortInfo{Name: n})
	}
	return ports, nil
}

// Open opens a port in 8N1 mode at the given baud rate.
func (System) Open(name string, baudRate int) (Port, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}
	return port, nil
}

// Describe builds the descriptor text for enumerated port details, e.g.
// "Standard Serial over Bluetooth link USB VID:PID=10C4:EA60 SER=0001".
func Describe(d *enumerator.PortDetails) string {
	var parts []string
	if d.Product != "" {
		parts = append(parts, d.Product)
	}
	if d.IsUSB {
		parts = append(parts, fmt.Sprintf("USB VID:PID=%s:%s", strings.ToUpper(d.VID), strings.ToUpper(d.PID)))
		if d.SerialNumber != "" {
			parts = append(parts, "SER="+d.SerialNumber)
		}
	}
	return strings.Join(parts, " ")
}
