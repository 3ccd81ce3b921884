// Package autostart registers the agent to start with the system or with the
// user session, using the platform's native service manager.
package autostart

import (
	"fmt"
	"strings"
	"time"
)

// Mode determines whether the service is installed system-wide or per-user.
type Mode int

const (
	SystemMode Mode = iota // System-wide service (requires root/admin)
	UserMode               // Per-user service/agent
)

// Options describes the service to install.
type Options struct {
	Mode Mode
	// DeviceName is the board the agent streams to; it appears in the
	// service description.
	DeviceName string
}

// restartDelay is how long the service manager waits before restarting an
// agent that exited.
const restartDelay = 10 * time.Second

// description is the human-readable service description.
func description(deviceName string) string {
	if deviceName == "" {
		deviceName = "the InfoBoard display"
	}
	return fmt.Sprintf("Streams CPU, GPU and RAM telemetry to %s over serial", deviceName)
}

// Manager provides platform-specific autostart installation.
type Manager interface {
	IsInstalled() (bool, error)
	// Install registers execPath to run with args and starts it.
	Install(execPath string, args ...string) error
	Uninstall() error
	ServiceName() string
}

// commandLine joins a program and its arguments, quoting any that contain
// spaces.
func commandLine(execPath string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	for _, a := range append([]string{execPath}, args...) {
		if strings.ContainsAny(a, " \t") {
			a = `"` + a + `"`
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}
