//go:build linux || darwin

package autostart

import (
	"fmt"
	"os"
)

// CheckElevation verifies the process has root privileges when needed.
// Returns nil if mode is UserMode or if running as root.
func CheckElevation(mode Mode) error {
	if mode == UserMode {
		return nil
	}
	if os.Geteuid() != 0 {
		return fmt.Errorf("system-wide autostart requires root privileges\n\nRun with sudo, or install for the current user:\n  %s autostart install --user", os.Args[0])
	}
	return nil
}
