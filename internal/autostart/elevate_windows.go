//go:build windows

package autostart

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

// CheckElevation verifies the process runs as Administrator. Services are
// always system-wide on Windows, so the mode is ignored.
func CheckElevation(Mode) error {
	var token windows.Token
	err := windows.OpenProcessToken(windows.CurrentProcess(), windows.TOKEN_QUERY, &token)
	if err != nil {
		return fmt.Errorf("cannot check elevation: %w", err)
	}
	defer token.Close()

	if !token.IsElevated() {
		return fmt.Errorf("installing the service requires Administrator privileges\n\nRight-click the terminal and 'Run as administrator', then:\n  %s autostart install", os.Args[0])
	}
	return nil
}
