//go:build !linux && !darwin && !windows

package autostart

import (
	"fmt"
	"runtime"
)

type unsupportedManager struct{}

// New returns a Manager that reports autostart as unsupported.
func New(Options) Manager { return unsupportedManager{} }

func (unsupportedManager) ServiceName() string { return "infoboard-agent" }

func (unsupportedManager) IsInstalled() (bool, error) { return false, nil }

func (unsupportedManager) Install(string, ...string) error {
	return fmt.Errorf("autostart is not supported on %s", runtime.GOOS)
}

func (unsupportedManager) Uninstall() error {
	return fmt.Errorf("autostart is not supported on %s", runtime.GOOS)
}

// CheckElevation has nothing to check where autostart is unsupported.
func CheckElevation(Mode) error { return nil }
