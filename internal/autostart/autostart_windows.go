//go:build windows

package autostart

import (
	"fmt"
	"time"

	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"
)

const (
	serviceName    = "InfoBoardAgent"
	serviceDisplay = "InfoBoard Agent"

	// stopWait bounds how long Uninstall waits for the agent to release the
	// serial port before deleting the service.
	stopWait = 10 * time.Second
	// recoveryReset is the failure-count reset period, in seconds.
	recoveryReset = 24 * 60 * 60
)

// scmManager installs the agent as an SCM service. Services are always
// system-wide on Windows, so Options.Mode is ignored.
type scmManager struct {
	description string
}

// New returns a Manager backed by the Windows Service Control Manager.
func New(opts Options) Manager {
	return &scmManager{description: description(opts.DeviceName)}
}

func (w *scmManager) ServiceName() string { return serviceName }

func (w *scmManager) IsInstalled() (bool, error) {
	installed := false
	err := withSCM(func(m *mgr.Mgr) error {
		s, err := m.OpenService(serviceName)
		if err != nil {
			return nil
		}
		installed = true
		return s.Close()
	})
	return installed, err
}

// Install creates an auto-start service that is restarted after a crash,
// then starts it. Start is delayed until the boot burst is over so the
// Bluetooth stack has bound its COM ports.
func (w *scmManager) Install(execPath string, args ...string) error {
	return withSCM(func(m *mgr.Mgr) error {
		if s, err := m.OpenService(serviceName); err == nil {
			s.Close()
			return fmt.Errorf("service %s already exists", serviceName)
		}

		s, err := m.CreateService(serviceName, execPath, mgr.Config{
			DisplayName:      serviceDisplay,
			Description:      w.description,
			StartType:        mgr.StartAutomatic,
			DelayedAutoStart: true,
		}, args...)
		if err != nil {
			return fmt.Errorf("creating service: %w", err)
		}
		defer s.Close()

		restart := mgr.RecoveryAction{Type: mgr.ServiceRestart, Delay: restartDelay}
		if err := s.SetRecoveryActions([]mgr.RecoveryAction{restart, restart, restart}, recoveryReset); err != nil {
			return fmt.Errorf("setting recovery actions: %w", err)
		}

		if err := s.Start(); err != nil {
			return fmt.Errorf("starting service: %w", err)
		}
		return nil
	})
}

// Uninstall stops the service, waits for it to exit, and deletes it.
func (w *scmManager) Uninstall() error {
	return withSCM(func(m *mgr.Mgr) error {
		s, err := m.OpenService(serviceName)
		if err != nil {
			return fmt.Errorf("service %s is not installed: %w", serviceName, err)
		}
		defer s.Close()

		if err := stopAndWait(s, stopWait); err != nil {
			return err
		}
		if err := s.Delete(); err != nil {
			return fmt.Errorf("deleting service: %w", err)
		}
		return nil
	})
}

func withSCM(fn func(m *mgr.Mgr) error) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connecting to SCM: %w", err)
	}
	defer m.Disconnect()
	return fn(m)
}

// stopAndWait asks a running service to stop and polls until it has.
func stopAndWait(s *mgr.Service, timeout time.Duration) error {
	status, err := s.Query()
	if err != nil {
		return fmt.Errorf("querying service: %w", err)
	}
	if status.State == svc.Stopped {
		return nil
	}
	if status.State != svc.StopPending {
		if status, err = s.Control(svc.Stop); err != nil {
			return fmt.Errorf("stopping service: %w", err)
		}
	}

	deadline := time.Now().Add(timeout)
	for status.State != svc.Stopped {
		if time.Now().After(deadline) {
			return fmt.Errorf("service %s did not stop within %s", serviceName, timeout)
		}
		time.Sleep(300 * time.Millisecond)
		if status, err = s.Query(); err != nil {
			return fmt.Errorf("querying service: %w", err)
		}
	}
	return nil
}
