//go:build linux

package autostart

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const serviceName = "infoboard-agent"

// unitTemplate is the systemd unit file written during installation.
// The {placeholders} are substituted at install time.
const unitTemplate = `[Unit]
Description={description}
After=bluetooth.target

[Service]
Type=simple
ExecStart={execStart}
Restart=always
RestartSec={restartSec}
StandardOutput=journal
StandardError=journal
SyslogIdentifier=infoboard-agent

[Install]
WantedBy={wantedBy}
`

// linuxManager implements Manager for Linux using systemd.
type linuxManager struct {
	mode        Mode
	description string
	unitPath    string
}

// New returns a systemd Manager. UserMode installs a user unit so the agent
// runs in the login session with the user's serial port permissions.
func New(opts Options) Manager {
	m := &linuxManager{mode: opts.Mode, description: description(opts.DeviceName)}
	if opts.Mode == UserMode {
		home, _ := os.UserHomeDir()
		m.unitPath = filepath.Join(home, ".config", "systemd", "user", serviceName+".service")
	} else {
		m.unitPath = filepath.Join("/etc/systemd/system", serviceName+".service")
	}
	return m
}

// ServiceName returns the systemd service name.
func (l *linuxManager) ServiceName() string { return serviceName }

// IsInstalled checks whether the systemd unit file exists.
func (l *linuxManager) IsInstalled() (bool, error) {
	_, err := os.Stat(l.unitPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking unit file: %w", err)
	}
	return true, nil
}

// Install writes the unit file, reloads the daemon, enables and starts the service.
func (l *linuxManager) Install(execPath string, args ...string) error {
	if err := os.MkdirAll(filepath.Dir(l.unitPath), 0755); err != nil {
		return fmt.Errorf("creating unit directory: %w", err)
	}
	if err := os.WriteFile(l.unitPath, []byte(renderUnit(l.mode, l.description, execPath, args)), 0644); err != nil {
		return fmt.Errorf("writing unit file: %w", err)
	}

	for _, cmd := range [][]string{
		{"daemon-reload"},
		{"enable", serviceName},
		{"start", serviceName},
	} {
		if err := l.systemctl(cmd...); err != nil {
			return err
		}
	}
	return nil
}

// Uninstall stops, disables, and removes the systemd service.
func (l *linuxManager) Uninstall() error {
	// Best-effort stop and disable; ignore errors if the service is already inactive.
	_ = l.systemctl("stop", serviceName)
	_ = l.systemctl("disable", serviceName)

	if err := os.Remove(l.unitPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing unit file: %w", err)
	}

	_ = l.systemctl("daemon-reload")
	return nil
}

func (l *linuxManager) systemctl(args ...string) error {
	if l.mode == UserMode {
		args = append([]string{"--user"}, args...)
	}
	if err := exec.Command("systemctl", args...).Run(); err != nil {
		return fmt.Errorf("running systemctl %s: %w", strings.Join(args, " "), err)
	}
	return nil
}

func renderUnit(mode Mode, desc, execPath string, args []string) string {
	wantedBy := "multi-user.target"
	if mode == UserMode {
		wantedBy = "default.target"
	}
	return strings.NewReplacer(
		"{description}", desc,
		"{restartSec}", strconv.Itoa(int(restartDelay.Seconds())),
		"{execStart}", commandLine(execPath, args),
		"{wantedBy}", wantedBy,
	).Replace(unitTemplate)
}
