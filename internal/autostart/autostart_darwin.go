//go:build darwin

package autostart

import (
	"fmt"
	"html"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const serviceLabel = "com.infoboard.agent"

const plistTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>com.infoboard.agent</string>
    <key>ProgramArguments</key>
    <array>
{programArguments}
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <true/>
    <key>ThrottleInterval</key>
    <integer>{throttle}</integer>
    <key>StandardOutPath</key>
    <string>{logDir}/infoboard-agent.stdout.log</string>
    <key>StandardErrorPath</key>
    <string>{logDir}/infoboard-agent.stderr.log</string>
</dict>
</plist>
`

type darwinManager struct {
	mode      Mode
	plistPath string
	logDir    string
}

// New returns a launchd Manager: a LaunchAgent in UserMode, otherwise a
// LaunchDaemon.
func New(opts Options) Manager {
	m := &darwinManager{mode: opts.Mode}
	if opts.Mode == UserMode {
		home, _ := os.UserHomeDir()
		m.plistPath = filepath.Join(home, "Library", "LaunchAgents", serviceLabel+".plist")
		m.logDir = filepath.Join(home, "Library", "Logs", "InfoBoard")
	} else {
		m.plistPath = filepath.Join("/Library/LaunchDaemons", serviceLabel+".plist")
		m.logDir = "/var/log"
	}
	return m
}

func (d *darwinManager) ServiceName() string { return serviceLabel }

func (d *darwinManager) IsInstalled() (bool, error) {
	_, err := os.Stat(d.plistPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking plist file: %w", err)
	}
	return true, nil
}

func (d *darwinManager) Install(execPath string, args ...string) error {
	for _, dir := range []string{d.logDir, filepath.Dir(d.plistPath)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(d.plistPath, []byte(renderPlist(d.logDir, execPath, args)), 0644); err != nil {
		return fmt.Errorf("creating plist: %w", err)
	}
	if err := exec.Command("launchctl", "load", "-w", d.plistPath).Run(); err != nil {
		return fmt.Errorf("loading plist: %w", err)
	}
	return nil
}

func (d *darwinManager) Uninstall() error {
	_ = exec.Command("launchctl", "unload", d.plistPath).Run()
	if err := os.Remove(d.plistPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing plist: %w", err)
	}
	return nil
}

func renderPlist(logDir, execPath string, args []string) string {
	var lines []string
	for _, a := range append([]string{execPath}, args...) {
		lines = append(lines, "        <string>"+html.EscapeString(a)+"</string>")
	}
	return strings.NewReplacer(
		"{programArguments}", strings.Join(lines, "\n"),
		"{logDir}", html.EscapeString(logDir),
		"{throttle}", strconv.Itoa(int(restartDelay.Seconds())),
	).Replace(plistTemplate)
}
