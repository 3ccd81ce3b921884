//go:build linux

package autostart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderUnit(t *testing.T) {
	system := renderUnit(SystemMode, description("Desk Board"), "/usr/local/bin/infoboard-agent", []string{"run", "--port", "/dev/rfcomm0"})
	assert.Contains(t, system, "Description=Streams CPU, GPU and RAM telemetry to Desk Board over serial\n")
	assert.Contains(t, system, "ExecStart=/usr/local/bin/infoboard-agent run --port /dev/rfcomm0\n")
	assert.Contains(t, system, "RestartSec=10\n")
	assert.Contains(t, system, "WantedBy=multi-user.target\n")

	user := renderUnit(UserMode, description(""), "/usr/local/bin/infoboard-agent", nil)
	assert.Contains(t, user, "ExecStart=/usr/local/bin/infoboard-agent\n")
	assert.Contains(t, user, "WantedBy=default.target\n")
}

func TestNew_UnitPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	user := New(Options{Mode: UserMode}).(*linuxManager)
	assert.Equal(t, "/home/tester/.config/systemd/user/infoboard-agent.service", user.unitPath)

	system := New(Options{DeviceName: "ESP32-InfoBoard"}).(*linuxManager)
	assert.Equal(t, "/etc/systemd/system/infoboard-agent.service", system.unitPath)
	assert.Equal(t, "infoboard-agent", system.ServiceName())
	assert.Contains(t, system.description, "ESP32-InfoBoard")
}

func TestCheckElevation_UserModeNeedsNothing(t *testing.T) {
	assert.NoError(t, CheckElevation(UserMode))
}
