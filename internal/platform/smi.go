package platform

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const smiBinary = "nvidia-smi"

var smiQueryArgs = []string{
	"--query-gpu=name,utilization.gpu,temperature.gpu",
	"--format=csv,noheader,nounits",
}

// smiAvailable reports whether nvidia-smi is on PATH.
func smiAvailable() bool {
	_, err := exec.LookPath(smiBinary)
	return err == nil
}

// querySMI runs nvidia-smi and parses the first GPU line.
func querySMI(ctx context.Context) (*GPUStats, error) {
	output, err := exec.CommandContext(ctx, smiBinary, smiQueryArgs...).Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", smiBinary, err)
	}
	return parseSMIOutput(string(output))
}

// parseSMIOutput parses "name, util, temp" CSV as printed by nvidia-smi.
// Fields reported as "[N/A]" or "[Not Supported]" are treated as missing.
func parseSMIOutput(output string) (*GPUStats, error) {
	line, _, _ := strings.Cut(strings.TrimSpace(output), "\n")
	fields := strings.Split(line, ",")
	if len(fields) != 3 {
		return nil, fmt.Errorf("unexpected %s output %q", smiBinary, line)
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	util, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return nil, fmt.Errorf("parse utilization %q: %w", fields[1], err)
	}

	stats := &GPUStats{Name: fields[0], Utilization: util}
	if temp, err := strconv.ParseFloat(fields[2], 64); err == nil {
		stats.Temperature = &temp
	}
	return stats, nil
}
