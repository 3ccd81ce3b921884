//go:build !windows && !linux

package locator

func defaultFallbackPorts() []string { return nil }
