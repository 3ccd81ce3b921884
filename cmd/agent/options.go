package main

import (
	"path/filepath"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/Guliveer/infoboard/agent/internal/config"
)

// options holds the flags shared by every subcommand.
type options struct {
	ConfigPath string
	Port       string
	DeviceName string
	BaudRate   int
	LogLevel   string
	LogFile    string
}

// AddFlags registers the shared flags on flagSet.
func (o *options) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&o.ConfigPath, "config", "c", "", "Path to configuration file (default: search standard locations)")
	flagSet.StringVarP(&o.Port, "port", "p", "", "Serial port to use instead of auto-discovery, e.g. COM7 or /dev/rfcomm0")
	flagSet.StringVar(&o.DeviceName, "device-name", "", "Device name to prefer during discovery")
	flagSet.IntVarP(&o.BaudRate, "baud", "b", 0, "Serial baud rate")
	flagSet.StringVar(&o.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flagSet.StringVar(&o.LogFile, "log-file", "", "JSON log file path; empty disables file logging")
}

// overrides converts the flags into config overrides. Only flags the user
// actually set take part, so an explicit empty --log-file disables the file.
func (o *options) overrides(flagSet *pflag.FlagSet) config.CLIOverrides {
	cli := config.CLIOverrides{
		Port:       o.Port,
		DeviceName: o.DeviceName,
		BaudRate:   o.BaudRate,
		LogLevel:   o.LogLevel,
	}
	if flagSet.Changed("log-file") {
		logFile := o.LogFile
		cli.LogFile = &logFile
	}
	return cli
}

// load builds and validates the layered configuration.
func (o *options) load(flagSet *pflag.FlagSet) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flagSet.Changed("config") {
		cfg, err = config.LoadLayered(o.overrides(flagSet), embeddedConfig, o.ConfigPath)
	} else {
		cfg, err = config.LoadLayered(o.overrides(flagSet), embeddedConfig)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// serviceArgs returns the command line an installed service should run with:
// "run" plus every shared flag the user set, with the config path made
// absolute.
func (o *options) serviceArgs(flagSet *pflag.FlagSet) ([]string, error) {
	args := []string{"run"}
	if flagSet.Changed("config") {
		abs, err := filepath.Abs(o.ConfigPath)
		if err != nil {
			return nil, err
		}
		args = append(args, "--config", abs)
	}
	if flagSet.Changed("port") {
		args = append(args, "--port", o.Port)
	}
	if flagSet.Changed("device-name") {
		args = append(args, "--device-name", o.DeviceName)
	}
	if flagSet.Changed("baud") {
		args = append(args, "--baud", strconv.Itoa(o.BaudRate))
	}
	if flagSet.Changed("log-level") {
		args = append(args, "--log-level", o.LogLevel)
	}
	if flagSet.Changed("log-file") {
		args = append(args, "--log-file", o.LogFile)
	}
	return args, nil
}
