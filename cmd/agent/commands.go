package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Guliveer/infoboard/agent/internal/autostart"
	"github.com/Guliveer/infoboard/agent/internal/config"
	"github.com/Guliveer/infoboard/agent/internal/locator"
	"github.com/Guliveer/infoboard/agent/internal/serialport"
)

// newPortsCommand lists enumerated serial ports and how discovery ranks them.
func newPortsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports and their discovery rank",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd.Flags())
			if err != nil {
				return err
			}
			drv := serialport.NewSystem()
			ports, err := drv.List()
			if err != nil {
				return err
			}
			loc := locator.New(drv, nil, locator.Options{DeviceName: cfg.Device.Name}, zap.NewNop())
			return printPorts(cmd.OutOrStdout(), loc, ports)
		},
	}
}

// printPorts writes one line per port; unranked ports show "-".
func printPorts(w io.Writer, loc *locator.Locator, ports []serialport.PortInfo) error {
	if len(ports) == 0 {
		_, err := fmt.Fprintln(w, "No serial ports found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PORT\tRANK\tDESCRIPTION")
	for _, p := range ports {
		rank := "-"
		if r := loc.Classify(p); r != locator.Unranked {
			rank = strconv.Itoa(r)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, rank, p.Description)
	}
	return tw.Flush()
}

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write a starter configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.WriteConfig(config.DefaultConfig(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	configCmd.AddCommand(initCmd)
	return configCmd
}

func newAutostartCommand(opts *options) *cobra.Command {
	var user bool
	mode := func() autostart.Mode {
		if user {
			return autostart.UserMode
		}
		return autostart.SystemMode
	}
	// manager builds the platform manager; the service description names the
	// configured board.
	manager := func(cmd *cobra.Command) (autostart.Manager, error) {
		if err := autostart.CheckElevation(mode()); err != nil {
			return nil, err
		}
		cfg, err := opts.load(cmd.Flags())
		if err != nil {
			return nil, err
		}
		return autostart.New(autostart.Options{Mode: mode(), DeviceName: cfg.Device.Name}), nil
	}

	autostartCmd := &cobra.Command{
		Use:   "autostart",
		Short: "Start the agent automatically with the system or user session",
	}
	autostartCmd.PersistentFlags().BoolVar(&user, "user", false, "Install for the current user instead of system-wide (Linux, macOS)")

	autostartCmd.AddCommand(
		&cobra.Command{
			Use:   "install",
			Short: "Register and start the agent with the platform service manager",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				exe, err := os.Executable()
				if err != nil {
					return err
				}
				runArgs, err := opts.serviceArgs(cmd.Flags())
				if err != nil {
					return err
				}
				m, err := manager(cmd)
				if err != nil {
					return err
				}
				if err := m.Install(exe, runArgs...); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Installed %s\n", m.ServiceName())
				return nil
			},
		},
		&cobra.Command{
			Use:   "uninstall",
			Short: "Stop and remove the agent from the platform service manager",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := manager(cmd)
				if err != nil {
					return err
				}
				if err := m.Uninstall(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", m.ServiceName())
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Report whether autostart is installed",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m := autostart.New(autostart.Options{Mode: mode()})
				installed, err := m.IsInstalled()
				if err != nil {
					return err
				}
				state := "not installed"
				if installed {
					state = "installed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", m.ServiceName(), state)
				return nil
			},
		},
	)
	return autostartCmd
}
