// Package main is the entry point for the InfoBoard agent.
// It loads configuration, sets up the metric sources and the serial link,
// and streams snapshots to the board either as a Windows service or as a
// foreground process.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Guliveer/infoboard/agent/internal/agent"
	"github.com/Guliveer/infoboard/agent/internal/collector"
	"github.com/Guliveer/infoboard/agent/internal/config"
	"github.com/Guliveer/infoboard/agent/internal/locator"
	"github.com/Guliveer/infoboard/agent/internal/platform"
	"github.com/Guliveer/infoboard/agent/internal/serialport"
	"github.com/Guliveer/infoboard/agent/internal/service"
	"github.com/Guliveer/infoboard/agent/internal/transport"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Stream telemetry to the board (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMain(cmd, opts)
		},
	}

	root := &cobra.Command{
		Use:          "infoboard-agent",
		Short:        "Streams CPU, GPU and RAM telemetry to an InfoBoard display over serial",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runCmd.RunE,
	}
	opts.AddFlags(root.PersistentFlags())

	root.AddCommand(
		runCmd,
		newPortsCommand(opts),
		newConfigCommand(),
		newAutostartCommand(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "infoboard-agent %s\n", version)
			},
		},
	)
	return root
}

// runMain loads configuration and runs the link loop until interrupted.
func runMain(cmd *cobra.Command, opts *options) error {
	cfg, err := opts.load(cmd.Flags())
	if err != nil {
		return err
	}

	logger := initLogger(cfg)
	defer logger.Sync()

	logger.Info("Starting InfoBoard Agent",
		zap.String("version", version),
		zap.String("device", cfg.Device.Name),
		zap.Int("baud", cfg.Device.BaudRate))

	if service.IsWindowsService() {
		logger.Info("Running as Windows service")
		svc := service.New(logger, func(ctx context.Context) error {
			return runAgent(ctx, cfg, logger)
		})
		return svc.Run()
	}

	err = runAgent(context.Background(), cfg, logger)
	logger.Info("Agent stopped")
	return err
}

// runAgent wires the sources, the serial link and the loop. It blocks until
// ctx is cancelled or the process is signalled.
func runAgent(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	plat := platform.New()

	col := collector.New(cfg.Collection.SourceTimeout.Duration, logger.Named("collector"))
	col.Register(collector.NewCPUSource(cfg.Collection.CPUWindow.Duration))
	col.Register(collector.NewMemorySource())
	col.Register(collector.NewFallbackSource(collector.SourceGPU, logger.Named("collector"),
		collector.NewNVMLSource(logger.Named("nvml")),
		collector.NewSMISource(plat),
	))
	col.Register(collector.NewTemperatureSource(plat, logger.Named("collector")))
	defer col.Close()

	drv := serialport.NewSystem()
	tr := transport.New(drv, transport.Options{
		BaudRate:     cfg.Device.BaudRate,
		OpenTimeout:  cfg.Link.OpenTimeout.Duration,
		WriteTimeout: cfg.Link.WriteTimeout.Duration,
		ProbeTimeout: cfg.Link.ProbeTimeout.Duration,
	}, logger.Named("transport"))
	loc := locator.New(drv, tr, locator.Options{
		DeviceName:    cfg.Device.Name,
		Port:          cfg.Device.Port,
		FallbackPorts: cfg.Device.FallbackPorts,
	}, logger.Named("locator"))

	a := agent.New(loc, tr, col, agent.Options{
		Interval:          cfg.Collection.Interval.Duration,
		ReconnectInterval: cfg.Link.ReconnectInterval.Duration,
		IdleTimeout:       cfg.Link.IdleTimeout.Duration,
	}, logger.Named("agent"))

	// Handle OS signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("Received signal, shutting down",
				zap.String("signal", sig.String()))
			a.Stop()
		case <-ctx.Done():
		}
	}()

	logger.Info("Agent running",
		zap.Int("sources", len(col.Sources())),
		zap.String("platform", plat.Name()))
	return a.Run(ctx)
}
