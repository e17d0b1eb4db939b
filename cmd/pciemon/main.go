package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/h3platform/pciemon/internal/config"
	"github.com/h3platform/pciemon/internal/errors"
	"github.com/h3platform/pciemon/internal/logger"
	"github.com/h3platform/pciemon/internal/pciesw"
	"github.com/h3platform/pciemon/internal/pid"
	"github.com/h3platform/pciemon/internal/sampler"
	"github.com/h3platform/pciemon/internal/telemetry"
	"github.com/h3platform/pciemon/internal/topology"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, logger.IsService()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug().Msg("Config loaded")

	if err := pid.Write(); err != nil {
		logger.FatalWithCode(asCoded(err)).Msg("failed to write PID file")
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Error().Err(err).Msg("failed to remove PID file")
		}
	}()

	lib, err := newLibrary(cfg)
	if err != nil {
		logger.FatalWithCode(asCoded(err)).Msg("failed to open switch library")
	}

	sink, err := newSink(cfg)
	if err != nil {
		logger.FatalWithCode(asCoded(err)).Msg("failed to open telemetry sink")
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close telemetry sink")
		}
	}()

	topo, err := topology.Resolve(lib, sink, topology.Options{
		Device: cfg.Device,
		Ports:  cfg.Ports,
		Module: cfg.Module,
	})
	if err != nil {
		logger.FatalWithCode(asCoded(err)).Msg("failed to resolve topology")
	}

	loop, err := sampler.New(lib, sink, topo, sampler.Config{
		Module:   cfg.Module,
		Interval: time.Duration(cfg.Interval) * time.Millisecond,
	})
	if err != nil {
		logger.FatalWithCode(asCoded(err)).Msg("failed to start sampler")
	}

	fmt.Printf("Monitoring %d ports across %d devices. Module: %s, Interval: %d ms\n",
		len(topo.Entities), len(topo.ActiveDevices), cfg.Module, cfg.Interval)
	fmt.Println("Press Ctrl+C to stop.")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := loop.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
		os.Exit(1)
	}
	logger.Info().Msg("Exiting...")
}

func newLibrary(cfg *config.Config) (pciesw.Library, error) {
	if cfg.Simulate {
		logger.Info().Msg("Using simulated switch topology")
		return pciesw.Simulated(), nil
	}

	return pciesw.New()
}

func newSink(cfg *config.Config) (telemetry.Sink, error) {
	if !cfg.Telemetry {
		return telemetry.NewNoop(), nil
	}

	sinkCfg := telemetry.DefaultConfig()
	if cfg.TelemetryDB != "" {
		sinkCfg.DBPath = cfg.TelemetryDB
	}

	return telemetry.NewRepository(sinkCfg)
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

// asCoded ensures an error carries a code before it reaches the coded log
// helpers.
func asCoded(err error) errors.Error {
	var coded errors.Error
	if errors.As(err, &coded) {
		return coded
	}

	return errors.New().Wrap(errors.ErrInternal, err)
}
