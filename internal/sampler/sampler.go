// Package sampler drives the monitoring session: one measurement window
// and one published sample per monitored port per tick, repeated until the
// context is cancelled.
package sampler

import (
	"context"
	"fmt"
	"time"

	"github.com/h3platform/pciemon/internal/config"
	"github.com/h3platform/pciemon/internal/errors"
	"github.com/h3platform/pciemon/internal/linkutil"
	"github.com/h3platform/pciemon/internal/logger"
	"github.com/h3platform/pciemon/internal/pciesw"
	"github.com/h3platform/pciemon/internal/telemetry"
	"github.com/h3platform/pciemon/internal/topology"
)

type Config struct {
	Module   config.Module
	Interval time.Duration
}

// Sampler owns the resolved topology for the session. It is single
// threaded: all library calls within a tick are sequential, and the sleep
// between the start and stop brackets is the only blocking point.
type Sampler struct {
	lib    pciesw.Library
	sink   telemetry.Sink
	topo   *topology.Topology
	cfg    Config
	ticks  int
	values [telemetry.SampleWidth]float64
}

// New validates the session inputs. An empty topology never starts a loop.
func New(lib pciesw.Library, sink telemetry.Sink, topo *topology.Topology, cfg Config) (*Sampler, error) {
	errFactory := errors.New()

	if topo == nil || len(topo.Entities) == 0 {
		return nil, errFactory.New(errors.ErrNoMatch)
	}
	if cfg.Interval <= 0 {
		return nil, errFactory.WithData(errors.ErrInvalidInterval, cfg.Interval)
	}
	if !cfg.Module.IsValid() {
		return nil, errFactory.WithData(errors.ErrInvalidModule, cfg.Module.String())
	}

	return &Sampler{lib: lib, sink: sink, topo: topo, cfg: cfg}, nil
}

// Run samples until ctx is cancelled. Cancellation latency is bounded by a
// single tick because the sleep step selects on ctx.
func (s *Sampler) Run(ctx context.Context) error {
	logger.Info().
		Int("ports", len(s.topo.Entities)).
		Int("devices", len(s.topo.ActiveDevices)).
		Str("module", s.cfg.Module.String()).
		Dur("interval", s.cfg.Interval).
		Msg("Monitoring started")

	for {
		var err error
		if s.cfg.Module == config.ModuleError {
			err = s.errorTick(ctx)
		} else {
			err = s.throughputTick(ctx)
		}

		if err != nil {
			fmt.Println()
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		s.ticks++
		s.display()
	}
}

// throughputTick runs one start-all / sleep / stop-all bracket and reads
// the calibrated window of every monitored port. A per-port read failure
// skips that port's publish and leaves its displayed values untouched.
func (s *Sampler) throughputTick(ctx context.Context) error {
	window := newWindow(s.lib, s.topo.ActiveDevices)

	if err := window.start(); err != nil {
		return err
	}
	if err := s.sleep(ctx); err != nil {
		return err
	}
	if err := window.stop(); err != nil {
		return err
	}

	for _, entity := range s.topo.Entities {
		cal, err := window.read(entity)
		if err != nil {
			logger.Debug().Err(err).
				Int("device", entity.DeviceIndex).
				Int("port_id", entity.PortID).
				Msg("Skipping port sample")
			continue
		}

		s.values[0] = linkutil.ToMiB(cal.RxBps)
		s.values[1] = linkutil.ToMiB(cal.TxBps)
		s.values[2] = cal.RxUtilization
		s.values[3] = cal.TxUtilization

		s.publish(entity)
	}

	return nil
}

// errorTick publishes the cumulative lifetime error counters of every
// monitored port. Counts are raw, not deltas.
func (s *Sampler) errorTick(ctx context.Context) error {
	if err := s.sleep(ctx); err != nil {
		return err
	}

	for _, entity := range s.topo.Entities {
		counters, err := s.lib.ErrorCounters(entity.Device, entity.PortIndex)
		if err != nil {
			logger.Debug().Err(err).
				Int("device", entity.DeviceIndex).
				Int("port_id", entity.PortID).
				Msg("Skipping port sample")
			continue
		}

		s.values[0] = float64(counters.BadTLP)
		s.values[1] = float64(counters.BadDLLP)
		s.values[2] = float64(counters.RxErrors)
		s.values[3] = float64(counters.RecoveryDiagnostics)

		s.publish(entity)
	}

	return nil
}

func (s *Sampler) publish(entity topology.Entity) {
	if err := s.sink.Publish(entity.Domain, entity.Counter, s.values[:]); err != nil {
		logger.Debug().Err(err).
			Int("port_id", entity.PortID).
			Msg("Failed to publish sample")
	}
}

func (s *Sampler) sleep(ctx context.Context) error {
	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// display updates the operator status line in place: current values when a
// single port is monitored, a running tick counter otherwise.
func (s *Sampler) display() {
	if len(s.topo.Entities) == 1 {
		fmt.Printf("\rSampled Port %d: %.2f %.2f %.2f %.2f          ",
			s.topo.Entities[0].PortID, s.values[0], s.values[1], s.values[2], s.values[3])
		return
	}

	fmt.Printf("\rSampling %d ports... [Iter: %d]          ", len(s.topo.Entities), s.ticks)
}
