package sampler

import (
	"github.com/h3platform/pciemon/internal/errors"
	"github.com/h3platform/pciemon/internal/linkutil"
	"github.com/h3platform/pciemon/internal/logger"
	"github.com/h3platform/pciemon/internal/pciesw"
	"github.com/h3platform/pciemon/internal/topology"
)

const ErrSequence = errors.ErrorCode("sampler_sequence_violation")

type windowState int

const (
	windowIdle windowState = iota
	windowStarted
	windowStopped
)

// measurementWindow brackets one tick's counter reads: start across every
// active device, one shared sleep, stop across every active device, then
// per-port reads. Reads are only legal once the window is stopped, which
// rules out the sequence-violation class of library errors by construction.
type measurementWindow struct {
	lib     pciesw.Library
	devices []topology.ActiveDevice
	state   windowState
}

func newWindow(lib pciesw.Library, devices []topology.ActiveDevice) *measurementWindow {
	return &measurementWindow{lib: lib, devices: devices}
}

// start opens the window on every active device. Per-device failures are
// non-fatal: the device simply contributes no samples this tick.
func (w *measurementWindow) start() error {
	if w.state != windowIdle {
		return errors.New().New(ErrSequence)
	}

	for _, d := range w.devices {
		if err := w.lib.StartMeasurement(d.Device); err != nil {
			logger.Debug().Err(err).Int("device", d.Index).Msg("Failed to start measurement")
		}
	}
	w.state = windowStarted

	return nil
}

func (w *measurementWindow) stop() error {
	if w.state != windowStarted {
		return errors.New().New(ErrSequence)
	}

	for _, d := range w.devices {
		if err := w.lib.StopMeasurement(d.Device); err != nil {
			logger.Debug().Err(err).Int("device", d.Index).Msg("Failed to stop measurement")
		}
	}
	w.state = windowStopped

	return nil
}

// read returns the calibrated window for one monitored port. When the
// library cannot calibrate, the raw byte counts and the measured interval
// are combined with the port's negotiated link through linkutil.
func (w *measurementWindow) read(entity topology.Entity) (pciesw.PerfCal, error) {
	if w.state != windowStopped {
		return pciesw.PerfCal{}, errors.New().New(ErrSequence)
	}

	cal, err := w.lib.CalibratedThroughput(entity.Device, entity.PortIndex)
	if err == nil {
		return cal, nil
	}
	if !pciesw.IsResult(err, pciesw.Unsupported) {
		return pciesw.PerfCal{}, err
	}

	return w.calibrate(entity)
}

func (w *measurementWindow) calibrate(entity topology.Entity) (pciesw.PerfCal, error) {
	tp, err := w.lib.Throughput(entity.Device, entity.PortIndex)
	if err != nil {
		return pciesw.PerfCal{}, err
	}

	intervalMs, err := w.lib.MeasuredInterval(entity.Device)
	if err != nil {
		return pciesw.PerfCal{}, err
	}

	rxUtil, err := linkutil.UtilizationPercent(tp.RxBytes, intervalMs, entity.Link.Gen, entity.Link.Width)
	if err != nil {
		return pciesw.PerfCal{}, err
	}
	txUtil, err := linkutil.UtilizationPercent(tp.TxBytes, intervalMs, entity.Link.Gen, entity.Link.Width)
	if err != nil {
		return pciesw.PerfCal{}, err
	}

	return pciesw.PerfCal{
		IntervalMs:    intervalMs,
		RxBytes:       tp.RxBytes,
		TxBytes:       tp.TxBytes,
		RxBps:         linkutil.Rate(tp.RxBytes, intervalMs),
		TxBps:         linkutil.Rate(tp.TxBytes, intervalMs),
		RxUtilization: rxUtil,
		TxUtilization: txUtil,
	}, nil
}
