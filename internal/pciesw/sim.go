package pciesw

import (
	"sync"
	"time"

	"github.com/h3platform/pciemon/internal/linkutil"
)

// SimPort configures one port of a simulated switch.
type SimPort struct {
	Info     PortInfo
	Attached *AttachedDevice

	// Sustained load as a fraction of link capacity, used to synthesize
	// window byte counts when no fixed counts are set.
	RxLoad float64
	TxLoad float64

	// Fixed per-window byte counts. When nonzero they override the load
	// model, which keeps fixture arithmetic exact.
	FixedRx uint64
	FixedTx uint64

	// Failure injection: the corresponding reads fail with Unknown.
	FailInfo       bool
	FailThroughput bool
	FailErrors     bool

	errs PortErrors
}

// SimDevice is one simulated switch with its ports.
type SimDevice struct {
	Prop  DeviceProp
	Ports []*SimPort

	// FixedIntervalMs pins the measured window length instead of deriving
	// it from the wall clock.
	FixedIntervalMs uint64

	initialized bool
	started     bool
	windowValid bool
	startedAt   time.Time
	intervalMs  uint64
}

// Sim is an in-memory Library implementation. It honors the measurement
// bracket protocol, so it doubles as the fixture for loop and topology
// tests.
type Sim struct {
	mu      sync.Mutex
	devices []*SimDevice
}

var _ Library = (*Sim)(nil)

func NewSim(devices ...*SimDevice) *Sim {
	return &Sim{devices: devices}
}

// SimDevice returns the underlying fixture device for test adjustments.
func (s *Sim) SimDevice(index int) *SimDevice {
	return s.devices[index]
}

func (s *Sim) device(dev Device) (*SimDevice, error) {
	if int(dev) < 0 || int(dev) >= len(s.devices) {
		return nil, newResultError(InvalidDevice)
	}

	return s.devices[int(dev)], nil
}

func (s *Sim) port(dev Device, portIndex int) (*SimDevice, *SimPort, error) {
	d, err := s.device(dev)
	if err != nil {
		return nil, nil, err
	}
	if portIndex < 0 || portIndex >= len(d.Ports) {
		return nil, nil, newResultError(InvalidPort)
	}

	return d, d.Ports[portIndex], nil
}

func (s *Sim) DeviceCount() (int, error) {
	return len(s.devices), nil
}

func (s *Sim) Device(index int) (Device, error) {
	if index < 0 || index >= len(s.devices) {
		return 0, newResultError(InvalidDevice)
	}

	return Device(index), nil
}

func (s *Sim) DeviceProperties(dev Device) (DeviceProp, error) {
	d, err := s.device(dev)
	if err != nil {
		return DeviceProp{}, err
	}

	return d.Prop, nil
}

func (s *Sim) PortCount(dev Device) (int, error) {
	d, err := s.device(dev)
	if err != nil {
		return 0, err
	}

	return len(d.Ports), nil
}

func (s *Sim) PortInfo(dev Device, portIndex int) (PortInfo, error) {
	_, p, err := s.port(dev, portIndex)
	if err != nil {
		return PortInfo{}, err
	}
	if p.FailInfo {
		return PortInfo{}, newResultError(Unknown)
	}

	return p.Info, nil
}

func (s *Sim) AttachedDevice(dev Device, portIndex int) (AttachedDevice, error) {
	_, p, err := s.port(dev, portIndex)
	if err != nil {
		return AttachedDevice{}, err
	}
	if p.Attached == nil {
		return AttachedDevice{}, newResultError(Unsupported)
	}

	return *p.Attached, nil
}

func (s *Sim) InitDevice(dev Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.device(dev)
	if err != nil {
		return err
	}
	d.initialized = true

	return nil
}

func (s *Sim) StartMeasurement(dev Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.device(dev)
	if err != nil {
		return err
	}
	if !d.initialized {
		return newResultError(NotInitialized)
	}

	d.started = true
	d.windowValid = false
	d.startedAt = time.Now()

	return nil
}

func (s *Sim) StopMeasurement(dev Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.device(dev)
	if err != nil {
		return err
	}
	if !d.started {
		return newResultError(SequenceViolation)
	}

	d.started = false
	d.windowValid = true
	if d.FixedIntervalMs > 0 {
		d.intervalMs = d.FixedIntervalMs
	} else {
		elapsed := uint64(time.Since(d.startedAt) / time.Millisecond)
		if elapsed == 0 {
			elapsed = 1
		}
		d.intervalMs = elapsed
	}

	return nil
}

func (s *Sim) Throughput(dev Device, portIndex int) (PortThroughput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, p, err := s.port(dev, portIndex)
	if err != nil {
		return PortThroughput{}, err
	}
	if !d.windowValid {
		return PortThroughput{}, newResultError(SequenceViolation)
	}
	if p.FailThroughput {
		return PortThroughput{}, newResultError(Unknown)
	}

	return PortThroughput{
		RxBytes: p.windowBytes(p.FixedRx, p.RxLoad, d.intervalMs),
		TxBytes: p.windowBytes(p.FixedTx, p.TxLoad, d.intervalMs),
	}, nil
}

func (s *Sim) MeasuredInterval(dev Device) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.device(dev)
	if err != nil {
		return 0, err
	}
	if !d.windowValid {
		return 0, newResultError(SequenceViolation)
	}

	return d.intervalMs, nil
}

func (s *Sim) CalibratedThroughput(dev Device, portIndex int) (PerfCal, error) {
	tp, err := s.Throughput(dev, portIndex)
	if err != nil {
		return PerfCal{}, err
	}

	intervalMs, err := s.MeasuredInterval(dev)
	if err != nil {
		return PerfCal{}, err
	}

	s.mu.Lock()
	_, p, err := s.port(dev, portIndex)
	s.mu.Unlock()
	if err != nil {
		return PerfCal{}, err
	}

	link := p.Info.CurLink
	rxUtil, err := linkutil.UtilizationPercent(tp.RxBytes, intervalMs, link.Gen, link.Width)
	if err != nil {
		return PerfCal{}, newResultError(Unsupported)
	}
	txUtil, err := linkutil.UtilizationPercent(tp.TxBytes, intervalMs, link.Gen, link.Width)
	if err != nil {
		return PerfCal{}, newResultError(Unsupported)
	}

	return PerfCal{
		IntervalMs:    intervalMs,
		RxBytes:       tp.RxBytes,
		TxBytes:       tp.TxBytes,
		RxBps:         linkutil.Rate(tp.RxBytes, intervalMs),
		TxBps:         linkutil.Rate(tp.TxBytes, intervalMs),
		RxUtilization: rxUtil,
		TxUtilization: txUtil,
	}, nil
}

func (s *Sim) ErrorCounters(dev Device, portIndex int) (PortErrors, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, p, err := s.port(dev, portIndex)
	if err != nil {
		return PortErrors{}, err
	}
	if p.FailErrors {
		return PortErrors{}, newResultError(Unknown)
	}

	// Lifetime counters creep upward between reads.
	p.errs.BadTLP += uint64(p.Info.PortNum % 2)
	p.errs.BadDLLP += uint64(p.Info.PortNum % 3)
	p.errs.RxErrors++
	p.errs.RecoveryDiagnostics += uint64(p.Info.StationID % 2)

	return p.errs, nil
}

func (s *Sim) ResetLatency(dev Device, portIndex int) error {
	_, _, err := s.port(dev, portIndex)
	return err
}

func (s *Sim) Latency(dev Device, portIndex int) (Latency, error) {
	_, p, err := s.port(dev, portIndex)
	if err != nil {
		return Latency{}, err
	}

	return Latency{TrtMin: 120, TrtMax: 840, AckMax: 360, Active: p.Info.Enabled}, nil
}

func (p *SimPort) windowBytes(fixed uint64, load float64, intervalMs uint64) uint64 {
	if fixed > 0 {
		return fixed
	}

	link := p.Info.CurLink
	capacity, err := linkutil.CapacityBps(link.Gen, link.Width)
	if err != nil {
		return 0
	}

	return uint64(capacity * load * float64(intervalMs) / 1000.0)
}
