package pciesw

// Library abstracts the switch-management library. Calls are short register
// reads with no internal timeout; a hung call blocks the caller. Every
// failure carries a Result recoverable through ResultOf.
//
// Measurement usage: InitDevice -> StartMeasurement -> sleep ->
// StopMeasurement -> per-port reads. Reading a window without a matching
// start/stop bracket fails with SequenceViolation.
type Library interface {
	// Device enumeration
	DeviceCount() (int, error)
	Device(index int) (Device, error)
	DeviceProperties(dev Device) (DeviceProp, error)

	// Port enumeration
	PortCount(dev Device) (int, error)
	PortInfo(dev Device, portIndex int) (PortInfo, error)
	AttachedDevice(dev Device, portIndex int) (AttachedDevice, error)

	// Performance measurement
	InitDevice(dev Device) error
	StartMeasurement(dev Device) error
	StopMeasurement(dev Device) error
	Throughput(dev Device, portIndex int) (PortThroughput, error)
	MeasuredInterval(dev Device) (uint64, error)
	CalibratedThroughput(dev Device, portIndex int) (PerfCal, error)

	// Error counters
	ErrorCounters(dev Device, portIndex int) (PortErrors, error)

	// Latency measurement (not consumed by the sampling loop)
	ResetLatency(dev Device, portIndex int) error
	Latency(dev Device, portIndex int) (Latency, error)
}
