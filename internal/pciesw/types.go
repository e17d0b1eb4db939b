package pciesw

import "fmt"

// Device is an opaque handle to an enumerated switch device. Handles are
// plain values and are copied freely; they stay valid for the lifetime of
// the monitoring session.
type Device int

// DeviceProp holds the static properties of a switch device.
type DeviceProp struct {
	Name         string
	Domain       int
	Bus          int
	DeviceNum    int
	Function     int
	VendorID     uint16
	DeviceID     uint16
	RevisionID   uint16
	SerialNumber string
}

// BDF returns the canonical bus:device.function address of the device.
func (p DeviceProp) BDF() string {
	return fmt.Sprintf("%04x:%02x:%02x.%x", p.Domain, p.Bus, p.DeviceNum, p.Function)
}

// LinkState describes a negotiated or maximum PCIe link.
type LinkState struct {
	Gen   int
	Width int
	Speed string // e.g. "16.0 GT/s"
}

// PortInfo holds the attributes of a single switch port.
type PortInfo struct {
	PortID    int // logical/global port ID, used for display and naming
	StationID int
	PortNum   int
	Upstream  bool
	Host      bool
	Fabric    bool
	Enabled   bool

	BDF  string
	MRR  int // max read request size (bytes)
	MPS  int // max payload size (bytes)
	MPSS int // max payload size supported (bytes)

	MaxLink LinkState
	CurLink LinkState
}

// AttachedDevice describes the endpoint connected to a downstream port.
type AttachedDevice struct {
	BDF         string
	VendorID    uint16
	DeviceID    uint16
	SubVendorID uint16
	SubDeviceID uint16
	MPS         int
	MPSS        int
	MRR         int
	CurLink     LinkState
	MaxLink     LinkState
}

// PortThroughput holds the raw byte counters for the last measurement window.
type PortThroughput struct {
	RxBytes uint64
	TxBytes uint64
}

// PerfCal is the calibrated measurement window for one port: raw counts,
// the true elapsed interval, and the derived rates and utilization.
type PerfCal struct {
	IntervalMs    uint64
	RxBytes       uint64
	TxBytes       uint64
	RxBps         float64
	TxBps         float64
	RxUtilization float64 // 0.0 - 100.0%
	TxUtilization float64 // 0.0 - 100.0%
}

// PortErrors holds the cumulative lifetime error counters of a port.
type PortErrors struct {
	BadTLP              uint64
	BadDLLP             uint64
	RxErrors            uint64
	RecoveryDiagnostics uint64
}

// Latency holds the transaction latency measurement state of a port.
type Latency struct {
	TrtMin uint32
	TrtMax uint32
	AckMax uint32
	Active bool
}
