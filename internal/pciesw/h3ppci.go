//go:build h3ppci

package pciesw

/*
#cgo LDFLAGS: -lh3ppci
#include <h3ppci.h>
*/
import "C"

// library binds the vendor switch-management library through cgo.
type library struct{}

var _ Library = library{}

// New returns the vendor library binding.
func New() (Library, error) {
	return library{}, nil
}

func result(ret C.h3ppciError_t) error {
	return newResultError(Result(ret))
}

func goLink(l C.h3ppciLinkState) LinkState {
	return LinkState{
		Gen:   int(l.gen),
		Width: int(l.width),
		Speed: C.GoString(&l.speedStr[0]),
	}
}

func (library) DeviceCount() (int, error) {
	var count C.int
	if err := result(C.h3ppciGetDeviceCount(&count)); err != nil {
		return 0, err
	}

	return int(count), nil
}

func (library) Device(index int) (Device, error) {
	var dev C.h3ppciDevice_t
	if err := result(C.h3ppciGetDevice(&dev, C.int(index))); err != nil {
		return 0, err
	}

	return Device(dev), nil
}

func (library) DeviceProperties(dev Device) (DeviceProp, error) {
	var prop C.h3ppciDeviceProp
	if err := result(C.h3ppciGetDeviceProperties(&prop, C.h3ppciDevice_t(dev))); err != nil {
		return DeviceProp{}, err
	}

	return DeviceProp{
		Name:         C.GoString(&prop.name[0]),
		Domain:       int(prop.domain),
		Bus:          int(prop.bus),
		DeviceNum:    int(prop.device),
		Function:     int(prop.function),
		VendorID:     uint16(prop.vendorId),
		DeviceID:     uint16(prop.deviceId),
		RevisionID:   uint16(prop.revisionId),
		SerialNumber: C.GoString(&prop.serialNumber[0]),
	}, nil
}

func (library) PortCount(dev Device) (int, error) {
	var count C.int
	if err := result(C.h3ppciGetPortCount(C.h3ppciDevice_t(dev), &count)); err != nil {
		return 0, err
	}

	return int(count), nil
}

func (library) PortInfo(dev Device, portIndex int) (PortInfo, error) {
	var info C.h3ppciPortInfo
	if err := result(C.h3ppciGetPortInfo(C.h3ppciDevice_t(dev), C.int(portIndex), &info)); err != nil {
		return PortInfo{}, err
	}

	return PortInfo{
		PortID:    int(info.portId),
		StationID: int(info.stationId),
		PortNum:   int(info.portNum),
		Upstream:  info.isUpstream != 0,
		Host:      info.isHost != 0,
		Fabric:    info.isFabric != 0,
		Enabled:   info.enabled != 0,
		BDF:       C.GoString(&info.bdf[0]),
		MRR:       int(info.mrr),
		MPS:       int(info.mps),
		MPSS:      int(info.mpss),
		MaxLink:   goLink(info.maxLink),
		CurLink:   goLink(info.curLink),
	}, nil
}

func (library) AttachedDevice(dev Device, portIndex int) (AttachedDevice, error) {
	var attached C.h3ppciAttachedDevice
	if err := result(C.h3ppciGetAttachedDevice(C.h3ppciDevice_t(dev), C.int(portIndex), &attached)); err != nil {
		return AttachedDevice{}, err
	}

	return AttachedDevice{
		BDF:         C.GoString(&attached.bdf[0]),
		VendorID:    uint16(attached.vendorId),
		DeviceID:    uint16(attached.deviceId),
		SubVendorID: uint16(attached.subVendorId),
		SubDeviceID: uint16(attached.subDeviceId),
		MPS:         int(attached.mps),
		MPSS:        int(attached.mpss),
		MRR:         int(attached.mrr),
		CurLink:     goLink(attached.curLink),
		MaxLink:     goLink(attached.maxLink),
	}, nil
}

func (library) InitDevice(dev Device) error {
	return result(C.h3ppciInitDevice(C.h3ppciDevice_t(dev)))
}

func (library) StartMeasurement(dev Device) error {
	return result(C.h3ppciPerfStart(C.h3ppciDevice_t(dev)))
}

func (library) StopMeasurement(dev Device) error {
	return result(C.h3ppciPerfStop(C.h3ppciDevice_t(dev)))
}

func (library) Throughput(dev Device, portIndex int) (PortThroughput, error) {
	var tp C.h3ppciPortThroughput
	if err := result(C.h3ppciPerfGet(C.h3ppciDevice_t(dev), C.int(portIndex), &tp)); err != nil {
		return PortThroughput{}, err
	}

	return PortThroughput{
		RxBytes: uint64(tp.rxBytes),
		TxBytes: uint64(tp.txBytes),
	}, nil
}

func (library) MeasuredInterval(dev Device) (uint64, error) {
	var intervalMs C.ulonglong
	if err := result(C.h3ppciGetPerfInterval(C.h3ppciDevice_t(dev), &intervalMs)); err != nil {
		return 0, err
	}

	return uint64(intervalMs), nil
}

func (library) CalibratedThroughput(dev Device, portIndex int) (PerfCal, error) {
	var cal C.h3ppciPerfCal
	if err := result(C.h3ppciPerfGetCal(C.h3ppciDevice_t(dev), C.int(portIndex), &cal)); err != nil {
		return PerfCal{}, err
	}

	return PerfCal{
		IntervalMs:    uint64(cal.intervalMs),
		RxBytes:       uint64(cal.rxBytes),
		TxBytes:       uint64(cal.txBytes),
		RxBps:         float64(cal.rxBps),
		TxBps:         float64(cal.txBps),
		RxUtilization: float64(cal.rxUtilization),
		TxUtilization: float64(cal.txUtilization),
	}, nil
}

func (library) ErrorCounters(dev Device, portIndex int) (PortErrors, error) {
	var errs C.h3ppciPortErrors
	if err := result(C.h3ppciGetPortErrorCounters(C.h3ppciDevice_t(dev), C.int(portIndex), &errs)); err != nil {
		return PortErrors{}, err
	}

	return PortErrors{
		BadTLP:              uint64(errs.badTlp),
		BadDLLP:             uint64(errs.badDllp),
		RxErrors:            uint64(errs.rxErrors),
		RecoveryDiagnostics: uint64(errs.recoveryDiagnostics),
	}, nil
}

func (library) ResetLatency(dev Device, portIndex int) error {
	return result(C.h3ppciResetLatency(C.h3ppciDevice_t(dev), C.int(portIndex)))
}

func (library) Latency(dev Device, portIndex int) (Latency, error) {
	var lat C.h3ppciLatency
	if err := result(C.h3ppciGetLatency(C.h3ppciDevice_t(dev), C.int(portIndex), &lat)); err != nil {
		return Latency{}, err
	}

	return Latency{
		TrtMin: uint32(lat.trtMin),
		TrtMax: uint32(lat.trtMax),
		AckMax: uint32(lat.ackMax),
		Active: lat.isActive != 0,
	}, nil
}
