// Package topology enumerates switch devices and ports, applies the user's
// device/port filters and registers one telemetry counter per monitored
// port. The resolved set is fixed for the lifetime of a session.
package topology

import (
	"fmt"

	"github.com/h3platform/pciemon/internal/config"
	"github.com/h3platform/pciemon/internal/errors"
	"github.com/h3platform/pciemon/internal/logger"
	"github.com/h3platform/pciemon/internal/pciesw"
	"github.com/h3platform/pciemon/internal/telemetry"
)

const (
	ErrNoDevices     = errors.ErrorCode("topology_no_devices")
	ErrRegisterSink  = errors.ErrorCode("topology_sink_register_failed")
	domainNamePrefix = "H3P_PCIe_Switch"
)

// Schema field names per module. These are a wire contract with downstream
// consumers and must stay stable.
var (
	throughputFields = []string{"RX_MBs", "TX_MBs", "RX_Util", "TX_Util"}
	errorFields      = []string{"BadTLP", "BadDLLP", "RxErr", "RecDiag"}
)

// Entity is one monitored port: the device handle it belongs to, the port
// indices used against the library, and the telemetry handles samples are
// published through. Entities are read-only during sampling.
type Entity struct {
	Device      pciesw.Device
	DeviceIndex int
	PortIndex   int
	PortID      int
	DeviceName  string
	Link        pciesw.LinkState // negotiated link at resolution time
	Domain      telemetry.DomainID
	Counter     telemetry.CounterID
}

// ActiveDevice is a device that contributed at least one monitored port.
type ActiveDevice struct {
	Device pciesw.Device
	Index  int
}

// Topology is the resolved monitoring set, ordered as discovered.
type Topology struct {
	Entities      []Entity
	ActiveDevices []ActiveDevice
}

// Options filter the resolved set. Device is an index or config.AllDevices;
// an empty Ports slice keeps every port.
type Options struct {
	Device int
	Ports  []int
	Module config.Module
}

// SchemaFields returns the 4 sample field names for a module.
func SchemaFields(module config.Module) []string {
	if module == config.ModuleError {
		return errorFields
	}
	return throughputFields
}

// Resolve enumerates devices and ports and builds the monitored set.
// Per-entry lookup failures skip that entry; an empty final set is fatal.
func Resolve(lib pciesw.Library, sink telemetry.Sink, opts Options) (*Topology, error) {
	errFactory := errors.New()

	deviceCount, err := lib.DeviceCount()
	if err != nil {
		return nil, errFactory.Wrap(ErrNoDevices, err)
	}
	if deviceCount == 0 {
		return nil, errFactory.New(ErrNoDevices)
	}

	topo := &Topology{}

	for d := 0; d < deviceCount; d++ {
		if opts.Device != config.AllDevices && opts.Device != d {
			continue
		}

		dev, err := lib.Device(d)
		if err != nil {
			logger.Debug().Err(err).Int("device", d).Msg("Skipping device")
			continue
		}

		prop, err := lib.DeviceProperties(dev)
		if err != nil {
			logger.Debug().Err(err).Int("device", d).Msg("Skipping device without properties")
			continue
		}

		logger.Info().
			Str("name", prop.Name).
			Str("bdf", prop.BDF()).
			Str("serial", prop.SerialNumber).
			Int("device", d).
			Msg("Detected switch")

		domainName := fmt.Sprintf("%s/%s_%d(%s)", domainNamePrefix, prop.Name, d, prop.BDF())
		domain, err := sink.CreateDomain(domainName)
		if err != nil {
			return nil, errFactory.Wrap(ErrRegisterSink, err)
		}

		schema, err := sink.RegisterSchema(domain, SchemaFields(opts.Module))
		if err != nil {
			return nil, errFactory.Wrap(ErrRegisterSink, err)
		}

		portCount, err := lib.PortCount(dev)
		if err != nil {
			logger.Debug().Err(err).Int("device", d).Msg("Skipping device without port count")
			continue
		}

		added := 0
		for p := 0; p < portCount; p++ {
			if len(opts.Ports) > 0 && !containsPort(opts.Ports, p) {
				continue
			}

			info, err := lib.PortInfo(dev, p)
			if err != nil {
				logger.Debug().Err(err).Int("device", d).Int("port", p).Msg("Skipping port")
				continue
			}

			counterName := fmt.Sprintf("Port_%d_%s", info.PortID, opts.Module)
			counter, err := sink.RegisterCounter(domain, schema, counterName)
			if err != nil {
				return nil, errFactory.Wrap(ErrRegisterSink, err)
			}

			logPort(d, p, info)
			if !info.Upstream {
				if attached, err := lib.AttachedDevice(dev, p); err == nil {
					logger.Debug().
						Str("bdf", attached.BDF).
						Str("vendor", fmt.Sprintf("%04x", attached.VendorID)).
						Str("device", fmt.Sprintf("%04x", attached.DeviceID)).
						Int("port_id", info.PortID).
						Msg("Attached device")
				}
			}

			topo.Entities = append(topo.Entities, Entity{
				Device:      dev,
				DeviceIndex: d,
				PortIndex:   p,
				PortID:      info.PortID,
				DeviceName:  prop.Name,
				Link:        info.CurLink,
				Domain:      domain,
				Counter:     counter,
			})
			added++
		}

		if added == 0 {
			continue
		}

		topo.ActiveDevices = append(topo.ActiveDevices, ActiveDevice{Device: dev, Index: d})

		if opts.Module == config.ModuleThroughput {
			if err := lib.InitDevice(dev); err != nil {
				logger.Warn().Err(err).Int("device", d).Msg("Failed to initialize measurement")
			}
		}
	}

	if len(topo.Entities) == 0 {
		return nil, errFactory.New(errors.ErrNoMatch)
	}

	return topo, nil
}

func logPort(deviceIndex, portIndex int, info pciesw.PortInfo) {
	logger.Debug().
		Int("device", deviceIndex).
		Int("port", portIndex).
		Int("port_id", info.PortID).
		Bool("upstream", info.Upstream).
		Bool("enabled", info.Enabled).
		Str("cur_link", fmt.Sprintf("gen%d x%d", info.CurLink.Gen, info.CurLink.Width)).
		Str("max_link", fmt.Sprintf("gen%d x%d", info.MaxLink.Gen, info.MaxLink.Width)).
		Msg("Monitoring port")
}

func containsPort(ports []int, index int) bool {
	for _, p := range ports {
		if p == index {
			return true
		}
	}
	return false
}
