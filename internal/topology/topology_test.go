package topology_test

import (
	"fmt"
	"testing"

	"github.com/h3platform/pciemon/internal/config"
	"github.com/h3platform/pciemon/internal/errors"
	"github.com/h3platform/pciemon/internal/pciesw"
	"github.com/h3platform/pciemon/internal/telemetry"
	"github.com/h3platform/pciemon/internal/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSink remembers every registration so assertions can inspect domain
// and counter names without a database.
type recordSink struct {
	domains  []string
	schemas  [][]string
	counters []string
	nextID   int64
}

var _ telemetry.Sink = (*recordSink)(nil)

func (r *recordSink) CreateDomain(name string) (telemetry.DomainID, error) {
	r.domains = append(r.domains, name)
	r.nextID++
	return telemetry.DomainID(r.nextID), nil
}

func (r *recordSink) RegisterSchema(_ telemetry.DomainID, fields []string) (telemetry.SchemaID, error) {
	r.schemas = append(r.schemas, fields)
	r.nextID++
	return telemetry.SchemaID(r.nextID), nil
}

func (r *recordSink) RegisterCounter(_ telemetry.DomainID, _ telemetry.SchemaID, name string) (telemetry.CounterID, error) {
	r.counters = append(r.counters, name)
	r.nextID++
	return telemetry.CounterID(r.nextID), nil
}

func (r *recordSink) Publish(telemetry.DomainID, telemetry.CounterID, []float64) error {
	return nil
}

func (r *recordSink) Close() error { return nil }

func simDevice(name string, serial string, portCount int) *pciesw.SimDevice {
	dev := &pciesw.SimDevice{
		Prop: pciesw.DeviceProp{
			Name:         name,
			Domain:       0,
			Bus:          0x17,
			DeviceNum:    0,
			Function:     0,
			VendorID:     0x1000,
			DeviceID:     0xc030,
			SerialNumber: serial,
		},
	}
	for i := 0; i < portCount; i++ {
		dev.Ports = append(dev.Ports, &pciesw.SimPort{
			Info: pciesw.PortInfo{
				PortID:   i * 16,
				PortNum:  i,
				Upstream: i == 0,
				Enabled:  true,
				CurLink:  pciesw.LinkState{Gen: 4, Width: 16, Speed: "16.0 GT/s"},
				MaxLink:  pciesw.LinkState{Gen: 4, Width: 16, Speed: "16.0 GT/s"},
			},
		})
	}
	return dev
}

func TestResolveAllDevicesAllPorts(t *testing.T) {
	lib := pciesw.NewSim(
		simDevice("H3P-SW96", "SN-0", 4),
		simDevice("H3P-SW48", "SN-1", 2),
	)
	sink := &recordSink{}

	topo, err := topology.Resolve(lib, sink, topology.Options{
		Device: config.AllDevices,
		Module: config.ModuleThroughput,
	})
	require.NoError(t, err)

	assert.Len(t, topo.Entities, 6)
	assert.Len(t, topo.ActiveDevices, 2)
	assert.Len(t, sink.domains, 2)
	assert.Contains(t, sink.domains[0], "H3P_PCIe_Switch/H3P-SW96_0(")
	assert.Contains(t, sink.domains[1], "H3P_PCIe_Switch/H3P-SW48_1(")
}

func TestResolveDeviceFilter(t *testing.T) {
	lib := pciesw.NewSim(
		simDevice("H3P-SW96", "SN-0", 4),
		simDevice("H3P-SW48", "SN-1", 2),
	)
	sink := &recordSink{}

	topo, err := topology.Resolve(lib, sink, topology.Options{
		Device: 0,
		Module: config.ModuleThroughput,
	})
	require.NoError(t, err)

	require.Len(t, topo.Entities, 4)
	require.Len(t, topo.ActiveDevices, 1)
	assert.Equal(t, 0, topo.ActiveDevices[0].Index)

	// Entities come out in discovery order.
	for i, entity := range topo.Entities {
		assert.Equal(t, 0, entity.DeviceIndex)
		assert.Equal(t, i, entity.PortIndex)
	}
}

func TestResolvePortFilter(t *testing.T) {
	lib := pciesw.NewSim(simDevice("H3P-SW96", "SN-0", 8))
	sink := &recordSink{}

	topo, err := topology.Resolve(lib, sink, topology.Options{
		Device: config.AllDevices,
		Ports:  []int{2, 5},
		Module: config.ModuleError,
	})
	require.NoError(t, err)

	require.Len(t, topo.Entities, 2)
	assert.Equal(t, 2, topo.Entities[0].PortIndex)
	assert.Equal(t, 5, topo.Entities[1].PortIndex)
}

func TestResolveNoMatchingPorts(t *testing.T) {
	lib := pciesw.NewSim(simDevice("H3P-SW96", "SN-0", 4))
	sink := &recordSink{}

	_, err := topology.Resolve(lib, sink, topology.Options{
		Device: config.AllDevices,
		Ports:  []int{99},
		Module: config.ModuleThroughput,
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrNoMatch, errors.CodeOf(err))
}

func TestResolveNoMatchingDevice(t *testing.T) {
	lib := pciesw.NewSim(simDevice("H3P-SW96", "SN-0", 4))
	sink := &recordSink{}

	_, err := topology.Resolve(lib, sink, topology.Options{
		Device: 7,
		Module: config.ModuleThroughput,
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrNoMatch, errors.CodeOf(err))
}

func TestResolveCounterAndSchemaNames(t *testing.T) {
	lib := pciesw.NewSim(simDevice("H3P-SW96", "SN-0", 2))
	sink := &recordSink{}

	_, err := topology.Resolve(lib, sink, topology.Options{
		Device: config.AllDevices,
		Module: config.ModuleThroughput,
	})
	require.NoError(t, err)

	require.Len(t, sink.schemas, 1)
	assert.Equal(t, []string{"RX_MBs", "TX_MBs", "RX_Util", "TX_Util"}, sink.schemas[0])
	assert.Equal(t, []string{"Port_0_throughput", "Port_16_throughput"}, sink.counters)
}

func TestResolveErrorSchema(t *testing.T) {
	lib := pciesw.NewSim(simDevice("H3P-SW96", "SN-0", 1))
	sink := &recordSink{}

	_, err := topology.Resolve(lib, sink, topology.Options{
		Device: config.AllDevices,
		Module: config.ModuleError,
	})
	require.NoError(t, err)

	require.Len(t, sink.schemas, 1)
	assert.Equal(t, []string{"BadTLP", "BadDLLP", "RxErr", "RecDiag"}, sink.schemas[0])
	assert.Equal(t, []string{"Port_0_error"}, sink.counters)
}

func TestResolveSkipsFailingPort(t *testing.T) {
	dev := simDevice("H3P-SW96", "SN-0", 3)
	dev.Ports[1].FailInfo = true
	lib := pciesw.NewSim(dev)
	sink := &recordSink{}

	topo, err := topology.Resolve(lib, sink, topology.Options{
		Device: config.AllDevices,
		Module: config.ModuleThroughput,
	})
	require.NoError(t, err)

	require.Len(t, topo.Entities, 2)
	assert.Equal(t, 0, topo.Entities[0].PortIndex)
	assert.Equal(t, 2, topo.Entities[1].PortIndex)
}

func TestResolveDomainNameIncludesBDF(t *testing.T) {
	lib := pciesw.NewSim(simDevice("H3P-SW96", "SN-0", 1))
	sink := &recordSink{}

	_, err := topology.Resolve(lib, sink, topology.Options{
		Device: config.AllDevices,
		Module: config.ModuleThroughput,
	})
	require.NoError(t, err)

	require.Len(t, sink.domains, 1)
	assert.Equal(t, fmt.Sprintf("H3P_PCIe_Switch/H3P-SW96_0(%s)", "0000:17:00.0"), sink.domains[0])
}
