package pciesw

// Simulated returns a Library backed by a synthetic single-switch topology.
// It is what --simulate runs against on hosts without the vendor library.
func Simulated() Library {
	gen5x16 := LinkState{Gen: 5, Width: 16, Speed: "32.0 GT/s"}
	gen4x16 := LinkState{Gen: 4, Width: 16, Speed: "16.0 GT/s"}
	gen4x8 := LinkState{Gen: 4, Width: 8, Speed: "16.0 GT/s"}
	gen3x4 := LinkState{Gen: 3, Width: 4, Speed: "8.0 GT/s"}

	nvme := &AttachedDevice{
		BDF:      "0000:03:00.0",
		VendorID: 0x144d, DeviceID: 0xa80a,
		MPS: 512, MPSS: 512, MRR: 4096,
		CurLink: gen4x8, MaxLink: gen4x8,
	}
	nic := &AttachedDevice{
		BDF:      "0000:04:00.0",
		VendorID: 0x15b3, DeviceID: 0x101d,
		MPS: 256, MPSS: 512, MRR: 4096,
		CurLink: gen4x16, MaxLink: gen4x16,
	}

	sw := &SimDevice{
		Prop: DeviceProp{
			Name:         "H3P-SW96",
			Domain:       0, Bus: 0x01, DeviceNum: 0x00, Function: 0,
			VendorID:     0x1000,
			DeviceID:     0xc030,
			RevisionID:   0xb0,
			SerialNumber: "H3P-5A42-0096",
		},
		Ports: []*SimPort{
			{
				Info: PortInfo{
					PortID: 0, StationID: 0, PortNum: 0,
					Upstream: true, Host: true, Enabled: true,
					BDF: "0000:01:00.0", MRR: 4096, MPS: 512, MPSS: 512,
					MaxLink: gen5x16, CurLink: gen5x16,
				},
				RxLoad: 0.42, TxLoad: 0.37,
			},
			{
				Info: PortInfo{
					PortID: 8, StationID: 1, PortNum: 0,
					Enabled: true,
					BDF:     "0000:02:08.0", MRR: 4096, MPS: 512, MPSS: 512,
					MaxLink: gen4x8, CurLink: gen4x8,
				},
				Attached: nvme,
				RxLoad:   0.28, TxLoad: 0.51,
			},
			{
				Info: PortInfo{
					PortID: 16, StationID: 2, PortNum: 0,
					Enabled: true,
					BDF:     "0000:02:10.0", MRR: 4096, MPS: 256, MPSS: 512,
					MaxLink: gen4x16, CurLink: gen4x16,
				},
				Attached: nic,
				RxLoad:   0.63, TxLoad: 0.18,
			},
			{
				Info: PortInfo{
					PortID: 24, StationID: 3, PortNum: 0,
					Enabled: true,
					BDF:     "0000:02:18.0", MRR: 512, MPS: 256, MPSS: 256,
					MaxLink: gen4x8, CurLink: gen3x4,
				},
				RxLoad: 0.07, TxLoad: 0.04,
			},
		},
	}

	return NewSim(sw)
}
