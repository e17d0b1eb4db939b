// Package linkutil converts raw byte counts from a measurement window into
// bandwidth and link-utilization figures. All functions are pure.
package linkutil

import "github.com/h3platform/pciemon/internal/errors"

const (
	ErrUnsupportedLink = errors.ErrorCode("unsupported_link")

	// BytesPerMiB converts bytes/s to MiB/s for display and publishing.
	BytesPerMiB = 1024.0 * 1024.0

	msPerSecond      = 1000.0
	transfersPerGiga = 1e9
	bitsPerByte      = 8.0
	maxPercent       = 100.0
)

// Per-lane signaling rates in GT/s, by PCIe generation.
var laneRates = map[int]float64{
	1: 2.5,
	2: 5.0,
	3: 8.0,
	4: 16.0,
	5: 32.0,
}

// Lane counts a link can negotiate.
var validWidths = map[int]bool{
	1:  true,
	2:  true,
	4:  true,
	8:  true,
	16: true,
	32: true,
}

// Rate returns achieved bytes per second over the given window. A zero
// interval yields 0.
func Rate(bytes, intervalMs uint64) float64 {
	if intervalMs == 0 {
		return 0
	}

	return float64(bytes) / (float64(intervalMs) / msPerSecond)
}

// LaneRate returns the per-lane signaling rate in GT/s for a generation.
func LaneRate(gen int) (float64, error) {
	rate, ok := laneRates[gen]
	if !ok {
		return 0, errors.New().WithData(ErrUnsupportedLink, gen)
	}

	return rate, nil
}

// EncodingEfficiency returns the line-coding efficiency for a generation:
// 8b/10b below gen 3, 128b/130b from gen 3 on.
func EncodingEfficiency(gen int) (float64, error) {
	if _, ok := laneRates[gen]; !ok {
		return 0, errors.New().WithData(ErrUnsupportedLink, gen)
	}

	if gen <= 2 {
		return 0.8, nil
	}

	return 128.0 / 130.0, nil
}

// CapacityBps returns the theoretical payload capacity of a link in
// bytes per second.
func CapacityBps(gen, width int) (float64, error) {
	if !validWidths[width] {
		return 0, errors.New().WithData(ErrUnsupportedLink, width)
	}

	laneRate, err := LaneRate(gen)
	if err != nil {
		return 0, err
	}

	efficiency, err := EncodingEfficiency(gen)
	if err != nil {
		return 0, err
	}

	return laneRate * transfersPerGiga * float64(width) * efficiency / bitsPerByte, nil
}

// UtilizationPercent returns achieved bandwidth as a percentage of link
// capacity, clamped to [0, 100] to absorb measurement noise.
func UtilizationPercent(bytes, intervalMs uint64, gen, width int) (float64, error) {
	capacity, err := CapacityBps(gen, width)
	if err != nil {
		return 0, err
	}

	percent := maxPercent * Rate(bytes, intervalMs) / capacity
	if percent < 0 {
		return 0, nil
	}
	if percent > maxPercent {
		return maxPercent, nil
	}

	return percent, nil
}

// ToMiB converts a bytes/s figure to MiB/s.
func ToMiB(bps float64) float64 {
	return bps / BytesPerMiB
}
