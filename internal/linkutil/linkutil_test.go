package linkutil_test

import (
	"testing"

	"github.com/h3platform/pciemon/internal/errors"
	"github.com/h3platform/pciemon/internal/linkutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateScalesLinearly(t *testing.T) {
	base := linkutil.Rate(1048576, 100)
	assert.InDelta(t, 10485760.0, base, 1e-6)
	assert.InDelta(t, 2*base, linkutil.Rate(2*1048576, 100), 1e-6)
	assert.InDelta(t, 10*base, linkutil.Rate(10*1048576, 100), 1e-6)
}

func TestRateZeroInterval(t *testing.T) {
	assert.Zero(t, linkutil.Rate(1048576, 0))
	assert.Zero(t, linkutil.Rate(0, 0))
}

func TestLaneRates(t *testing.T) {
	expected := map[int]float64{1: 2.5, 2: 5.0, 3: 8.0, 4: 16.0, 5: 32.0}
	for gen, want := range expected {
		got, err := linkutil.LaneRate(gen)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-9, "gen %d", gen)
	}

	for _, gen := range []int{0, 6, -1, 99} {
		_, err := linkutil.LaneRate(gen)
		require.Error(t, err, "gen %d", gen)
		assert.Equal(t, linkutil.ErrUnsupportedLink, errors.CodeOf(err))
	}
}

func TestEncodingEfficiency(t *testing.T) {
	for _, gen := range []int{1, 2} {
		eff, err := linkutil.EncodingEfficiency(gen)
		require.NoError(t, err)
		assert.InDelta(t, 0.8, eff, 1e-9)
	}
	for _, gen := range []int{3, 4, 5} {
		eff, err := linkutil.EncodingEfficiency(gen)
		require.NoError(t, err)
		assert.InDelta(t, 128.0/130.0, eff, 1e-9)
	}
}

func TestCapacityGen4x16(t *testing.T) {
	capacity, err := linkutil.CapacityBps(4, 16)
	require.NoError(t, err)
	assert.InDelta(t, 16e9*16*(128.0/130.0)/8, capacity, 1)
}

func TestUtilizationZeroBytes(t *testing.T) {
	pct, err := linkutil.UtilizationPercent(0, 100, 4, 16)
	require.NoError(t, err)
	assert.Zero(t, pct)
}

func TestUtilizationMonotonicAndClamped(t *testing.T) {
	gens := []int{1, 2, 3, 4, 5}
	widths := []int{1, 2, 4, 8, 16}

	for _, gen := range gens {
		for _, width := range widths {
			prev := -1.0
			// Sweep far past link capacity to exercise the clamp.
			for _, bytes := range []uint64{0, 1 << 20, 1 << 28, 1 << 34, 1 << 44} {
				pct, err := linkutil.UtilizationPercent(bytes, 100, gen, width)
				require.NoError(t, err, "gen %d width %d", gen, width)
				assert.GreaterOrEqual(t, pct, prev, "gen %d width %d", gen, width)
				assert.GreaterOrEqual(t, pct, 0.0)
				assert.LessOrEqual(t, pct, 100.0)
				prev = pct
			}
		}
	}
}

func TestUtilizationMeasuredWindow(t *testing.T) {
	// 1 MiB received over a measured 100 ms window on a gen4 x16 link.
	pct, err := linkutil.UtilizationPercent(1048576, 100, 4, 16)
	require.NoError(t, err)

	capacity, err := linkutil.CapacityBps(4, 16)
	require.NoError(t, err)
	assert.InDelta(t, 100*10485760.0/capacity, pct, 1e-9)
	assert.InDelta(t, 10.0, linkutil.ToMiB(linkutil.Rate(1048576, 100)), 1e-9)
}

func TestUtilizationUnsupportedLink(t *testing.T) {
	_, err := linkutil.UtilizationPercent(1, 100, 6, 16)
	require.Error(t, err)
	assert.Equal(t, linkutil.ErrUnsupportedLink, errors.CodeOf(err))

	_, err = linkutil.UtilizationPercent(1, 100, 4, 3)
	require.Error(t, err)
	assert.Equal(t, linkutil.ErrUnsupportedLink, errors.CodeOf(err))
}

func TestUtilizationZeroInterval(t *testing.T) {
	pct, err := linkutil.UtilizationPercent(1048576, 0, 4, 16)
	require.NoError(t, err)
	assert.Zero(t, pct)
}
