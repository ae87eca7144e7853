package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollingWindowEmpty(t *testing.T) {
	w := newRollingWindow(5)

	_, ok := w.Mean()
	assert.False(t, ok)

	_, ok = w.SampleStdDev()
	assert.False(t, ok)
}

func TestRollingWindowPartialFill(t *testing.T) {
	w := newRollingWindow(5)
	w.Push(10, true)
	w.Push(20, true)

	mean, ok := w.Mean()
	require.True(t, ok)
	assert.InDelta(t, 15.0, mean, 1e-9)
}

func TestRollingWindowEviction(t *testing.T) {
	w := newRollingWindow(3)
	for _, v := range []float64{1, 2, 3, 4} {
		w.Push(v, true)
	}

	// Oldest value (1) evicted; window now holds 2, 3, 4.
	mean, ok := w.Mean()
	require.True(t, ok)
	assert.InDelta(t, 3.0, mean, 1e-9)
}

func TestRollingWindowNullOccupiesSlot(t *testing.T) {
	w := newRollingWindow(3)
	w.Push(10, true)
	w.Push(0, false)
	w.Push(20, true)

	mean, ok := w.Mean()
	require.True(t, ok)
	assert.InDelta(t, 15.0, mean, 1e-9)

	// A fourth push evicts the 10, leaving the null and the 20.
	w.Push(0, false)
	mean, ok = w.Mean()
	require.True(t, ok)
	assert.InDelta(t, 20.0, mean, 1e-9)
}

func TestRollingWindowAllNulls(t *testing.T) {
	w := newRollingWindow(3)
	w.Push(0, false)
	w.Push(0, false)
	w.Push(0, false)

	_, ok := w.Mean()
	assert.False(t, ok)
}

func TestSampleStdDevRequiresTwoObservations(t *testing.T) {
	w := newRollingWindow(5)
	w.Push(12, true)

	_, ok := w.SampleStdDev()
	assert.False(t, ok)

	w.Push(18, true)
	sd, ok := w.SampleStdDev()
	require.True(t, ok)
	// Sample variance of {12, 18} is 18, sd = sqrt(18).
	assert.InDelta(t, 4.242640687, sd, 1e-6)
}

func TestSampleStdDevBesselCorrection(t *testing.T) {
	w := newRollingWindow(10)
	for _, v := range []float64{10, 20, 30} {
		w.Push(v, true)
	}

	sd, ok := w.SampleStdDev()
	require.True(t, ok)
	// Sample variance of {10, 20, 30} is 100 with the N-1 denominator.
	assert.InDelta(t, 10.0, sd, 1e-9)
}

func TestSampleStdDevConstantSeries(t *testing.T) {
	w := newRollingWindow(10)
	for i := 0; i < 6; i++ {
		w.Push(23.3, true)
	}

	sd, ok := w.SampleStdDev()
	require.True(t, ok)
	assert.GreaterOrEqual(t, sd, 0.0)
	assert.InDelta(t, 0.0, sd, 1e-6)
}

func TestRollingWindowSlidingStdDev(t *testing.T) {
	w := newRollingWindow(2)
	w.Push(1, true)
	w.Push(5, true)
	w.Push(9, true)

	// Window holds {5, 9}: mean 7, sample sd sqrt(8).
	mean, ok := w.Mean()
	require.True(t, ok)
	assert.InDelta(t, 7.0, mean, 1e-9)

	sd, ok := w.SampleStdDev()
	require.True(t, ok)
	assert.InDelta(t, 2.828427125, sd, 1e-6)
}
