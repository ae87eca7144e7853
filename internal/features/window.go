package features

import "math"

// rollingWindow accumulates the trailing N observations of a possibly-missing
// series, maintaining sum and sum-of-squares incrementally so mean and
// sample standard deviation are O(1) per step. A pushed null occupies a
// window slot but contributes nothing to the running sums, matching SQL
// aggregate semantics over nullable columns.
type rollingWindow struct {
	slots []windowSlot
	head  int
	size  int
	sum   float64
	sumSq float64
	count int
}

type windowSlot struct {
	value float64
	valid bool
}

func newRollingWindow(capacity int) *rollingWindow {
	return &rollingWindow{slots: make([]windowSlot, capacity)}
}

// Push appends an observation, evicting the oldest once the window is full.
// valid=false records a missing value that still consumes a slot.
func (w *rollingWindow) Push(value float64, valid bool) {
	if w.size == len(w.slots) {
		oldest := w.slots[w.head]
		if oldest.valid {
			w.sum -= oldest.value
			w.sumSq -= oldest.value * oldest.value
			w.count--
		}
	} else {
		w.size++
	}

	w.slots[w.head] = windowSlot{value: value, valid: valid}
	w.head = (w.head + 1) % len(w.slots)

	if valid {
		w.sum += value
		w.sumSq += value * value
		w.count++
	}
}

// Mean returns the arithmetic mean of the present observations; ok is false
// when the window holds none.
func (w *rollingWindow) Mean() (float64, bool) {
	if w.count == 0 {
		return 0, false
	}
	return w.sum / float64(w.count), true
}

// SampleStdDev returns the Bessel-corrected (N-1) standard deviation; ok is
// false with fewer than 2 present observations.
func (w *rollingWindow) SampleStdDev() (float64, bool) {
	if w.count < 2 {
		return 0, false
	}

	n := float64(w.count)
	variance := (w.sumSq - w.sum*w.sum/n) / (n - 1)
	if variance < 0 {
		// float cancellation on near-constant series
		variance = 0
	}
	return math.Sqrt(variance), true
}
