package indicator

import "math"

// Window maintains rolling statistics over the most recent `size` values.
// Uses a preallocated circular buffer; each Push is O(1): the newest value
// is folded in and the evicted value folded out, never rescanning the
// window. Mean and variance follow Welford-style incremental updates, which
// avoid the cancellation error of naive sum-of-squares under float64.
type Window struct {
	size  int
	buf   []float64 // preallocated circular buffer
	idx   int       // next write position
	count int       // values currently in the window (<= size)
	mean  float64
	m2    float64 // sum of squared deviations from the mean
}

// NewWindow creates a rolling window of the given size.
func NewWindow(size int) (*Window, error) {
	if size <= 0 {
		return nil, &InvalidParameterError{Param: "period", Value: float64(size), Reason: "must be a positive integer"}
	}
	return &Window{size: size, buf: make([]float64, size)}, nil
}

// Push adds v, evicting the oldest value once the window is full.
func (w *Window) Push(v float64) {
	if w.count == w.size {
		w.remove(w.buf[w.idx])
	}
	w.buf[w.idx] = v
	w.idx = (w.idx + 1) % w.size
	w.add(v)
}

// add folds v into the running mean/M2 (Welford's update).
func (w *Window) add(v float64) {
	w.count++
	delta := v - w.mean
	w.mean += delta / float64(w.count)
	w.m2 += delta * (v - w.mean)
}

// remove folds v out of the running mean/M2 (reverse Welford update).
func (w *Window) remove(v float64) {
	if w.count == 1 {
		w.count, w.mean, w.m2 = 0, 0, 0
		return
	}
	n := float64(w.count)
	newMean := (n*w.mean - v) / (n - 1)
	w.m2 -= (v - w.mean) * (v - newMean)
	if w.m2 < 0 {
		w.m2 = 0 // float round-off; variance is never negative
	}
	w.mean = newMean
	w.count--
}

// Full reports whether `size` values have been seen. Aggregates are
// "insufficient data" until then.
func (w *Window) Full() bool { return w.count == w.size }

// Count returns the number of values currently in the window.
func (w *Window) Count() int { return w.count }

// Mean returns the arithmetic mean over the current window.
func (w *Window) Mean() float64 { return w.mean }

// StdDev returns the population standard deviation over the current window
// (divide by N), the formulation Bollinger Bands use.
func (w *Window) StdDev() float64 {
	if w.count == 0 {
		return 0
	}
	return math.Sqrt(w.m2 / float64(w.count))
}

// GainLossWindow tracks the separately-averaged positive and negative close
// deltas over the most recent `size` deltas, as RSI requires. Push is O(1):
// running gain/loss sums are adjusted for the entering and leaving delta.
type GainLossWindow struct {
	size    int
	buf     []float64 // raw deltas, circular
	idx     int
	count   int
	gainSum float64
	lossSum float64
}

// NewGainLossWindow creates a gain/loss window over the given delta count.
func NewGainLossWindow(size int) (*GainLossWindow, error) {
	if size <= 0 {
		return nil, &InvalidParameterError{Param: "period", Value: float64(size), Reason: "must be a positive integer"}
	}
	return &GainLossWindow{size: size, buf: make([]float64, size)}, nil
}

// Push adds a close delta, evicting the oldest once the window is full.
func (w *GainLossWindow) Push(delta float64) {
	if w.count == w.size {
		old := w.buf[w.idx]
		if old > 0 {
			w.gainSum -= old
		} else {
			w.lossSum -= -old
		}
		w.count--
	}
	w.buf[w.idx] = delta
	w.idx = (w.idx + 1) % w.size
	if delta > 0 {
		w.gainSum += delta
	} else {
		w.lossSum += -delta
	}
	w.count++
}

// Full reports whether `size` deltas have been seen.
func (w *GainLossWindow) Full() bool { return w.count == w.size }

// AvgGain returns the mean of positive deltas over the window, counting
// non-gaining steps as zero.
func (w *GainLossWindow) AvgGain() float64 {
	if w.count == 0 {
		return 0
	}
	return w.gainSum / float64(w.count)
}

// AvgLoss returns the mean of loss magnitudes over the window, counting
// non-losing steps as zero.
func (w *GainLossWindow) AvgLoss() float64 {
	if w.count == 0 {
		return 0
	}
	return w.lossSum / float64(w.count)
}
