package motion

import "math"

// Filter smooths raw pixel offsets with an exponential moving average and
// suppresses jitter through a deadband around zero. A raw offset that lands
// inside the deadband after smoothing is reported as not actionable; the
// caller must then reset any derivative memory in its controller so motion
// does not resume with a derivative spike.
type Filter struct {
	alpha    float64
	deadband float64
	ema      float64
}

// NewFilter creates a filter with the given EMA alpha and deadband (pixels).
func NewFilter(alpha, deadbandPixels float64) *Filter {
	return &Filter{
		alpha:    alpha,
		deadband: deadbandPixels,
	}
}

// Apply folds a raw offset into the running average and returns the
// smoothed value. ok is false when the smoothed offset sits inside the
// deadband, meaning there is no actionable signal this sample.
func (f *Filter) Apply(rawOffset float64) (filtered float64, ok bool) {
	f.ema = f.alpha*rawOffset + (1-f.alpha)*f.ema
	if math.Abs(f.ema) < f.deadband {
		return f.ema, false
	}
	return f.ema, true
}

// Value returns the current smoothed offset without updating it.
func (f *Filter) Value() float64 {
	return f.ema
}

// Reset clears the running average. Called when the target is lost so a
// reacquired target does not inherit stale smoothing state.
func (f *Filter) Reset() {
	f.ema = 0
}
