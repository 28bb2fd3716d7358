package motion

// Controller converts an angle error (degrees) into a bounded angle delta.
// dt is the time since the previous update in seconds; proportional-only
// implementations may ignore it. Implementations are not safe for
// concurrent use; each perception unit owns its controller.
type Controller interface {
	Update(errorDeg, dt float64) (deltaDeg float64)

	// Reset clears accumulated state (integral, derivative memory).
	// Called whenever target acquisition is lost or the signal drops
	// into the deadband.
	Reset()
}

// NewController selects the control policy from the config.
func NewController(cfg Config) Controller {
	if cfg.Controller == ControllerPID {
		return &PIDController{
			Kp:             cfg.Kp,
			Ki:             cfg.Ki,
			Kd:             cfg.Kd,
			IntegralLimit:  cfg.IntegralLimit,
			DerivativeBeta: cfg.DerivativeBeta,
			MaxStepDeg:     cfg.MaxStepDegrees,
		}
	}
	return &PController{Kp: cfg.Kp, MaxStepDeg: cfg.MaxStepDegrees}
}

// PController is proportional-only control with a per-update rate limit.
type PController struct {
	Kp         float64
	MaxStepDeg float64
}

// Update returns clamp(Kp*error, ±MaxStepDeg).
func (c *PController) Update(errorDeg, dt float64) float64 {
	return clamp(c.Kp*errorDeg, -c.MaxStepDeg, c.MaxStepDeg)
}

// Reset is a no-op; a P controller carries no state.
func (c *PController) Reset() {}

// PIDController adds an anti-windup integral term and a noise-filtered
// derivative term. The raw derivative is smoothed with an EMA (beta weight
// on the new sample) before the Kd gain so that detector noise does not
// translate into servo chatter.
type PIDController struct {
	Kp             float64
	Ki             float64
	Kd             float64
	IntegralLimit  float64
	DerivativeBeta float64
	MaxStepDeg     float64

	integral  float64
	lastError float64
	filteredD float64
	primed    bool
}

// Update computes the PID output, rate-limited to ±MaxStepDeg.
func (c *PIDController) Update(errorDeg, dt float64) float64 {
	if dt > 0 {
		c.integral += errorDeg * dt
		c.integral = clamp(c.integral, -c.IntegralLimit, c.IntegralLimit)
	}

	var rawD float64
	if c.primed && dt > 0 {
		rawD = (errorDeg - c.lastError) / dt
	}
	c.filteredD = c.DerivativeBeta*rawD + (1-c.DerivativeBeta)*c.filteredD
	c.lastError = errorDeg
	c.primed = true

	out := c.Kp*errorDeg + c.Ki*c.integral + c.Kd*c.filteredD
	return clamp(out, -c.MaxStepDeg, c.MaxStepDeg)
}

// Reset clears the integral and derivative memory.
func (c *PIDController) Reset() {
	c.integral = 0
	c.lastError = 0
	c.filteredD = 0
	c.primed = false
}

// clamp limits a value to a range.
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ClampAngle limits an angle to the servo's mechanical range.
func ClampAngle(deg float64) float64 {
	return clamp(deg, AngleMin, AngleMax)
}
