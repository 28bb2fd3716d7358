package motion

import (
	"math"
	"testing"
)

func TestPControllerProportionalGain(t *testing.T) {
	cfg := DefaultConfig()
	c := NewController(cfg)

	// Kp=0.15: a 24.1 degree error maps to ~3.6 degrees of movement.
	delta := c.Update(24.1, cfg.TickPeriodSeconds())
	if math.Abs(delta-3.615) > 0.01 {
		t.Errorf("delta = %.4f, want ~3.615", delta)
	}
}

func TestPControllerRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	c := NewController(cfg)

	tests := []struct {
		errorDeg float64
		want     float64
	}{
		{1000, cfg.MaxStepDegrees},
		{-1000, -cfg.MaxStepDegrees},
		{0, 0},
	}
	for _, tt := range tests {
		if got := c.Update(tt.errorDeg, 0.01); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Update(%v) = %.4f, want %.4f", tt.errorDeg, got, tt.want)
		}
	}
}

func TestNewControllerSelectsVariant(t *testing.T) {
	cfg := DefaultConfig()
	if _, ok := NewController(cfg).(*PController); !ok {
		t.Errorf("controller %q did not build a PController", cfg.Controller)
	}

	cfg = ResponsiveConfig()
	if _, ok := NewController(cfg).(*PIDController); !ok {
		t.Errorf("controller %q did not build a PIDController", cfg.Controller)
	}
}

func TestPIDIntegralAntiWindup(t *testing.T) {
	cfg := ResponsiveConfig()
	cfg.Ki = 0.5
	cfg.IntegralLimit = 2
	c := NewController(cfg).(*PIDController)

	// Sustained large error must not accumulate past the clamp.
	for i := 0; i < 1000; i++ {
		c.Update(50, 0.05)
	}
	if c.integral > cfg.IntegralLimit+1e-9 || c.integral < -cfg.IntegralLimit-1e-9 {
		t.Errorf("integral = %.4f, want within ±%.1f", c.integral, cfg.IntegralLimit)
	}
}

func TestPIDDerivativeFiltered(t *testing.T) {
	cfg := ResponsiveConfig()
	cfg.Kp = 0
	cfg.Ki = 0
	cfg.Kd = 1
	cfg.DerivativeBeta = 0.3
	c := NewController(cfg).(*PIDController)

	dt := 0.05
	c.Update(0, dt)
	// Raw derivative for the second sample is (10-0)/0.05 = 200; the
	// exposed derivative must be attenuated by beta.
	delta := c.Update(10, dt)
	want := clamp(0.3*200, -cfg.MaxStepDegrees, cfg.MaxStepDegrees)
	if math.Abs(delta-want) > 1e-9 {
		t.Errorf("filtered derivative output = %.4f, want %.4f", delta, want)
	}
}

func TestPIDNoDerivativeSpikeOnFirstSample(t *testing.T) {
	cfg := ResponsiveConfig()
	cfg.Kp = 0
	cfg.Kd = 1
	c := NewController(cfg).(*PIDController)

	// The first sample after construction or Reset has no previous
	// error; the derivative must stay quiet.
	if delta := c.Update(30, 0.05); math.Abs(delta) > 1e-9 {
		t.Errorf("first-sample output = %.4f, want 0", delta)
	}

	c.Update(35, 0.05)
	c.Reset()
	if delta := c.Update(30, 0.05); math.Abs(delta) > 1e-9 {
		t.Errorf("post-reset output = %.4f, want 0", delta)
	}
}

func TestClampAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-10, 0},
		{0, 0},
		{90, 90},
		{180, 180},
		{200, 180},
	}
	for _, tt := range tests {
		if got := ClampAngle(tt.in); got != tt.want {
			t.Errorf("ClampAngle(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
