package motion

import (
	"math"
	"testing"
)

// settle runs the mapper on a constant offset until the EMA converges,
// returning the last result.
func settle(m *Mapper, offsetPx, currentAngle, dt float64, n int) (float64, bool) {
	var target float64
	var ok bool
	for i := 0; i < n; i++ {
		target, ok = m.Map(offsetPx, currentAngle, dt)
	}
	return target, ok
}

func TestMapperConvertsOffsetToAngle(t *testing.T) {
	cfg := DefaultConfig()
	m := NewMapper(cfg)
	dt := 1.0 / 30

	// A settled 200px offset at 8.3 px/deg with Kp=0.15 moves the
	// target ~3.6 degrees.
	target, ok := settle(m, 200, 90, dt, 100)
	if !ok {
		t.Fatal("settled 200px offset produced no target")
	}
	if math.Abs(target-93.6) > 0.1 {
		t.Errorf("target = %.3f, want ~93.6", target)
	}
}

func TestMapperDeadbandLeavesTargetAlone(t *testing.T) {
	cfg := DefaultConfig()
	m := NewMapper(cfg)
	dt := 1.0 / 30

	// 5px never escapes the 15px deadband; the caller keeps the old
	// target.
	if _, ok := settle(m, 5, 90, dt, 100); ok {
		t.Error("5px offset inside the deadband produced a target")
	}
}

func TestMapperClampsToServoRange(t *testing.T) {
	cfg := DefaultConfig()
	m := NewMapper(cfg)
	dt := 1.0 / 30

	target, ok := settle(m, 3000, 179, dt, 100)
	if !ok {
		t.Fatal("large offset produced no target")
	}
	if target > 180 {
		t.Errorf("target = %.2f, exceeds servo range", target)
	}

	m.Reset()
	target, ok = settle(m, -3000, 1, dt, 100)
	if !ok {
		t.Fatal("large negative offset produced no target")
	}
	if target < 0 {
		t.Errorf("target = %.2f, below servo range", target)
	}
}

func TestMapperDeadbandResetsControllerMemory(t *testing.T) {
	// Pure-derivative controller with a pass-through filter makes the
	// reset observable: after a deadband sample, the next update must
	// not see a derivative spike from stale error memory.
	cfg := ResponsiveConfig()
	cfg.SmoothingAlpha = 1.0
	cfg.Kp = 0
	cfg.Ki = 0
	cfg.Kd = 1
	m := NewMapper(cfg)
	dt := 1.0 / 30

	m.Map(100, 90, dt) // primes the derivative
	m.Map(120, 90, dt)
	if _, ok := m.Map(5, 90, dt); ok {
		t.Fatal("5px offset escaped the deadband")
	}

	// First sample after the reset: unprimed derivative, so the target
	// stays exactly where it is despite the large jump in error.
	target, ok := m.Map(100, 90, dt)
	if !ok {
		t.Fatal("100px offset stuck in deadband")
	}
	if math.Abs(target-90) > 1e-9 {
		t.Errorf("post-deadband target = %.4f, want 90 (no derivative spike)", target)
	}
}

func TestMapperResetClearsFilter(t *testing.T) {
	cfg := DefaultConfig()
	m := NewMapper(cfg)
	dt := 1.0 / 30

	settle(m, 200, 90, dt, 100)
	m.Reset()

	// After a reset the EMA restarts from zero, so one small sample
	// stays inside the deadband.
	if _, ok := m.Map(30, 90, dt); ok {
		t.Error("first post-reset sample escaped the deadband")
	}
}
