// Package servo drives the pan-axis servo. Two hardware backends are
// provided: a PCA9685 16-channel PWM board on I2C and the Pi's own
// hardware PWM pin. Both accept absolute angles in degrees; the
// angle-to-pulse mapping is a pure function shared by every backend.
package servo

import (
	"sync"
	"time"
)

// Standard hobby-servo pulse timing: a 20ms frame with the pulse width
// encoding the angle. 1.5ms is the midpoint (90 degrees).
const (
	FramePeriod   = 20 * time.Millisecond
	MinPulseWidth = 500 * time.Microsecond  // 0 degrees
	MaxPulseWidth = 2500 * time.Microsecond // 180 degrees

	angleRange = 180.0
)

// Servo is the actuator boundary of the motion subsystem. SetAngle must be
// bounded-latency; Release stops the pulse train so the horn goes limp.
type Servo interface {
	SetAngle(deg float64) error
	Release() error
	Close() error
}

// PulseForAngle maps an angle in [0,180] linearly onto the pulse range.
// Out-of-range angles are clamped. This is the only place the mapping
// lives; it has no state.
func PulseForAngle(deg float64) time.Duration {
	if deg < 0 {
		deg = 0
	} else if deg > angleRange {
		deg = angleRange
	}
	span := float64(MaxPulseWidth - MinPulseWidth)
	return MinPulseWidth + time.Duration(deg/angleRange*span)
}

// Dummy is a no-hardware servo for tests and for running the tracker off
// the robot. It records the last commanded angle.
type Dummy struct {
	mu       sync.Mutex
	angle    float64
	commands int
	released bool
}

// NewDummy returns a dummy servo.
func NewDummy() *Dummy {
	return &Dummy{}
}

// SetAngle records the command.
func (d *Dummy) SetAngle(deg float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.angle = deg
	d.commands++
	d.released = false
	return nil
}

// Release marks the pulse train stopped.
func (d *Dummy) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released = true
	return nil
}

// Close is a no-op.
func (d *Dummy) Close() error {
	return nil
}

// Angle returns the last commanded angle.
func (d *Dummy) Angle() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.angle
}

// Commands returns how many SetAngle calls were issued.
func (d *Dummy) Commands() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.commands
}

// Released reports whether Release was the most recent lifecycle call.
func (d *Dummy) Released() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.released
}
