package motion

// Servo travel limits in degrees. The pan axis is a standard hobby servo
// with the midpoint of its command range at 90.
const (
	AngleMin = 0.0
	AngleMax = 180.0
)

// ControllerKind selects the offset-to-angle control policy.
type ControllerKind string

const (
	// ControllerP is proportional-only control.
	ControllerP ControllerKind = "p"

	// ControllerPID adds an anti-windup integral term and a noise-filtered
	// derivative term on top of proportional control.
	ControllerPID ControllerKind = "pid"
)

// Config holds all tunable parameters for the motion subsystem.
// Every historical tuning of the robot lives here rather than in code;
// deployments override via the YAML config file.
type Config struct {
	// Signal filter
	SmoothingAlpha float64 `yaml:"smoothing_alpha"` // EMA alpha (0-1, lower = smoother but more lag)
	DeadbandPixels float64 `yaml:"deadband_pixels"` // Ignore filtered offsets smaller than this

	// Offset-to-angle mapping
	CameraFOVDegrees float64        `yaml:"camera_fov_degrees"` // Horizontal field of view
	FrameWidthPixels float64        `yaml:"frame_width_pixels"` // Detector frame width
	Controller       ControllerKind `yaml:"controller"`         // "p" or "pid"
	Kp               float64        `yaml:"kp"`
	Ki               float64        `yaml:"ki"`
	Kd               float64        `yaml:"kd"`
	IntegralLimit    float64        `yaml:"integral_limit"`   // Anti-windup clamp on the integral term
	DerivativeBeta   float64        `yaml:"derivative_beta"`  // EMA beta on the raw derivative (0-1)
	MaxStepDegrees   float64        `yaml:"max_step_degrees"` // Rate limit per mapper update

	// Actuation loop
	TickRate             float64 `yaml:"tick_rate"`                // Loop frequency in Hz
	MaxSpeedDegPerSec    float64 `yaml:"max_speed_deg_per_sec"`    // Angular velocity cap
	SigmoidScale         float64 `yaml:"sigmoid_scale"`            // tanh(error/scale); higher = gentler ramps
	MinMovementDegPerSec float64 `yaml:"min_movement_deg_per_sec"` // Below this speed no command is issued
	HomeAngle            float64 `yaml:"home_angle"`               // Startup and teardown resting angle
}

// PixelsPerDegree derives the pixel-to-angle ratio from the camera geometry.
func (c Config) PixelsPerDegree() float64 {
	return c.FrameWidthPixels / c.CameraFOVDegrees
}

// TickPeriodSeconds returns the actuation loop period dt = 1/TickRate.
func (c Config) TickPeriodSeconds() float64 {
	return 1.0 / c.TickRate
}

// DefaultConfig returns the tuning the robot ships with: smooth enough to
// hide detector noise, fast enough to keep a walking person centered.
func DefaultConfig() Config {
	return Config{
		SmoothingAlpha: 0.2,
		DeadbandPixels: 15,

		CameraFOVDegrees: 77,  // Pi Camera Module 3 horizontal FOV
		FrameWidthPixels: 640, // ~8.3 px/deg
		Controller:       ControllerP,
		Kp:               0.15,
		Ki:               0,
		Kd:               0,
		IntegralLimit:    5.0,
		DerivativeBeta:   0.4,
		MaxStepDegrees:   4.0,

		TickRate:             100,
		MaxSpeedDegPerSec:    150,
		SigmoidScale:         10,
		MinMovementDegPerSec: 0.1,
		HomeAngle:            90,
	}
}

// SmoothConfig trades responsiveness for steadiness. Useful on wobbly
// mounts where any overshoot is visible.
func SmoothConfig() Config {
	cfg := DefaultConfig()
	cfg.SmoothingAlpha = 0.12
	cfg.DeadbandPixels = 20
	cfg.Kp = 0.10
	cfg.MaxSpeedDegPerSec = 100
	cfg.SigmoidScale = 14
	return cfg
}

// ResponsiveConfig is the PID tuning used on the bench: snappier lock-on
// with derivative dampening to absorb the extra gain.
func ResponsiveConfig() Config {
	cfg := DefaultConfig()
	cfg.SmoothingAlpha = 0.25
	cfg.DeadbandPixels = 10
	cfg.Controller = ControllerPID
	cfg.Kp = 0.06
	cfg.Kd = 0.008
	cfg.MaxStepDegrees = 1.0
	return cfg
}
