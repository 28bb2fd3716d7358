package motion

import "sync"

// State is the only mutable data shared between the perception, actuation
// and command units. One mutex guards everything; critical sections are a
// single read or a single read-modify-write and the lock is never held
// across a blocking call.
//
// Ownership: current angle is written only by the actuation loop, target
// angle only by the perception unit (and by the orchestrator when homing),
// flags by the command dispatcher and orchestrator. Target writes are
// last-write-wins; the actuation loop re-samples every tick so a lost
// intermediate write is irrelevant to control quality.
type State struct {
	mu sync.Mutex

	currentAngle float64
	targetAngle  float64

	trackingEnabled   bool
	muted             bool
	shutdownRequested bool
}

// NewState creates the shared state with current = target = home and
// tracking enabled.
func NewState(homeAngle float64) *State {
	home := ClampAngle(homeAngle)
	return &State{
		currentAngle:    home,
		targetAngle:     home,
		trackingEnabled: true,
	}
}

// Angles returns the current and target angle in one critical section so
// the actuation tick sees a consistent pair.
func (s *State) Angles() (current, target float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentAngle, s.targetAngle
}

// CurrentAngle returns the angle the actuation loop last commanded.
func (s *State) CurrentAngle() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentAngle
}

// TargetAngle returns the angle the actuation loop is converging on.
func (s *State) TargetAngle() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targetAngle
}

// SetTarget stores a new target angle, clamped to the servo range.
func (s *State) SetTarget(deg float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targetAngle = ClampAngle(deg)
}

// SetCurrent records the angle just commanded. Only the actuation loop
// calls this.
func (s *State) SetCurrent(deg float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentAngle = ClampAngle(deg)
}

// TrackingEnabled reports whether the perception unit should publish
// targets.
func (s *State) TrackingEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trackingEnabled
}

// SetTrackingEnabled toggles target publishing.
func (s *State) SetTrackingEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackingEnabled = enabled
}

// Muted reports whether the command dispatcher is ignoring everything but
// the unmute phrase.
func (s *State) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// SetMuted toggles the mute flag.
func (s *State) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = muted
}

// Flags returns the tracking and mute flags in one critical section so a
// reader never observes a half-updated pair.
func (s *State) Flags() (trackingEnabled, muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trackingEnabled, s.muted
}

// ShutdownRequested reports whether shutdown has been requested. The flag
// is monotonic; it is never cleared once set.
func (s *State) ShutdownRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdownRequested
}

// RequestShutdown sets the terminal shutdown flag. Every loop observes it
// cooperatively and exits at its next iteration boundary.
func (s *State) RequestShutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdownRequested = true
}
