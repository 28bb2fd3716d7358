package motion

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/astromech/panbot/internal/log"
)

// Actuator receives absolute angle commands from the actuation loop.
// Implementations must be non-blocking or bounded-latency: a stall here
// stalls physical motion.
type Actuator interface {
	SetAngle(deg float64) error
}

// LoopStats is a snapshot of actuation loop counters.
type LoopStats struct {
	Ticks    uint64 `json:"ticks"`
	Commands uint64 `json:"commands"`
	Overruns uint64 `json:"overruns"`
}

// Loop is the fixed-tick actuation unit. Every tick it reads the target
// angle, interpolates the current angle toward it along a tanh S-curve
// (slow start, fast middle, slow settle, saturating at the speed cap) and
// commands the servo when the step is worth issuing. It is the single
// writer of the current angle.
//
// The loop is in one of two states: Idle (converged, no commands issued)
// and Interpolating (moving toward the target).
type Loop struct {
	cfg   Config
	state *State
	servo Actuator

	ticks         atomic.Uint64
	commands      atomic.Uint64
	overruns      atomic.Uint64
	interpolating atomic.Bool
}

// NewLoop creates the actuation loop. It does not command the servo until
// Run is called.
func NewLoop(cfg Config, state *State, servo Actuator) *Loop {
	return &Loop{
		cfg:   cfg,
		state: state,
		servo: servo,
	}
}

// MoveTo requests a move to an absolute angle through the loop's own
// interpolation. Used by the orchestrator for homing; it goes through the
// same shared target the perception unit writes.
func (l *Loop) MoveTo(deg float64) {
	l.state.SetTarget(deg)
}

// Interpolating reports whether the last tick issued a command.
func (l *Loop) Interpolating() bool {
	return l.interpolating.Load()
}

// Settled reports whether the loop has converged on its target: the error
// is inside the band where the S-curve step falls below the minimum
// movement threshold, so no further commands will be issued.
func (l *Loop) Settled() bool {
	current, target := l.state.Angles()
	return math.Abs(target-current) <= l.settleToleranceDeg()
}

// settleToleranceDeg is the error magnitude below which a tick issues no
// command: |tanh(err/scale)|*maxSpeed <= minMovement.
func (l *Loop) settleToleranceDeg() float64 {
	ratio := l.cfg.MinMovementDegPerSec / l.cfg.MaxSpeedDegPerSec
	if ratio >= 1 {
		return l.cfg.SigmoidScale
	}
	return l.cfg.SigmoidScale * math.Atanh(ratio)
}

// WaitSettled blocks until the loop has converged, the timeout elapses or
// the context is cancelled. Returns true only on convergence.
func (l *Loop) WaitSettled(ctx context.Context, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	poll := time.NewTicker(time.Duration(float64(time.Second) / l.cfg.TickRate))
	defer poll.Stop()

	for {
		if l.Settled() {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-poll.C:
		}
	}
}

// Stats returns a snapshot of the loop counters.
func (l *Loop) Stats() LoopStats {
	return LoopStats{
		Ticks:    l.ticks.Load(),
		Commands: l.commands.Load(),
		Overruns: l.overruns.Load(),
	}
}

// Run drives the loop at the configured tick rate until the context is
// cancelled. Unlike the other units it deliberately ignores the shutdown
// flag: the orchestrator needs it ticking through the return-to-home
// interpolation and cancels it afterwards. Scheduling is self-correcting:
// each iteration sleeps the tick period minus its own processing time. An
// iteration that overruns the period proceeds straight to the next tick;
// missed ticks are never replayed.
func (l *Loop) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	dt := l.cfg.TickPeriodSeconds()
	period := time.Duration(dt * float64(time.Second))
	log.Info("actuation loop started", "rate_hz", l.cfg.TickRate, "max_speed_deg_s", l.cfg.MaxSpeedDegPerSec)
	defer log.Info("actuation loop stopped")

	for ctx.Err() == nil {
		start := time.Now()
		l.tick(dt)

		remaining := period - time.Since(start)
		if remaining <= 0 {
			l.overruns.Add(1)
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(remaining):
		}
	}
}

// tick performs one interpolation step.
func (l *Loop) tick(dt float64) {
	l.ticks.Add(1)

	current, target := l.state.Angles()
	errorDeg := target - current

	// Bounded S-curve velocity factor in [-1, 1].
	smooth := math.Tanh(errorDeg / l.cfg.SigmoidScale)
	step := smooth * l.cfg.MaxSpeedDegPerSec * dt

	if math.Abs(step) <= l.cfg.MinMovementDegPerSec*dt {
		// Converged: no redundant servo writes in steady state.
		l.interpolating.Store(false)
		return
	}

	next := ClampAngle(current + step)
	l.state.SetCurrent(next)
	l.interpolating.Store(true)

	if err := l.servo.SetAngle(next); err != nil {
		log.Warn("servo command failed", "angle", next, "error", err)
		return
	}
	l.commands.Add(1)
}
