// Package perception runs the variable-rate detection loop that publishes
// servo target angles into the shared motion state.
package perception

import (
	"context"
	"sync"
	"time"

	"github.com/astromech/panbot/internal/log"
	"github.com/astromech/panbot/pkg/motion"
	"github.com/astromech/panbot/pkg/perception/detection"
)

// idlePeriod is how long the adapter sleeps between flag checks while
// tracking is disabled.
const idlePeriod = 200 * time.Millisecond

// rateLogPeriod is how often detection-rate stats are logged.
const rateLogPeriod = 3 * time.Second

// Adapter polls the external detector at whatever rate the detector
// sustains, runs the signal through the filter and mapper, and writes the
// resulting target angle into the shared state. There is no queue toward
// the actuation loop: target writes are last-write-wins by design.
type Adapter struct {
	detector detection.Detector
	mapper   *motion.Mapper
	state    *motion.State

	mu         sync.Mutex
	polls      uint64
	detections uint64
	acquired   bool
}

// New creates a perception adapter.
func New(cfg motion.Config, detector detection.Detector, state *motion.State) *Adapter {
	return &Adapter{
		detector: detector,
		mapper:   motion.NewMapper(cfg),
		state:    state,
	}
}

// Stats returns the poll and detection counters.
func (a *Adapter) Stats() (polls, detections uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.polls, a.detections
}

// TargetAcquired reports whether the last poll saw the person.
func (a *Adapter) TargetAcquired() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.acquired
}

// Run drives the perception loop until the context is cancelled or
// shutdown is requested. Each iteration suspends on exactly one detector
// call; the shared-state lock is never held across it.
func (a *Adapter) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	log.Info("perception adapter started")
	defer log.Info("perception adapter stopped")

	lastPoll := time.Now()
	rateTimer := time.Now()
	var rateCount uint64

	for ctx.Err() == nil && !a.state.ShutdownRequested() {
		if !a.state.TrackingEnabled() {
			a.lostTarget()
			select {
			case <-ctx.Done():
				return
			case <-time.After(idlePeriod):
			}
			lastPoll = time.Now()
			continue
		}

		det, found, err := a.detector.Poll(ctx)
		now := time.Now()
		dt := now.Sub(lastPoll).Seconds()
		lastPoll = now

		a.mu.Lock()
		a.polls++
		a.mu.Unlock()

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("detector poll failed", "error", err)
			a.lostTarget()
			continue
		}

		if !found {
			a.lostTarget()
			continue
		}

		a.mu.Lock()
		a.detections++
		first := !a.acquired
		a.acquired = true
		a.mu.Unlock()
		if first {
			log.Info("target acquired", "confidence", det.Confidence, "offset_px", det.OffsetPx)
		}

		current := a.state.CurrentAngle()
		if target, ok := a.mapper.Map(float64(det.OffsetPx), current, dt); ok {
			a.state.SetTarget(target)
			log.Debug("target update", "offset_px", det.OffsetPx, "target_deg", target)
		}

		rateCount++
		if since := time.Since(rateTimer); since >= rateLogPeriod {
			log.Debug("detection rate", "hz", float64(rateCount)/since.Seconds())
			rateCount = 0
			rateTimer = time.Now()
		}
	}
}

// lostTarget resets the filter and controller memory so reacquisition
// starts clean, per the deadband contract.
func (a *Adapter) lostTarget() {
	a.mu.Lock()
	wasAcquired := a.acquired
	a.acquired = false
	a.mu.Unlock()

	if wasAcquired {
		log.Info("target lost")
	}
	a.mapper.Reset()
}
