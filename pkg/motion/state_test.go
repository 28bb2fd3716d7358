package motion

import (
	"sync"
	"testing"
)

func TestStateDefaults(t *testing.T) {
	s := NewState(90)

	current, target := s.Angles()
	if current != 90 || target != 90 {
		t.Errorf("Angles() = %v, %v, want 90, 90", current, target)
	}
	tracking, muted := s.Flags()
	if !tracking {
		t.Error("tracking must default to enabled")
	}
	if muted {
		t.Error("muted must default to false")
	}
	if s.ShutdownRequested() {
		t.Error("shutdown must default to false")
	}
}

func TestSetTargetClamps(t *testing.T) {
	s := NewState(90)

	s.SetTarget(400)
	if got := s.TargetAngle(); got != 180 {
		t.Errorf("target = %v, want clamped 180", got)
	}
	s.SetTarget(-50)
	if got := s.TargetAngle(); got != 0 {
		t.Errorf("target = %v, want clamped 0", got)
	}
}

func TestShutdownIsMonotonic(t *testing.T) {
	s := NewState(90)
	s.RequestShutdown()
	s.RequestShutdown()
	if !s.ShutdownRequested() {
		t.Error("shutdown flag lost")
	}
}

func TestStateLastWriteWins(t *testing.T) {
	s := NewState(90)
	s.SetTarget(100)
	s.SetTarget(120)
	s.SetTarget(110)
	if got := s.TargetAngle(); got != 110 {
		t.Errorf("target = %v, want last write 110", got)
	}
}

func TestStateConcurrentAccess(t *testing.T) {
	s := NewState(90)
	var wg sync.WaitGroup

	// Perception writes targets, actuation writes current, dispatcher
	// flips flags; run under -race.
	for i := 0; i < 4; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				s.SetTarget(float64(j % 180))
				s.Angles()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				s.SetCurrent(float64(j % 180))
				s.TrackingEnabled()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				s.SetMuted(j%2 == 0)
				s.SetTrackingEnabled(j%2 == 1)
				s.Flags()
			}
		}()
	}
	wg.Wait()

	current, target := s.Angles()
	if current < 0 || current > 180 || target < 0 || target > 180 {
		t.Errorf("angles out of range after concurrent access: %v, %v", current, target)
	}
}
