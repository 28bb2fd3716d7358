package detection

import (
	"context"
	"sync"
	"time"
)

// Frame is one scripted detector result.
type Frame struct {
	Det   Detection
	Found bool
}

// Scripted replays a fixed sequence of detection results with an optional
// per-poll delay. Used in tests and for running the control loops off the
// robot. After the script is exhausted it repeats the last frame.
type Scripted struct {
	mu     sync.Mutex
	frames []Frame
	next   int
	delay  time.Duration
}

// NewScripted creates a scripted detector.
func NewScripted(frames []Frame, delay time.Duration) *Scripted {
	return &Scripted{frames: frames, delay: delay}
}

// Poll returns the next scripted frame.
func (s *Scripted) Poll(ctx context.Context) (Detection, bool, error) {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return Detection{}, false, ctx.Err()
		case <-time.After(s.delay):
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return Detection{}, false, nil
	}
	f := s.frames[s.next]
	if s.next < len(s.frames)-1 {
		s.next++
	}
	return f.Det, f.Found, nil
}

// Close is a no-op.
func (s *Scripted) Close() error {
	return nil
}
