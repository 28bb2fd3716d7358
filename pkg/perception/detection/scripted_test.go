package detection

import (
	"context"
	"testing"
)

func TestScriptedReplaysAndRepeatsLastFrame(t *testing.T) {
	frames := []Frame{
		{Det: Detection{OffsetPx: 100, Confidence: 0.9}, Found: true},
		{Found: false},
		{Det: Detection{OffsetPx: -40, Confidence: 0.7}, Found: true},
	}
	s := NewScripted(frames, 0)
	ctx := context.Background()

	for i, want := range frames {
		det, found, err := s.Poll(ctx)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if found != want.Found || det != want.Det {
			t.Errorf("frame %d = (%+v, %v), want (%+v, %v)", i, det, found, want.Det, want.Found)
		}
	}

	// Exhausted script repeats its last frame.
	for i := 0; i < 3; i++ {
		det, found, err := s.Poll(ctx)
		if err != nil {
			t.Fatalf("repeat %d: %v", i, err)
		}
		if !found || det.OffsetPx != -40 {
			t.Errorf("repeat %d = (%+v, %v), want last frame", i, det, found)
		}
	}
}

func TestScriptedEmptyIsNoDetection(t *testing.T) {
	s := NewScripted(nil, 0)
	det, found, err := s.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if found {
		t.Errorf("empty script reported a detection: %+v", det)
	}
}
