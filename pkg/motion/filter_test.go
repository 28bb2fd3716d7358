package motion

import (
	"math"
	"testing"
)

func TestFilterConvergesToConstantInput(t *testing.T) {
	f := NewFilter(0.2, 15)

	var filtered float64
	var ok bool
	for i := 0; i < 100; i++ {
		filtered, ok = f.Apply(200)
	}
	if !ok {
		t.Fatal("constant 200px input stuck in deadband")
	}
	if math.Abs(filtered-200) > 1 {
		t.Errorf("filtered = %.2f, want ~200 after settling", filtered)
	}
}

func TestFilterDeadbandSuppressesJitter(t *testing.T) {
	f := NewFilter(0.2, 15)

	// 5px is inside the 15px deadband no matter how long it persists.
	for i := 0; i < 50; i++ {
		if _, ok := f.Apply(5); ok {
			t.Fatalf("iteration %d: 5px offset escaped the deadband", i)
		}
	}
}

func TestFilterSmoothsStepInput(t *testing.T) {
	f := NewFilter(0.2, 15)

	// First sample of a 100px step must be attenuated by alpha.
	filtered, ok := f.Apply(100)
	if !ok {
		t.Fatal("100px step stuck in deadband")
	}
	if math.Abs(filtered-20) > 1e-9 {
		t.Errorf("first filtered sample = %.4f, want 20 (alpha*raw)", filtered)
	}
}

func TestFilterCrossesDeadbandGradually(t *testing.T) {
	f := NewFilter(0.2, 15)

	// EMA from zero: 20, 36, 48.8... the first sample already exceeds
	// the deadband, so motion starts on sample one for a big step.
	if _, ok := f.Apply(100); !ok {
		t.Error("first 100px sample should exceed the 15px deadband")
	}

	// A small real offset takes several samples to cross.
	f.Reset()
	steps := 0
	for i := 0; i < 20; i++ {
		steps++
		if _, ok := f.Apply(25); ok {
			break
		}
	}
	if steps < 2 {
		t.Errorf("25px offset crossed the deadband in %d step(s), want smoothing lag", steps)
	}
}

func TestFilterReset(t *testing.T) {
	f := NewFilter(0.2, 15)
	for i := 0; i < 10; i++ {
		f.Apply(200)
	}
	f.Reset()
	if f.Value() != 0 {
		t.Errorf("Value after Reset = %.2f, want 0", f.Value())
	}
}
