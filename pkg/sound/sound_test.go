package sound

import (
	"sync"
	"testing"
)

func TestPlayAfterCloseIsNoOp(t *testing.T) {
	p := NewPlayer(t.TempDir())

	p.Play(Acknowledge)
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// The voice listener can outlive the player during teardown and
	// still dispatch an ack. That must not panic.
	p.Play(Acknowledge)
	p.Play(Happy)
}

func TestCloseIsIdempotent(t *testing.T) {
	p := NewPlayer(t.TempDir())
	if err := p.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestConcurrentPlayAndClose(t *testing.T) {
	p := NewPlayer(t.TempDir())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			p.Play(Curious)
		}
	}()
	go func() {
		defer wg.Done()
		p.Close()
	}()
	wg.Wait()
}
