// Package sound plays short WAV effects through the local speaker.
// Playback is fire and forget: callers never block on audio hardware and
// a missing or broken file only costs a log line.
package sound

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"

	"github.com/astromech/panbot/internal/log"
)

// Effect names map to <dir>/<name>.wav files.
const (
	Acknowledge = "acknowledge"
	Happy       = "happy"
	Curious     = "curious"
	Concerned   = "concerned"
	Scared      = "scared"
)

const sampleRate = beep.SampleRate(44100)

// Player queues effects to a background goroutine that owns the speaker.
type Player struct {
	dir    string
	queue  chan string
	silent bool

	mu     sync.Mutex
	closed bool
}

// NewPlayer opens the speaker and starts the playback goroutine. If the
// speaker cannot be opened the player stays usable but drops effects,
// so the robot keeps tracking on machines with no audio device.
func NewPlayer(dir string) *Player {
	p := &Player{dir: dir, queue: make(chan string, 8)}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/5)); err != nil {
		log.Warn("speaker init failed, sound effects disabled", "error", err)
		p.silent = true
	}
	go p.run()
	return p
}

// Play queues the named effect. Drops it if the queue is full; a stale
// ack is worse than a skipped one. Safe to call after Close: voice
// units can still dispatch an ack while the app is tearing down.
func (p *Player) Play(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- name:
	default:
		log.Debug("sound queue full, dropping effect", "name", name)
	}
}

// Close stops the playback goroutine. Queued effects are dropped.
// Idempotent.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	return nil
}

func (p *Player) run() {
	var current *beep.Ctrl
	for name := range p.queue {
		if p.silent {
			continue
		}
		// A new effect interrupts whatever is still playing.
		if current != nil {
			speaker.Lock()
			current.Paused = true
			current.Streamer = nil
			speaker.Unlock()
			current = nil
		}

		streamer, format, err := p.open(name)
		if err != nil {
			log.Warn("sound effect unavailable", "name", name, "error", err)
			continue
		}
		var s beep.Streamer = streamer
		if format.SampleRate != sampleRate {
			s = beep.Resample(4, format.SampleRate, sampleRate, streamer)
		}
		current = &beep.Ctrl{Streamer: beep.Seq(s, beep.Callback(func() {
			streamer.Close()
		}))}
		speaker.Play(current)
	}
}

func (p *Player) open(name string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(filepath.Join(p.dir, name+".wav"))
	if err != nil {
		return nil, beep.Format{}, err
	}
	s, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", name, err)
	}
	return s, format, nil
}
