package voice

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/astromech/panbot/internal/log"
	"github.com/astromech/panbot/pkg/audioio"
	"github.com/astromech/panbot/pkg/motion"
)

// WakeDetector blocks until the wake phrase is heard.
type WakeDetector interface {
	WaitForWake(ctx context.Context) error
}

// wakeWindow is the clip length used per wake-detection probe.
const wakeWindow = time.Second

// TranscriptWake detects the wake phrase by transcribing short rolling
// clips and substring-matching. No dedicated wake-word model needed.
type TranscriptWake struct {
	recorder    audioio.Recorder
	transcriber Transcriber
	phrase      string
}

// NewTranscriptWake creates a transcription-based wake detector.
func NewTranscriptWake(recorder audioio.Recorder, transcriber Transcriber, phrase string) *TranscriptWake {
	return &TranscriptWake{
		recorder:    recorder,
		transcriber: transcriber,
		phrase:      strings.ToLower(phrase),
	}
}

// WaitForWake records and transcribes until the phrase shows up.
func (w *TranscriptWake) WaitForWake(ctx context.Context) error {
	for {
		clip, err := w.recorder.Record(ctx, wakeWindow)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("wake capture failed", "error", err)
			continue
		}
		text, err := w.transcriber.Transcribe(ctx, clip)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("wake transcription failed", "error", err)
			continue
		}
		if strings.Contains(strings.ToLower(text), w.phrase) {
			return nil
		}
	}
}

// Listener runs the voice episode loop: wake, record a command clip,
// transcribe, dispatch, and cool down before listening again.
type Listener struct {
	cfg         Config
	state       *motion.State
	wake        WakeDetector
	recorder    audioio.Recorder
	transcriber Transcriber
	dispatcher  *Dispatcher
	classifier  Classifier
	sounds      Effects

	mu       sync.Mutex
	episodes uint64
	handled  uint64
}

// NewListener wires the episode loop. classifier and sounds may be nil.
func NewListener(cfg Config, state *motion.State, wake WakeDetector, recorder audioio.Recorder, transcriber Transcriber, dispatcher *Dispatcher, classifier Classifier, sounds Effects) *Listener {
	return &Listener{
		cfg:         cfg,
		state:       state,
		wake:        wake,
		recorder:    recorder,
		transcriber: transcriber,
		dispatcher:  dispatcher,
		classifier:  classifier,
		sounds:      sounds,
	}
}

// Stats returns episode counters.
func (l *Listener) Stats() (episodes, handled uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.episodes, l.handled
}

// Run drives the loop until cancellation or shutdown request. The wake
// detector and transcriber are blocking external calls; the shared-state
// lock is never held across them.
func (l *Listener) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	log.Info("voice listener started", "wake_phrase", l.cfg.WakePhrase)
	defer log.Info("voice listener stopped")

	for ctx.Err() == nil && !l.state.ShutdownRequested() {
		if err := l.wake.WaitForWake(ctx); err != nil {
			return
		}
		log.Info("wake phrase detected")

		l.episode(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.cfg.Cooldown):
		}
	}
}

// episode records one command clip and acts on it.
func (l *Listener) episode(ctx context.Context) {
	l.mu.Lock()
	l.episodes++
	l.mu.Unlock()

	clip, err := l.recorder.Record(ctx, l.cfg.RecordDuration)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn("command capture failed", "error", err)
		}
		return
	}

	text, err := l.transcriber.Transcribe(ctx, clip)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn("command transcription failed", "error", err)
		}
		return
	}
	if text == "" {
		// No speech in the clip. Normal, not an error.
		log.Debug("empty command clip")
		return
	}

	log.Info("heard", "text", text)
	if l.dispatcher.Dispatch(text) {
		l.mu.Lock()
		l.handled++
		l.mu.Unlock()
		return
	}

	// Not a command: react emotionally if a classifier is wired.
	if l.classifier == nil || l.sounds == nil {
		return
	}
	emotion, err := l.classifier.Classify(ctx, text)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn("emotion classification failed", "error", err)
		}
		return
	}
	log.Debug("emotional reaction", "emotion", emotion)
	l.sounds.Play(emotion)
}
