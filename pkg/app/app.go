// Package app wires the robot together and owns startup ordering and
// the shutdown sequence.
package app

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/astromech/panbot/internal/config"
	"github.com/astromech/panbot/internal/log"
	"github.com/astromech/panbot/pkg/audioio"
	"github.com/astromech/panbot/pkg/motion"
	"github.com/astromech/panbot/pkg/perception"
	"github.com/astromech/panbot/pkg/perception/detection"
	"github.com/astromech/panbot/pkg/servo"
	"github.com/astromech/panbot/pkg/sound"
	"github.com/astromech/panbot/pkg/voice"
	"github.com/astromech/panbot/pkg/web"
)

// joinTimeout bounds how long shutdown waits for any single unit.
// Joins are best-effort; teardown proceeds regardless.
const joinTimeout = 3 * time.Second

// homeTimeout bounds the return-to-home interpolation on shutdown.
const homeTimeout = 5 * time.Second

// pollPeriod is how often Run checks the shutdown flag.
const pollPeriod = 200 * time.Millisecond

// App is the robot process: shared state, the control loops, and the
// optional voice and dashboard units.
type App struct {
	cfg config.Config

	state *motion.State
	loop  *motion.Loop
	servo servo.Servo

	detector detection.Detector
	adapter  *perception.Adapter
	listener *voice.Listener
	sounds   *sound.Player
	web      *web.Server

	// Per-unit lifecycles so perception can be stopped before motion.
	stopPerception context.CancelFunc
	stopLoop       context.CancelFunc
	stopAux        context.CancelFunc
	perceptionWG   sync.WaitGroup
	loopWG         sync.WaitGroup
	auxWG          sync.WaitGroup

	shutdownOnce sync.Once
}

// Option overrides a collaborator, mainly for tests and bench rigs.
type Option func(*App)

// WithServo injects an actuator driver instead of the configured one.
func WithServo(s servo.Servo) Option {
	return func(a *App) { a.servo = s }
}

// WithDetector injects a detector instead of the YOLO camera pipeline.
func WithDetector(d detection.Detector) Option {
	return func(a *App) { a.detector = d }
}

// New creates the app. Call Init before Run.
func New(cfg config.Config, opts ...Option) *App {
	a := &App{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State exposes the shared motion state, valid after Init.
func (a *App) State() *motion.State { return a.state }

// Loop exposes the actuation loop, valid after Init.
func (a *App) Loop() *motion.Loop { return a.loop }

// Init constructs every unit. Hardware failures here are fatal: no
// control loop starts if the actuator or camera cannot be opened.
func (a *App) Init() error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.state = motion.NewState(a.cfg.Motion.HomeAngle)

	if a.servo == nil {
		s, err := a.cfg.OpenServo()
		if err != nil {
			return fmt.Errorf("app: open servo: %w", err)
		}
		a.servo = s
	}
	a.loop = motion.NewLoop(a.cfg.Motion, a.state, a.servo)

	if a.detector == nil {
		d, err := detection.NewYOLO(a.cfg.Detector)
		if err != nil {
			return fmt.Errorf("app: open detector: %w", err)
		}
		a.detector = d
	}
	a.adapter = perception.New(a.cfg.Motion, a.detector, a.state)

	if a.cfg.SoundsDir != "" {
		a.sounds = sound.NewPlayer(a.cfg.SoundsDir)
	}

	if a.cfg.VoiceEnabled {
		recorder, err := audioio.NewArecordRecorder(a.cfg.Audio)
		if err != nil {
			return fmt.Errorf("app: open recorder: %w", err)
		}
		transcriber := voice.NewHTTPTranscriber(a.cfg.Voice.TranscribeURL, a.cfg.Voice.TranscribeModel, a.cfg.Voice.APIKey)
		var classifier voice.Classifier
		if a.cfg.Voice.ClassifyURL != "" {
			classifier = voice.NewHTTPClassifier(a.cfg.Voice.ClassifyURL, a.cfg.Voice.ClassifyModel, a.cfg.Voice.APIKey)
		}
		wake := voice.NewTranscriptWake(recorder, transcriber, a.cfg.Voice.WakePhrase)
		dispatcher := voice.NewDispatcher(a.state, a.sounds)
		a.listener = voice.NewListener(a.cfg.Voice, a.state, wake, recorder, transcriber, dispatcher, classifier, a.sounds)
	}

	if a.cfg.WebAddr != "" {
		a.web = web.NewServer(a.cfg.WebAddr, a.state, a.loop, a.adapter)
	}

	log.Info("initialized",
		"servo", a.cfg.Servo.Backend,
		"controller", a.cfg.Motion.Controller,
		"voice", a.cfg.VoiceEnabled,
		"dashboard", a.cfg.WebAddr,
	)
	return nil
}

// Run starts the units in order (home, actuation loop, perception, then
// the auxiliary units) and blocks until the context ends or a voice
// command requests shutdown. It always runs the teardown sequence
// before returning.
func (a *App) Run(ctx context.Context) error {
	loopCtx, stopLoop := context.WithCancel(context.Background())
	a.stopLoop = stopLoop
	perceptionCtx, stopPerception := context.WithCancel(context.Background())
	a.stopPerception = stopPerception
	auxCtx, stopAux := context.WithCancel(context.Background())
	a.stopAux = stopAux

	// The loop must be ticking before homing can interpolate.
	a.loopWG.Add(1)
	go a.loop.Run(loopCtx, &a.loopWG)

	a.loop.MoveTo(a.cfg.Motion.HomeAngle)
	if !a.loop.WaitSettled(ctx, homeTimeout) {
		log.Warn("homing did not settle", "timeout", homeTimeout)
		a.dashLog("warn", "homing did not settle")
	} else {
		log.Info("homed", "angle", a.cfg.Motion.HomeAngle)
		a.dashLog("info", fmt.Sprintf("homed at %.1f°", a.cfg.Motion.HomeAngle))
	}

	a.perceptionWG.Add(1)
	go a.adapter.Run(perceptionCtx, &a.perceptionWG)

	if a.listener != nil {
		a.auxWG.Add(1)
		go a.listener.Run(auxCtx, &a.auxWG)
	}
	if a.web != nil {
		a.auxWG.Add(1)
		go a.web.Run(auxCtx, &a.auxWG)
	}

	ticker := time.NewTicker(pollPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("context cancelled, shutting down")
			a.dashLog("info", "shutting down")
			a.Shutdown()
			return nil
		case <-ticker.C:
			if a.state.ShutdownRequested() {
				log.Info("shutdown requested, shutting down")
				a.dashLog("info", "shutdown requested")
				a.Shutdown()
				return nil
			}
		}
	}
}

// Shutdown runs the teardown sequence exactly once: stop producing new
// targets, return to home using the loop's own interpolation, stop the
// loop, then release the actuator. Every step is best-effort; a failed
// step never blocks the ones after it.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		a.state.RequestShutdown()

		// Perception first so nothing overwrites the homing target.
		if a.stopPerception != nil {
			a.stopPerception()
			waitTimeout(&a.perceptionWG, joinTimeout, "perception")
		}
		if a.detector != nil {
			if err := a.detector.Close(); err != nil {
				log.Warn("detector close failed", "error", err)
			}
		}

		// Home on the loop's own S-curve, never a jump.
		if a.loop != nil {
			a.loop.MoveTo(a.cfg.Motion.HomeAngle)
			homeCtx, cancel := context.WithTimeout(context.Background(), homeTimeout)
			if !a.loop.WaitSettled(homeCtx, homeTimeout) {
				log.Warn("return to home did not settle before teardown")
				a.dashLog("warn", "return to home did not settle before teardown")
			}
			cancel()
		}

		if a.stopLoop != nil {
			a.stopLoop()
			waitTimeout(&a.loopWG, joinTimeout, "actuation loop")
		}

		if a.servo != nil {
			if err := a.servo.Release(); err != nil {
				log.Warn("servo release failed", "error", err)
			}
			if err := a.servo.Close(); err != nil {
				log.Warn("servo close failed", "error", err)
			}
		}

		a.writePosition()

		if a.stopAux != nil {
			a.stopAux()
			waitTimeout(&a.auxWG, joinTimeout, "auxiliary units")
		}
		if a.sounds != nil {
			a.sounds.Close()
		}

		log.Info("shutdown complete", "resting_angle", a.state.CurrentAngle())
	})
}

// dashLog mirrors a lifecycle event onto the dashboard log feed.
func (a *App) dashLog(level, message string) {
	if a.web != nil {
		a.web.AddLog(level, message)
	}
}

// writePosition records the resting angle when a position file is
// configured. Convenience only; startup always homes.
func (a *App) writePosition() {
	if a.cfg.PositionFile == "" || a.state == nil {
		return
	}
	angle := strconv.FormatFloat(a.state.CurrentAngle(), 'f', 2, 64)
	if err := os.WriteFile(a.cfg.PositionFile, []byte(angle+"\n"), 0o644); err != nil {
		log.Warn("position file write failed", "path", a.cfg.PositionFile, "error", err)
	}
}

// waitTimeout joins wg but gives up after d so shutdown never hangs on
// a stuck unit.
func waitTimeout(wg *sync.WaitGroup, d time.Duration, name string) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		log.Warn("unit did not stop in time", "unit", name, "timeout", d)
	}
}
