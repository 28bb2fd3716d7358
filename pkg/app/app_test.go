package app

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/astromech/panbot/internal/config"
	"github.com/astromech/panbot/pkg/perception/detection"
	"github.com/astromech/panbot/pkg/servo"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Servo.Backend = config.BackendDummy
	cfg.WebAddr = ""
	cfg.SoundsDir = ""
	cfg.VoiceEnabled = false
	// Faster convergence keeps the tests short.
	cfg.Motion.TickRate = 200
	cfg.Motion.MaxSpeedDegPerSec = 300
	return cfg
}

func newTestApp(t *testing.T, cfg config.Config, frames []detection.Frame) (*App, *servo.Dummy) {
	t.Helper()
	dummy := servo.NewDummy()
	det := detection.NewScripted(frames, 5*time.Millisecond)
	a := New(cfg, WithServo(dummy), WithDetector(det))
	if err := a.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return a, dummy
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestShutdownMidInterpolationHomesFirst(t *testing.T) {
	cfg := testConfig()
	a, dummy := newTestApp(t, cfg, nil)

	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		a.Run(ctx)
		close(done)
	}()

	// Send the head off toward 150 and interrupt it mid-move.
	waitFor(t, time.Second, func() bool { return a.Loop().Stats().Ticks > 0 }, "loop never ticked")
	a.State().SetTarget(150)
	waitFor(t, 2*time.Second, func() bool { return a.State().CurrentAngle() > 100 }, "never reached mid-interpolation")

	a.State().RequestShutdown()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after shutdown request")
	}

	// The head must be home before the actuator was released.
	if got := a.State().CurrentAngle(); math.Abs(got-cfg.Motion.HomeAngle) > 0.5 {
		t.Errorf("resting angle = %.2f, want home %.2f", got, cfg.Motion.HomeAngle)
	}
	if got := dummy.Angle(); math.Abs(got-cfg.Motion.HomeAngle) > 0.5 {
		t.Errorf("last servo command = %.2f, want home %.2f", got, cfg.Motion.HomeAngle)
	}
	if !dummy.Released() {
		t.Error("actuator not released")
	}
}

func TestContextCancelTriggersShutdown(t *testing.T) {
	cfg := testConfig()
	a, dummy := newTestApp(t, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()

	waitFor(t, time.Second, func() bool { return a.Loop().Stats().Ticks > 0 }, "loop never ticked")
	cancel()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if !dummy.Released() {
		t.Error("actuator not released on cancel")
	}
	if !a.State().ShutdownRequested() {
		t.Error("shutdown flag not set during teardown")
	}
}

func TestPerceptionDrivesServoThroughApp(t *testing.T) {
	cfg := testConfig()
	frames := []detection.Frame{
		{Det: detection.Detection{OffsetPx: 200, Confidence: 0.9}, Found: true},
	}
	a, dummy := newTestApp(t, cfg, frames)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()

	// A persistent 200px offset must pull the target above home and the
	// servo must follow.
	waitFor(t, 2*time.Second, func() bool { return a.State().TargetAngle() > cfg.Motion.HomeAngle+1 }, "perception never moved the target")
	waitFor(t, 2*time.Second, func() bool { return dummy.Commands() > 0 }, "servo never commanded")

	cancel()
	<-done
}

func TestPositionFileWrittenOnShutdown(t *testing.T) {
	cfg := testConfig()
	cfg.PositionFile = filepath.Join(t.TempDir(), "position")
	a, _ := newTestApp(t, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()
	waitFor(t, time.Second, func() bool { return a.Loop().Stats().Ticks > 0 }, "loop never ticked")
	cancel()
	<-done

	data, err := os.ReadFile(cfg.PositionFile)
	if err != nil {
		t.Fatalf("position file: %v", err)
	}
	angle, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		t.Fatalf("position file contents %q: %v", data, err)
	}
	if math.Abs(angle-cfg.Motion.HomeAngle) > 0.5 {
		t.Errorf("persisted angle = %.2f, want home %.2f", angle, cfg.Motion.HomeAngle)
	}
}

func TestInitRejectsUnknownServoBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Servo.Backend = "hydraulic"
	a := New(cfg)
	if err := a.Init(); err == nil {
		t.Fatal("Init accepted an unknown servo backend")
	}
}
