package audioio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/astromech/panbot/internal/log"
)

// ArecordRecorder captures clips by running the ALSA arecord utility.
// Shelling out keeps the binary CGO-free and matches how the capture
// path behaves on the Pi.
type ArecordRecorder struct {
	cfg Config
}

// NewArecordRecorder verifies arecord is on PATH and returns a recorder.
func NewArecordRecorder(cfg Config) (*ArecordRecorder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := exec.LookPath("arecord"); err != nil {
		return nil, fmt.Errorf("arecord not found: %w", err)
	}
	return &ArecordRecorder{cfg: cfg}, nil
}

// Record captures d seconds of raw PCM16 audio. arecord only accepts
// whole-second durations, so d is rounded up.
func (r *ArecordRecorder) Record(ctx context.Context, d time.Duration) (Clip, error) {
	seconds := int(d.Seconds())
	if time.Duration(seconds)*time.Second < d {
		seconds++
	}
	if seconds < 1 {
		seconds = 1
	}

	args := []string{
		"-q",
		"-t", "raw",
		"-f", "S16_LE",
		"-r", strconv.Itoa(r.cfg.SampleRate),
		"-c", strconv.Itoa(r.cfg.Channels),
		"-d", strconv.Itoa(seconds),
	}
	if r.cfg.Device != "" {
		args = append(args, "-D", r.cfg.Device)
	}

	cmd := exec.CommandContext(ctx, "arecord", args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		log.Debug("arecord failed", "stderr", stderr.String())
		return Clip{}, fmt.Errorf("arecord: %w", err)
	}

	var clip Clip
	clip.FromBytes(out.Bytes(), r.cfg.SampleRate, r.cfg.Channels)
	return clip, nil
}

// Name returns "arecord".
func (r *ArecordRecorder) Name() string { return "arecord" }

// Close is a no-op; each recording spawns its own process.
func (r *ArecordRecorder) Close() error { return nil }

var _ Recorder = (*ArecordRecorder)(nil)
