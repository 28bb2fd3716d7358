package audioio

import (
	"context"
	"math"
	"sync/atomic"
	"time"
)

// MockRecorder generates synthetic clips (silence or a sine wave)
// without touching audio hardware. Used in tests and off-robot runs.
type MockRecorder struct {
	cfg       Config
	frequency float64
	amplitude float64
	realtime  bool

	recordings atomic.Int64
}

// MockOption configures a MockRecorder.
type MockOption func(*MockRecorder)

// WithSineWave makes the mock produce a sine wave instead of silence.
func WithSineWave(frequency, amplitude float64) MockOption {
	return func(m *MockRecorder) {
		m.frequency = frequency
		m.amplitude = amplitude
	}
}

// WithRealtime makes Record actually block for the requested duration.
func WithRealtime() MockOption {
	return func(m *MockRecorder) {
		m.realtime = true
	}
}

// NewMockRecorder creates a mock recorder. By default it returns
// silence immediately.
func NewMockRecorder(cfg Config, opts ...MockOption) *MockRecorder {
	m := &MockRecorder{cfg: cfg, amplitude: 0.5}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Record returns a synthetic clip of the requested duration.
func (m *MockRecorder) Record(ctx context.Context, d time.Duration) (Clip, error) {
	if m.realtime {
		select {
		case <-ctx.Done():
			return Clip{}, ctx.Err()
		case <-time.After(d):
		}
	} else if ctx.Err() != nil {
		return Clip{}, ctx.Err()
	}

	n := int(float64(m.cfg.SampleRate) * d.Seconds())
	samples := make([]int16, n*m.cfg.Channels)
	if m.frequency > 0 {
		for i := 0; i < n; i++ {
			v := m.amplitude * math.Sin(2*math.Pi*m.frequency*float64(i)/float64(m.cfg.SampleRate))
			s := int16(v * 32767)
			for ch := 0; ch < m.cfg.Channels; ch++ {
				samples[i*m.cfg.Channels+ch] = s
			}
		}
	}

	m.recordings.Add(1)
	return Clip{
		Samples:    samples,
		SampleRate: m.cfg.SampleRate,
		Channels:   m.cfg.Channels,
	}, nil
}

// Recordings returns how many clips have been produced.
func (m *MockRecorder) Recordings() int64 { return m.recordings.Load() }

// Name returns "mock".
func (m *MockRecorder) Name() string { return "mock" }

// Close is a no-op.
func (m *MockRecorder) Close() error { return nil }

var _ Recorder = (*MockRecorder)(nil)
