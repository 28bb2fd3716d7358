// Package audioio captures microphone audio as fixed-length PCM16 clips
// for the voice pipeline. The production backend shells out to arecord;
// a mock backend generates synthetic audio for tests and off-robot runs.
package audioio

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"
)

// Config holds capture parameters.
type Config struct {
	// SampleRate is the capture rate in Hz. 16 kHz is what the
	// transcription endpoint expects.
	SampleRate int `yaml:"sample_rate"`

	// Channels is the number of capture channels.
	Channels int `yaml:"channels"`

	// Device is the ALSA device identifier, e.g. "hw:1,0".
	// Empty means the system default.
	Device string `yaml:"device"`
}

// DefaultConfig returns mono 16 kHz capture on the default device.
func DefaultConfig() Config {
	return Config{
		SampleRate: 16000,
		Channels:   1,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	}
	return nil
}

// Clip is a block of PCM16 little-endian audio.
type Clip struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Bytes returns the raw little-endian sample bytes.
func (c *Clip) Bytes() []byte {
	buf := make([]byte, len(c.Samples)*2)
	for i, s := range c.Samples {
		buf[i*2] = byte(s)
		buf[i*2+1] = byte(s >> 8)
	}
	return buf
}

// FromBytes populates the clip from raw PCM16 bytes.
func (c *Clip) FromBytes(data []byte, sampleRate, channels int) {
	c.SampleRate = sampleRate
	c.Channels = channels
	c.Samples = make([]int16, len(data)/2)
	for i := range c.Samples {
		c.Samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate == 0 || c.Channels == 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate*c.Channels)
}

// WAV returns the clip wrapped in a RIFF/WAVE container, which is what
// the transcription endpoint's multipart upload wants.
func (c *Clip) WAV() []byte {
	data := c.Bytes()
	byteRate := c.SampleRate * c.Channels * 2
	blockAlign := c.Channels * 2

	buf := make([]byte, 0, 44+len(data))
	buf = append(buf, "RIFF"...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(36+len(data)))
	buf = append(buf, "WAVE"...)
	buf = append(buf, "fmt "...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1) // PCM
	buf = binary.LittleEndian.AppendUint16(buf, uint16(c.Channels))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(c.SampleRate))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(byteRate))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(blockAlign))
	buf = binary.LittleEndian.AppendUint16(buf, 16) // bits per sample
	buf = append(buf, "data"...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(data)))
	buf = append(buf, data...)
	return buf
}

// Recorder captures a fixed-length clip from the microphone.
type Recorder interface {
	// Record blocks for roughly the given duration and returns the
	// captured clip.
	Record(ctx context.Context, d time.Duration) (Clip, error)

	// Name returns the backend name, e.g. "arecord" or "mock".
	Name() string

	// Close releases the capture device.
	Close() error
}
