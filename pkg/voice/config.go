// Package voice runs the wake-word / command episode loop: wait for the
// wake phrase, record a short clip, transcribe it, and dispatch the text
// as a robot command or an emotional reaction.
package voice

import "time"

// Config holds tunables for the voice episode loop.
type Config struct {
	// WakePhrase is what the robot listens for, matched case-insensitively
	// inside a short rolling transcription window.
	WakePhrase string `yaml:"wake_phrase"`

	// Cooldown is how long after handling a command before the wake
	// detector is consulted again. Stops the robot re-triggering on its
	// own acknowledgement sound.
	Cooldown time.Duration `yaml:"cooldown"`

	// RecordDuration is how long to record after the wake phrase.
	RecordDuration time.Duration `yaml:"record_duration"`

	// TranscribeURL is an OpenAI-compatible /v1/audio/transcriptions
	// endpoint (whisper.cpp server, faster-whisper, or the hosted API).
	TranscribeURL string `yaml:"transcribe_url"`

	// TranscribeModel is the model name sent with each request.
	TranscribeModel string `yaml:"transcribe_model"`

	// ClassifyURL is an OpenAI-compatible /v1/chat/completions endpoint
	// used to pick an emotional reaction for non-command speech.
	// Empty disables emotional reactions.
	ClassifyURL string `yaml:"classify_url"`

	// ClassifyModel is the chat model used for emotion classification.
	ClassifyModel string `yaml:"classify_model"`

	// APIKey is the bearer token for both endpoints. Optional for
	// self-hosted servers.
	APIKey string `yaml:"api_key"`
}

// DefaultConfig returns the standard listener tuning.
func DefaultConfig() Config {
	return Config{
		WakePhrase:      "hey robot",
		Cooldown:        5 * time.Second,
		RecordDuration:  3 * time.Second,
		TranscribeURL:   "http://localhost:8080/v1/audio/transcriptions",
		TranscribeModel: "whisper-1",
		ClassifyModel:   "llama3.1",
	}
}
