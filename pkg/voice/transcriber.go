package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/astromech/panbot/internal/httpc"
	"github.com/astromech/panbot/pkg/audioio"
)

// Transcriber converts a recorded clip to text. Empty text means no
// speech was heard; it is not an error.
type Transcriber interface {
	Transcribe(ctx context.Context, clip audioio.Clip) (string, error)
}

// Classifier maps an utterance to an emotion effect name (one of the
// names in pkg/sound).
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// HTTPTranscriber posts WAV clips to an OpenAI-compatible
// /v1/audio/transcriptions endpoint.
type HTTPTranscriber struct {
	url    string
	model  string
	apiKey string
}

// NewHTTPTranscriber creates a transcriber client.
func NewHTTPTranscriber(url, model, apiKey string) *HTTPTranscriber {
	return &HTTPTranscriber{url: url, model: model, apiKey: apiKey}
}

// Transcribe uploads the clip and returns the transcribed text.
func (t *HTTPTranscriber) Transcribe(ctx context.Context, clip audioio.Clip) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "clip.wav")
	if err != nil {
		return "", fmt.Errorf("voice: build upload: %w", err)
	}
	if _, err := part.Write(clip.WAV()); err != nil {
		return "", fmt.Errorf("voice: build upload: %w", err)
	}
	if err := w.WriteField("model", t.model); err != nil {
		return "", fmt.Errorf("voice: build upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("voice: build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, &body)
	if err != nil {
		return "", fmt.Errorf("voice: transcribe request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("voice: transcribe: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("voice: transcribe: status %d: %s", resp.StatusCode, msg)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("voice: transcribe response: %w", err)
	}
	return strings.TrimSpace(out.Text), nil
}

// classifyPrompt constrains the model to a single effect name.
const classifyPrompt = `You pick an emotional reaction for a small robot.
Reply with exactly one word from: happy, curious, concerned, scared, acknowledge.
Pick the one that best fits what the person just said.`

// HTTPClassifier calls an OpenAI-compatible /v1/chat/completions
// endpoint to pick an emotion effect for non-command speech.
type HTTPClassifier struct {
	url    string
	model  string
	apiKey string
}

// NewHTTPClassifier creates a classifier client.
func NewHTTPClassifier(url, model, apiKey string) *HTTPClassifier {
	return &HTTPClassifier{url: url, model: model, apiKey: apiKey}
}

// Classify returns one of the pkg/sound effect names. Unexpected model
// output falls back to acknowledge.
func (c *HTTPClassifier) Classify(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": classifyPrompt},
			{"role": "user", "content": text},
		},
		"max_tokens":  4,
		"temperature": 0,
	})
	if err != nil {
		return "", fmt.Errorf("voice: classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("voice: classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("voice: classify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("voice: classify: status %d: %s", resp.StatusCode, msg)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("voice: classify response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("voice: classify: empty response")
	}
	return normalizeEmotion(out.Choices[0].Message.Content), nil
}

func normalizeEmotion(raw string) string {
	word := strings.ToLower(strings.TrimSpace(raw))
	word = strings.Trim(word, ".!\"'")
	switch word {
	case "happy", "curious", "concerned", "scared", "acknowledge":
		return word
	}
	return "acknowledge"
}
