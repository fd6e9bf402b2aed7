// Package speech transcribes recorded audio through an OpenAI-compatible
// transcription endpoint (Groq by default).
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	errx "github.com/retail-assistant/server/internal/core/error"
)

const (
	GroqBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel    = "whisper-large-v3"
	DefaultFilename = "speech.wav"
)

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("speech transcription is not configured")

type Config struct {
	APIKey  string `envconfig:"GROQ_API_KEY"`
	BaseURL string `envconfig:"SPEECH_BASE_URL" default:"https://api.groq.com/openai/v1"`
	Model   string `envconfig:"SPEECH_MODEL" default:"whisper-large-v3"`
}

type Transcriber struct {
	client *openai.Client
	model  string
}

// New returns nil when the API key is empty; a nil Transcriber reports ErrDisabled.
func New(cfg Config) *Transcriber {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = GroqBaseURL
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Transcriber{client: openai.NewClientWithConfig(config), model: model}
}

// Transcribe converts audio bytes to text. filename only hints the format.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if t == nil {
		return "", errx.New(ErrDisabled, http.StatusServiceUnavailable, ErrDisabled.Error())
	}
	if len(audio) == 0 {
		return "", errx.New(errors.New("empty audio"), http.StatusBadRequest, "audio body is required")
	}
	if filename == "" {
		filename = DefaultFilename
	}

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", errx.New(fmt.Errorf("transcription: %w", err), http.StatusBadGateway, "transcription failed")
	}
	return strings.TrimSpace(resp.Text), nil
}
