package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	elevenlabs "github.com/agentplexus/go-elevenlabs"
)

const (
	elevenLabsDefaultBaseURL      = "https://api.elevenlabs.io"
	elevenLabsDefaultOutputFormat = "mp3_44100_128"
)

// ElevenLabsOption configures the ElevenLabs client.
type ElevenLabsOption func(*ElevenLabsClient)

// WithElevenLabsBaseURL sets the ElevenLabs API base URL.
func WithElevenLabsBaseURL(baseURL string) ElevenLabsOption {
	return func(c *ElevenLabsClient) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithElevenLabsHTTPClient sets the HTTP client used for requests.
func WithElevenLabsHTTPClient(client *http.Client) ElevenLabsOption {
	return func(c *ElevenLabsClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithElevenLabsModels overrides the speech model and voice id; empty fields keep the defaults.
func WithElevenLabsModels(models Models) ElevenLabsOption {
	return func(c *ElevenLabsClient) {
		c.models = c.models.Merge(models)
	}
}

// ElevenLabsClient is a speech-only SpeechSynthesizer backed by the ElevenLabs HTTP API.
type ElevenLabsClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	models     Models
	settings   VoiceSettings
	tts        *elevenlabs.Client
}

// NewElevenLabs constructs a new ElevenLabs client. The apiKey is required.
func NewElevenLabs(apiKey string, opts ...ElevenLabsOption) (*ElevenLabsClient, error) {
	if apiKey == "" {
		return nil, errors.New("ELEVENLABS_API_KEY is required")
	}
	c := &ElevenLabsClient{
		apiKey:     apiKey,
		baseURL:    elevenLabsDefaultBaseURL,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		models:     ElevenLabsDefaults(),
		settings:   DefaultVoiceSettings(),
	}
	for _, opt := range opts {
		opt(c)
	}
	tts, err := elevenlabs.NewClient(
		elevenlabs.WithAPIKey(apiKey),
		elevenlabs.WithBaseURL(c.baseURL),
		elevenlabs.WithHTTPClient(c.httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("create elevenlabs client: %w", err)
	}
	c.tts = tts
	return c, nil
}

func (c *ElevenLabsClient) Models() Models { return c.models }

// VoiceSettings tunes ElevenLabs voice rendering.
type VoiceSettings struct {
	Stability       float64
	SimilarityBoost float64
	Style           float64
	UseSpeakerBoost bool
}

// DefaultVoiceSettings returns a lively, speaker-boosted delivery.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Stability:       0.35,
		SimilarityBoost: 0.75,
		Style:           0.4,
		UseSpeakerBoost: true,
	}
}

// ElevenLabsAPIError captures error details from ElevenLabs responses.
type ElevenLabsAPIError struct {
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *ElevenLabsAPIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("elevenlabs api error: %s", e.Status)
	}
	return fmt.Sprintf("elevenlabs api error: %s: %s", e.Status, e.Body)
}

func (e *ElevenLabsAPIError) Unwrap() error { return e.Err }

// Synthesize returns MP3 audio for text using the configured model and voice.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string) (Audio, error) {
	if strings.TrimSpace(c.models.Voice) == "" {
		return Audio{}, errors.New("voice id is required")
	}
	if strings.TrimSpace(text) == "" {
		return Audio{}, errors.New("text is required")
	}

	resp, err := c.tts.TextToSpeech().Generate(ctx, &elevenlabs.TTSRequest{
		VoiceID:      c.models.Voice,
		Text:         text,
		ModelID:      c.models.Speech,
		OutputFormat: elevenLabsDefaultOutputFormat,
		VoiceSettings: &elevenlabs.VoiceSettings{
			Stability:       c.settings.Stability,
			SimilarityBoost: c.settings.SimilarityBoost,
			Style:           c.settings.Style,
			SpeakerBoost:    c.settings.UseSpeakerBoost,
		},
	})
	if err != nil {
		return Audio{}, elevenLabsError(err)
	}
	if resp == nil || resp.Audio == nil {
		return Audio{}, ErrEmptyResponse
	}
	data, err := io.ReadAll(resp.Audio)
	if err != nil {
		return Audio{}, fmt.Errorf("read elevenlabs audio: %w", err)
	}
	if len(data) == 0 {
		return Audio{}, ErrEmptyResponse
	}
	return Audio{Data: data, MIMEType: "audio/mpeg"}, nil
}

func elevenLabsError(err error) error {
	var apiErr *elevenlabs.APIError
	if errors.As(err, &apiErr) {
		return &ElevenLabsAPIError{
			StatusCode: apiErr.StatusCode,
			Status:     fmt.Sprintf("%d %s", apiErr.StatusCode, http.StatusText(apiErr.StatusCode)),
			Body:       strings.TrimSpace(apiErr.Message),
			Err:        err,
		}
	}
	return fmt.Errorf("elevenlabs text to speech: %w", err)
}
