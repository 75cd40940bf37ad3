package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewElevenLabsRequiresKey(t *testing.T) {
	if _, err := NewElevenLabs(""); err == nil {
		t.Fatalf("expected error when api key missing")
	}
}

func TestElevenLabsSynthesize(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3bytes"))
	}))
	defer srv.Close()

	c, err := NewElevenLabs("el-key",
		WithElevenLabsBaseURL(srv.URL),
		WithElevenLabsHTTPClient(srv.Client()),
		WithElevenLabsModels(Models{Voice: "voice-123"}),
	)
	if err != nil {
		t.Fatalf("NewElevenLabs: %v", err)
	}
	audio, err := c.Synthesize(context.Background(), "Hi there")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio.Data) != "mp3bytes" || audio.MIMEType != "audio/mpeg" {
		t.Fatalf("unexpected audio: %q %s", audio.Data, audio.MIMEType)
	}
	if !strings.HasSuffix(gotPath, "/text-to-speech/voice-123") {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotKey != "el-key" {
		t.Fatalf("api key header not sent")
	}
	if gotBody["text"] != "Hi there" || gotBody["model_id"] != ElevenLabsDefaults().Speech {
		t.Fatalf("unexpected body: %v", gotBody)
	}
}

func TestElevenLabsRequestError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := NewElevenLabs("el-key", WithElevenLabsBaseURL(srv.URL), WithElevenLabsHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewElevenLabs: %v", err)
	}
	_, err = c.Synthesize(context.Background(), "Hi there")
	if err == nil {
		t.Fatalf("expected error for 429 response")
	}
	if errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("request failure reported as empty response: %v", err)
	}
}

func TestElevenLabsAPIErrorMessage(t *testing.T) {
	err := &ElevenLabsAPIError{StatusCode: http.StatusTooManyRequests, Status: "429 Too Many Requests", Body: "quota exceeded", Err: errors.New("sdk")}
	if got := err.Error(); got != "elevenlabs api error: 429 Too Many Requests: quota exceeded" {
		t.Fatalf("unexpected message: %s", got)
	}
	if errors.Unwrap(err) == nil {
		t.Fatalf("expected wrapped sdk error")
	}
}

func TestElevenLabsEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewElevenLabs("el-key", WithElevenLabsBaseURL(srv.URL), WithElevenLabsHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewElevenLabs: %v", err)
	}
	if _, err := c.Synthesize(context.Background(), "Hi"); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestElevenLabsRequiresVoice(t *testing.T) {
	c, err := NewElevenLabs("el-key")
	if err != nil {
		t.Fatalf("NewElevenLabs: %v", err)
	}
	c.models.Voice = " "
	if _, err := c.Synthesize(context.Background(), "Hi"); err == nil {
		t.Fatalf("expected error for blank voice id")
	}
}
