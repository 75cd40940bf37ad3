// Package generation adapts typed studio requests to a generative provider and
// normalizes its responses into the values the front end consumes.
//
// Each operation performs at most one provider call: no caching, no retries,
// no batching. Failures are returned as *CallError and logged once.
package generation

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"time"

	"studio/internal/ai"
	"studio/internal/datauri"
	"studio/internal/prompts"
)

const defaultImageMIMEType = "image/jpeg"

// Option configures a Client.
type Option func(*Client)

// WithSpeech sets the synthesizer used by GenerateSpeech.
func WithSpeech(s ai.SpeechSynthesizer) Option {
	return func(c *Client) {
		if s != nil {
			c.speech = s
		}
	}
}

// WithLogger sets the logger used for failure diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records call outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// Client is the generation client. It holds no per-call state and is safe for concurrent use.
type Client struct {
	provider ai.Provider
	speech   ai.SpeechSynthesizer
	logger   *slog.Logger
	metrics  *Metrics
}

// New returns a Client calling provider. When provider also implements
// ai.SpeechSynthesizer it is used for speech unless WithSpeech overrides it.
func New(provider ai.Provider, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, errors.New("provider is required")
	}
	c := &Client{provider: provider, logger: slog.Default()}
	if s, ok := provider.(ai.SpeechSynthesizer); ok {
		c.speech = s
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GenerateImage returns a JPEG data URI for prompt.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	const op = OpGenerateImage
	if strings.TrimSpace(prompt) == "" {
		return "", c.fail(op, time.Now(), invalidInput(op, "prompt is required"))
	}
	start := time.Now()
	img, err := c.provider.GenerateImage(ctx, prompt)
	if err != nil {
		return "", c.fail(op, start, classify(op, err))
	}
	if len(img.Data) == 0 {
		return "", c.fail(op, start, emptyResponse(op))
	}
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = defaultImageMIMEType
	}
	c.succeed(op, start)
	return datauri.Encode(mimeType, img.Data), nil
}

// Translate returns text translated from sourceLang to targetLang.
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	const op = OpTranslate
	prompt, err := prompts.Translation(text, sourceLang, targetLang)
	if err != nil {
		return "", c.fail(op, time.Now(), invalidInput(op, "%v", err))
	}
	return c.text(ctx, op, ai.PurposeGeneral, prompt)
}

// SendChatMessage sends message after the full prior history and returns the model reply.
func (c *Client) SendChatMessage(ctx context.Context, history []ai.Message, message string) (string, error) {
	const op = OpSendChatMessage
	if strings.TrimSpace(message) == "" {
		return "", c.fail(op, time.Now(), invalidInput(op, "message is required"))
	}
	start := time.Now()
	reply, err := c.provider.Chat(ctx, history, message)
	if err != nil {
		return "", c.fail(op, start, classify(op, err))
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", c.fail(op, start, emptyResponse(op))
	}
	c.succeed(op, start)
	return reply, nil
}

// GenerateSong returns lyrics about topic in style. Verse/chorus/bridge structure
// is requested in the prompt and only reported, never enforced.
func (c *Client) GenerateSong(ctx context.Context, topic, style string) (string, error) {
	const op = OpGenerateSong
	prompt, err := prompts.Song(topic, style)
	if err != nil {
		return "", c.fail(op, time.Now(), invalidInput(op, "%v", err))
	}
	lyrics, err := c.text(ctx, op, ai.PurposeCreative, prompt)
	if err != nil {
		return "", err
	}
	if missing := prompts.MissingSongSections(lyrics); len(missing) > 0 {
		c.logger.Debug("song sections missing", "missing", strings.Join(missing, ","), "wordCount", prompts.WordCount(lyrics))
	}
	return lyrics, nil
}

// SendAdvancedMessage sends a tool-augmented chat turn. Tool calls are returned
// for the caller to execute; they take precedence over any reply text.
func (c *Client) SendAdvancedMessage(ctx context.Context, history []ai.Message, message string, tools []ai.ToolDeclaration) (ai.ToolReply, error) {
	const op = OpSendAdvanced
	if strings.TrimSpace(message) == "" {
		return ai.ToolReply{}, c.fail(op, time.Now(), invalidInput(op, "message is required"))
	}
	for _, t := range tools {
		if strings.TrimSpace(t.Name) == "" {
			return ai.ToolReply{}, c.fail(op, time.Now(), invalidInput(op, "tool name is required"))
		}
	}
	start := time.Now()
	reply, err := c.provider.ChatWithTools(ctx, history, message, tools)
	if err != nil {
		return ai.ToolReply{}, c.fail(op, start, classify(op, err))
	}
	reply.Text = strings.TrimSpace(reply.Text)
	if len(reply.ToolCalls) == 0 && reply.Text == "" {
		return ai.ToolReply{}, c.fail(op, start, emptyResponse(op))
	}
	c.succeed(op, start)
	return reply, nil
}

// SendLocationGroundedMessage asks a map-grounded question, optionally biased to location.
// Citations with neither a title nor a URI are dropped; the rest pass through unchanged.
func (c *Client) SendLocationGroundedMessage(ctx context.Context, message string, location *ai.Location) (ai.GroundedReply, error) {
	const op = OpSendLocationGround
	if strings.TrimSpace(message) == "" {
		return ai.GroundedReply{}, c.fail(op, time.Now(), invalidInput(op, "message is required"))
	}
	if location != nil && !validLocation(*location) {
		return ai.GroundedReply{}, c.fail(op, time.Now(), invalidInput(op, "location %.4f,%.4f out of range", location.Latitude, location.Longitude))
	}
	start := time.Now()
	reply, err := c.provider.GroundedChat(ctx, message, location)
	if err != nil {
		return ai.GroundedReply{}, c.fail(op, start, classify(op, err))
	}
	reply.Text = strings.TrimSpace(reply.Text)
	if reply.Text == "" {
		return ai.GroundedReply{}, c.fail(op, start, emptyResponse(op))
	}
	citations := reply.Citations[:0:0]
	for _, cite := range reply.Citations {
		if cite.Title == "" && cite.URI == "" {
			continue
		}
		citations = append(citations, cite)
	}
	reply.Citations = citations
	c.succeed(op, start)
	return reply, nil
}

// GenerateSpeech returns the base64-encoded audio for text.
func (c *Client) GenerateSpeech(ctx context.Context, text string) (string, error) {
	const op = OpGenerateSpeech
	if strings.TrimSpace(text) == "" {
		return "", c.fail(op, time.Now(), invalidInput(op, "text is required"))
	}
	if c.speech == nil {
		return "", c.fail(op, time.Now(), &CallError{Op: op, Kind: KindProvider, Err: ai.ErrUnsupported})
	}
	start := time.Now()
	audio, err := c.speech.Synthesize(ctx, text)
	if err != nil {
		return "", c.fail(op, start, classify(op, err))
	}
	if len(audio.Data) == 0 {
		return "", c.fail(op, start, emptyResponse(op))
	}
	c.succeed(op, start)
	return base64.StdEncoding.EncodeToString(audio.Data), nil
}

func (c *Client) text(ctx context.Context, op Op, purpose ai.Purpose, prompt string) (string, error) {
	start := time.Now()
	text, err := c.provider.GenerateText(ctx, purpose, prompt)
	if err != nil {
		return "", c.fail(op, start, classify(op, err))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", c.fail(op, start, emptyResponse(op))
	}
	c.succeed(op, start)
	return text, nil
}

func (c *Client) succeed(op Op, start time.Time) {
	elapsed := time.Since(start)
	c.metrics.observe(op, "ok", elapsed)
	c.logger.Debug("generation call succeeded", "op", string(op), "elapsed", elapsed.String())
}

func (c *Client) fail(op Op, start time.Time, err error) error {
	kind := KindProvider
	var callErr *CallError
	if errors.As(err, &callErr) {
		kind = callErr.Kind
	}
	elapsed := time.Since(start)
	c.metrics.observe(op, kind.String(), elapsed)
	if kind == KindInvalidInput {
		c.logger.Debug("generation input rejected", "op", string(op), "err", err)
	} else {
		c.logger.Error("generation call failed", "op", string(op), "kind", kind.String(), "elapsed", elapsed.String(), "err", err)
	}
	return err
}

func validLocation(l ai.Location) bool {
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}
