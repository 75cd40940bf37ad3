package workbench

import (
	"context"
	"fmt"
	"strings"

	"studio/internal/datauri"
	"studio/internal/project"
)

const speechMIMEType = "audio/mpeg"

// Draft is a generation result that has not been saved to a project yet.
type Draft struct {
	Type    project.AssetType
	Prompt  string
	URL     string
	Content string
}

func (w *Workbench) ImageDraft(ctx context.Context, prompt string) (Draft, error) {
	uri, err := w.gen.GenerateImage(ctx, prompt)
	if err != nil {
		return Draft{}, err
	}
	return Draft{Type: project.AssetImage, Prompt: prompt, URL: uri}, nil
}

func (w *Workbench) SongDraft(ctx context.Context, topic, style string) (Draft, error) {
	lyrics, err := w.gen.GenerateSong(ctx, topic, style)
	if err != nil {
		return Draft{}, err
	}
	return Draft{
		Type:    project.AssetText,
		Prompt:  fmt.Sprintf("Song about %s in style of %s", strings.TrimSpace(topic), strings.TrimSpace(style)),
		Content: lyrics,
	}, nil
}

// SpeechDraft wraps the synthesized payload as an MPEG audio data URI.
func (w *Workbench) SpeechDraft(ctx context.Context, text string) (Draft, error) {
	payload, err := w.gen.GenerateSpeech(ctx, text)
	if err != nil {
		return Draft{}, err
	}
	return Draft{Type: project.AssetAudio, Prompt: text, URL: datauri.FromBase64(speechMIMEType, payload)}, nil
}

// Save stores d as a new asset of the active project.
func (w *Workbench) Save(ctx context.Context, d Draft) (project.Asset, error) {
	p, err := w.active()
	if err != nil {
		return project.Asset{}, err
	}
	a, err := w.store.AppendAsset(ctx, p.ID, project.Asset{
		Type:    d.Type,
		Prompt:  d.Prompt,
		URL:     d.URL,
		Content: d.Content,
	})
	if err != nil {
		return project.Asset{}, err
	}
	w.logger.Info("asset saved", "projectId", p.ID, "assetId", a.ID, "type", string(a.Type))
	return a, nil
}
