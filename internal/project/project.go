// Package project holds the studio's projects and keeps them in a durable
// key/value backend so the active project survives restarts.
package project

import (
	"fmt"
	"strings"
	"time"
)

// AssetType is the kind of a saved generation result.
type AssetType string

const (
	AssetImage AssetType = "image"
	AssetText  AssetType = "text"
	AssetAudio AssetType = "audio"
)

// Role is the speaker of a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Asset is a saved generation result. Image and audio assets carry a data URI
// in URL; text assets carry Content.
type Asset struct {
	ID        string    `json:"id"`
	Type      AssetType `json:"type"`
	Prompt    string    `json:"prompt"`
	URL       string    `json:"url,omitempty"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks that the payload field matching the asset type is set.
func (a Asset) Validate() error {
	switch a.Type {
	case AssetImage, AssetAudio:
		if strings.TrimSpace(a.URL) == "" {
			return fmt.Errorf("%s asset requires a url", a.Type)
		}
	case AssetText:
		if strings.TrimSpace(a.Content) == "" {
			return fmt.Errorf("text asset requires content")
		}
	default:
		return fmt.Errorf("unknown asset type %q", a.Type)
	}
	return nil
}

type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Translation struct {
	ID             string `json:"id"`
	SourceText     string `json:"sourceText"`
	TranslatedText string `json:"translatedText"`
	SourceLang     string `json:"sourceLang"`
	TargetLang     string `json:"targetLang"`
}

// Project aggregates the assets, chat history and translations of one workspace.
type Project struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Assets       []Asset       `json:"assets"`
	ChatHistory  []ChatMessage `json:"chatHistory"`
	Translations []Translation `json:"translations"`
	CreatedAt    time.Time     `json:"createdAt"`
}

func (p Project) clone() Project {
	out := p
	out.Assets = append(make([]Asset, 0, len(p.Assets)), p.Assets...)
	out.ChatHistory = append(make([]ChatMessage, 0, len(p.ChatHistory)), p.ChatHistory...)
	out.Translations = append(make([]Translation, 0, len(p.Translations)), p.Translations...)
	return out
}
