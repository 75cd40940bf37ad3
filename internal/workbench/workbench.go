// Package workbench runs the studio's user-facing flows on top of the generation
// client and the project store: generate-then-save drafts, translation and chat
// persistence, and tool-call materialization for the agent chat.
package workbench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"studio/internal/ai"
	"studio/internal/project"
)

var (
	// ErrBusy is returned when a chat turn is already in flight for the project.
	ErrBusy = errors.New("another message is still being processed for this project")
	// ErrNoActiveProject is returned by flows that persist into the active project.
	ErrNoActiveProject = errors.New("no active project; create or select one first")
)

// Languages offered for translation. Other languages are accepted as well.
var Languages = []string{"English", "Spanish", "French", "German", "Japanese", "Chinese", "Russian", "Korean"}

// Generator is the generation surface the workbench depends on.
type Generator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
	SendChatMessage(ctx context.Context, history []ai.Message, message string) (string, error)
	GenerateSong(ctx context.Context, topic, style string) (string, error)
	SendAdvancedMessage(ctx context.Context, history []ai.Message, message string, tools []ai.ToolDeclaration) (ai.ToolReply, error)
	SendLocationGroundedMessage(ctx context.Context, message string, location *ai.Location) (ai.GroundedReply, error)
	GenerateSpeech(ctx context.Context, text string) (string, error)
}

type Option func(*Workbench)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Workbench) {
		if logger != nil {
			w.logger = logger
		}
	}
}

type Workbench struct {
	gen    Generator
	store  *project.Store
	logger *slog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

func New(gen Generator, store *project.Store, opts ...Option) (*Workbench, error) {
	if gen == nil {
		return nil, errors.New("generator is required")
	}
	if store == nil {
		return nil, errors.New("project store is required")
	}
	w := &Workbench{
		gen:      gen,
		store:    store,
		logger:   slog.Default(),
		inflight: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

func (w *Workbench) active() (project.Project, error) {
	p, ok := w.store.Active()
	if !ok {
		return project.Project{}, ErrNoActiveProject
	}
	return p, nil
}

// acquire marks a chat turn in flight for projectID. The returned func releases it.
func (w *Workbench) acquire(projectID string) (func(), error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, busy := w.inflight[projectID]; busy {
		return nil, fmt.Errorf("%w: %s", ErrBusy, projectID)
	}
	w.inflight[projectID] = struct{}{}
	return func() {
		w.mu.Lock()
		delete(w.inflight, projectID)
		w.mu.Unlock()
	}, nil
}

func toMessages(history []project.ChatMessage) []ai.Message {
	out := make([]ai.Message, 0, len(history))
	for _, m := range history {
		role := ai.RoleUser
		if m.Role == project.RoleModel {
			role = ai.RoleModel
		}
		out = append(out, ai.Message{Role: role, Content: m.Content})
	}
	return out
}
