package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"studio/internal/storage"
)

const (
	projectPrefix = "projects/"
	activeKey     = "active-project"
)

var (
	ErrNotFound     = errors.New("project not found")
	ErrNameRequired = errors.New("project name is required")
)

// Backend is the durable key/value store projects are written to.
type Backend interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDs overrides the id generator.
func WithIDs(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// Store owns the set of projects and the identity of the active one.
// Every mutation writes the full record to the backend before the in-memory
// copy changes, and callers only ever receive copies.
type Store struct {
	backend Backend
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string

	mu       sync.RWMutex
	projects map[string]Project
	activeID string
}

// New loads every stored project and the active project id from backend.
func New(ctx context.Context, backend Backend, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	s := &Store{
		backend:  backend,
		logger:   slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
		projects: map[string]Project{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func recordKey(id string) string {
	return projectPrefix + id + ".json"
}

func (s *Store) load(ctx context.Context) error {
	keys, err := s.backend.Keys(ctx, projectPrefix)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	for _, key := range keys {
		if !strings.HasSuffix(key, ".json") {
			continue
		}
		data, err := s.backend.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("read %s: %w", key, err)
		}
		var p Project
		if err := json.Unmarshal(data, &p); err != nil || p.ID == "" {
			s.logger.Warn("skipping unreadable project record", "key", key, "err", err)
			continue
		}
		s.projects[p.ID] = p
	}
	data, err := s.backend.Get(ctx, activeKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return fmt.Errorf("read active project: %w", err)
	default:
		id := strings.TrimSpace(string(data))
		if _, ok := s.projects[id]; ok {
			s.activeID = id
		} else if id != "" {
			s.logger.Warn("active project no longer exists", "projectId", id)
		}
	}
	s.logger.Debug("project store loaded", "projects", len(s.projects), "active", s.activeID)
	return nil
}

func (s *Store) write(ctx context.Context, p Project) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := s.backend.Put(ctx, recordKey(p.ID), data); err != nil {
		return fmt.Errorf("save project %s: %w", p.ID, err)
	}
	return nil
}

// Create adds a project and makes it the active one.
func (s *Store) Create(ctx context.Context, name, description string) (Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Project{}, ErrNameRequired
	}
	p := Project{
		ID:           s.newID(),
		Name:         name,
		Description:  strings.TrimSpace(description),
		Assets:       []Asset{},
		ChatHistory:  []ChatMessage{},
		Translations: []Translation{},
		CreatedAt:    s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(ctx, p); err != nil {
		return Project{}, err
	}
	if err := s.backend.Put(ctx, activeKey, []byte(p.ID)); err != nil {
		_ = s.backend.Delete(ctx, recordKey(p.ID))
		return Project{}, fmt.Errorf("save active project: %w", err)
	}
	s.projects[p.ID] = p
	s.activeID = p.ID
	s.logger.Info("project created", "projectId", p.ID, "name", p.Name)
	return p.clone(), nil
}

// List returns all projects in creation order.
func (s *Store) List() []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Store) Get(id string) (Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return Project{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p.clone(), nil
}

// Select makes id the active project.
func (s *Store) Select(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := s.backend.Put(ctx, activeKey, []byte(id)); err != nil {
		return fmt.Errorf("save active project: %w", err)
	}
	s.activeID = id
	return nil
}

// Active returns the active project, if any.
func (s *Store) Active() (Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[s.activeID]
	if !ok {
		return Project{}, false
	}
	return p.clone(), true
}

func (s *Store) ClearActive(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Delete(ctx, activeKey); err != nil {
		return fmt.Errorf("clear active project: %w", err)
	}
	s.activeID = ""
	return nil
}

// Delete removes a project and everything it owns. Deleting the active
// project leaves no project active.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := s.backend.Delete(ctx, recordKey(id)); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	delete(s.projects, id)
	s.logger.Info("project deleted", "projectId", id)
	if id == s.activeID {
		s.activeID = ""
		// A stale active key is ignored on load, so the delete stands.
		if err := s.backend.Delete(ctx, activeKey); err != nil {
			s.logger.Warn("clear active project failed", "projectId", id, "err", err)
		}
	}
	return nil
}

// Update replaces the whole record. The id and creation time cannot change.
func (s *Store) Update(ctx context.Context, p Project) (Project, error) {
	return s.mutate(ctx, p.ID, func(cur *Project) error {
		createdAt := cur.CreatedAt
		*cur = p.clone()
		cur.CreatedAt = createdAt
		if strings.TrimSpace(cur.Name) == "" {
			return ErrNameRequired
		}
		return nil
	})
}

// AppendAsset validates a and adds it to the project, assigning an id and
// timestamp when they are missing.
func (s *Store) AppendAsset(ctx context.Context, projectID string, a Asset) (Asset, error) {
	if err := a.Validate(); err != nil {
		return Asset{}, err
	}
	if a.ID == "" {
		a.ID = s.newID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	_, err := s.mutate(ctx, projectID, func(p *Project) error {
		p.Assets = append(p.Assets, a)
		return nil
	})
	if err != nil {
		return Asset{}, err
	}
	return a, nil
}

// AppendChat appends msgs to the chat history in one write.
func (s *Store) AppendChat(ctx context.Context, projectID string, msgs ...ChatMessage) error {
	for _, m := range msgs {
		if m.Role != RoleUser && m.Role != RoleModel {
			return fmt.Errorf("invalid chat role %q", m.Role)
		}
	}
	_, err := s.mutate(ctx, projectID, func(p *Project) error {
		p.ChatHistory = append(p.ChatHistory, msgs...)
		return nil
	})
	return err
}

// AppendTurn records assets and msgs on the project in a single write, so a
// chat turn and the assets it produced are saved or lost together. Assets get
// ids and timestamps like AppendAsset; the stored copies are returned.
func (s *Store) AppendTurn(ctx context.Context, projectID string, assets []Asset, msgs []ChatMessage) ([]Asset, error) {
	for _, m := range msgs {
		if m.Role != RoleUser && m.Role != RoleModel {
			return nil, fmt.Errorf("invalid chat role %q", m.Role)
		}
	}
	added := make([]Asset, 0, len(assets))
	for _, a := range assets {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if a.ID == "" {
			a.ID = s.newID()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = s.now()
		}
		added = append(added, a)
	}
	_, err := s.mutate(ctx, projectID, func(p *Project) error {
		p.Assets = append(p.Assets, added...)
		p.ChatHistory = append(p.ChatHistory, msgs...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

func (s *Store) AppendTranslation(ctx context.Context, projectID string, t Translation) (Translation, error) {
	if t.ID == "" {
		t.ID = s.newID()
	}
	_, err := s.mutate(ctx, projectID, func(p *Project) error {
		p.Translations = append(p.Translations, t)
		return nil
	})
	if err != nil {
		return Translation{}, err
	}
	return t, nil
}

func (s *Store) mutate(ctx context.Context, id string, fn func(*Project) error) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.projects[id]
	if !ok {
		return Project{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := cur.clone()
	if err := fn(&next); err != nil {
		return Project{}, err
	}
	next.ID = id
	if err := s.write(ctx, next); err != nil {
		return Project{}, err
	}
	s.projects[id] = next
	return next.clone(), nil
}
