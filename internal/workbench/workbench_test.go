package workbench

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"studio/internal/ai"
	"studio/internal/generation"
	"studio/internal/project"
	"studio/internal/storage"
)

type fakeGenerator struct {
	image     string
	text      string
	song      string
	speech    string
	toolReply ai.ToolReply
	grounded  ai.GroundedReply
	err       error

	calls       int
	lastHistory []ai.Message
	lastMessage string
	lastTools   []ai.ToolDeclaration
	block       chan struct{}
	started     chan struct{}
}

func (f *fakeGenerator) GenerateImage(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.image, f.err
}

func (f *fakeGenerator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	f.calls++
	return f.text, f.err
}

func (f *fakeGenerator) SendChatMessage(ctx context.Context, history []ai.Message, message string) (string, error) {
	f.calls++
	f.lastHistory = history
	f.lastMessage = message
	if f.block != nil {
		close(f.started)
		<-f.block
	}
	return f.text, f.err
}

func (f *fakeGenerator) GenerateSong(ctx context.Context, topic, style string) (string, error) {
	f.calls++
	return f.song, f.err
}

func (f *fakeGenerator) SendAdvancedMessage(ctx context.Context, history []ai.Message, message string, tools []ai.ToolDeclaration) (ai.ToolReply, error) {
	f.calls++
	f.lastHistory = history
	f.lastMessage = message
	f.lastTools = tools
	return f.toolReply, f.err
}

func (f *fakeGenerator) SendLocationGroundedMessage(ctx context.Context, message string, location *ai.Location) (ai.GroundedReply, error) {
	f.calls++
	f.lastMessage = message
	return f.grounded, f.err
}

func (f *fakeGenerator) GenerateSpeech(ctx context.Context, text string) (string, error) {
	f.calls++
	return f.speech, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// flakyBackend fails every Put once failPut is set.
type flakyBackend struct {
	*storage.Files
	failPut bool
}

func (b *flakyBackend) Put(ctx context.Context, key string, data []byte) error {
	if b.failPut {
		return errors.New("disk full")
	}
	return b.Files.Put(ctx, key, data)
}

func setup(t *testing.T, gen Generator, withProject bool) (*Workbench, *project.Store) {
	t.Helper()
	w, store, _ := setupWithBackend(t, gen, withProject)
	return w, store
}

func setupWithBackend(t *testing.T, gen Generator, withProject bool) (*Workbench, *project.Store, *flakyBackend) {
	t.Helper()
	ctx := context.Background()
	files, err := storage.NewFiles(t.TempDir())
	if err != nil {
		t.Fatalf("NewFiles: %v", err)
	}
	backend := &flakyBackend{Files: files}
	store, err := project.New(ctx, backend, project.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("project.New: %v", err)
	}
	if withProject {
		if _, err := store.Create(ctx, "Saga", "space opera"); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	w, err := New(gen, store, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w, store, backend
}

func activeProject(t *testing.T, store *project.Store) project.Project {
	t.Helper()
	p, ok := store.Active()
	if !ok {
		t.Fatalf("expected an active project")
	}
	return p
}

func callFailed(op generation.Op) error {
	return &generation.CallError{Op: op, Kind: generation.KindProvider, Err: errors.New("quota")}
}

func TestTranslateRecordsTranslation(t *testing.T) {
	gen := &fakeGenerator{text: "Hola"}
	w, store := setup(t, gen, true)
	tr, err := w.Translate(context.Background(), "Hello", "English", "Spanish")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if tr.TranslatedText != "Hola" || tr.SourceLang != "English" || tr.TargetLang != "Spanish" || tr.ID == "" {
		t.Fatalf("unexpected translation %+v", tr)
	}
	if got := activeProject(t, store).Translations; len(got) != 1 || got[0].SourceText != "Hello" {
		t.Fatalf("translation not persisted: %+v", got)
	}
}

func TestTranslateFailureRecordsNothing(t *testing.T) {
	gen := &fakeGenerator{err: callFailed(generation.OpTranslate)}
	w, store := setup(t, gen, true)
	_, err := w.Translate(context.Background(), "Hello", "English", "Spanish")
	if !errors.Is(err, generation.ErrCallFailed) {
		t.Fatalf("expected call failure, got %v", err)
	}
	if generation.FailureMessage(err) != "Translation failed." {
		t.Fatalf("unexpected failure message")
	}
	if got := activeProject(t, store).Translations; len(got) != 0 {
		t.Fatalf("failure must not be stored: %+v", got)
	}
}

func TestFlowsRequireActiveProject(t *testing.T) {
	gen := &fakeGenerator{text: "x"}
	w, _ := setup(t, gen, false)
	ctx := context.Background()
	if _, err := w.Translate(ctx, "a", "English", "Spanish"); !errors.Is(err, ErrNoActiveProject) {
		t.Fatalf("Translate: %v", err)
	}
	if _, err := w.Chat(ctx, "hi"); !errors.Is(err, ErrNoActiveProject) {
		t.Fatalf("Chat: %v", err)
	}
	if _, err := w.Agent(ctx, "hi"); !errors.Is(err, ErrNoActiveProject) {
		t.Fatalf("Agent: %v", err)
	}
	if _, err := w.Save(ctx, Draft{Type: project.AssetText, Content: "x"}); !errors.Is(err, ErrNoActiveProject) {
		t.Fatalf("Save: %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("generator should not be called without a project")
	}
}

func TestChatAppendsBothTurns(t *testing.T) {
	gen := &fakeGenerator{text: "Hello!"}
	w, store := setup(t, gen, true)
	ctx := context.Background()
	if _, err := w.Chat(ctx, "Hi"); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	gen.text = "Doing well."
	reply, err := w.Chat(ctx, "How are you?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "Doing well." {
		t.Fatalf("unexpected reply %q", reply)
	}
	if len(gen.lastHistory) != 2 || gen.lastHistory[0].Role != ai.RoleUser || gen.lastHistory[1].Role != ai.RoleModel {
		t.Fatalf("full history not sent: %+v", gen.lastHistory)
	}
	history := activeProject(t, store).ChatHistory
	if len(history) != 4 {
		t.Fatalf("expected history of 4, got %d", len(history))
	}
	if history[2].Content != "How are you?" || history[3].Content != "Doing well." {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestChatFailureLeavesHistory(t *testing.T) {
	gen := &fakeGenerator{err: callFailed(generation.OpSendChatMessage)}
	w, store := setup(t, gen, true)
	if _, err := w.Chat(context.Background(), "Hi"); err == nil {
		t.Fatalf("expected error")
	}
	if got := activeProject(t, store).ChatHistory; len(got) != 0 {
		t.Fatalf("history should be unchanged: %+v", got)
	}
}

func TestChatRejectsOverlappingTurn(t *testing.T) {
	gen := &fakeGenerator{text: "ok", block: make(chan struct{}), started: make(chan struct{})}
	w, store := setup(t, gen, true)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := w.Chat(ctx, "first")
		done <- err
	}()
	<-gen.started

	if _, err := w.Chat(ctx, "second"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if _, err := w.Agent(ctx, "third"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy for agent, got %v", err)
	}
	close(gen.block)
	if err := <-done; err != nil {
		t.Fatalf("first chat: %v", err)
	}
	if got := activeProject(t, store).ChatHistory; len(got) != 2 || got[0].Content != "first" {
		t.Fatalf("unexpected history %+v", got)
	}
	gen.block = nil
	if _, err := w.Chat(ctx, "again"); err != nil {
		t.Fatalf("guard not released: %v", err)
	}
}

func TestAgentToolCallsTakePrecedence(t *testing.T) {
	gen := &fakeGenerator{toolReply: ai.ToolReply{
		ToolCalls: []ai.ToolCall{
			{Name: "add_asset", Args: map[string]any{"prompt": "Arthur", "content": "A brave knight."}},
		},
		Text: "I made it.",
	}}
	w, store := setup(t, gen, true)
	res, err := w.Agent(context.Background(), "Create a knight")
	if err != nil {
		t.Fatalf("Agent: %v", err)
	}
	if len(gen.lastTools) != 1 || gen.lastTools[0].Name != "add_asset" {
		t.Fatalf("add_asset tool not offered: %+v", gen.lastTools)
	}
	if len(res.Assets) != 1 || res.Assets[0].Type != project.AssetText || res.Assets[0].Content != "A brave knight." {
		t.Fatalf("unexpected assets %+v", res.Assets)
	}
	p := activeProject(t, store)
	if len(p.Assets) != 1 || p.Assets[0].Prompt != "Arthur" {
		t.Fatalf("asset not persisted: %+v", p.Assets)
	}
	if len(p.ChatHistory) != 2 {
		t.Fatalf("expected user turn and confirmation, got %+v", p.ChatHistory)
	}
	if p.ChatHistory[1].Content != `Asset "Arthur" has been created.` {
		t.Fatalf("unexpected confirmation %q", p.ChatHistory[1].Content)
	}
	for _, m := range p.ChatHistory {
		if strings.Contains(m.Content, "I made it.") {
			t.Fatalf("text must be ignored when tool calls are present")
		}
	}
}

func TestAgentSkipsBadCallsAndContinues(t *testing.T) {
	gen := &fakeGenerator{toolReply: ai.ToolReply{ToolCalls: []ai.ToolCall{
		{Name: "delete_project", Args: map[string]any{}},
		{Name: "add_asset", Args: map[string]any{"prompt": "Lore"}},
		{Name: "add_asset", Args: map[string]any{"prompt": "Map", "content": 42}},
		{Name: "add_asset", Args: map[string]any{"prompt": "Castle", "content": "Stone walls."}},
		{Name: "add_asset", Args: map[string]any{"prompt": "Moat", "content": "Deep water."}},
	}}}
	w, store := setup(t, gen, true)
	res, err := w.Agent(context.Background(), "build a castle")
	if err != nil {
		t.Fatalf("Agent: %v", err)
	}
	if res.Skipped != 3 || len(res.Assets) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	p := activeProject(t, store)
	if p.Assets[0].Prompt != "Castle" || p.Assets[1].Prompt != "Moat" {
		t.Fatalf("assets out of order: %+v", p.Assets)
	}
	if len(p.ChatHistory) != 3 {
		t.Fatalf("expected user turn and two confirmations, got %+v", p.ChatHistory)
	}
}

func TestAgentTextReply(t *testing.T) {
	gen := &fakeGenerator{toolReply: ai.ToolReply{Text: "Sure, what kind of knight?"}}
	w, store := setup(t, gen, true)
	res, err := w.Agent(context.Background(), "help")
	if err != nil {
		t.Fatalf("Agent: %v", err)
	}
	if len(res.Assets) != 0 || len(res.Messages) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	p := activeProject(t, store)
	if len(p.ChatHistory) != 2 || p.ChatHistory[1].Role != project.RoleModel {
		t.Fatalf("unexpected history %+v", p.ChatHistory)
	}
}

func TestAgentFailureLeavesProject(t *testing.T) {
	gen := &fakeGenerator{err: callFailed(generation.OpSendAdvanced)}
	w, store := setup(t, gen, true)
	if _, err := w.Agent(context.Background(), "help"); err == nil {
		t.Fatalf("expected error")
	}
	p := activeProject(t, store)
	if len(p.ChatHistory) != 0 || len(p.Assets) != 0 {
		t.Fatalf("project should be unchanged: %+v", p)
	}
}

func TestAgentWriteFailureSavesNeitherAssetsNorTurns(t *testing.T) {
	gen := &fakeGenerator{toolReply: ai.ToolReply{ToolCalls: []ai.ToolCall{
		{Name: "add_asset", Args: map[string]any{"prompt": "Arthur", "content": "A brave knight."}},
		{Name: "add_asset", Args: map[string]any{"prompt": "Merlin", "content": "A wizard."}},
	}}}
	w, store, backend := setupWithBackend(t, gen, true)
	backend.failPut = true
	if _, err := w.Agent(context.Background(), "Create a court"); err == nil {
		t.Fatalf("expected write error")
	}
	p := activeProject(t, store)
	if len(p.Assets) != 0 || len(p.ChatHistory) != 0 {
		t.Fatalf("assets and turns must be saved together or not at all: %+v", p)
	}
}

func TestChatSendsLatestHistory(t *testing.T) {
	gen := &fakeGenerator{text: "Noted."}
	w, store := setup(t, gen, true)
	p := activeProject(t, store)
	if err := store.AppendChat(context.Background(), p.ID,
		project.ChatMessage{Role: project.RoleUser, Content: "Earlier question"},
		project.ChatMessage{Role: project.RoleModel, Content: "Earlier answer"},
	); err != nil {
		t.Fatalf("AppendChat: %v", err)
	}
	if _, err := w.Chat(context.Background(), "Next"); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if len(gen.lastHistory) != 2 || gen.lastHistory[1].Content != "Earlier answer" {
		t.Fatalf("expected stored history to be sent, got %+v", gen.lastHistory)
	}
}

func TestDraftsAreSavedOnlyOnSave(t *testing.T) {
	gen := &fakeGenerator{
		image:  "data:image/jpeg;base64,/9j/",
		song:   "[Verse]\nla",
		speech: "AAEC",
	}
	w, store := setup(t, gen, true)
	ctx := context.Background()

	img, err := w.ImageDraft(ctx, "a fox")
	if err != nil {
		t.Fatalf("ImageDraft: %v", err)
	}
	song, err := w.SongDraft(ctx, " rain ", "blues")
	if err != nil {
		t.Fatalf("SongDraft: %v", err)
	}
	if song.Prompt != "Song about rain in style of blues" || song.Type != project.AssetText {
		t.Fatalf("unexpected song draft %+v", song)
	}
	speech, err := w.SpeechDraft(ctx, "Hi there")
	if err != nil {
		t.Fatalf("SpeechDraft: %v", err)
	}
	if speech.URL != "data:audio/mpeg;base64,AAEC" {
		t.Fatalf("unexpected speech url %q", speech.URL)
	}
	if got := activeProject(t, store).Assets; len(got) != 0 {
		t.Fatalf("drafts must not be persisted before Save")
	}

	for _, d := range []Draft{img, song, speech} {
		if _, err := w.Save(ctx, d); err != nil {
			t.Fatalf("Save %s: %v", d.Type, err)
		}
	}
	assets := activeProject(t, store).Assets
	if len(assets) != 3 || assets[0].Type != project.AssetImage || assets[2].Type != project.AssetAudio {
		t.Fatalf("unexpected assets %+v", assets)
	}
}

func TestSpeechFailureCreatesNoAsset(t *testing.T) {
	gen := &fakeGenerator{err: callFailed(generation.OpGenerateSpeech)}
	w, store := setup(t, gen, true)
	_, err := w.SpeechDraft(context.Background(), "Hi there")
	if generation.FailureMessage(err) != "Audio generation failed." {
		t.Fatalf("unexpected error %v", err)
	}
	if got := activeProject(t, store).Assets; len(got) != 0 {
		t.Fatalf("no asset expected: %+v", got)
	}
}

func TestNearbyDoesNotNeedProject(t *testing.T) {
	gen := &fakeGenerator{grounded: ai.GroundedReply{Text: "Try Joe's.", Citations: []ai.Citation{{Title: "Joe's", URI: "https://maps.example/joe"}}}}
	w, _ := setup(t, gen, false)
	reply, err := w.Nearby(context.Background(), "cafes near me", &ai.Location{Latitude: 40, Longitude: -75})
	if err != nil {
		t.Fatalf("Nearby: %v", err)
	}
	if len(reply.Citations) != 1 || gen.lastMessage != "cafes near me" {
		t.Fatalf("unexpected reply %+v", reply)
	}
}
