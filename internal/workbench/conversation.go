package workbench

import (
	"context"
	"fmt"

	"studio/internal/ai"
	"studio/internal/project"
)

const addAssetTool = "add_asset"

// AddAssetTool lets the model create text assets in the active project.
var AddAssetTool = ai.ToolDeclaration{
	Name:        addAssetTool,
	Description: "Adds a new text asset to the current project, like a character description or a piece of lore.",
	Parameters: []ai.ToolParameter{
		{Name: "prompt", Type: ai.ParamString, Description: "A summary or title for the asset.", Required: true},
		{Name: "content", Type: ai.ParamString, Description: "The full text content of the asset.", Required: true},
	},
}

// Translate translates text and records it on the active project. Nothing is
// recorded when the call fails.
func (w *Workbench) Translate(ctx context.Context, text, sourceLang, targetLang string) (project.Translation, error) {
	p, err := w.active()
	if err != nil {
		return project.Translation{}, err
	}
	translated, err := w.gen.Translate(ctx, text, sourceLang, targetLang)
	if err != nil {
		return project.Translation{}, err
	}
	return w.store.AppendTranslation(ctx, p.ID, project.Translation{
		SourceText:     text,
		TranslatedText: translated,
		SourceLang:     sourceLang,
		TargetLang:     targetLang,
	})
}

// Chat sends message with the active project's full history and appends the
// user and model turns together on success.
func (w *Workbench) Chat(ctx context.Context, message string) (string, error) {
	p, err := w.active()
	if err != nil {
		return "", err
	}
	release, err := w.acquire(p.ID)
	if err != nil {
		return "", err
	}
	defer release()
	if p, err = w.store.Get(p.ID); err != nil {
		return "", err
	}

	reply, err := w.gen.SendChatMessage(ctx, toMessages(p.ChatHistory), message)
	if err != nil {
		return "", err
	}
	if err := w.store.AppendChat(ctx, p.ID,
		project.ChatMessage{Role: project.RoleUser, Content: message},
		project.ChatMessage{Role: project.RoleModel, Content: reply},
	); err != nil {
		return "", err
	}
	return reply, nil
}

// AgentResult is the outcome of one agent turn.
type AgentResult struct {
	// Assets created from tool calls, in call order.
	Assets []project.Asset
	// Messages appended to the chat history after the user turn.
	Messages []project.ChatMessage
	// Skipped counts tool calls that could not be applied.
	Skipped int
}

// Agent sends a tool-enabled chat turn. Tool calls take precedence over reply
// text and are applied in provider order; a call that cannot be applied is
// skipped without stopping the ones after it. The created assets and the chat
// turns are saved in one write.
func (w *Workbench) Agent(ctx context.Context, message string) (AgentResult, error) {
	p, err := w.active()
	if err != nil {
		return AgentResult{}, err
	}
	release, err := w.acquire(p.ID)
	if err != nil {
		return AgentResult{}, err
	}
	defer release()
	if p, err = w.store.Get(p.ID); err != nil {
		return AgentResult{}, err
	}

	reply, err := w.gen.SendAdvancedMessage(ctx, toMessages(p.ChatHistory), message, []ai.ToolDeclaration{AddAssetTool})
	if err != nil {
		return AgentResult{}, err
	}

	var (
		res    AgentResult
		assets []project.Asset
	)
	if len(reply.ToolCalls) == 0 {
		res.Messages = append(res.Messages, project.ChatMessage{Role: project.RoleModel, Content: reply.Text})
	}
	for i, call := range reply.ToolCalls {
		asset, ok := w.toolCallAsset(p.ID, i, call)
		if !ok {
			res.Skipped++
			continue
		}
		assets = append(assets, asset)
		res.Messages = append(res.Messages, project.ChatMessage{
			Role:    project.RoleModel,
			Content: fmt.Sprintf(`Asset "%s" has been created.`, asset.Prompt),
		})
	}

	turns := append([]project.ChatMessage{{Role: project.RoleUser, Content: message}}, res.Messages...)
	saved, err := w.store.AppendTurn(ctx, p.ID, assets, turns)
	if err != nil {
		return AgentResult{}, err
	}
	res.Assets = saved
	return res, nil
}

func (w *Workbench) toolCallAsset(projectID string, index int, call ai.ToolCall) (project.Asset, bool) {
	if call.Name != addAssetTool {
		w.logger.Warn("skipping unknown tool call", "projectId", projectID, "index", index, "tool", call.Name)
		return project.Asset{}, false
	}
	prompt, okPrompt := call.StringArg("prompt")
	content, okContent := call.StringArg("content")
	if !okPrompt || !okContent || prompt == "" || content == "" {
		w.logger.Warn("skipping tool call with missing arguments", "projectId", projectID, "index", index, "tool", call.Name)
		return project.Asset{}, false
	}
	asset := project.Asset{Type: project.AssetText, Prompt: prompt, Content: content}
	if err := asset.Validate(); err != nil {
		w.logger.Warn("skipping invalid tool call asset", "projectId", projectID, "index", index, "err", err)
		return project.Asset{}, false
	}
	return asset, true
}

// Nearby asks a map-grounded question. Replies are not persisted.
func (w *Workbench) Nearby(ctx context.Context, message string, location *ai.Location) (ai.GroundedReply, error) {
	return w.gen.SendLocationGroundedMessage(ctx, message, location)
}
