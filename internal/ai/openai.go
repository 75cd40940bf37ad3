package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/responses"
)

const openAIProviderName = "openai"

// OpenAIClient wraps the official OpenAI SDK client as a Provider and SpeechSynthesizer.
type OpenAIClient struct {
	apiKey  string
	baseURL string
	models  Models
	sdk     openai.Client
	logger  *slog.Logger
}

// NewOpenAI constructs a new OpenAI client. The apiKey is required.
// baseURL is optional (empty string uses the default API endpoint); zero-valued
// fields of models keep the OpenAI defaults.
func NewOpenAI(apiKey, baseURL string, models Models, opts ...option.RequestOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is required")
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)
	sdk := openai.NewClient(reqOpts...)
	return &OpenAIClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		models:  OpenAIDefaults().Merge(models),
		sdk:     sdk,
		logger:  slog.Default(),
	}, nil
}

func (c *OpenAIClient) APIKey() string  { return c.apiKey }
func (c *OpenAIClient) BaseURL() string { return c.baseURL }
func (c *OpenAIClient) Models() Models  { return c.models }

// GenerateImage renders a single square JPEG with the Images API.
func (c *OpenAIClient) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	res, err := c.sdk.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:       prompt,
		Model:        openai.ImageModel(c.models.Image),
		N:            openai.Int(1),
		Size:         openai.ImageGenerateParamsSize("1024x1024"),
		OutputFormat: openai.ImageGenerateParamsOutputFormat("jpeg"),
	})
	if err != nil {
		return Image{}, err
	}
	if res == nil || len(res.Data) == 0 || res.Data[0].B64JSON == "" {
		return Image{}, ErrEmptyResponse
	}
	data, err := base64.StdEncoding.DecodeString(res.Data[0].B64JSON)
	if err != nil {
		return Image{}, fmt.Errorf("decode image payload: %w", err)
	}
	return Image{Data: data, MIMEType: "image/jpeg"}, nil
}

// GenerateText calls the Responses API and returns concatenated output text.
func (c *OpenAIClient) GenerateText(ctx context.Context, purpose Purpose, prompt string) (string, error) {
	model := c.models.forPurpose(purpose)
	req := responses.ResponseNewParams{
		Model: model,
		Input: responses.ResponseNewParamsInputUnion{OfString: param.NewOpt(prompt)},
	}
	res, err := c.respond(ctx, req)
	if err != nil {
		return "", err
	}
	return res.OutputText(), nil
}

// Chat resends the history as input items; "model" turns become assistant messages.
func (c *OpenAIClient) Chat(ctx context.Context, history []Message, message string) (string, error) {
	req := responses.ResponseNewParams{
		Model: c.models.Text,
		Input: responses.ResponseNewParamsInputUnion{OfInputItemList: openAIInput(history, message)},
	}
	res, err := c.respond(ctx, req)
	if err != nil {
		return "", err
	}
	return res.OutputText(), nil
}

// ChatWithTools is Chat with function tools; calls are surfaced, never executed.
func (c *OpenAIClient) ChatWithTools(ctx context.Context, history []Message, message string, tools []ToolDeclaration) (ToolReply, error) {
	req := responses.ResponseNewParams{
		Model: c.models.Text,
		Input: responses.ResponseNewParamsInputUnion{OfInputItemList: openAIInput(history, message)},
	}
	for _, t := range tools {
		tool := responses.ToolParamOfFunction(t.Name, openAISchema(t), false)
		if tool.OfFunction != nil && t.Description != "" {
			tool.OfFunction.Description = param.NewOpt(t.Description)
		}
		req.Tools = append(req.Tools, tool)
	}
	res, err := c.respond(ctx, req)
	if err != nil {
		return ToolReply{}, err
	}
	reply := ToolReply{Text: res.OutputText()}
	for _, item := range res.Output {
		if item.Type != "function_call" {
			continue
		}
		fc := item.AsFunctionCall()
		args := map[string]any{}
		if fc.Arguments != "" {
			if err := json.Unmarshal([]byte(fc.Arguments), &args); err != nil {
				return ToolReply{}, fmt.Errorf("decode arguments of %s: %w", fc.Name, err)
			}
		}
		reply.ToolCalls = append(reply.ToolCalls, ToolCall{Name: fc.Name, Args: args})
	}
	return reply, nil
}

// GroundedChat is not offered by OpenAI.
func (c *OpenAIClient) GroundedChat(ctx context.Context, message string, location *Location) (GroundedReply, error) {
	return GroundedReply{}, fmt.Errorf("%s grounded chat: %w", openAIProviderName, ErrUnsupported)
}

// Synthesize returns MP3 audio from the Audio Speech API.
func (c *OpenAIClient) Synthesize(ctx context.Context, text string) (Audio, error) {
	req := openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(c.models.Speech),
		Voice:          openai.AudioSpeechNewParamsVoice(c.models.Voice),
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	}
	resp, err := c.sdk.Audio.Speech.New(ctx, req)
	if err != nil {
		return Audio{}, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Audio{}, err
	}
	if len(data) == 0 {
		return Audio{}, ErrEmptyResponse
	}
	return Audio{Data: data, MIMEType: "audio/mpeg"}, nil
}

func (c *OpenAIClient) respond(ctx context.Context, req responses.ResponseNewParams) (*responses.Response, error) {
	res, err := c.sdk.Responses.New(ctx, req)
	if err != nil {
		return nil, err
	}
	logUsage(c.logger, openAIProviderName, req.Model, usageFromResponse(res.Usage))
	return res, nil
}

func openAIInput(history []Message, message string) responses.ResponseInputParam {
	items := make(responses.ResponseInputParam, 0, len(history)+1)
	for _, m := range history {
		role := responses.EasyInputMessageRoleUser
		if m.Role == RoleModel {
			role = responses.EasyInputMessageRoleAssistant
		}
		items = append(items, responses.ResponseInputItemParamOfMessage(m.Content, role))
	}
	return append(items, responses.ResponseInputItemParamOfMessage(message, responses.EasyInputMessageRoleUser))
}

func openAISchema(t ToolDeclaration) map[string]any {
	props := make(map[string]any, len(t.Parameters))
	required := []string{}
	for _, p := range t.Parameters {
		props[p.Name] = map[string]any{
			"type":        string(p.Type),
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}
