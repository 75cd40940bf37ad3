package ai

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"studio/internal/prompts"
)

const geminiProviderName = "gemini"

// GeminiOption configures the Gemini client.
type GeminiOption func(*geminiOptions)

type geminiOptions struct {
	baseURL    string
	httpClient *http.Client
	models     Models
	logger     *slog.Logger
}

// WithGeminiBaseURL points the client at a different API endpoint.
func WithGeminiBaseURL(baseURL string) GeminiOption {
	return func(o *geminiOptions) {
		if baseURL != "" {
			o.baseURL = baseURL
		}
	}
}

// WithGeminiHTTPClient sets the HTTP client used for requests.
func WithGeminiHTTPClient(client *http.Client) GeminiOption {
	return func(o *geminiOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithGeminiModels overrides the default models; empty fields keep the defaults.
func WithGeminiModels(models Models) GeminiOption {
	return func(o *geminiOptions) {
		o.models = o.models.Merge(models)
	}
}

// WithGeminiLogger sets the logger used for usage diagnostics.
func WithGeminiLogger(logger *slog.Logger) GeminiOption {
	return func(o *geminiOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// GeminiClient adapts the Gemini API to Provider and SpeechSynthesizer.
type GeminiClient struct {
	apiKey  string
	baseURL string
	models  Models
	sdk     *genai.Client
	logger  *slog.Logger
}

// NewGemini constructs a Gemini client. The apiKey is required.
func NewGemini(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	o := geminiOptions{models: GeminiDefaults(), logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: o.httpClient,
	}
	if o.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: o.baseURL}
	}
	sdk, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &GeminiClient{
		apiKey:  apiKey,
		baseURL: o.baseURL,
		models:  o.models,
		sdk:     sdk,
		logger:  o.logger,
	}, nil
}

func (c *GeminiClient) APIKey() string  { return c.apiKey }
func (c *GeminiClient) BaseURL() string { return c.baseURL }
func (c *GeminiClient) Models() Models  { return c.models }

// GenerateImage renders a single square JPEG for the prompt.
func (c *GeminiClient) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	res, err := c.sdk.Models.GenerateImages(ctx, c.models.Image, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/jpeg",
		AspectRatio:    "1:1",
	})
	if err != nil {
		return Image{}, err
	}
	if res == nil || len(res.GeneratedImages) == 0 {
		return Image{}, ErrEmptyResponse
	}
	img := res.GeneratedImages[0].Image
	if img == nil || len(img.ImageBytes) == 0 {
		return Image{}, ErrEmptyResponse
	}
	return Image{Data: img.ImageBytes, MIMEType: img.MIMEType}, nil
}

// GenerateText sends a single user prompt and returns the concatenated reply text.
func (c *GeminiClient) GenerateText(ctx context.Context, purpose Purpose, prompt string) (string, error) {
	model := c.models.forPurpose(purpose)
	res, err := c.generate(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	return responseText(res), nil
}

// Chat resends the whole history followed by the new user message.
func (c *GeminiClient) Chat(ctx context.Context, history []Message, message string) (string, error) {
	res, err := c.generate(ctx, c.models.Text, geminiContents(history, message), nil)
	if err != nil {
		return "", err
	}
	return responseText(res), nil
}

// ChatWithTools is Chat with function declarations; tool calls are returned, never executed.
func (c *GeminiClient) ChatWithTools(ctx context.Context, history []Message, message string, tools []ToolDeclaration) (ToolReply, error) {
	cfg := &genai.GenerateContentConfig{}
	if len(tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(tools))
		for _, t := range tools {
			decls = append(decls, geminiFunctionDeclaration(t))
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	res, err := c.generate(ctx, c.models.Text, geminiContents(history, message), cfg)
	if err != nil {
		return ToolReply{}, err
	}
	reply := ToolReply{Text: responseText(res)}
	for _, part := range firstCandidateParts(res) {
		if part.FunctionCall == nil {
			continue
		}
		reply.ToolCalls = append(reply.ToolCalls, ToolCall{
			Name: part.FunctionCall.Name,
			Args: part.FunctionCall.Args,
		})
	}
	return reply, nil
}

// GroundedChat answers with the Google Maps tool enabled, biased to location when given.
func (c *GeminiClient) GroundedChat(ctx context.Context, message string, location *Location) (GroundedReply, error) {
	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleMaps: &genai.GoogleMaps{}}},
	}
	if location != nil {
		cfg.ToolConfig = &genai.ToolConfig{
			RetrievalConfig: &genai.RetrievalConfig{
				LatLng: &genai.LatLng{
					Latitude:  genai.Ptr(location.Latitude),
					Longitude: genai.Ptr(location.Longitude),
				},
			},
		}
	}
	res, err := c.generate(ctx, c.models.Text, genai.Text(message), cfg)
	if err != nil {
		return GroundedReply{}, err
	}
	reply := GroundedReply{Text: responseText(res)}
	if len(res.Candidates) > 0 && res.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range res.Candidates[0].GroundingMetadata.GroundingChunks {
			if cite, ok := citationFromChunk(chunk); ok {
				reply.Citations = append(reply.Citations, cite)
			}
		}
	}
	return reply, nil
}

// Synthesize speaks text with the configured prebuilt voice.
func (c *GeminiClient) Synthesize(ctx context.Context, text string) (Audio, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: c.models.Voice},
			},
		},
	}
	res, err := c.generate(ctx, c.models.Speech, genai.Text(prompts.Speech(text)), cfg)
	if err != nil {
		return Audio{}, err
	}
	parts := firstCandidateParts(res)
	if len(parts) == 0 || parts[0].InlineData == nil || len(parts[0].InlineData.Data) == 0 {
		return Audio{}, ErrEmptyResponse
	}
	blob := parts[0].InlineData
	return Audio{Data: blob.Data, MIMEType: blob.MIMEType}, nil
}

func (c *GeminiClient) generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	res, err := c.sdk.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, err
	}
	if res == nil || len(res.Candidates) == 0 {
		return nil, ErrEmptyResponse
	}
	logUsage(c.logger, geminiProviderName, model, usageFromGemini(res.UsageMetadata))
	return res, nil
}

func geminiContents(history []Message, message string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		contents = append(contents, &genai.Content{
			Role:  string(m.Role),
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return append(contents, &genai.Content{
		Role:  string(RoleUser),
		Parts: []*genai.Part{{Text: message}},
	})
}

func geminiFunctionDeclaration(t ToolDeclaration) *genai.FunctionDeclaration {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(t.Parameters)),
	}
	for _, p := range t.Parameters {
		schema.Properties[p.Name] = &genai.Schema{
			Type:        geminiType(p.Type),
			Description: p.Description,
		}
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	return &genai.FunctionDeclaration{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  schema,
	}
}

func geminiType(t ParamType) genai.Type {
	switch t {
	case ParamNumber:
		return genai.TypeNumber
	case ParamInteger:
		return genai.TypeInteger
	case ParamBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

func firstCandidateParts(res *genai.GenerateContentResponse) []*genai.Part {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return nil
	}
	return res.Candidates[0].Content.Parts
}

// responseText joins the text parts of the first candidate, skipping thoughts.
func responseText(res *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, part := range firstCandidateParts(res) {
		if part.Thought || part.Text == "" {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

func citationFromChunk(chunk *genai.GroundingChunk) (Citation, bool) {
	if chunk == nil {
		return Citation{}, false
	}
	var cite Citation
	switch {
	case chunk.Maps != nil:
		cite = Citation{Title: chunk.Maps.Title, URI: chunk.Maps.URI}
	case chunk.Web != nil:
		cite = Citation{Title: chunk.Web.Title, URI: chunk.Web.URI}
	default:
		return Citation{}, false
	}
	if cite.Title == "" && cite.URI == "" {
		return Citation{}, false
	}
	return cite, true
}
