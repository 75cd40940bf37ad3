package ai

import (
	"context"
	"errors"
)

var (
	// ErrEmptyResponse reports a successful call that carried no usable payload.
	ErrEmptyResponse = errors.New("provider returned an empty response")
	// ErrUnsupported reports a capability the provider does not offer.
	ErrUnsupported = errors.New("capability not supported by provider")
)

// Purpose selects the model tier used for a plain text generation.
type Purpose int

const (
	// PurposeGeneral is used for short utility prompts such as translation.
	PurposeGeneral Purpose = iota
	// PurposeCreative is used for long-form creative writing such as songs.
	PurposeCreative
)

func (p Purpose) String() string {
	switch p {
	case PurposeCreative:
		return "creative"
	default:
		return "general"
	}
}

// Provider is the remote generative endpoint the generation client talks to.
type Provider interface {
	GenerateImage(ctx context.Context, prompt string) (Image, error)
	GenerateText(ctx context.Context, purpose Purpose, prompt string) (string, error)
	Chat(ctx context.Context, history []Message, message string) (string, error)
	ChatWithTools(ctx context.Context, history []Message, message string, tools []ToolDeclaration) (ToolReply, error)
	GroundedChat(ctx context.Context, message string, location *Location) (GroundedReply, error)
}

// SpeechSynthesizer turns text into audio.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) (Audio, error)
}

// Role is the speaker of a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role
	Content string
}

// Image is raw image bytes as returned by the provider.
type Image struct {
	Data     []byte
	MIMEType string
}

// Audio is raw audio bytes as returned by the provider.
type Audio struct {
	Data     []byte
	MIMEType string
}

// ParamType is the JSON type of a tool parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamNumber  ParamType = "number"
	ParamInteger ParamType = "integer"
	ParamBoolean ParamType = "boolean"
)

// ToolParameter describes one argument of a declared tool.
type ToolParameter struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
}

// ToolDeclaration describes a function the model may ask the caller to run.
type ToolDeclaration struct {
	Name        string
	Description string
	Parameters  []ToolParameter
}

// ToolCall is a function-call intent returned by the model.
type ToolCall struct {
	Name string
	Args map[string]any
}

// StringArg returns the named argument when it is a string.
func (c ToolCall) StringArg(name string) (string, bool) {
	v, ok := c.Args[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ToolReply is the result of a tool-augmented chat turn. When both are present,
// ToolCalls take precedence over Text.
type ToolReply struct {
	ToolCalls []ToolCall
	Text      string
}

// Location biases grounded answers towards a point on the map.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Citation is a grounding source attached to a reply.
type Citation struct {
	Title string
	URI   string
}

// GroundedReply is reply text plus its grounding sources, in provider order.
type GroundedReply struct {
	Text      string
	Citations []Citation
}
