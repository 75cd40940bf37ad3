package generation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"studio/internal/ai"
)

var (
	// ErrCallFailed matches every failure of a call that reached (or tried to reach) the provider.
	ErrCallFailed = errors.New("generation call failed")
	// ErrInvalidInput matches requests rejected before any provider call.
	ErrInvalidInput = errors.New("invalid generation input")
)

// Op names a generation capability.
type Op string

const (
	OpGenerateImage      Op = "generate_image"
	OpTranslate          Op = "translate"
	OpSendChatMessage    Op = "send_chat_message"
	OpGenerateSong       Op = "generate_song"
	OpSendAdvanced       Op = "send_advanced_message"
	OpSendLocationGround Op = "send_location_grounded_message"
	OpGenerateSpeech     Op = "generate_speech"
)

// FailureMessage is the user-facing notice shown when op fails.
func (op Op) FailureMessage() string {
	switch op {
	case OpGenerateImage:
		return "Image generation failed."
	case OpTranslate:
		return "Translation failed."
	case OpGenerateSong:
		return "Failed to generate song."
	case OpGenerateSpeech:
		return "Audio generation failed."
	default:
		return "Sorry, I encountered an error."
	}
}

// Kind classifies why a call failed.
type Kind int

const (
	KindInvalidInput Kind = iota
	KindTransport
	KindProvider
	KindEmptyResponse
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindTransport:
		return "transport"
	case KindProvider:
		return "provider"
	case KindEmptyResponse:
		return "empty_response"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// CallError is the failure of one generation operation.
type CallError struct {
	Op   Op
	Kind Kind
	Err  error
}

func (e *CallError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

func (e *CallError) Is(target error) bool {
	switch target {
	case ErrInvalidInput:
		return e.Kind == KindInvalidInput
	case ErrCallFailed:
		return e.Kind != KindInvalidInput
	}
	return false
}

// FailureMessage returns the user-facing notice for err, or "" when err is not a CallError.
func FailureMessage(err error) string {
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Op.FailureMessage()
	}
	return ""
}

func invalidInput(op Op, format string, args ...any) error {
	return &CallError{Op: op, Kind: KindInvalidInput, Err: fmt.Errorf(format, args...)}
}

func emptyResponse(op Op) error {
	return &CallError{Op: op, Kind: KindEmptyResponse, Err: ai.ErrEmptyResponse}
}

// classify wraps a provider error with the cause category it belongs to.
func classify(op Op, err error) error {
	kind := KindProvider
	var urlErr *url.Error
	var netErr net.Error
	switch {
	case errors.Is(err, ai.ErrEmptyResponse):
		kind = KindEmptyResponse
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = KindTransport
	case errors.As(err, &urlErr), errors.As(err, &netErr):
		kind = KindTransport
	}
	return &CallError{Op: op, Kind: kind, Err: err}
}
