package ai

import (
	"log/slog"

	"github.com/openai/openai-go/v3/responses"
	"google.golang.org/genai"
)

// TokenUsage captures token usage reported by a provider.
type TokenUsage struct {
	InputTokens     int64
	OutputTokens    int64
	TotalTokens     int64
	CachedTokens    int64
	ReasoningTokens int64
}

func (u TokenUsage) logAttrs() []any {
	return []any{
		"inputTokens", u.InputTokens,
		"outputTokens", u.OutputTokens,
		"totalTokens", u.TotalTokens,
		"cachedTokens", u.CachedTokens,
		"reasoningTokens", u.ReasoningTokens,
	}
}

func logUsage(logger *slog.Logger, provider, model string, usage TokenUsage) {
	args := append([]any{"provider", provider, "model", model}, usage.logAttrs()...)
	logger.Debug("provider usage", args...)
}

func usageFromResponse(usage responses.ResponseUsage) TokenUsage {
	return TokenUsage{
		InputTokens:     usage.InputTokens,
		OutputTokens:    usage.OutputTokens,
		TotalTokens:     usage.TotalTokens,
		CachedTokens:    usage.InputTokensDetails.CachedTokens,
		ReasoningTokens: usage.OutputTokensDetails.ReasoningTokens,
	}
}

func usageFromGemini(usage *genai.GenerateContentResponseUsageMetadata) TokenUsage {
	if usage == nil {
		return TokenUsage{}
	}
	return TokenUsage{
		InputTokens:     int64(usage.PromptTokenCount),
		OutputTokens:    int64(usage.CandidatesTokenCount),
		TotalTokens:     int64(usage.TotalTokenCount),
		CachedTokens:    int64(usage.CachedContentTokenCount),
		ReasoningTokens: int64(usage.ThoughtsTokenCount),
	}
}
