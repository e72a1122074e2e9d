package ai

import (
	"context"
	"errors"
	"fmt"

	"companion-server/internal/config"

	"go.uber.org/zap"
)

// ErrNarrationFailed marks any failure to obtain a valid narration: transport
// errors, empty responses and responses that do not satisfy the contract.
var ErrNarrationFailed = errors.New("narration generation failed")

// PersonaPrompt carries the persona traits fed into the prompt.
type PersonaPrompt struct {
	Name      string
	StyleTags []string
	VoiceTone string
}

// NarrationRequest is the structured input of one narration call.
type NarrationRequest struct {
	Persona               PersonaPrompt
	StoryTitle            string
	PlayerName            string
	SituationBeforeAction string
	ActionJustTaken       string
}

// UsageInfo reports token usage and estimated cost of one call.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	EstimatedCostUSD float64
}

// NarrationResult is the validated output of one narration call: all three
// fields are guaranteed non-empty when the provider returns a nil error.
type NarrationResult struct {
	Narration string
	ChoiceA   string
	ChoiceB   string
	Usage     UsageInfo
}

// NarrationProvider produces the next narrative beat and two choices.
// A single synchronous call, no internal retries.
type NarrationProvider interface {
	Narrate(ctx context.Context, userID string, req NarrationRequest) (*NarrationResult, error)
}

// NewNarrationProvider builds the provider selected by the configuration.
func NewNarrationProvider(cfg *config.Config, logger *zap.Logger) (NarrationProvider, error) {
	switch cfg.AIProvider {
	case "openai", "":
		return newOpenAINarrator(cfg, logger), nil
	case "ollama":
		return newOllamaNarrator(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown AI provider: %q", cfg.AIProvider)
	}
}
