package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"companion-server/internal/config"

	"github.com/jmorganca/ollama/api"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var _ NarrationProvider = (*ollamaNarrator)(nil)

// ollamaNarrator implements NarrationProvider against a local Ollama server.
type ollamaNarrator struct {
	client      *api.Client
	model       string
	temperature float64
	maxTokens   int
	prompts     *PromptBuilder
	logger      *zap.Logger
}

func newOllamaNarrator(cfg *config.Config, logger *zap.Logger) (*ollamaNarrator, error) {
	// api.NewClient wants the base URL without a /v1 suffix.
	baseURL := strings.TrimSuffix(cfg.OllamaURL, "/v1")
	baseURL = strings.TrimSuffix(baseURL, "/")
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Ollama URL %q: %w", baseURL, err)
	}

	return &ollamaNarrator{
		client:      api.NewClient(parsedURL, &http.Client{}),
		model:       cfg.AIModel,
		temperature: cfg.AITemperature,
		maxTokens:   cfg.AIMaxTokens,
		prompts:     NewPromptBuilder(cfg.AIModel, cfg.PromptTokenBudget),
		logger:      logger.Named("OllamaNarrator"),
	}, nil
}

func (c *ollamaNarrator) Narrate(ctx context.Context, userID string, req NarrationRequest) (*NarrationResult, error) {
	systemPrompt, userPrompt := c.prompts.Build(req)

	chatReq := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream: func(b bool) *bool { return &b }(false),
		Options: map[string]interface{}{
			"temperature": c.temperature,
			"num_predict": c.maxTokens,
		},
	}

	startTime := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(ctx, chatReq, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error("Ollama narration request failed", zap.String("userID", userID), zap.Duration("duration", duration), zap.Error(err))
		narrationRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return nil, fmt.Errorf("%w: %v", ErrNarrationFailed, err)
	}
	if resp.Message.Content == "" {
		c.logger.Error("Ollama narration returned empty response", zap.String("userID", userID), zap.Duration("duration", duration))
		narrationRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_empty_response"}).Inc()
		return nil, fmt.Errorf("%w: empty response", ErrNarrationFailed)
	}

	result, err := ParseNarrationPayload(resp.Message.Content)
	if err != nil {
		c.logger.Warn("Ollama narration failed validation", zap.String("userID", userID), zap.Error(err))
		narrationRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_invalid_shape"}).Inc()
		return nil, err
	}

	// Local inference, cost stays zero.
	result.Usage = UsageInfo{
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
	}

	narrationRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "success"}).Inc()
	observeUsage(c.model, duration.Seconds(), result.Usage)
	return result, nil
}
