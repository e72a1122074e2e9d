package ai

import (
	"context"
	"fmt"
	"time"

	"companion-server/internal/config"

	"github.com/prometheus/client_golang/prometheus"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

var _ NarrationProvider = (*openAINarrator)(nil)

// openAINarrator implements NarrationProvider via an OpenAI-compatible API.
type openAINarrator struct {
	client      *openaigo.Client
	model       string
	temperature float32
	maxTokens   int
	prompts     *PromptBuilder
	logger      *zap.Logger
}

func newOpenAINarrator(cfg *config.Config, logger *zap.Logger) *openAINarrator {
	clientCfg := openaigo.DefaultConfig(cfg.AIAPIKey)
	if cfg.AIBaseURL != "" {
		clientCfg.BaseURL = cfg.AIBaseURL
	}
	return &openAINarrator{
		client:      openaigo.NewClientWithConfig(clientCfg),
		model:       cfg.AIModel,
		temperature: float32(cfg.AITemperature),
		maxTokens:   cfg.AIMaxTokens,
		prompts:     NewPromptBuilder(cfg.AIModel, cfg.PromptTokenBudget),
		logger:      logger.Named("OpenAINarrator"),
	}
}

func (c *openAINarrator) Narrate(ctx context.Context, userID string, req NarrationRequest) (*NarrationResult, error) {
	systemPrompt, userPrompt := c.prompts.Build(req)

	startTime := time.Now()
	c.logger.Debug("Sending narration request",
		zap.String("model", c.model),
		zap.String("userID", userID),
		zap.Int("systemPromptBytes", len(systemPrompt)),
		zap.Int("userPromptBytes", len(userPrompt)),
	)

	resp, err := c.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model: c.model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openaigo.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		ResponseFormat: &openaigo.ChatCompletionResponseFormat{
			Type: openaigo.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error("Narration request failed", zap.String("userID", userID), zap.Duration("duration", duration), zap.Error(err))
		narrationRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return nil, fmt.Errorf("%w: %v", ErrNarrationFailed, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		c.logger.Error("Narration request returned empty response", zap.String("userID", userID), zap.Duration("duration", duration))
		narrationRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_empty_response"}).Inc()
		return nil, fmt.Errorf("%w: empty response", ErrNarrationFailed)
	}

	result, err := ParseNarrationPayload(resp.Choices[0].Message.Content)
	if err != nil {
		c.logger.Warn("Narration response failed validation", zap.String("userID", userID), zap.Error(err))
		narrationRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_invalid_shape"}).Inc()
		return nil, err
	}

	result.Usage = UsageInfo{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		EstimatedCostUSD: calculateCost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
	}

	narrationRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "success"}).Inc()
	observeUsage(c.model, duration.Seconds(), result.Usage)

	c.logger.Debug("Narration received",
		zap.String("userID", userID),
		zap.Duration("duration", duration),
		zap.Int("totalTokens", result.Usage.TotalTokens),
	)
	return result, nil
}
