package ai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	pricePerMillionInputTokensUSD  = 0.15
	pricePerMillionOutputTokensUSD = 0.6
)

var (
	narrationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "companion_narration_requests_total",
			Help: "Total number of narration requests to the AI backend.",
		},
		[]string{"model", "status"},
	)
	narrationRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "companion_narration_request_duration_seconds",
			Help:    "Histogram of narration request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	narrationPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "companion_narration_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"model"},
	)
	narrationCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "companion_narration_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"model"},
	)
	narrationEstimatedCostUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "companion_narration_estimated_cost_usd_total",
			Help: "Estimated total cost of narration requests in USD.",
		},
		[]string{"model"},
	)
)

// calculateCost estimates the request cost from token counts.
func calculateCost(promptTokens, completionTokens int) float64 {
	inputCost := float64(promptTokens) * pricePerMillionInputTokensUSD / 1_000_000.0
	outputCost := float64(completionTokens) * pricePerMillionOutputTokensUSD / 1_000_000.0
	return inputCost + outputCost
}

func observeUsage(model string, duration float64, usage UsageInfo) {
	narrationRequestDuration.With(prometheus.Labels{"model": model}).Observe(duration)
	if usage.TotalTokens > 0 {
		narrationPromptTokens.With(prometheus.Labels{"model": model}).Observe(float64(usage.PromptTokens))
		narrationCompletionTokens.With(prometheus.Labels{"model": model}).Observe(float64(usage.CompletionTokens))
	}
	if usage.EstimatedCostUSD > 0 {
		narrationEstimatedCostUSD.With(prometheus.Labels{"model": model}).Add(usage.EstimatedCostUSD)
	}
}
