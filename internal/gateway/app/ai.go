package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fraudwatch/internal/gateway/config"
	"fraudwatch/internal/llm"
	llmclient "fraudwatch/internal/llmClient"
)

const retryBaseDelay = 500 * time.Millisecond

// newLLMClient picks the provider and layers logging, retry, rate limiting
// and the per-attempt timeout on top of it.
func newLLMClient(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (llmclient.LLMClient, error) {
	var inner llmclient.LLMClient
	switch cfg.Provider {
	case config.ProviderFake:
		logger.Warn("ai provider: fake client, classifications and summaries are canned")
		inner = llm.NewFakeClient()
	case config.ProviderGemini:
		g, err := llmclient.NewGeminiClient(ctx, cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
		}
		inner = g
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
	return llm.Wrap(inner,
		llm.WithLogging(logger),
		llm.Retry(cfg.MaxAttempts, retryBaseDelay),
		llm.RateLimit(cfg.RPS, cfg.Burst),
		llm.Timeout(cfg.Timeout),
	), nil
}
