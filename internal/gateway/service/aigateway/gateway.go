// Package aigateway exposes the AI capabilities the report lifecycle needs:
// legitimacy classification, structured summarization, embeddings and the
// free-form assistant reply. Every call returns a strict result; transport
// failures wrap entity.ErrGatewayUnavailable and unusable answers wrap
// entity.ErrMalformedAIOutput.
package aigateway

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"fraudwatch/internal/gateway/entity"
	"fraudwatch/internal/llm"
	llmclient "fraudwatch/internal/llmClient"
)

type Config struct {
	Model      string
	ChatModel  string
	EmbedModel string
	EmbedDims  int
}

// Image is an inline picture attached to a summarize request.
type Image struct {
	MIMEType string
	Data     []byte
}

type Gateway struct {
	cli llmclient.LLMClient
	cfg Config
	log *slog.Logger
}

func New(cli llmclient.LLMClient, cfg Config, logger *slog.Logger) *Gateway {
	if cfg.ChatModel == "" {
		cfg.ChatModel = cfg.Model
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{cli: cli, cfg: cfg, log: logger.With("component", "aigateway")}
}

// Classify asks whether description reads like a genuine scam incident.
// Only an unambiguous "true" answer yields VerdictLegitimate.
func (g *Gateway) Classify(ctx context.Context, description string) (Verdict, error) {
	ctx = llm.WithOperation(ctx, "classify")
	out, err := g.cli.GenerateText(ctx, g.cfg.Model, classifyPrompt(description))
	if err != nil {
		return VerdictAmbiguous, fmt.Errorf("classify: %w: %w", entity.ErrGatewayUnavailable, err)
	}
	v := ParseVerdict(out)
	if v == VerdictAmbiguous {
		g.log.WarnContext(ctx, "classifier answer not understood", "answer", truncate(out, 80))
		return v, fmt.Errorf("classify: %w: unparseable verdict", entity.ErrMalformedAIOutput)
	}
	return v, nil
}

// Summarize extracts {title, type, content} from text, optionally looking at
// an evidence image.
func (g *Gateway) Summarize(ctx context.Context, text string, img *Image) (entity.Summary, error) {
	ctx = llm.WithOperation(ctx, "summarize")
	var media []llmclient.Media
	if img != nil && len(img.Data) > 0 {
		media = append(media, llmclient.Media{MIMEType: img.MIMEType, Data: img.Data})
	}
	out, err := g.cli.GenerateText(ctx, g.cfg.Model, summarizePrompt(text), media...)
	if err != nil {
		return entity.Summary{}, fmt.Errorf("summarize: %w: %w", entity.ErrGatewayUnavailable, err)
	}
	s, err := ParseSummary(out)
	if err != nil {
		return entity.Summary{}, fmt.Errorf("summarize: %w", err)
	}
	return s, nil
}

// Embed returns the semantic vector of text. Vectors whose length differs
// from the configured dimensionality are rejected.
func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx = llm.WithOperation(ctx, "embed")
	vec, err := g.cli.Embed(ctx, g.cfg.EmbedModel, text, g.cfg.EmbedDims)
	if err != nil {
		return nil, fmt.Errorf("embed: %w: %w", entity.ErrGatewayUnavailable, err)
	}
	if g.cfg.EmbedDims > 0 && len(vec) != g.cfg.EmbedDims {
		return nil, fmt.Errorf("embed: %w: got %d dims, want %d", entity.ErrMalformedAIOutput, len(vec), g.cfg.EmbedDims)
	}
	for _, v := range vec {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, fmt.Errorf("embed: %w: non-finite component", entity.ErrMalformedAIOutput)
		}
	}
	return vec, nil
}

// Chat answers a free-form message as the fraud awareness assistant.
func (g *Gateway) Chat(ctx context.Context, message string) (string, error) {
	ctx = llm.WithOperation(ctx, "chat")
	out, err := g.cli.GenerateText(ctx, g.cfg.ChatModel, chatPrompt(message))
	if err != nil {
		return "", fmt.Errorf("chat: %w: %w", entity.ErrGatewayUnavailable, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("chat: %w: empty reply", entity.ErrMalformedAIOutput)
	}
	return out, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
