package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
// It only focuses on the API call itself.
type GeminiClient struct {
	cli *genai.Client
}

func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{cli: cli}, nil
}

func (g *GeminiClient) Name() string { return "Gemini" }
func (g *GeminiClient) Close() error { return nil }

// GenerateText sends the prompt plus any inline media as a single user turn
// and returns the first candidate's concatenated text parts.
func (g *GeminiClient) GenerateText(ctx context.Context, model, prompt string, media ...Media) (string, error) {
	parts := []*genai.Part{{Text: prompt}}
	for _, m := range media {
		if len(m.Data) == 0 || !strings.HasPrefix(m.MIMEType, "image/") {
			continue
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: m.MIMEType, Data: m.Data}})
	}

	resp, err := g.cli.Models.GenerateContent(ctx, model,
		[]*genai.Content{{Role: "user", Parts: parts}},
		nil,
	)
	if err != nil {
		return "", classifyAPIError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}

// Embed returns a clustering-oriented embedding of text.
func (g *GeminiClient) Embed(ctx context.Context, model, text string, dims int) ([]float32, error) {
	cfg := &genai.EmbedContentConfig{TaskType: "CLUSTERING"}
	if dims > 0 {
		d := int32(dims)
		cfg.OutputDimensionality = &d
	}
	resp, err := g.cli.Models.EmbedContent(ctx, model, genai.Text(text), cfg)
	if err != nil {
		return nil, classifyAPIError(err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, ErrEmptyResponse
	}
	return resp.Embeddings[0].Values, nil
}

// classifyAPIError marks client-side rejections (bad request, auth, unknown
// model) as permanent so retries stop. 429 stays retryable.
func classifyAPIError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	if apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests {
		return NewPermanentError(err)
	}
	return err
}
