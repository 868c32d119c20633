package llm

import (
	"context"
	"time"

	llmclient "fraudwatch/internal/llmClient"
)

// Retry retries calls up to maxAttempts with exponential backoff starting at
// baseDelay. If context is canceled, it stops immediately.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next LLMClient) LLMClient {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next LLMClient
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) GenerateText(ctx context.Context, model, prompt string, media ...Media) (string, error) {
	var out string
	err := r.do(ctx, func() error {
		var err error
		out, err = r.next.GenerateText(ctx, model, prompt, media...)
		return err
	})
	return out, err
}

func (r *retrying) Embed(ctx context.Context, model, text string, dims int) ([]float32, error) {
	var out []float32
	err := r.do(ctx, func() error {
		var err error
		out, err = r.next.Embed(ctx, model, text, dims)
		return err
	})
	return out, err
}

func (r *retrying) do(ctx context.Context, call func() error) error {
	var last error
	for i := 0; i < r.max; i++ {
		err := call()
		if err == nil {
			return nil
		}
		if llmclient.IsPermanent(err) {
			return err
		}
		last = err
		if i == r.max-1 {
			break
		}
		t := time.NewTimer(r.base * time.Duration(1<<i))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return last
}
