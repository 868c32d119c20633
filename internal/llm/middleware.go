package llm

import (
	"context"
	"log/slog"
	"time"
)

// Middleware decorates an LLMClient to inject cross-cutting concerns
// (timeouts, rate limiting, retries, logging).
type Middleware func(LLMClient) LLMClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner LLMClient, mws ...Middleware) LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Timeout --------

// Timeout bounds every call with its own deadline. Place it inside Retry so
// each attempt gets a fresh budget.
func Timeout(d time.Duration) Middleware {
	return func(next LLMClient) LLMClient {
		if d <= 0 {
			return next
		}
		return &timeoutClient{next: next, d: d}
	}
}

type timeoutClient struct {
	next LLMClient
	d    time.Duration
}

func (c *timeoutClient) Name() string { return c.next.Name() }
func (c *timeoutClient) Close() error { return c.next.Close() }

func (c *timeoutClient) GenerateText(ctx context.Context, model, prompt string, media ...Media) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.d)
	defer cancel()
	return c.next.GenerateText(ctx, model, prompt, media...)
}

func (c *timeoutClient) Embed(ctx context.Context, model, text string, dims int) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.d)
	defer cancel()
	return c.next.Embed(ctx, model, text, dims)
}

// -------- Rate Limiting (using rpsLimiter) --------

// RateLimit limits request rate using the custom rpsLimiter.
// If rps <= 0, the limiter is effectively disabled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next LLMClient) LLMClient {
		rl := newRPSLimiter(rps, burst) // nil when disabled
		return &rateLimited{next: next, rl: rl}
	}
}

type rateLimited struct {
	next LLMClient
	rl   *rpsLimiter
}

func (c *rateLimited) Name() string { return c.next.Name() }

func (c *rateLimited) Close() error {
	c.rl.Stop()
	return c.next.Close()
}

func (c *rateLimited) GenerateText(ctx context.Context, model, prompt string, media ...Media) (string, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return "", err
	}
	return c.next.GenerateText(ctx, model, prompt, media...)
}

func (c *rateLimited) Embed(ctx context.Context, model, text string, dims int) ([]float32, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return nil, err
	}
	return c.next.Embed(ctx, model, text, dims)
}

// -------- Logging --------

// WithLogging logs request sizes, latency and errors. Prompts are never logged
// verbatim since they carry user-submitted report text.
func WithLogging(logger *slog.Logger) Middleware {
	return func(next LLMClient) LLMClient {
		if logger == nil {
			logger = slog.Default()
		}
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next LLMClient
	log  *slog.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) GenerateText(ctx context.Context, model, prompt string, media ...Media) (string, error) {
	start := time.Now()
	out, err := l.next.GenerateText(ctx, model, prompt, media...)
	attrs := []any{
		"client", l.next.Name(),
		"op", OperationFrom(ctx),
		"model", model,
		"prompt_bytes", len(prompt),
		"media", len(media),
		"elapsed", time.Since(start),
	}
	if err != nil {
		l.log.WarnContext(ctx, "llm request failed", append(attrs, "error", err)...)
		return "", err
	}
	l.log.DebugContext(ctx, "llm request", append(attrs, "response_bytes", len(out))...)
	return out, nil
}

func (l *logging) Embed(ctx context.Context, model, text string, dims int) ([]float32, error) {
	start := time.Now()
	out, err := l.next.Embed(ctx, model, text, dims)
	attrs := []any{
		"client", l.next.Name(),
		"op", OperationFrom(ctx),
		"model", model,
		"text_bytes", len(text),
		"elapsed", time.Since(start),
	}
	if err != nil {
		l.log.WarnContext(ctx, "llm embed failed", append(attrs, "error", err)...)
		return nil, err
	}
	l.log.DebugContext(ctx, "llm embed", append(attrs, "dims", len(out))...)
	return out, nil
}
