package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	llmclient "fraudwatch/internal/llmClient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient fails the first n calls with err, then succeeds.
type scriptedClient struct {
	mu    sync.Mutex
	fails int
	err   error
	calls int
	times []time.Time
	delay time.Duration
}

func (s *scriptedClient) Name() string { return "scripted" }
func (s *scriptedClient) Close() error { return nil }

func (s *scriptedClient) step(ctx context.Context) error {
	s.mu.Lock()
	s.calls++
	s.times = append(s.times, time.Now())
	fail := s.calls <= s.fails
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.delay):
		}
	}
	if fail {
		return s.err
	}
	return nil
}

func (s *scriptedClient) GenerateText(ctx context.Context, model, prompt string, media ...Media) (string, error) {
	if err := s.step(ctx); err != nil {
		return "", err
	}
	return "ok", nil
}

func (s *scriptedClient) Embed(ctx context.Context, model, text string, dims int) ([]float32, error) {
	if err := s.step(ctx); err != nil {
		return nil, err
	}
	return []float32{1}, nil
}

func TestRetryRecoversFromTransientErrors(t *testing.T) {
	inner := &scriptedClient{fails: 2, err: errors.New("503")}
	cli := Wrap(inner, Retry(3, time.Millisecond))

	out, err := cli.GenerateText(context.Background(), "m", "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	inner := &scriptedClient{fails: 5, err: llmclient.NewPermanentError(errors.New("bad key"))}
	cli := Wrap(inner, Retry(4, time.Millisecond))

	_, err := cli.Embed(context.Background(), "m", "t", 3)
	require.Error(t, err)
	assert.True(t, llmclient.IsPermanent(err))
	assert.Equal(t, 1, inner.calls)
}

func TestRetryReturnsLastErrorWhenExhausted(t *testing.T) {
	boom := errors.New("boom")
	inner := &scriptedClient{fails: 10, err: boom}
	cli := Wrap(inner, Retry(2, time.Millisecond))

	_, err := cli.GenerateText(context.Background(), "m", "p")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, inner.calls)
}

func TestTimeoutAppliesPerAttempt(t *testing.T) {
	inner := &scriptedClient{delay: 200 * time.Millisecond}
	cli := Wrap(inner, Retry(2, time.Millisecond), Timeout(20*time.Millisecond))

	start := time.Now()
	_, err := cli.GenerateText(context.Background(), "m", "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, inner.calls)
	assert.Less(t, time.Since(start), 190*time.Millisecond)
}

func TestRateLimitSpacesRequests(t *testing.T) {
	// rps=10 burst=1: the second call waits roughly 100ms.
	inner := &scriptedClient{}
	cli := Wrap(inner, RateLimit(10, 1))
	t.Cleanup(func() { _ = cli.Close() })

	ctx := context.Background()
	_, err := cli.GenerateText(ctx, "m", "p")
	require.NoError(t, err)
	_, err = cli.GenerateText(ctx, "m", "p")
	require.NoError(t, err)

	require.Len(t, inner.times, 2)
	assert.GreaterOrEqual(t, inner.times[1].Sub(inner.times[0]), 60*time.Millisecond)
}

func TestRateLimitHonorsCanceledContext(t *testing.T) {
	inner := &scriptedClient{}
	cli := Wrap(inner, RateLimit(0.1, 1))
	t.Cleanup(func() { _ = cli.Close() })

	_, err := cli.GenerateText(context.Background(), "m", "p")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = cli.GenerateText(ctx, "m", "p")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, inner.calls)
}

func TestDisabledRateLimitIsNoop(t *testing.T) {
	cli := Wrap(&scriptedClient{}, RateLimit(0, 0))
	for i := 0; i < 5; i++ {
		_, err := cli.Embed(context.Background(), "m", "t", 1)
		require.NoError(t, err)
	}
	require.NoError(t, cli.Close())
}

func TestOperationContext(t *testing.T) {
	ctx := WithOperation(context.Background(), " Classify ")
	assert.Equal(t, "classify", OperationFrom(ctx))
	assert.Equal(t, "", OperationFrom(context.Background()))
}
