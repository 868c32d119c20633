package llmclient

import (
	"context"
	"errors"
)

var ErrEmptyResponse = errors.New("empty response from LLM")

// Media is an inline binary attachment sent alongside a prompt.
type Media struct {
	MIMEType string
	Data     []byte
}

// LLMClient is the raw model contract. Implementations only perform the API
// call; timeouts, retries, rate limits and logging are layered on top.
type LLMClient interface {
	Name() string
	GenerateText(ctx context.Context, model, prompt string, media ...Media) (string, error)
	Embed(ctx context.Context, model, text string, dims int) ([]float32, error)
	Close() error
}

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

func IsPermanent(err error) bool {
	var pErr *PermanentError
	return errors.As(err, &pErr)
}
