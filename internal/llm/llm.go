// Package llm wraps the Gemini API behind a small text-generation interface
// so summarization code never touches the SDK directly and tests can swap in
// a fake.
package llm

import (
	"context"
	"errors"
)

// ErrNoAPIKey is returned when Gemini is requested without GEMINI_API_KEY set.
var ErrNoAPIKey = errors.New("GEMINI_API_KEY is not set")

// ErrEmptyResponse is returned when the model yields no candidates.
var ErrEmptyResponse = errors.New("empty response from model")

// Client generates text from a prompt.
type Client interface {
	Name() string
	GenerateText(ctx context.Context, prompt string) (string, error)
	Close() error
}

// PermanentError marks an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}
