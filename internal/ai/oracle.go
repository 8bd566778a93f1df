package ai

import (
	"context"
	"errors"
)

var (
	// ErrOracleUnavailable marks network, auth, quota and deadline failures of the completion service.
	ErrOracleUnavailable = errors.New("oracle unavailable")
	// ErrEmptyResponse is returned when the completion service answers with no text.
	ErrEmptyResponse = errors.New("oracle returned empty response")
)

// Oracle is a text completion service. Output is unstructured and must be parsed defensively.
type Oracle interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// OracleFunc adapts a plain function to the Oracle interface.
type OracleFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

func (f OracleFunc) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f(ctx, systemPrompt, userPrompt)
}
