package llm

import (
	"context"
	"errors"
)

// Client abstracts text-generation providers for audit analysis.
type Client interface {
	Generate(ctx context.Context, input GenerateInput) (string, error)
}

// GenerateInput captures the inputs for one generation call.
type GenerateInput struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// Generate returns ErrNotImplemented.
func (PlaceholderClient) Generate(ctx context.Context, input GenerateInput) (string, error) {
	_ = ctx
	_ = input
	return "", ErrNotImplemented
}
