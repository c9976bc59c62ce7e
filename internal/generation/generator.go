package generation

import "context"

// Generator defines the interface for LLM text generation.
type Generator interface {
	// Generate produces text for the given prompt.
	//
	// Returns ErrNotConfigured when generation is disabled,
	// ErrContentBlocked when the model refuses the content, and
	// ErrTransientFailure (possibly wrapped) for retryable failures.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Disabled is a Generator used when no API key is configured. Every call
// fails with ErrNotConfigured so callers can degrade gracefully.
type Disabled struct{}

// NewDisabled returns a Generator that always reports ErrNotConfigured.
func NewDisabled() *Disabled {
	return &Disabled{}
}

// Generate implements Generator.
func (*Disabled) Generate(ctx context.Context, prompt string) (string, error) {
	return "", ErrNotConfigured
}
