package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrNotConfigured is returned when no LLM API key is configured and
	// generation is disabled.
	ErrNotConfigured = errors.New("text generation is not configured")

	// ErrGenerationFailed is returned when generation fails for any general reason
	ErrGenerationFailed = errors.New("failed to generate text")

	// ErrEmptyResponse is returned when the LLM produces no usable text
	ErrEmptyResponse = errors.New("empty response from language model")

	// ErrContentBlocked is returned when the LLM blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during text generation")

	// ErrInvalidConfig is returned when the generator configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")
)
