// Package gemini implements the generation.Generator interface using
// Google's Gemini API via the google.golang.org/genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/devprep/interview-bot/internal/config"
	"github.com/devprep/interview-bot/internal/generation"
)

// Generator calls the Gemini API with a configured list of models, falling
// back to the next model when the current one is exhausted or unavailable.
type Generator struct {
	client     *genai.Client
	models     []string
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// Ensure Generator implements generation.Generator interface
var _ generation.Generator = (*Generator)(nil)

// NewGenerator creates a Gemini-backed generator from the LLM configuration.
// Returns generation.ErrInvalidConfig when the config cannot produce a
// working client.
func NewGenerator(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (*Generator, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: missing Gemini API key", generation.ErrInvalidConfig)
	}
	if len(cfg.Models) == 0 {
		return nil, fmt.Errorf("%w: no models configured", generation.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &Generator{
		client:     client,
		models:     cfg.Models,
		maxRetries: cfg.MaxRetries,
		retryDelay: time.Duration(cfg.RetryDelaySeconds) * time.Second,
		logger:     logger.With(slog.String("component", "gemini_generator")),
	}, nil
}

// Generate implements generation.Generator.
//
// Each configured model is tried in order; within a model, transient
// failures are retried up to MaxRetries times with a fixed delay. The first
// non-empty response wins. Safety blocks abort immediately since no model
// or retry will change the verdict.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: empty prompt", generation.ErrGenerationFailed)
	}

	var lastErr error
	for _, model := range g.models {
		text, err := g.generateWithRetries(ctx, model, prompt)
		if err == nil {
			return text, nil
		}
		if errors.Is(err, generation.ErrContentBlocked) || ctx.Err() != nil {
			return "", err
		}

		g.logger.Warn("model failed, falling back to next",
			slog.String("model", model),
			slog.String("error", err.Error()))
		lastErr = err
	}

	return "", fmt.Errorf("%w: all models exhausted: %v", generation.ErrGenerationFailed, lastErr)
}

func (g *Generator) generateWithRetries(ctx context.Context, model, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(g.retryDelay):
			}
		}

		text, err := g.generateOnce(ctx, model, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !errors.Is(err, generation.ErrTransientFailure) {
			return "", err
		}

		g.logger.Debug("transient generation failure, retrying",
			slog.String("model", model),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))
	}

	return "", lastErr
}

func (g *Generator) generateOnce(ctx context.Context, model, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", classifyError(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: %s", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("%w: model %s", generation.ErrEmptyResponse, model)
	}

	return text, nil
}

// classifyError maps SDK errors onto the generation package sentinels so
// callers can decide whether to retry, fall back, or give up.
func classifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
		}
		return fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "rate limit") || strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "deadline exceeded") || strings.Contains(msg, "connection") {
		return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}
	if strings.Contains(msg, "safety") || strings.Contains(msg, "blocked") {
		return fmt.Errorf("%w: %v", generation.ErrContentBlocked, err)
	}

	return fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
}
