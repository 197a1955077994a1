package llm

import (
	"context"
	"log/slog"
	"time"

	"newsgraph/internal/logger"
)

// LoggedClient wraps a Provider and logs every call with its latency.
type LoggedClient struct {
	next Provider
	log  *slog.Logger
}

// NewLoggedClient creates a logging wrapper around next
func NewLoggedClient(next Provider) *LoggedClient {
	return &LoggedClient{next: next, log: logger.Get()}
}

// Unwrap returns the underlying provider
func (c *LoggedClient) Unwrap() Provider {
	return c.next
}

// ModelName returns the underlying model name
func (c *LoggedClient) ModelName() string {
	return c.next.ModelName()
}

// GenerateText generates text and logs the call
func (c *LoggedClient) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	start := time.Now()
	text, err := c.next.GenerateText(ctx, prompt, options)
	attrs := []any{
		"model", c.next.ModelName(),
		"prompt_chars", len(prompt),
		"response_chars", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		c.log.Warn("LLM text generation failed", append(attrs, "error", err)...)
		return "", err
	}
	c.log.Debug("LLM text generation", attrs...)
	return text, nil
}

// GenerateEmbedding generates an embedding and logs the call
func (c *LoggedClient) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	start := time.Now()
	vec, err := c.next.GenerateEmbedding(ctx, text)
	attrs := []any{
		"model", c.next.ModelName(),
		"text_chars", len(text),
		"dimensions", len(vec),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		c.log.Warn("LLM embedding failed", append(attrs, "error", err)...)
		return nil, err
	}
	c.log.Debug("LLM embedding", attrs...)
	return vec, nil
}

// Close closes the underlying provider
func (c *LoggedClient) Close() error {
	return c.next.Close()
}
