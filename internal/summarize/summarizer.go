package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyInput is returned when there is no text to summarize
var ErrEmptyInput = errors.New("no content to summarize")

// LLMClient defines the interface for LLM operations
type LLMClient interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Summarizer condenses the combined text of a cluster's articles.
type Summarizer struct {
	llmClient LLMClient
	options   SummarizerOptions
}

// SummarizerOptions configures the summarizer behavior
type SummarizerOptions struct {
	MaxWords      int
	MaxInputChars int

	// Retry settings
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultSummarizerOptions returns sensible defaults
func DefaultSummarizerOptions() SummarizerOptions {
	return SummarizerOptions{
		MaxWords:      120,
		MaxInputChars: 24000,
		MaxRetries:    2,
		RetryDelay:    time.Second,
	}
}

// NewSummarizer creates a new summarizer with the given LLM client
func NewSummarizer(llmClient LLMClient, options SummarizerOptions) *Summarizer {
	return &Summarizer{
		llmClient: llmClient,
		options:   options,
	}
}

// NewSummarizerWithDefaults creates a summarizer with default options
func NewSummarizerWithDefaults(llmClient LLMClient) *Summarizer {
	return NewSummarizer(llmClient, DefaultSummarizerOptions())
}

// Summarize returns a short summary of text, retrying transient failures.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyInput
	}
	if s.options.MaxInputChars > 0 {
		text = truncateRunes(text, s.options.MaxInputChars)
	}

	prompt := BuildClusterSummaryPrompt(text, s.options.MaxWords)

	var response string
	var err error

	for attempt := 0; attempt <= s.options.MaxRetries; attempt++ {
		response, err = s.llmClient.GenerateText(ctx, prompt)
		if err == nil {
			break
		}

		if attempt < s.options.MaxRetries {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(s.options.RetryDelay * time.Duration(attempt+1)):
			}
		}
	}

	if err != nil {
		return "", fmt.Errorf("failed to generate summary after %d attempts: %w", s.options.MaxRetries+1, err)
	}

	summary := CleanSummary(response)
	if summary == "" {
		return "", fmt.Errorf("summary response was empty")
	}
	return summary, nil
}

// truncateRunes keeps at most n runes of s.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
