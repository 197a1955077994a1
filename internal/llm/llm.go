package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"newsgraph/internal/config"
)

var (
	// ErrEmptyPrompt is returned when GenerateText is called without a prompt
	ErrEmptyPrompt = errors.New("prompt cannot be empty")

	// ErrEmptyResponse is returned when the model produced no text
	ErrEmptyResponse = errors.New("empty response from LLM")

	// ErrUnsupportedProvider is returned for an unknown ai.provider value
	ErrUnsupportedProvider = errors.New("unsupported LLM provider")
)

// Provider is a text generation and embedding backend.
type Provider interface {
	GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error)
	GenerateEmbedding(ctx context.Context, text string) ([]float64, error)
	ModelName() string
	Close() error
}

// TextGenerationOptions contains options for text generation
type TextGenerationOptions struct {
	MaxTokens   int32   // Maximum number of tokens to generate
	Temperature float32 // Temperature for randomness (0.0 to 1.0); zero leaves the backend default
	Model       string  // Model to use (optional, defaults to client's model)
	JSON        bool    // Ask the backend for a JSON response
}

// New creates the backend selected by cfg.Provider, wrapped with request logging.
func New(ctx context.Context, cfg config.AI) (Provider, error) {
	var (
		p   Provider
		err error
	)

	switch cfg.Provider {
	case "gemini", "":
		p, err = NewGeminiClient(ctx, GeminiOptions{
			APIKey:              cfg.Gemini.APIKey,
			Model:               cfg.Gemini.Model,
			EmbeddingModel:      cfg.Gemini.EmbeddingModel,
			EmbeddingDimensions: cfg.Gemini.EmbeddingDimensions,
			MaxTokens:           cfg.Gemini.MaxTokens,
			Temperature:         cfg.Gemini.Temperature,
			Timeout:             config.Duration(cfg.Gemini.Timeout, 60*time.Second),
		})
	case "openai":
		p, err = NewOpenAIClient(OpenAIOptions{
			APIKey:         cfg.OpenAI.APIKey,
			Model:          cfg.OpenAI.Model,
			EmbeddingModel: cfg.OpenAI.EmbeddingModel,
			BaseURL:        cfg.OpenAI.BaseURL,
			Timeout:        config.Duration(cfg.OpenAI.Timeout, 60*time.Second),
		})
	default:
		return nil, fmt.Errorf("%s: %w", cfg.Provider, ErrUnsupportedProvider)
	}
	if err != nil {
		return nil, err
	}
	return NewLoggedClient(p), nil
}

// ExtractJSON strips markdown code fences and surrounding prose from a model
// response, returning the outermost JSON array or object it contains.
// The input is returned trimmed when no JSON delimiters are found.
func ExtractJSON(response string) string {
	s := strings.TrimSpace(response)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return s
	}
	closer := byte(']')
	if s[start] == '{' {
		closer = '}'
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		return s
	}
	return s[start : end+1]
}

func toFloat64(values []float32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
