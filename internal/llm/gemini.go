package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

const (
	// DefaultGeminiModel is the default Gemini model for text generation
	DefaultGeminiModel = "gemini-2.5-flash"
	// DefaultGeminiEmbeddingModel is the default model for generating embeddings
	DefaultGeminiEmbeddingModel = "text-embedding-004"
	// DefaultEmbeddingDimensions is the output dimension for embeddings
	DefaultEmbeddingDimensions = int32(768)
)

// GeminiOptions configures a GeminiClient
type GeminiOptions struct {
	APIKey              string
	Model               string
	EmbeddingModel      string
	EmbeddingDimensions int32
	MaxTokens           int32
	Temperature         float32
	Timeout             time.Duration
}

// GeminiClient talks to Google Gemini through the genai SDK.
type GeminiClient struct {
	opts    GeminiOptions
	gClient *genai.Client
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, opts GeminiOptions) (*GeminiClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required. Set GEMINI_API_KEY environment variable or ai.gemini.api_key in config file")
	}
	if opts.Model == "" {
		opts.Model = DefaultGeminiModel
	}
	if opts.EmbeddingModel == "" {
		opts.EmbeddingModel = DefaultGeminiEmbeddingModel
	}
	if opts.EmbeddingDimensions == 0 {
		opts.EmbeddingDimensions = DefaultEmbeddingDimensions
	}

	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{opts: opts, gClient: gClient}, nil
}

// ModelName returns the generation model
func (c *GeminiClient) ModelName() string {
	return c.opts.Model
}

// GenerateText generates text using the LLM with specified options
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	modelName := c.opts.Model
	if options.Model != "" {
		modelName = options.Model
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	config := &genai.GenerateContentConfig{}
	if maxTokens := firstNonZero(options.MaxTokens, c.opts.MaxTokens); maxTokens > 0 {
		config.MaxOutputTokens = maxTokens
	}
	if temp := firstNonZero(options.Temperature, c.opts.Temperature); temp > 0 {
		config.Temperature = &temp
	}
	if options.JSON {
		config.ResponseMIMEType = "application/json"
	}

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	resp, err := c.gClient.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// GenerateEmbedding generates a vector embedding for the given text
func (c *GeminiClient) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, ErrEmptyPrompt
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: text}},
		Role:  "user",
	}}

	dims := c.opts.EmbeddingDimensions
	resp, err := c.gClient.Models.EmbedContent(ctx, c.opts.EmbeddingModel, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("no embedding values returned from API")
	}

	return toFloat64(resp.Embeddings[0].Values), nil
}

// Close releases client resources. The genai client holds none.
func (c *GeminiClient) Close() error {
	return nil
}

func firstNonZero[T int32 | float32](values ...T) T {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
