package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultOpenAIModel is the default chat model
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIEmbeddingModel is the default embedding model
	DefaultOpenAIEmbeddingModel = string(goopenai.LargeEmbedding3)
)

// OpenAIOptions configures an OpenAIClient
type OpenAIOptions struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	BaseURL        string
	Timeout        time.Duration
}

// OpenAIClient talks to the OpenAI chat and embeddings APIs, or any server
// speaking the same protocol at BaseURL.
type OpenAIClient struct {
	opts   OpenAIOptions
	client *goopenai.Client
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(opts OpenAIOptions) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required. Set OPENAI_API_KEY environment variable or ai.openai.api_key in config file")
	}
	if opts.Model == "" {
		opts.Model = DefaultOpenAIModel
	}
	if opts.EmbeddingModel == "" {
		opts.EmbeddingModel = DefaultOpenAIEmbeddingModel
	}

	cfg := goopenai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	return &OpenAIClient{opts: opts, client: goopenai.NewClientWithConfig(cfg)}, nil
}

// ModelName returns the chat model
func (c *OpenAIClient) ModelName() string {
	return c.opts.Model
}

// GenerateText sends prompt as a single user message
func (c *OpenAIClient) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	req := goopenai.ChatCompletionRequest{
		Model: c.opts.Model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   int(options.MaxTokens),
		Temperature: options.Temperature,
	}
	if options.Model != "" {
		req.Model = options.Model
	}
	if options.JSON {
		req.ResponseFormat = &goopenai.ChatCompletionResponseFormat{Type: goopenai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateEmbedding generates a vector embedding for the given text
func (c *OpenAIClient) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, ErrEmptyPrompt
	}

	resp, err := c.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input: []string{text},
		Model: goopenai.EmbeddingModel(c.opts.EmbeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding values returned from API")
	}

	return toFloat64(resp.Data[0].Embedding), nil
}

// Close releases client resources
func (c *OpenAIClient) Close() error {
	return nil
}
