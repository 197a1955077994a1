package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"newsgraph/internal/llm"
)

const (
	maxEmbeddingChars = 8000
	maxTopicChars     = 6000
	maxTopics         = 8
)

// LLMClient is the text generation capability topic extraction needs.
type LLMClient interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// EmbeddingClient is the embedding capability LLMEmbedder needs.
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float64, error)
}

// LLMEmbedder embeds text through an embedding backend, truncating input to
// stay within model token limits.
type LLMEmbedder struct {
	client EmbeddingClient
}

// NewLLMEmbedder creates an embedder backed by client
func NewLLMEmbedder(client EmbeddingClient) *LLMEmbedder {
	return &LLMEmbedder{client: client}
}

// Embed returns the embedding of text
func (e *LLMEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return e.client.GenerateEmbedding(ctx, truncate(text, maxEmbeddingChars))
}

// LLMTopicExtractor asks a model for the short topics of an article.
type LLMTopicExtractor struct {
	client LLMClient
}

// NewLLMTopicExtractor creates a topic extractor backed by client
func NewLLMTopicExtractor(client LLMClient) *LLMTopicExtractor {
	return &LLMTopicExtractor{client: client}
}

const topicPrompt = `Extract the main topics of the news article below.
Return a JSON object of the form {"topics": ["topic", ...]} with at most %d short topics (one to three words each), most important first.
Return only the JSON.

Article:
%s`

// ExtractTopics returns the ordered topics of text
func (e *LLMTopicExtractor) ExtractTopics(ctx context.Context, text string) ([]string, error) {
	response, err := e.client.GenerateText(ctx, fmt.Sprintf(topicPrompt, maxTopics, truncate(text, maxTopicChars)))
	if err != nil {
		return nil, err
	}
	return ParseTopics(response)
}

// ParseTopics reads a topic list from a model response. Both a bare JSON
// array and an object with a "topics" array are accepted, with or without
// code fences. Blank entries are dropped and the list is capped.
func ParseTopics(response string) ([]string, error) {
	raw := llm.ExtractJSON(response)

	var topics []string
	if strings.HasPrefix(raw, "{") {
		var obj struct {
			Topics []string `json:"topics"`
		}
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			return nil, fmt.Errorf("failed to parse topics: %w", err)
		}
		topics = obj.Topics
	} else if err := json.Unmarshal([]byte(raw), &topics); err != nil {
		return nil, fmt.Errorf("failed to parse topics: %w", err)
	}

	out := make([]string, 0, len(topics))
	for _, t := range topics {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
		if len(out) == maxTopics {
			break
		}
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
