package pipeline

import (
	"context"

	"newsgraph/internal/llm"
)

// LLMClientAdapter exposes an llm.Provider through the single-method text
// interface the stage packages declare.
type LLMClientAdapter struct {
	provider llm.Provider
	options  llm.TextGenerationOptions
}

// NewLLMClientAdapter creates a free-text adapter
func NewLLMClientAdapter(provider llm.Provider) *LLMClientAdapter {
	return &LLMClientAdapter{provider: provider}
}

// NewJSONClientAdapter creates an adapter that asks the backend for JSON output
func NewJSONClientAdapter(provider llm.Provider) *LLMClientAdapter {
	return &LLMClientAdapter{provider: provider, options: llm.TextGenerationOptions{JSON: true}}
}

// GenerateText implements the stage LLMClient interfaces
func (a *LLMClientAdapter) GenerateText(ctx context.Context, prompt string) (string, error) {
	return a.provider.GenerateText(ctx, prompt, a.options)
}
