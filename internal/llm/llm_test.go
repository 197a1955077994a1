package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"newsgraph/internal/config"
)

func TestNewGeminiClient_Success(t *testing.T) {
	// Skip if no API key available (for CI/CD)
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set, skipping integration test")
	}

	client, err := NewGeminiClient(context.Background(), GeminiOptions{APIKey: apiKey})
	if err != nil {
		t.Fatalf("NewGeminiClient failed: %v", err)
	}
	defer client.Close()

	if client.ModelName() != DefaultGeminiModel {
		t.Errorf("Expected default model %s, got %s", DefaultGeminiModel, client.ModelName())
	}
}

func TestNewClients_NoAPIKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), GeminiOptions{})
	if err == nil || !strings.Contains(err.Error(), "gemini API key is required") {
		t.Errorf("Expected gemini API key error, got: %v", err)
	}

	_, err = NewOpenAIClient(OpenAIOptions{})
	if err == nil || !strings.Contains(err.Error(), "openai API key is required") {
		t.Errorf("Expected openai API key error, got: %v", err)
	}
}

func TestNew_UnsupportedProvider(t *testing.T) {
	_, err := New(context.Background(), config.AI{Provider: "llama"})
	if !errors.Is(err, ErrUnsupportedProvider) {
		t.Errorf("Expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestNew_OpenAIIsLogged(t *testing.T) {
	p, err := New(context.Background(), config.AI{Provider: "openai", OpenAI: config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-test"}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logged, ok := p.(*LoggedClient)
	if !ok {
		t.Fatalf("Expected *LoggedClient, got %T", p)
	}
	if _, ok := logged.Unwrap().(*OpenAIClient); !ok {
		t.Errorf("Expected wrapped *OpenAIClient, got %T", logged.Unwrap())
	}
	if p.ModelName() != "gpt-test" {
		t.Errorf("Expected model gpt-test, got %s", p.ModelName())
	}
}

func newOpenAIServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/chat/completions":
			var req struct {
				Model    string `json:"model"`
				Messages []struct {
					Content string `json:"content"`
				} `json:"messages"`
				ResponseFormat *struct {
					Type string `json:"type"`
				} `json:"response_format"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("invalid chat request: %v", err)
			}
			reply := "echo: " + req.Messages[0].Content
			if req.ResponseFormat != nil {
				reply = `{"format":"` + req.ResponseFormat.Type + `"}`
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion",
				"model":   req.Model,
				"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": reply}}},
			})
		case "/v1/embeddings":
			_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.5,0.25,-1]}],"model":"text-embedding-3-large"}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestOpenAIClient_GenerateText(t *testing.T) {
	server := newOpenAIServer(t)
	defer server.Close()

	client, err := NewOpenAIClient(OpenAIOptions{APIKey: "sk-test", BaseURL: server.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAIClient failed: %v", err)
	}

	got, err := client.GenerateText(context.Background(), "hello", TextGenerationOptions{})
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if got != "echo: hello" {
		t.Errorf("Unexpected response %q", got)
	}

	got, err = client.GenerateText(context.Background(), "reply in json", TextGenerationOptions{JSON: true})
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if got != `{"format":"json_object"}` {
		t.Errorf("Expected JSON response format to be requested, got %q", got)
	}

	if _, err := client.GenerateText(context.Background(), "", TextGenerationOptions{}); !errors.Is(err, ErrEmptyPrompt) {
		t.Errorf("Expected ErrEmptyPrompt, got %v", err)
	}
}

func TestOpenAIClient_GenerateEmbedding(t *testing.T) {
	server := newOpenAIServer(t)
	defer server.Close()

	client, err := NewOpenAIClient(OpenAIOptions{APIKey: "sk-test", BaseURL: server.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAIClient failed: %v", err)
	}

	vec, err := client.GenerateEmbedding(context.Background(), "chips")
	if err != nil {
		t.Fatalf("GenerateEmbedding failed: %v", err)
	}
	want := []float64{0.5, 0.25, -1}
	if len(vec) != len(want) {
		t.Fatalf("Expected %d dimensions, got %d", len(want), len(vec))
	}
	for i := range want {
		if vec[i] != want[i] {
			t.Errorf("vec[%d] = %v, want %v", i, vec[i], want[i])
		}
	}
}

func TestOpenAIClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer server.Close()

	client, _ := NewOpenAIClient(OpenAIOptions{APIKey: "sk-test", BaseURL: server.URL + "/v1"})
	if _, err := client.GenerateText(context.Background(), "hello", TextGenerationOptions{}); err == nil {
		t.Error("Expected error from failing server")
	}
}

type fakeProvider struct {
	text  string
	err   error
	calls int
}

func (f *fakeProvider) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	f.calls++
	return f.text, f.err
}

func (f *fakeProvider) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float64{1, 0}, nil
}

func (f *fakeProvider) ModelName() string { return "fake" }
func (f *fakeProvider) Close() error      { return nil }

func TestLoggedClientPassesThrough(t *testing.T) {
	fake := &fakeProvider{text: "ok"}
	c := NewLoggedClient(fake)

	if got, err := c.GenerateText(context.Background(), "p", TextGenerationOptions{}); err != nil || got != "ok" {
		t.Errorf("GenerateText = %q, %v", got, err)
	}
	if vec, err := c.GenerateEmbedding(context.Background(), "t"); err != nil || len(vec) != 2 {
		t.Errorf("GenerateEmbedding = %v, %v", vec, err)
	}

	fake.err = errors.New("quota")
	if _, err := c.GenerateText(context.Background(), "p", TextGenerationOptions{}); err == nil {
		t.Error("Expected error to pass through")
	}
	if fake.calls != 3 {
		t.Errorf("Expected 3 calls, got %d", fake.calls)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain array", `[1, 2]`, `[1, 2]`},
		{"fenced", "```json\n[\"a\", \"b\"]\n```", `["a", "b"]`},
		{"bare fence", "```\n{\"ids\": [1]}\n```", `{"ids": [1]}`},
		{"prose around", "Here you go: [3, 4]. Hope that helps", `[3, 4]`},
		{"object", `Sure {"topics": ["x"]}`, `{"topics": ["x"]}`},
		{"no json", "nothing here", "nothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.in); got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
