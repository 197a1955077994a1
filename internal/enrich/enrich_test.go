package enrich

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"newsgraph/internal/core"
)

type mockExtractor struct {
	texts map[string]string
	err   map[string]error
	mu    sync.Mutex
	calls int
}

func (m *mockExtractor) ExtractFullText(ctx context.Context, url string) (*string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if err := m.err[url]; err != nil {
		return nil, err
	}
	text, ok := m.texts[url]
	if !ok {
		return nil, nil
	}
	return &text, nil
}

type mockEmbedder struct {
	fail   bool
	mu     sync.Mutex
	inputs []string
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, text)
	m.mu.Unlock()
	if m.fail {
		return nil, errors.New("embedding quota exceeded")
	}
	return []float64{float64(len(text)), 1}, nil
}

type mockTopics struct {
	mu    sync.Mutex
	calls int
}

func (m *mockTopics) ExtractTopics(ctx context.Context, text string) ([]string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if strings.Contains(text, "garbled") {
		return nil, errors.New("unparseable topics")
	}
	return []string{"topic:" + strings.Fields(text)[0]}, nil
}

func TestEnrichFillsFields(t *testing.T) {
	extractor := &mockExtractor{
		texts: map[string]string{"https://a": "Chips full text"},
		err:   map[string]error{"https://b": errors.New("paywall")},
	}
	embedder := &mockEmbedder{}
	topics := &mockTopics{}

	in := []core.Article{
		{ID: 0, URL: "https://a", Title: "A", RawBody: "snippet a"},
		{ID: 1, URL: "https://b", Title: "Rates", RawBody: "snippet b"},
	}

	out := NewEnricher(extractor, embedder, topics, 2).Enrich(context.Background(), in)

	if len(out) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(out))
	}
	if !out[0].HasFullText() || *out[0].FullText != "Chips full text" {
		t.Errorf("Expected full text for article 0, got %v", out[0].FullText)
	}
	if out[1].FullText != nil {
		t.Errorf("Expected absent full text for article 1, got %q", *out[1].FullText)
	}
	if diff := cmp.Diff([]string{"topic:Chips"}, out[0].Topics); diff != "" {
		t.Errorf("Topics mismatch (-want +got):\n%s", diff)
	}
	// Extraction failure falls back to title and body.
	if diff := cmp.Diff([]string{"topic:Rates"}, out[1].Topics); diff != "" {
		t.Errorf("Topics mismatch (-want +got):\n%s", diff)
	}
	if len(out[1].Embedding) == 0 {
		t.Error("Expected fallback text to be embedded")
	}
	if in[0].FullText != nil {
		t.Error("Enrich must not mutate its input")
	}
}

func TestEnrichCollaboratorFailuresAreNotFatal(t *testing.T) {
	extractor := &mockExtractor{texts: map[string]string{"https://a": "garbled text"}}
	embedder := &mockEmbedder{fail: true}

	out := NewEnricher(extractor, embedder, &mockTopics{}, 0).Enrich(context.Background(), []core.Article{{URL: "https://a"}})

	if len(out) != 1 {
		t.Fatalf("Expected article to survive, got %d", len(out))
	}
	if out[0].Embedding != nil || out[0].Topics != nil {
		t.Errorf("Expected empty embedding and topics, got %v / %v", out[0].Embedding, out[0].Topics)
	}
	if !out[0].HasFullText() {
		t.Error("Expected full text to be kept despite later failures")
	}
}

func TestEnrichEmptyTextSkipsCalls(t *testing.T) {
	extractor := &mockExtractor{}
	embedder := &mockEmbedder{}
	topics := &mockTopics{}

	out := NewEnricher(extractor, embedder, topics, 4).Enrich(context.Background(), []core.Article{{URL: "https://empty"}})

	if len(out) != 1 {
		t.Fatalf("Expected 1 article, got %d", len(out))
	}
	if len(embedder.inputs) != 0 || topics.calls != 0 {
		t.Errorf("Expected no embedding/topic calls for empty text, got %d/%d", len(embedder.inputs), topics.calls)
	}
}

func TestEnrichZeroArticlesMakesNoCalls(t *testing.T) {
	extractor := &mockExtractor{}
	embedder := &mockEmbedder{}
	topics := &mockTopics{}

	out := NewEnricher(extractor, embedder, topics, 4).Enrich(context.Background(), nil)

	if len(out) != 0 {
		t.Errorf("Expected no articles, got %d", len(out))
	}
	if extractor.calls != 0 || len(embedder.inputs) != 0 || topics.calls != 0 {
		t.Error("Expected no collaborator calls")
	}
}

type fakeLLM struct {
	response string
	err      error
	prompt   string
}

func (f *fakeLLM) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func TestLLMTopicExtractor(t *testing.T) {
	client := &fakeLLM{response: "```json\n{\"topics\": [\"export controls\", \" \", \"semiconductors\"]}\n```"}

	got, err := NewLLMTopicExtractor(client).ExtractTopics(context.Background(), "article text")
	if err != nil {
		t.Fatalf("ExtractTopics failed: %v", err)
	}
	if diff := cmp.Diff([]string{"export controls", "semiconductors"}, got); diff != "" {
		t.Errorf("Topics mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(client.prompt, "article text") {
		t.Error("Expected article text in prompt")
	}
}

func TestParseTopics(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		wantErr bool
	}{
		{"array", `["a", "b"]`, []string{"a", "b"}, false},
		{"object", `{"topics": ["a"]}`, []string{"a"}, false},
		{"capped", `["1","2","3","4","5","6","7","8","9","10"]`, []string{"1", "2", "3", "4", "5", "6", "7", "8"}, false},
		{"garbage", "no topics here", nil, true},
		{"wrong types", `[1, 2]`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTopics(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTopics error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				if diff := cmp.Diff(tt.want, got); diff != "" {
					t.Errorf("mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

type fakeEmbeddingClient struct {
	got string
}

func (f *fakeEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	f.got = text
	return []float64{1}, nil
}

func TestLLMEmbedderTruncates(t *testing.T) {
	client := &fakeEmbeddingClient{}
	long := strings.Repeat("é", maxEmbeddingChars)

	if _, err := NewLLMEmbedder(client).Embed(context.Background(), long); err != nil {
		t.Fatal(err)
	}
	if len(client.got) > maxEmbeddingChars {
		t.Errorf("Expected input truncated to %d bytes, got %d", maxEmbeddingChars, len(client.got))
	}
	if !strings.HasPrefix(long, client.got) || !utf8.ValidString(client.got) {
		t.Error("Expected truncation on a rune boundary")
	}
}
