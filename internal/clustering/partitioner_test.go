package clustering

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"newsgraph/internal/core"
	"newsgraph/internal/similarity"
)

type stubDetector struct {
	comms [][]int
	err   error
	calls int
}

func (d *stubDetector) Detect(ctx context.Context, n int, edges []core.SimilarityEdge) ([][]int, error) {
	d.calls++
	return d.comms, d.err
}

type mockSummarizer struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (m *mockSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return "summary: " + strings.SplitN(text, "\n", 2)[0], nil
}

type mockEmbedder struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return []float64{float64(len(text)), 1}, nil
}

func testArticles(n int) []core.Article {
	articles := make([]core.Article, n)
	for i := range articles {
		articles[i] = core.Article{
			ID:        i,
			URL:       "https://example.com/" + string(rune('a'+i)),
			Title:     "Title " + string(rune('A'+i)),
			RawBody:   "Body " + string(rune('A'+i)),
			Topics:    []string{"topic-" + string(rune('a'+i))},
			Embedding: []float64{float64(i), 1},
		}
	}
	return articles
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		comms [][]int
		want  [][]int
	}{
		{"already normal", 3, [][]int{{0, 1}, {2}}, [][]int{{0, 1}, {2}}},
		{"unsorted members and groups", 4, [][]int{{3, 2}, {1, 0}}, [][]int{{0, 1}, {2, 3}}},
		{"duplicates dropped", 3, [][]int{{0, 1}, {1, 2}}, [][]int{{0, 1}, {2}}},
		{"missing nodes become singletons", 4, [][]int{{2, 0}}, [][]int{{0, 2}, {1}, {3}}},
		{"out of range ignored", 2, [][]int{{0, 5, -1}, {}}, [][]int{{0}, {1}}},
		{"nil output", 2, nil, [][]int{{0}, {1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Normalize(tt.n, tt.comms)); diff != "" {
				t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPartitionKeepsEmbeddingsAlignedWithMembers(t *testing.T) {
	articles := testArticles(3)
	articles[1].Embedding = nil
	p := NewPartitioner(&stubDetector{comms: [][]int{{0, 1, 2}}}, &mockSummarizer{}, &mockEmbedder{}, 1)

	clusters := p.Partition(context.Background(), articles, nil)

	if len(clusters) != 1 {
		t.Fatalf("Expected 1 cluster, got %d", len(clusters))
	}
	want := [][]float64{{0, 1}, nil, {2, 1}}
	if diff := cmp.Diff(want, clusters[0].Embeddings); diff != "" {
		t.Errorf("Embeddings mismatch (-want +got):\n%s", diff)
	}
}

func TestPartitionBuildsClusters(t *testing.T) {
	articles := testArticles(3)
	summarizer := &mockSummarizer{}
	embedder := &mockEmbedder{}
	p := NewPartitioner(&stubDetector{comms: [][]int{{2, 0}, {1}}}, summarizer, embedder, 2)

	clusters := p.Partition(context.Background(), articles, nil)

	if len(clusters) != 2 {
		t.Fatalf("Expected 2 clusters, got %d", len(clusters))
	}
	c := clusters[0]
	if c.ID != 0 || !cmp.Equal(c.Members, []int{0, 2}) {
		t.Errorf("Unexpected first cluster: id=%d members=%v", c.ID, c.Members)
	}
	if len(c.Articles) != 2 || c.Articles[1].ID != 2 {
		t.Errorf("Expected articles in member order, got %+v", c.Articles)
	}
	if !cmp.Equal(c.Keywords, []string{"topic-a", "topic-c"}) {
		t.Errorf("Unexpected keywords: %v", c.Keywords)
	}
	if !cmp.Equal(c.Embeddings, [][]float64{{0, 1}, {2, 1}}) {
		t.Errorf("Unexpected embeddings: %v", c.Embeddings)
	}
	if c.Summary != "summary: Body A" {
		t.Errorf("Unexpected summary: %q", c.Summary)
	}
	if len(c.SummaryEmbedding) == 0 {
		t.Error("Expected summary embedding")
	}
	if clusters[1].ID != 1 || !cmp.Equal(clusters[1].Members, []int{1}) {
		t.Errorf("Unexpected second cluster: %+v", clusters[1])
	}
	if summarizer.calls != 2 || embedder.calls != 2 {
		t.Errorf("Expected one summary and embedding per cluster, got %d/%d", summarizer.calls, embedder.calls)
	}
}

func TestPartitionSummarizerFailureUsesTitles(t *testing.T) {
	articles := testArticles(2)
	p := NewPartitioner(&stubDetector{comms: [][]int{{0, 1}}}, &mockSummarizer{err: errors.New("quota")}, &mockEmbedder{}, 1)

	clusters := p.Partition(context.Background(), articles, nil)

	if len(clusters) != 1 {
		t.Fatalf("Expected 1 cluster, got %d", len(clusters))
	}
	if clusters[0].Summary != "Title A; Title B" {
		t.Errorf("Expected title fallback, got %q", clusters[0].Summary)
	}
}

func TestPartitionEmbedderFailureLeavesVectorEmpty(t *testing.T) {
	p := NewPartitioner(&stubDetector{comms: [][]int{{0}}}, &mockSummarizer{}, &mockEmbedder{err: errors.New("down")}, 1)

	clusters := p.Partition(context.Background(), testArticles(1), nil)

	if clusters[0].Summary == "" {
		t.Error("Expected summary to survive embedding failure")
	}
	if clusters[0].SummaryEmbedding != nil {
		t.Errorf("Expected no summary embedding, got %v", clusters[0].SummaryEmbedding)
	}
}

func TestPartitionDetectorFailureFallsBackToSingletons(t *testing.T) {
	p := NewPartitioner(&stubDetector{err: errors.New("boom")}, &mockSummarizer{}, &mockEmbedder{}, 2)

	clusters := p.Partition(context.Background(), testArticles(3), nil)

	if len(clusters) != 3 {
		t.Fatalf("Expected 3 singleton clusters, got %d", len(clusters))
	}
	for i, c := range clusters {
		if c.ID != i || !cmp.Equal(c.Members, []int{i}) {
			t.Errorf("cluster %d: unexpected %+v", i, c.Members)
		}
	}
}

func TestPartitionZeroArticlesMakesNoCalls(t *testing.T) {
	detector := &stubDetector{}
	summarizer := &mockSummarizer{}
	embedder := &mockEmbedder{}
	p := NewPartitioner(detector, summarizer, embedder, 2)

	clusters := p.Partition(context.Background(), nil, nil)

	if clusters == nil || len(clusters) != 0 {
		t.Errorf("Expected empty non-nil clusters, got %v", clusters)
	}
	if detector.calls+summarizer.calls+embedder.calls != 0 {
		t.Errorf("Expected no collaborator calls, got %d/%d/%d", detector.calls, summarizer.calls, embedder.calls)
	}
}

func TestPartitionWithLouvain(t *testing.T) {
	articles := testArticles(5)
	edges := similarity.TopNEdges(twoTopicMatrix(), 3)
	p := NewPartitioner(NewLouvainDetector(1.0, 1), &mockSummarizer{}, &mockEmbedder{}, 4)

	clusters := p.Partition(context.Background(), articles, edges)

	if len(clusters) != 2 {
		t.Fatalf("Expected 2 clusters, got %d", len(clusters))
	}
	seen := map[int]int{}
	for _, c := range clusters {
		for _, m := range c.Members {
			seen[m]++
		}
	}
	for i := 0; i < 5; i++ {
		if seen[i] != 1 {
			t.Errorf("article %d assigned %d times", i, seen[i])
		}
	}
}
