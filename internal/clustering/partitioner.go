package clustering

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"newsgraph/internal/core"
	"newsgraph/internal/logger"
)

// DefaultConcurrency bounds how many clusters are summarized at once.
const DefaultConcurrency = 4

// Summarizer condenses the combined member text of a cluster.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Embedder turns a cluster summary into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Partitioner turns the similarity graph into summarized clusters.
type Partitioner struct {
	detector    Detector
	summarizer  Summarizer
	embedder    Embedder
	concurrency int
	log         *slog.Logger
}

// NewPartitioner creates a partitioner; concurrency <= 0 selects
// DefaultConcurrency.
func NewPartitioner(detector Detector, summarizer Summarizer, embedder Embedder, concurrency int) *Partitioner {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Partitioner{
		detector:    detector,
		summarizer:  summarizer,
		embedder:    embedder,
		concurrency: concurrency,
		log:         logger.Get(),
	}
}

// Partition detects communities over articles and edges and builds one
// Cluster per community. Every article ends up in exactly one cluster.
// Detector failure degrades to one cluster per article.
func (p *Partitioner) Partition(ctx context.Context, articles []core.Article, edges []core.SimilarityEdge) []core.Cluster {
	n := len(articles)
	if n == 0 {
		return []core.Cluster{}
	}

	communities, err := p.detector.Detect(ctx, n, edges)
	if err != nil {
		p.log.Warn("Community detection failed, using singleton clusters", "stage", core.StageCluster, "collaborator", "detector", "error", err)
		communities = nil
	}
	groups := Normalize(n, communities)

	clusters := make([]core.Cluster, len(groups))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for id, members := range groups {
		g.Go(func() error {
			clusters[id] = p.buildCluster(gCtx, id, members, articles)
			return nil
		})
	}
	_ = g.Wait()

	p.log.Info("Partitioned articles", "articles", n, "clusters", len(clusters))
	return clusters
}

func (p *Partitioner) buildCluster(ctx context.Context, id int, members []int, articles []core.Article) core.Cluster {
	c := core.Cluster{
		ID:       id,
		Members:  members,
		Articles: make([]core.Article, 0, len(members)),
	}

	texts := make([]string, 0, len(members))
	titles := make([]string, 0, len(members))
	for _, m := range members {
		a := articles[m]
		c.Articles = append(c.Articles, a)
		c.Keywords = append(c.Keywords, a.Topics...)
		c.Embeddings = append(c.Embeddings, a.Embedding)
		if text := strings.TrimSpace(a.Text()); text != "" {
			texts = append(texts, text)
		}
		if title := strings.TrimSpace(a.Title); title != "" {
			titles = append(titles, title)
		}
	}

	c.Summary = p.summarize(ctx, id, strings.Join(texts, "\n"), titles)
	if c.Summary == "" {
		return c
	}

	vec, err := p.embedder.Embed(ctx, c.Summary)
	if err != nil {
		p.log.Warn("Summary embedding failed", "stage", core.StageCluster, "collaborator", "embedder", "cluster", id, "error", err)
	} else if len(vec) > 0 {
		c.SummaryEmbedding = vec
	}
	return c
}

// summarize falls back to the member titles when there is no text or the
// summarizer fails.
func (p *Partitioner) summarize(ctx context.Context, id int, text string, titles []string) string {
	fallback := strings.Join(titles, "; ")
	if text == "" {
		return fallback
	}

	summary, err := p.summarizer.Summarize(ctx, text)
	if err != nil || strings.TrimSpace(summary) == "" {
		p.log.Warn("Cluster summarization failed, using member titles", "stage", core.StageCluster, "collaborator", "summarizer", "cluster", id, "error", err)
		return fallback
	}
	return strings.TrimSpace(summary)
}

// Normalize repairs detector output into a partition of 0..n-1: out-of-range
// and repeated members are dropped, unassigned nodes become singletons,
// members are sorted ascending and communities are ordered by their
// smallest member.
func Normalize(n int, communities [][]int) [][]int {
	assigned := make([]bool, n)
	var groups [][]int

	for _, comm := range communities {
		var members []int
		for _, m := range comm {
			if m < 0 || m >= n || assigned[m] {
				continue
			}
			assigned[m] = true
			members = append(members, m)
		}
		if len(members) > 0 {
			sort.Ints(members)
			groups = append(groups, members)
		}
	}

	for i, ok := range assigned {
		if !ok {
			groups = append(groups, []int{i})
		}
	}

	sort.Slice(groups, func(a, b int) bool {
		return groups[a][0] < groups[b][0]
	})
	return groups
}
