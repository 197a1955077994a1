package similarity

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"newsgraph/internal/core"
	"newsgraph/internal/logger"
)

const (
	DefaultTopNeighbors = 3
	DefaultConcurrency  = 8

	embeddingWeight = 0.5
	overlapWeight   = 0.5
)

// Builder scores every article pair and derives the sparse similarity graph.
type Builder struct {
	scorer       OverlapScorer
	topNeighbors int
	concurrency  int
	log          *slog.Logger
}

// NewBuilder creates a graph builder. Non-positive topNeighbors and
// concurrency select the defaults.
func NewBuilder(scorer OverlapScorer, topNeighbors, concurrency int) *Builder {
	if topNeighbors <= 0 {
		topNeighbors = DefaultTopNeighbors
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Builder{
		scorer:       scorer,
		topNeighbors: topNeighbors,
		concurrency:  concurrency,
		log:          logger.Get(),
	}
}

// Build returns the symmetric n×n score matrix and the top-N edge list.
// A failing pair scores 0 on the failing term; Build itself never fails.
func (b *Builder) Build(ctx context.Context, articles []core.Article) ([][]float64, []core.SimilarityEdge) {
	n := len(articles)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			g.Go(func() error {
				s := b.score(gCtx, articles[i], articles[j])
				matrix[i][j] = s
				matrix[j][i] = s
				return nil
			})
		}
	}
	_ = g.Wait()

	edges := TopNEdges(matrix, b.topNeighbors)
	b.log.Info("Built similarity graph", "nodes", n, "edges", len(edges))
	return matrix, edges
}

func (b *Builder) score(ctx context.Context, x, y core.Article) float64 {
	cos := Cosine(x.Embedding, y.Embedding)

	var overlap float64
	if len(x.Topics) > 0 && len(y.Topics) > 0 && ctx.Err() == nil {
		response, err := b.scorer.Score(ctx, x.Topics, y.Topics)
		if err != nil {
			b.log.Warn("Topic overlap scoring failed", "stage", core.StageBuildGraph, "collaborator", "overlap_scorer", "source", x.ID, "target", y.ID, "error", err)
		} else {
			overlap = ParseScore(response)
		}
	}

	return clamp(embeddingWeight*cos + overlapWeight*overlap)
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// TopNEdges keeps, for every node, its n highest-scoring neighbours (ties go
// to the lower index) and returns the union as undirected edges with
// Source < Target, sorted by (Source, Target). Reciprocal choices collapse
// into a single edge.
func TopNEdges(matrix [][]float64, n int) []core.SimilarityEdge {
	type pair struct{ source, target int }
	seen := make(map[pair]struct{})
	var edges []core.SimilarityEdge

	for i := range matrix {
		neighbours := make([]int, 0, len(matrix)-1)
		for j := range matrix {
			if j != i {
				neighbours = append(neighbours, j)
			}
		}
		sort.SliceStable(neighbours, func(a, b int) bool {
			return matrix[i][neighbours[a]] > matrix[i][neighbours[b]]
		})
		if len(neighbours) > n {
			neighbours = neighbours[:n]
		}

		for _, j := range neighbours {
			p := pair{min(i, j), max(i, j)}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			edges = append(edges, core.SimilarityEdge{Source: p.source, Target: p.target, Weight: matrix[i][j]})
		}
	}

	sort.Slice(edges, func(a, b int) bool {
		if edges[a].Source != edges[b].Source {
			return edges[a].Source < edges[b].Source
		}
		return edges[a].Target < edges[b].Target
	})
	return edges
}
