// Package ranking orders clusters by relevance to the run topic.
package ranking

import (
	"context"
	"log/slog"

	"newsgraph/internal/core"
	"newsgraph/internal/logger"
)

// Candidate is one item offered to a Reranker. ID is opaque to the
// reranker and is how results are mapped back.
type Candidate struct {
	ID   int
	Text string
}

// Reranker returns candidate ids ordered by descending relevance to query.
// The result may omit or repeat ids.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []Candidate) ([]int, error)
}

// Ranker reorders clusters with a Reranker.
type Ranker struct {
	reranker Reranker
	log      *slog.Logger
}

func NewRanker(reranker Reranker) *Ranker {
	return &Ranker{reranker: reranker, log: logger.Get()}
}

// Rank returns every input cluster exactly once, most relevant first. On
// reranker failure the input order is returned.
func (r *Ranker) Rank(ctx context.Context, query string, clusters []core.Cluster) []core.Cluster {
	if len(clusters) == 0 {
		return []core.Cluster{}
	}

	candidates := make([]Candidate, len(clusters))
	for i, c := range clusters {
		candidates[i] = Candidate{ID: c.ID, Text: c.Summary}
	}

	order, err := r.reranker.Rerank(ctx, query, candidates)
	if err != nil {
		r.log.Warn("Cluster ranking failed, keeping input order", "stage", core.StageRank, "collaborator", "reranker", "error", err)
		return append([]core.Cluster(nil), clusters...)
	}

	ranked := Reorder(clusters, order, func(c core.Cluster) int { return c.ID })
	r.log.Info("Ranked clusters", "clusters", len(ranked), "ordered_by_reranker", len(order))
	return ranked
}

// Reorder places items in the order given by ids, ignoring unknown and
// repeated ids, then appends the items ids did not mention in input order.
func Reorder[T any](items []T, ids []int, key func(T) int) []T {
	index := make(map[int]int, len(items))
	for i, item := range items {
		if _, dup := index[key(item)]; !dup {
			index[key(item)] = i
		}
	}

	used := make([]bool, len(items))
	out := make([]T, 0, len(items))
	for _, id := range ids {
		i, ok := index[id]
		if !ok || used[i] {
			continue
		}
		used[i] = true
		out = append(out, items[i])
	}
	for i, item := range items {
		if !used[i] {
			out = append(out, item)
		}
	}
	return out
}
