// Package relevance narrows ranked clusters down to the ones an answer
// should be drafted from.
package relevance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"newsgraph/internal/core"
	"newsgraph/internal/logger"
	"newsgraph/internal/ranking"
	"newsgraph/internal/similarity"
)

// DefaultTopK is the largest number of clusters retrieved for drafting.
const DefaultTopK = 8

var ErrEmptyQueryEmbedding = errors.New("query embedding is empty")

// Retriever picks at most k clusters relevant to query, most relevant first.
type Retriever interface {
	Retrieve(ctx context.Context, query string, clusters []core.Cluster, k int) ([]core.Cluster, error)
}

// Embedder turns the query into a vector comparable with cluster summary
// embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// TopK runs the retriever with k = min(k, len(clusters)). Retriever failure
// falls back to the first k clusters in input order.
func TopK(ctx context.Context, r Retriever, query string, clusters []core.Cluster, k int) []core.Cluster {
	if k <= 0 {
		k = DefaultTopK
	}
	k = min(k, len(clusters))
	if k == 0 {
		return []core.Cluster{}
	}

	got, err := r.Retrieve(ctx, query, clusters, k)
	if err != nil {
		logger.Get().Warn("Cluster retrieval failed, using first clusters", "stage", core.StageDraft, "collaborator", "retriever", "error", err)
		return append([]core.Cluster(nil), clusters[:k]...)
	}
	if len(got) > k {
		got = got[:k]
	}
	return got
}

// VectorRetriever ranks clusters by cosine similarity between the query
// embedding and each cluster's summary embedding. Clusters without a summary
// embedding score zero.
type VectorRetriever struct {
	embedder Embedder
	log      *slog.Logger
}

func NewVectorRetriever(embedder Embedder) *VectorRetriever {
	return &VectorRetriever{embedder: embedder, log: logger.Get()}
}

func (v *VectorRetriever) Retrieve(ctx context.Context, query string, clusters []core.Cluster, k int) ([]core.Cluster, error) {
	vec, err := v.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vec) == 0 {
		return nil, ErrEmptyQueryEmbedding
	}

	type hit struct {
		cluster core.Cluster
		score   float64
	}
	hits := make([]hit, len(clusters))
	for i, c := range clusters {
		hits[i] = hit{cluster: c, score: similarity.Cosine(vec, c.SummaryEmbedding)}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	out := make([]core.Cluster, 0, k)
	for _, h := range hits[:min(k, len(hits))] {
		out = append(out, h.cluster)
	}
	v.log.Debug("Vector retrieval", "clusters", len(clusters), "k", k)
	return out, nil
}

// RerankRetriever orders clusters with a reranker, pads with the clusters it
// left out, and keeps the first k.
type RerankRetriever struct {
	reranker ranking.Reranker
}

func NewRerankRetriever(reranker ranking.Reranker) *RerankRetriever {
	return &RerankRetriever{reranker: reranker}
}

func (r *RerankRetriever) Retrieve(ctx context.Context, query string, clusters []core.Cluster, k int) ([]core.Cluster, error) {
	candidates := make([]ranking.Candidate, len(clusters))
	for i, c := range clusters {
		candidates[i] = ranking.Candidate{ID: c.ID, Text: c.Summary}
	}

	order, err := r.reranker.Rerank(ctx, query, candidates)
	if err != nil {
		return nil, err
	}

	ordered := ranking.Reorder(clusters, order, func(c core.Cluster) int { return c.ID })
	return ordered[:min(k, len(ordered))], nil
}
