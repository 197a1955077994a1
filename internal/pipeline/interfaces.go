package pipeline

import (
	"context"

	"newsgraph/internal/core"
	"newsgraph/internal/store"
)

// ArticleCollector fetches and normalizes articles for a keyword
type ArticleCollector interface {
	Collect(ctx context.Context, keyword string) []core.Article
}

// ArticleEnricher fills full text, embeddings and topics
type ArticleEnricher interface {
	Enrich(ctx context.Context, articles []core.Article) []core.Article
}

// GraphBuilder scores article pairs and keeps the strongest edges
type GraphBuilder interface {
	Build(ctx context.Context, articles []core.Article) ([][]float64, []core.SimilarityEdge)
}

// ClusterPartitioner groups articles into summarized clusters
type ClusterPartitioner interface {
	Partition(ctx context.Context, articles []core.Article, edges []core.SimilarityEdge) []core.Cluster
}

// ClusterRanker orders clusters by relevance to a query
type ClusterRanker interface {
	Rank(ctx context.Context, query string, clusters []core.Cluster) []core.Cluster
}

// AnswerDrafter writes the cited answer
type AnswerDrafter interface {
	// Draft answers query from the top clusters
	Draft(ctx context.Context, query string, clusters []core.Cluster) string

	// Refine answers a follow-up query over all clusters
	Refine(ctx context.Context, query string, clusters []core.Cluster) string
}

// Collaborators are the stage implementations a Pipeline drives. Every
// field is required.
type Collaborators struct {
	Collector   ArticleCollector
	Enricher    ArticleEnricher
	Graph       GraphBuilder
	Partitioner ClusterPartitioner
	Ranker      ClusterRanker
	Drafter     AnswerDrafter
	Store       store.Checkpointer
}
