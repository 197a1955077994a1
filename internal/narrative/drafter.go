// Package narrative drafts cited answers from relevant clusters.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"newsgraph/internal/citations"
	"newsgraph/internal/core"
	"newsgraph/internal/logger"
	"newsgraph/internal/relevance"
)

// ErrEmptyAnswer is reported when the writer returns only whitespace.
var ErrEmptyAnswer = errors.New("writer returned an empty answer")

// LLMClient defines the interface for LLM operations needed by the drafter
type LLMClient interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Filter keeps the candidate clusters relevant to a query.
type Filter interface {
	Filter(ctx context.Context, query string, candidates []core.Cluster) []core.Cluster
}

// Drafter turns ranked clusters into a cited answer
type Drafter struct {
	retriever relevance.Retriever
	filter    Filter
	writer    LLMClient
	topK      int
	log       *slog.Logger
}

// NewDrafter creates a drafter; topK <= 0 selects relevance.DefaultTopK.
func NewDrafter(retriever relevance.Retriever, filter Filter, writer LLMClient, topK int) *Drafter {
	if topK <= 0 {
		topK = relevance.DefaultTopK
	}
	return &Drafter{
		retriever: retriever,
		filter:    filter,
		writer:    writer,
		topK:      topK,
		log:       logger.Get(),
	}
}

// Draft retrieves the top clusters for query, filters them and writes the
// answer.
func (d *Drafter) Draft(ctx context.Context, query string, clusters []core.Cluster) string {
	if len(clusters) == 0 {
		return core.NoRelevantArticles
	}
	top := relevance.TopK(ctx, d.retriever, query, clusters, d.topK)
	return d.answer(ctx, core.StageDraft, query, d.filter.Filter(ctx, query, top))
}

// Refine answers a follow-up query by filtering all clusters against it and
// writing a new answer.
func (d *Drafter) Refine(ctx context.Context, query string, clusters []core.Cluster) string {
	if len(clusters) == 0 {
		return core.NoRelevantArticles
	}
	return d.answer(ctx, core.StageRefine, query, d.filter.Filter(ctx, query, clusters))
}

func (d *Drafter) answer(ctx context.Context, stage core.Stage, query string, filtered []core.Cluster) string {
	if len(filtered) == 0 {
		d.log.Info("No clusters survived filtering", "stage", stage)
		return core.NoRelevantArticles
	}

	response, err := d.writer.GenerateText(ctx, BuildAnswerPrompt(query, filtered))
	if err == nil {
		if answer := strings.TrimSpace(response); answer != "" {
			if _, unknown := citations.Resolve(citations.Extract(answer), filtered); len(unknown) > 0 {
				d.log.Warn("Answer cites clusters that were not provided", "stage", stage, "tags", unknown)
			}
			return answer
		}
		err = ErrEmptyAnswer
	}

	d.log.Warn("Answer writer failed, using extractive answer", "stage", stage, "collaborator", "writer", "error", err)
	return ExtractiveAnswer(filtered)
}

// ExtractiveAnswer lists each cluster summary with its citation tag.
func ExtractiveAnswer(clusters []core.Cluster) string {
	lines := make([]string, 0, len(clusters))
	for _, c := range clusters {
		summary := strings.TrimSpace(c.Summary)
		if summary == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s", summary, ClusterTag(c.ID)))
	}
	if len(lines) == 0 {
		return core.NoRelevantArticles
	}
	return strings.Join(lines, "\n")
}
