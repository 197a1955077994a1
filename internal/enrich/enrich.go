package enrich

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"newsgraph/internal/core"
	"newsgraph/internal/logger"
)

// DefaultConcurrency bounds how many articles are enriched at once.
const DefaultConcurrency = 4

// TextExtractor downloads an article and returns its main text, or nil when
// no usable text could be extracted.
type TextExtractor interface {
	ExtractFullText(ctx context.Context, url string) (*string, error)
}

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// TopicExtractor returns the ordered short topics a text is about.
type TopicExtractor interface {
	ExtractTopics(ctx context.Context, text string) ([]string, error)
}

// Enricher fills FullText, Embedding and Topics on normalized articles.
type Enricher struct {
	extractor   TextExtractor
	embedder    Embedder
	topics      TopicExtractor
	concurrency int
	log         *slog.Logger
}

// NewEnricher creates an enricher; concurrency <= 0 selects DefaultConcurrency.
func NewEnricher(extractor TextExtractor, embedder Embedder, topics TopicExtractor, concurrency int) *Enricher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Enricher{
		extractor:   extractor,
		embedder:    embedder,
		topics:      topics,
		concurrency: concurrency,
		log:         logger.Get(),
	}
}

// Enrich returns a copy of articles with enrichment applied. Collaborator
// failures leave the affected field empty and never fail the batch; only
// context cancellation stops work early.
func (e *Enricher) Enrich(ctx context.Context, articles []core.Article) []core.Article {
	out := make([]core.Article, len(articles))
	copy(out, articles)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i := range out {
		g.Go(func() error {
			if gCtx.Err() != nil {
				return nil
			}
			e.enrichOne(gCtx, &out[i])
			return nil
		})
	}
	_ = g.Wait()

	withText, withEmbedding := 0, 0
	for _, a := range out {
		if a.HasFullText() {
			withText++
		}
		if len(a.Embedding) > 0 {
			withEmbedding++
		}
	}
	e.log.Info("Enriched articles", "articles", len(out), "with_full_text", withText, "with_embedding", withEmbedding)
	return out
}

func (e *Enricher) enrichOne(ctx context.Context, a *core.Article) {
	text, err := e.extractor.ExtractFullText(ctx, a.URL)
	if err != nil {
		e.log.Warn("Full text extraction failed", "stage", core.StageEnrich, "collaborator", "extractor", "url", a.URL, "error", err)
	} else if text != nil && strings.TrimSpace(*text) != "" {
		a.FullText = text
	}

	input := enrichmentText(*a)
	if input == "" {
		return
	}

	if vec, err := e.embedder.Embed(ctx, input); err != nil {
		e.log.Warn("Embedding failed", "stage", core.StageEnrich, "collaborator", "embedder", "url", a.URL, "error", err)
	} else if len(vec) > 0 {
		a.Embedding = vec
	}

	if topics, err := e.topics.ExtractTopics(ctx, input); err != nil {
		e.log.Warn("Topic extraction failed", "stage", core.StageEnrich, "collaborator", "topics", "url", a.URL, "error", err)
	} else {
		a.Topics = topics
	}
}

// enrichmentText is the text embedded and mined for topics: the extracted
// full text, or the title and provider body when extraction failed.
func enrichmentText(a core.Article) string {
	if a.HasFullText() {
		return *a.FullText
	}
	return strings.TrimSpace(strings.TrimSpace(a.Title) + "\n\n" + strings.TrimSpace(a.RawBody))
}
