package pipeline

import (
	"context"
	"errors"
	"fmt"

	"newsgraph/internal/clustering"
	"newsgraph/internal/config"
	"newsgraph/internal/enrich"
	"newsgraph/internal/fetch"
	"newsgraph/internal/llm"
	"newsgraph/internal/logger"
	"newsgraph/internal/narrative"
	"newsgraph/internal/ranking"
	"newsgraph/internal/relevance"
	"newsgraph/internal/similarity"
	"newsgraph/internal/sources"
	"newsgraph/internal/store"
	"newsgraph/internal/summarize"
)

// Builder helps construct a fully configured Pipeline
type Builder struct {
	cfg       *config.Config
	provider  llm.Provider
	store     store.Checkpointer
	sources   []sources.Provider
	extractor enrich.TextExtractor
}

// NewBuilder creates a builder over the loaded configuration
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg}
}

// WithLLMProvider sets the language model backend instead of creating one
// from ai config
func (b *Builder) WithLLMProvider(p llm.Provider) *Builder {
	b.provider = p
	return b
}

// WithCheckpointer sets the checkpoint store instead of opening the
// configured one
func (b *Builder) WithCheckpointer(s store.Checkpointer) *Builder {
	b.store = s
	return b
}

// WithSources sets the news providers instead of the enabled ones
func (b *Builder) WithSources(providers ...sources.Provider) *Builder {
	b.sources = providers
	return b
}

// WithTextExtractor sets the full text extractor
func (b *Builder) WithTextExtractor(e enrich.TextExtractor) *Builder {
	b.extractor = e
	return b
}

// Build constructs a fully configured Pipeline
func (b *Builder) Build(ctx context.Context) (*Pipeline, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("%w: config", ErrMissingCollaborator)
	}
	cfg := b.cfg

	provider := b.provider
	if provider == nil {
		p, err := llm.New(ctx, cfg.AI)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		provider = p
	}

	providers := b.sources
	if providers == nil {
		p, err := EnabledSources(cfg.Sources)
		if err != nil {
			return nil, err
		}
		providers = p
	}

	checkpointer := b.store
	if checkpointer == nil {
		s, err := store.New(cfg.Checkpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to open checkpoint store: %w", err)
		}
		checkpointer = s
	}

	extractor := b.extractor
	if extractor == nil {
		extractor = fetch.NewExtractor()
	}

	text := NewLLMClientAdapter(provider)
	jsonText := NewJSONClientAdapter(provider)
	embedder := enrich.NewLLMEmbedder(provider)

	var scorer similarity.OverlapScorer = similarity.NewLLMOverlapScorer(text)
	if cfg.Pipeline.OverlapScorer == "jaccard" {
		scorer = similarity.JaccardScorer{}
	}

	reranker := ranking.NewLLMReranker(text, cfg.Ranking.BatchSize)
	var retriever relevance.Retriever = relevance.NewVectorRetriever(embedder)
	if cfg.Pipeline.Retriever == "rerank" {
		retriever = relevance.NewRerankRetriever(reranker)
	}

	collaborators := Collaborators{
		Collector: sources.NewCollector(providers,
			sources.WithMaxItems(cfg.Sources.MaxItems),
			sources.WithMaxArticles(cfg.Pipeline.MaxArticles),
			sources.WithTimeout(config.Duration(cfg.Sources.Timeout, sources.DefaultTimeout)),
		),
		Enricher: enrich.NewEnricher(extractor, embedder, enrich.NewLLMTopicExtractor(jsonText), cfg.Pipeline.EnrichConcurrency),
		Graph:    similarity.NewBuilder(scorer, cfg.Pipeline.TopNeighbors, cfg.Pipeline.ScoreConcurrency),
		Partitioner: clustering.NewPartitioner(
			clustering.NewLouvainDetector(cfg.Clustering.Resolution, cfg.Clustering.Seed),
			summarize.NewSummarizerWithDefaults(text),
			embedder,
			cfg.Pipeline.EnrichConcurrency,
		),
		Ranker:  ranking.NewRanker(reranker),
		Drafter: narrative.NewDrafter(retriever, relevance.NewLLMFilter(jsonText), text, cfg.Pipeline.TopK),
		Store:   checkpointer,
	}

	logger.Info("Pipeline configured",
		"model", provider.ModelName(),
		"sources", len(providers),
		"overlap_scorer", cfg.Pipeline.OverlapScorer,
		"checkpoint", cfg.Checkpoint.Driver)

	return New(collaborators, Config{MaxRefineRounds: cfg.Pipeline.MaxRefineRounds})
}

// EnabledSources creates the providers named in sources.enabled. Providers
// without an API key are skipped with a warning.
func EnabledSources(cfg config.Sources) ([]sources.Provider, error) {
	var providers []sources.Provider
	for _, name := range cfg.Enabled {
		t := sources.ProviderType(name)
		p, err := sources.NewProvider(t, sourceConfig(t, cfg))
		if errors.Is(err, sources.ErrMissingAPIKey) {
			logger.Warn("Skipping news source without API key", "provider", name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create news source %s: %w", name, err)
		}
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		logger.Warn("No news sources configured, runs will find no articles")
	}
	return providers, nil
}

func sourceConfig(t sources.ProviderType, cfg config.Sources) sources.ProviderConfig {
	var pc config.ProviderConfig
	switch t {
	case sources.ProviderTypeEventRegistry:
		pc = cfg.EventRegistry
	case sources.ProviderTypeNewsData:
		pc = cfg.NewsData
	case sources.ProviderTypeFinlight:
		pc = cfg.Finlight
	case sources.ProviderTypeTheNewsAPI:
		pc = cfg.TheNewsAPI
	case sources.ProviderTypeFixture:
		return sources.ProviderConfig{Path: cfg.Fixture.Path}
	}
	return sources.ProviderConfig{APIKey: pc.APIKey, BaseURL: pc.BaseURL}
}
