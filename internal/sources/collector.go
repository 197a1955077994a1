package sources

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/sync/errgroup"

	"newsgraph/internal/core"
	"newsgraph/internal/logger"
)

const (
	DefaultMaxItems    = 10
	DefaultMaxArticles = 40
	DefaultTimeout     = 20 * time.Second
)

// CollectorOption configures a Collector
type CollectorOption func(*Collector)

// WithMaxItems sets how many items each provider is asked for. Non-positive
// values keep the default.
func WithMaxItems(n int) CollectorOption {
	return func(c *Collector) {
		if n > 0 {
			c.maxItems = n
		}
	}
}

// WithMaxArticles caps the merged, deduplicated article list
func WithMaxArticles(n int) CollectorOption {
	return func(c *Collector) {
		if n > 0 {
			c.maxArticles = n
		}
	}
}

// WithTimeout bounds each provider call; a call past the deadline counts as
// that provider failing.
func WithTimeout(d time.Duration) CollectorOption {
	return func(c *Collector) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Collector fans a keyword out to every provider and merges the results.
type Collector struct {
	providers   []Provider
	maxItems    int
	maxArticles int
	timeout     time.Duration
	log         *slog.Logger
}

// NewCollector creates a collector over providers, queried in parallel and
// merged in the order given here.
func NewCollector(providers []Provider, opts ...CollectorOption) *Collector {
	c := &Collector{
		providers:   providers,
		maxItems:    DefaultMaxItems,
		maxArticles: DefaultMaxArticles,
		timeout:     DefaultTimeout,
		log:         logger.Get(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect fetches from all providers and returns normalized articles.
// Provider failures are logged and contribute no articles.
func (c *Collector) Collect(ctx context.Context, keyword string) []core.Article {
	results := make([][]core.RawArticle, len(c.providers))

	var g errgroup.Group
	for i, p := range c.providers {
		g.Go(func() error {
			items, err := c.fetch(ctx, p, keyword)
			if err != nil {
				c.log.Warn("Provider fetch failed", "stage", core.StageFetch, "provider", p.Name(), "error", err)
				return nil
			}
			results[i] = items
			c.log.Debug("Provider fetch succeeded", "provider", p.Name(), "items", len(items))
			return nil
		})
	}
	_ = g.Wait()

	var merged []core.RawArticle
	for _, items := range results {
		merged = append(merged, items...)
	}

	articles := Normalize(merged, c.maxArticles)
	c.log.Info("Collected articles", "keyword", keyword, "fetched", len(merged), "kept", len(articles))
	return articles
}

type fetchResult struct {
	items []core.RawArticle
	err   error
}

// fetch calls the provider with the collector timeout. A provider that keeps
// blocking after the deadline is abandoned; its result is discarded.
func (c *Collector) fetch(ctx context.Context, p Provider, keyword string) ([]core.RawArticle, error) {
	pctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan fetchResult, 1)
	go func() {
		items, err := p.Fetch(pctx, keyword, c.maxItems)
		done <- fetchResult{items: items, err: err}
	}()

	select {
	case r := <-done:
		return r.items, r.err
	case <-pctx.Done():
		return nil, fmt.Errorf("provider %s: %w", p.Name(), pctx.Err())
	}
}

// Normalize drops records without a URL, deduplicates by URL keeping the
// first occurrence, caps the list at maxArticles (no cap when <= 0) and
// assigns each article its index as ID.
func Normalize(raw []core.RawArticle, maxArticles int) []core.Article {
	seen := make(map[string]struct{}, len(raw))
	articles := make([]core.Article, 0, len(raw))

	for _, r := range raw {
		url := strings.TrimSpace(r.URL)
		if url == "" {
			continue
		}
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}

		articles = append(articles, core.Article{
			ID:          len(articles),
			URL:         url,
			Title:       strings.TrimSpace(r.Title),
			Source:      strings.TrimSpace(r.Source),
			Provider:    r.Provider,
			PublishedAt: parseTime(r.PublishedAt),
			RawBody:     r.Body,
		})
		if maxArticles > 0 && len(articles) == maxArticles {
			break
		}
	}
	return articles
}

func parseTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	t, err := dateparse.ParseAny(value)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
