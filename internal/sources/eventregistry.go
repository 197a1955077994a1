package sources

import (
	"context"
	"fmt"
	"net/http"

	"newsgraph/internal/core"
	"newsgraph/internal/logger"
)

// EventRegistryProvider queries the Event Registry (newsapi.ai) article search.
type EventRegistryProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewEventRegistryProvider creates a new Event Registry provider
func NewEventRegistryProvider(apiKey, baseURL string) *EventRegistryProvider {
	return &EventRegistryProvider{
		apiKey:  apiKey,
		baseURL: baseURLOr(baseURL, "https://eventregistry.org"),
		client:  newHTTPClient(),
	}
}

// Name returns the name of this provider
func (p *EventRegistryProvider) Name() string {
	return string(ProviderTypeEventRegistry)
}

// Fetch searches articles by keyword, sorted by relevance.
func (p *EventRegistryProvider) Fetch(ctx context.Context, keyword string, maxItems int) ([]core.RawArticle, error) {
	request := map[string]any{
		"action":             "getArticles",
		"keyword":            keyword,
		"articlesSortBy":     "rel",
		"articlesCount":      maxItems,
		"articlesPage":       1,
		"resultType":         "articles",
		"includeArticleBody": true,
		"apiKey":             p.apiKey,
	}

	var response struct {
		Articles struct {
			Results []struct {
				Title    string `json:"title"`
				URL      string `json:"url"`
				DateTime string `json:"dateTime"`
				Body     string `json:"body"`
				Source   struct {
					Title string `json:"title"`
				} `json:"source"`
			} `json:"results"`
		} `json:"articles"`
		Error string `json:"error"`
	}

	if err := doJSON(ctx, p.client, http.MethodPost, p.baseURL+"/api/v1/article/getArticles", nil, request, &response); err != nil {
		return nil, fmt.Errorf("event registry: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("event registry error: %s", response.Error)
	}

	var results []core.RawArticle
	for _, art := range limit(response.Articles.Results, maxItems) {
		results = append(results, core.RawArticle{
			Title:       art.Title,
			URL:         art.URL,
			Source:      art.Source.Title,
			PublishedAt: art.DateTime,
			Body:        art.Body,
			Provider:    p.Name(),
		})
	}

	logger.Debug("Event Registry fetch completed", "keyword", keyword, "results_found", len(results))
	return results, nil
}
