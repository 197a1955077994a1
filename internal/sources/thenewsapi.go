package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"newsgraph/internal/core"
	"newsgraph/internal/logger"
)

// TheNewsAPIProvider queries TheNewsAPI "all news" endpoint.
type TheNewsAPIProvider struct {
	apiToken string
	baseURL  string
	client   *http.Client
}

// NewTheNewsAPIProvider creates a new TheNewsAPI provider
func NewTheNewsAPIProvider(apiToken, baseURL string) *TheNewsAPIProvider {
	return &TheNewsAPIProvider{
		apiToken: apiToken,
		baseURL:  baseURLOr(baseURL, "https://api.thenewsapi.com"),
		client:   newHTTPClient(),
	}
}

// Name returns the name of this provider
func (p *TheNewsAPIProvider) Name() string {
	return string(ProviderTypeTheNewsAPI)
}

// Fetch runs a full-text search for keyword.
func (p *TheNewsAPIProvider) Fetch(ctx context.Context, keyword string, maxItems int) ([]core.RawArticle, error) {
	params := url.Values{}
	params.Set("api_token", p.apiToken)
	params.Set("search", keyword)
	if maxItems > 0 {
		params.Set("limit", strconv.Itoa(maxItems))
	}

	var response struct {
		Data []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Source      string `json:"source"`
			PublishedAt string `json:"published_at"`
			Description string `json:"description"`
			Snippet     string `json:"snippet"`
		} `json:"data"`
	}

	fullURL := p.baseURL + "/v1/news/all?" + params.Encode()
	if err := doJSON(ctx, p.client, http.MethodGet, fullURL, nil, nil, &response); err != nil {
		return nil, fmt.Errorf("thenewsapi: %w", err)
	}

	var results []core.RawArticle
	for _, art := range limit(response.Data, maxItems) {
		body := art.Description
		if body == "" {
			body = art.Snippet
		}
		results = append(results, core.RawArticle{
			Title:       art.Title,
			URL:         art.URL,
			Source:      art.Source,
			PublishedAt: art.PublishedAt,
			Body:        body,
			Provider:    p.Name(),
		})
	}

	logger.Debug("TheNewsAPI fetch completed", "keyword", keyword, "results_found", len(results))
	return results, nil
}
