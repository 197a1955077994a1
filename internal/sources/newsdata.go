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

// NewsDataProvider queries the NewsData.io latest news endpoint.
type NewsDataProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewNewsDataProvider creates a new NewsData.io provider
func NewNewsDataProvider(apiKey, baseURL string) *NewsDataProvider {
	return &NewsDataProvider{
		apiKey:  apiKey,
		baseURL: baseURLOr(baseURL, "https://newsdata.io"),
		client:  newHTTPClient(),
	}
}

// Name returns the name of this provider
func (p *NewsDataProvider) Name() string {
	return string(ProviderTypeNewsData)
}

// Fetch returns the latest articles matching keyword.
func (p *NewsDataProvider) Fetch(ctx context.Context, keyword string, maxItems int) ([]core.RawArticle, error) {
	params := url.Values{}
	params.Set("apikey", p.apiKey)
	params.Set("q", keyword)
	if maxItems > 0 {
		params.Set("size", strconv.Itoa(maxItems))
	}

	var response struct {
		Status  string `json:"status"`
		Results []struct {
			Title       string `json:"title"`
			Link        string `json:"link"`
			SourceName  string `json:"source_name"`
			PubDate     string `json:"pubDate"`
			Description string `json:"description"`
			Content     string `json:"content"`
		} `json:"results"`
	}

	fullURL := p.baseURL + "/api/1/latest?" + params.Encode()
	if err := doJSON(ctx, p.client, http.MethodGet, fullURL, nil, nil, &response); err != nil {
		return nil, fmt.Errorf("newsdata: %w", err)
	}
	if response.Status != "" && response.Status != "success" {
		return nil, fmt.Errorf("newsdata returned status %q", response.Status)
	}

	var results []core.RawArticle
	for _, art := range limit(response.Results, maxItems) {
		body := art.Description
		if body == "" {
			body = art.Content
		}
		results = append(results, core.RawArticle{
			Title:       art.Title,
			URL:         art.Link,
			Source:      art.SourceName,
			PublishedAt: art.PubDate,
			Body:        body,
			Provider:    p.Name(),
		})
	}

	logger.Debug("NewsData fetch completed", "keyword", keyword, "results_found", len(results))
	return results, nil
}
