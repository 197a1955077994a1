package sources

import (
	"context"
	"fmt"
	"net/http"

	"newsgraph/internal/core"
	"newsgraph/internal/logger"
)

// FinlightProvider queries the Finlight v2 articles endpoint.
type FinlightProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewFinlightProvider creates a new Finlight provider
func NewFinlightProvider(apiKey, baseURL string) *FinlightProvider {
	return &FinlightProvider{
		apiKey:  apiKey,
		baseURL: baseURLOr(baseURL, "https://api.finlight.me"),
		client:  newHTTPClient(),
	}
}

// Name returns the name of this provider
func (p *FinlightProvider) Name() string {
	return string(ProviderTypeFinlight)
}

// Fetch searches Finlight articles for keyword.
func (p *FinlightProvider) Fetch(ctx context.Context, keyword string, maxItems int) ([]core.RawArticle, error) {
	request := map[string]any{
		"query":    keyword,
		"pageSize": maxItems,
	}
	headers := map[string]string{"X-API-KEY": p.apiKey}

	var response struct {
		Articles []struct {
			Title       string `json:"title"`
			Link        string `json:"link"`
			Source      string `json:"source"`
			PublishDate string `json:"publishDate"`
			Summary     string `json:"summary"`
		} `json:"articles"`
	}

	if err := doJSON(ctx, p.client, http.MethodPost, p.baseURL+"/v2/articles", headers, request, &response); err != nil {
		return nil, fmt.Errorf("finlight: %w", err)
	}

	var results []core.RawArticle
	for _, art := range limit(response.Articles, maxItems) {
		results = append(results, core.RawArticle{
			Title:       art.Title,
			URL:         art.Link,
			Source:      art.Source,
			PublishedAt: art.PublishDate,
			Body:        art.Summary,
			Provider:    p.Name(),
		})
	}

	logger.Debug("Finlight fetch completed", "keyword", keyword, "results_found", len(results))
	return results, nil
}
