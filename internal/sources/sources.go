package sources

import (
	"context"
	"fmt"

	"newsgraph/internal/core"
)

// Provider fetches raw articles for a keyword from one news API.
type Provider interface {
	// Fetch returns at most maxItems articles in the provider's own order.
	Fetch(ctx context.Context, keyword string, maxItems int) ([]core.RawArticle, error)

	// Name returns the name of the provider
	Name() string
}

// ProviderType represents the type of news provider
type ProviderType string

const (
	ProviderTypeEventRegistry ProviderType = "eventregistry"
	ProviderTypeNewsData      ProviderType = "newsdata"
	ProviderTypeFinlight      ProviderType = "finlight"
	ProviderTypeTheNewsAPI    ProviderType = "thenewsapi"
	ProviderTypeFixture       ProviderType = "fixture"
)

// ProviderConfig carries what a provider needs to be constructed.
// BaseURL overrides the public endpoint; Path is used by the fixture provider.
type ProviderConfig struct {
	APIKey  string
	BaseURL string
	Path    string
}

// NewProvider creates a news provider of the specified type
func NewProvider(providerType ProviderType, cfg ProviderConfig) (Provider, error) {
	switch providerType {
	case ProviderTypeEventRegistry:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s: %w", providerType, ErrMissingAPIKey)
		}
		return NewEventRegistryProvider(cfg.APIKey, cfg.BaseURL), nil
	case ProviderTypeNewsData:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s: %w", providerType, ErrMissingAPIKey)
		}
		return NewNewsDataProvider(cfg.APIKey, cfg.BaseURL), nil
	case ProviderTypeFinlight:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s: %w", providerType, ErrMissingAPIKey)
		}
		return NewFinlightProvider(cfg.APIKey, cfg.BaseURL), nil
	case ProviderTypeTheNewsAPI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s: %w", providerType, ErrMissingAPIKey)
		}
		return NewTheNewsAPIProvider(cfg.APIKey, cfg.BaseURL), nil
	case ProviderTypeFixture:
		return NewFixtureProvider(cfg.Path), nil
	default:
		return nil, fmt.Errorf("%s: %w", providerType, ErrUnsupportedProvider)
	}
}

// AvailableProviders returns the provider types NewProvider understands
func AvailableProviders() []ProviderType {
	return []ProviderType{
		ProviderTypeEventRegistry,
		ProviderTypeNewsData,
		ProviderTypeFinlight,
		ProviderTypeTheNewsAPI,
		ProviderTypeFixture,
	}
}
