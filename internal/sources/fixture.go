package sources

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"newsgraph/internal/core"
)

// fixtureFile is the YAML layout read by FixtureProvider.
//
//	articles:
//	  - title: ...
//	    url: ...
//	    keywords: [chips, exports]
type fixtureFile struct {
	Articles []fixtureArticle `yaml:"articles"`
}

type fixtureArticle struct {
	core.RawArticle `yaml:",inline"`
	Keywords        []string `yaml:"keywords"`
}

// FixtureProvider serves canned articles from a YAML file, for offline runs
// and tests.
type FixtureProvider struct {
	path string
}

// NewFixtureProvider creates a provider reading path on every fetch
func NewFixtureProvider(path string) *FixtureProvider {
	return &FixtureProvider{path: path}
}

// Name returns the name of this provider
func (p *FixtureProvider) Name() string {
	return string(ProviderTypeFixture)
}

// Fetch returns fixture articles whose keywords, title or body mention keyword.
// Articles without keywords match every query.
func (p *FixtureProvider) Fetch(ctx context.Context, keyword string, maxItems int) ([]core.RawArticle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", p.path, err)
	}

	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", p.path, err)
	}

	var results []core.RawArticle
	for _, art := range file.Articles {
		if !art.matches(keyword) {
			continue
		}
		raw := art.RawArticle
		raw.Provider = p.Name()
		results = append(results, raw)
	}
	return limit(results, maxItems), nil
}

func (a fixtureArticle) matches(keyword string) bool {
	if len(a.Keywords) == 0 {
		return true
	}
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	for _, k := range a.Keywords {
		if strings.Contains(keyword, strings.ToLower(k)) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(a.Title+" "+a.Body), keyword)
}
