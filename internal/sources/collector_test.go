package sources

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"newsgraph/internal/core"
)

type stubProvider struct {
	name  string
	items []core.RawArticle
	err   error
	delay time.Duration
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(ctx context.Context, keyword string, maxItems int) ([]core.RawArticle, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return limit(s.items, maxItems), nil
}

// blockingProvider sleeps without watching its context.
type blockingProvider struct {
	delay time.Duration
}

func (b *blockingProvider) Name() string { return "blocking" }

func (b *blockingProvider) Fetch(ctx context.Context, keyword string, maxItems int) ([]core.RawArticle, error) {
	time.Sleep(b.delay)
	return []core.RawArticle{raw("https://late", "late")}, nil
}

func raw(url, title string) core.RawArticle {
	return core.RawArticle{URL: url, Title: title}
}

func urls(articles []core.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.URL
	}
	return out
}

func TestNormalizeDedup(t *testing.T) {
	in := []core.RawArticle{
		raw("https://a", "first a"),
		raw("https://b", "b"),
		raw(" https://a ", "second a"),
		raw("", "no url"),
		raw("   ", "blank url"),
		raw("https://c", ""),
		raw("https://b", "second b"),
	}

	got := Normalize(in, 0)

	if diff := cmp.Diff([]string{"https://a", "https://b", "https://c"}, urls(got)); diff != "" {
		t.Errorf("URLs mismatch (-want +got):\n%s", diff)
	}
	if got[0].Title != "first a" {
		t.Errorf("Expected first occurrence to win, got %q", got[0].Title)
	}
	for i, a := range got {
		if a.ID != i {
			t.Errorf("Expected ID %d, got %d", i, a.ID)
		}
	}
}

func TestNormalizeCapAndDates(t *testing.T) {
	in := []core.RawArticle{
		{URL: "https://a", PublishedAt: "2024-05-01T10:00:00Z"},
		{URL: "https://b", PublishedAt: "not a date"},
		{URL: "https://c", PublishedAt: "May 3, 2024"},
	}

	got := Normalize(in, 2)
	if len(got) != 2 {
		t.Fatalf("Expected cap of 2, got %d", len(got))
	}
	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if got[0].PublishedAt == nil || !got[0].PublishedAt.Equal(want) {
		t.Errorf("Expected parsed time %v, got %v", want, got[0].PublishedAt)
	}
	if got[1].PublishedAt != nil {
		t.Errorf("Expected unparseable date to be absent, got %v", got[1].PublishedAt)
	}
}

func TestCollectorMergesInProviderOrder(t *testing.T) {
	slow := &stubProvider{name: "slow", delay: 30 * time.Millisecond, items: []core.RawArticle{raw("https://a", "a"), raw("https://b", "b")}}
	failing := &stubProvider{name: "failing", err: errors.New("boom")}
	fast := &stubProvider{name: "fast", items: []core.RawArticle{raw("https://b", "dup"), raw("https://c", "c")}}

	c := NewCollector([]Provider{slow, failing, fast})
	got := c.Collect(context.Background(), "chips")

	if diff := cmp.Diff([]string{"https://a", "https://b", "https://c"}, urls(got)); diff != "" {
		t.Errorf("URLs mismatch (-want +got):\n%s", diff)
	}
	if got[1].Title != "b" {
		t.Errorf("Expected the slow provider's b to win, got %q", got[1].Title)
	}
}

func TestCollectorTimeoutCountsAsFailure(t *testing.T) {
	hung := &stubProvider{name: "hung", delay: time.Second, items: []core.RawArticle{raw("https://late", "late")}}
	ok := &stubProvider{name: "ok", items: []core.RawArticle{raw("https://ok", "ok")}}

	c := NewCollector([]Provider{hung, ok}, WithTimeout(20*time.Millisecond))
	got := c.Collect(context.Background(), "chips")

	if diff := cmp.Diff([]string{"https://ok"}, urls(got)); diff != "" {
		t.Errorf("URLs mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectorAbandonsProviderIgnoringContext(t *testing.T) {
	ok := &stubProvider{name: "ok", items: []core.RawArticle{raw("https://ok", "ok")}}

	c := NewCollector([]Provider{&blockingProvider{delay: 2 * time.Second}, ok}, WithTimeout(50*time.Millisecond))

	start := time.Now()
	got := c.Collect(context.Background(), "chips")
	elapsed := time.Since(start)

	if elapsed > time.Second {
		t.Errorf("Collect waited %v for a provider past its timeout", elapsed)
	}
	if diff := cmp.Diff([]string{"https://ok"}, urls(got)); diff != "" {
		t.Errorf("URLs mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectorAllProvidersFail(t *testing.T) {
	c := NewCollector([]Provider{&stubProvider{name: "x", err: ErrProviderUnavailable}})
	if got := c.Collect(context.Background(), "chips"); len(got) != 0 {
		t.Errorf("Expected no articles, got %d", len(got))
	}
}

func TestCollectorLimits(t *testing.T) {
	p := &stubProvider{name: "many", items: []core.RawArticle{raw("https://1", ""), raw("https://2", ""), raw("https://3", ""), raw("https://4", "")}}

	got := NewCollector([]Provider{p}, WithMaxItems(3), WithMaxArticles(2)).Collect(context.Background(), "x")
	if len(got) != 2 {
		t.Errorf("Expected 2 articles, got %d", len(got))
	}
}
