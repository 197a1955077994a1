package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func articlePage(paragraphs ...string) string {
	var b strings.Builder
	b.WriteString(`<html><head><title>Export rules tighten</title><script>var tracking = "do not index";</script></head><body>`)
	b.WriteString(`<nav>Home | World | Markets</nav><article><h1>Export rules tighten</h1>`)
	for _, p := range paragraphs {
		b.WriteString("<p>" + p + "</p>")
	}
	b.WriteString(`</article><footer>Copyright</footer></body></html>`)
	return b.String()
}

var longParagraphs = []string{
	"Semiconductor manufacturers are preparing for a new round of export controls that would restrict shipments of advanced lithography tools to several markets.",
	"Industry groups warned that the rules could disrupt supply chains that took decades to build, while officials argued the measures were narrowly targeted.",
	"Analysts expect the largest equipment makers to report lower orders next quarter as customers pause purchases until the final text of the regulation is published.",
}

func TestExtractFullTextHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articlePage(longParagraphs...)))
	}))
	defer server.Close()

	text, err := NewExtractor().ExtractFullText(context.Background(), server.URL+"/news/chips")
	if err != nil {
		t.Fatalf("ExtractFullText failed: %v", err)
	}
	if text == nil {
		t.Fatal("Expected text, got nil")
	}
	if !strings.Contains(*text, "advanced lithography tools") {
		t.Errorf("Expected article body in text, got %q", *text)
	}
	if strings.Contains(*text, "do not index") {
		t.Errorf("Script content leaked into text: %q", *text)
	}
}

func TestExtractFullTextTooShort(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articlePage("Subscribe to continue reading.")))
	}))
	defer server.Close()

	text, err := NewExtractor().ExtractFullText(context.Background(), server.URL)
	if !errors.Is(err, ErrInsufficientText) {
		t.Fatalf("Expected ErrInsufficientText, got %v", err)
	}
	if text != nil {
		t.Errorf("Expected nil text, got %q", *text)
	}
}

func TestExtractFullTextMinLengthOption(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articlePage(longParagraphs[0])))
	}))
	defer server.Close()

	if _, err := NewExtractor(WithMinLength(1000)).ExtractFullText(context.Background(), server.URL); !errors.Is(err, ErrInsufficientText) {
		t.Errorf("Expected ErrInsufficientText with a high minimum, got %v", err)
	}
	if _, err := NewExtractor(WithMinLength(10)).ExtractFullText(context.Background(), server.URL); err != nil {
		t.Errorf("Expected success with a low minimum, got %v", err)
	}
}

func TestExtractFullTextHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	text, err := NewExtractor().ExtractFullText(context.Background(), server.URL)
	if err == nil || text != nil {
		t.Errorf("Expected failure for 404, got text=%v err=%v", text, err)
	}
}

func TestExtractFullTextInvalidPDF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("not really a pdf"))
	}))
	defer server.Close()

	if _, err := NewExtractor().ExtractFullText(context.Background(), server.URL+"/report"); err == nil {
		t.Error("Expected error for malformed PDF")
	}
}

func TestIsPDF(t *testing.T) {
	tests := []struct {
		url         string
		contentType string
		want        bool
	}{
		{"https://example.com/report.pdf", "", true},
		{"https://example.com/report.PDF?download=1", "", true},
		{"https://example.com/report", "application/pdf", true},
		{"https://example.com/article", "text/html", false},
		{"https://example.com/pdf-news", "text/html", false},
	}

	for _, tt := range tests {
		if got := isPDF(tt.url, tt.contentType); got != tt.want {
			t.Errorf("isPDF(%q, %q) = %v, want %v", tt.url, tt.contentType, got, tt.want)
		}
	}
}

func TestSelectorTextFallback(t *testing.T) {
	page := `<html><body><div class="sidebar"><p>Related stories</p></div><div id="content"><p>First paragraph.</p><p>Second paragraph.</p></div></body></html>`

	got := selectorText([]byte(page))
	if got != "First paragraph.\nSecond paragraph." {
		t.Errorf("Unexpected selector text %q", got)
	}
}

func TestCleanPDFText(t *testing.T) {
	raw := "Annual Report\n\n 12 \nRevenue grew strongly\n\n\nab\n"
	if got := cleanPDFText(raw); got != "Annual Report\nRevenue grew strongly" {
		t.Errorf("Unexpected cleaned text %q", got)
	}
}
