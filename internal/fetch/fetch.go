package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"newsgraph/internal/logger"
)

const (
	// DefaultMinLength is the shortest extracted text accepted as an article body.
	DefaultMinLength = 300
	maxBodyBytes     = 10 << 20
	defaultUserAgent = "Mozilla/5.0 (compatible; newsgraph/1.0)"
)

// ErrInsufficientText is returned when a page yields less text than the
// configured minimum, which usually means a paywall or a script-rendered page.
var ErrInsufficientText = errors.New("extracted text too short")

// Option configures an Extractor
type Option func(*Extractor)

// WithHTTPClient replaces the HTTP client used for downloads
func WithHTTPClient(c *http.Client) Option {
	return func(e *Extractor) { e.client = c }
}

// WithMinLength sets the minimum accepted text length
func WithMinLength(n int) Option {
	return func(e *Extractor) { e.minLength = n }
}

// Extractor downloads article pages and extracts their readable text.
// HTML goes through readability first and a goquery selector pass second;
// PDF documents are read page by page.
type Extractor struct {
	client    *http.Client
	minLength int
	userAgent string
	log       *slog.Logger
}

// NewExtractor creates an extractor with a 20 second download timeout
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		client:    &http.Client{Timeout: 20 * time.Second},
		minLength: DefaultMinLength,
		userAgent: defaultUserAgent,
		log:       logger.Get(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractFullText downloads rawURL and returns its main text.
// A nil result with an error means extraction failed for this article.
func (e *Extractor) ExtractFullText(ctx context.Context, rawURL string) (*string, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %s: %w", rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL %s: status code %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", rawURL, err)
	}

	var text string
	if isPDF(rawURL, resp.Header.Get("Content-Type")) {
		text, err = pdfText(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("failed to read PDF %s: %w", rawURL, err)
		}
	} else {
		text = htmlText(data, pageURL)
	}

	text = strings.TrimSpace(text)
	if len(text) < e.minLength {
		return nil, fmt.Errorf("%s: %w (%d chars)", rawURL, ErrInsufficientText, len(text))
	}

	e.log.Debug("Extracted article text", "url", rawURL, "chars", len(text))
	return &text, nil
}

// isPDF checks the Content-Type header first and the URL extension second
func isPDF(rawURL, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "application/pdf") {
		return true
	}
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	}
	return strings.HasSuffix(strings.ToLower(path), ".pdf")
}
