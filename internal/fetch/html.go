package fetch

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

var blankLines = regexp.MustCompile(`\n\s*\n+`)

// htmlText returns the readable text of an HTML page, falling back to a
// selector walk when readability finds nothing.
func htmlText(data []byte, pageURL *url.URL) string {
	if article, err := readability.FromReader(bytes.NewReader(data), pageURL); err == nil {
		if text := cleanText(article.TextContent); text != "" {
			return text
		}
	}
	return selectorText(data)
}

// selectorText strips boilerplate elements and collects block text from the
// first main-content container that has any.
func selectorText(data []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return ""
	}

	doc.Find("script, style, nav, footer, header, aside, form, iframe, noscript, .sidebar, #sidebar, .ad, .advertisement, .popup, .modal, .cookie-banner").Remove()

	mainContentSelectors := []string{
		"article", "main", ".main-content", ".entry-content", ".post-content", ".post-body", ".article-body",
		"[role='main']",
		".content", "#content",
		"body",
	}

	for _, selector := range mainContentSelectors {
		var b strings.Builder
		doc.Find(selector).Find("p, h1, h2, h3, h4, h5, h6, li, blockquote, pre").Each(func(_ int, item *goquery.Selection) {
			if text := strings.TrimSpace(item.Text()); text != "" {
				b.WriteString(text)
				b.WriteString("\n\n")
			}
		})
		if b.Len() > 0 {
			return cleanText(b.String())
		}
	}
	return ""
}

func cleanText(s string) string {
	return strings.TrimSpace(blankLines.ReplaceAllString(s, "\n"))
}
