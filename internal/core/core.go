package core

import "time"

// RawArticle is a single item as returned by a news provider, before normalization.
type RawArticle struct {
	Title       string `json:"title" yaml:"title"`               // Headline as reported by the provider
	URL         string `json:"url" yaml:"url"`                   // Canonical link; records without one are dropped
	Source      string `json:"source" yaml:"source"`             // Publisher name
	PublishedAt string `json:"published_at" yaml:"published_at"` // Provider-formatted publication time
	Body        string `json:"body" yaml:"body"`                 // Description, summary or body snippet
	Provider    string `json:"provider" yaml:"provider"`         // Name of the provider that returned the item
}

// Article is the canonical record for a fetched news item within one run.
type Article struct {
	ID          int        `json:"id"`                     // Stable index within the run
	URL         string     `json:"url"`                    // Unique key within the run
	Title       string     `json:"title"`                  // Headline
	Source      string     `json:"source"`                 // Publisher name
	Provider    string     `json:"provider"`               // Provider that contributed the record
	PublishedAt *time.Time `json:"published_at,omitempty"` // Absent when the provider value could not be parsed
	RawBody     string     `json:"raw_body"`               // Body as returned by the provider
	FullText    *string    `json:"full_text"`              // Absent when extraction failed
	Embedding   []float64  `json:"embedding"`              // Absent when embedding failed
	Topics      []string   `json:"topics"`                 // Ordered short topic strings
}

// HasFullText reports whether text extraction succeeded for the article.
func (a Article) HasFullText() bool {
	return a.FullText != nil && *a.FullText != ""
}

// Text returns the extracted full text, falling back to the provider body.
func (a Article) Text() string {
	if a.HasFullText() {
		return *a.FullText
	}
	return a.RawBody
}

// SimilarityEdge is an undirected weighted edge between two article indices.
// Source is always lower than Target.
type SimilarityEdge struct {
	Source int     `json:"source"`
	Target int     `json:"target"`
	Weight float64 `json:"weight"`
}

// Cluster is a group of articles that community detection placed together.
type Cluster struct {
	ID               int         `json:"id"`                // Dense id assigned in partition order
	Members          []int       `json:"members"`           // Article indices, ascending
	Articles         []Article   `json:"articles"`          // Member records, in member order
	Keywords         []string    `json:"keywords"`          // Concatenated member topics, duplicates kept
	Summary          string      `json:"summary"`           // Generated summary of member texts
	Embeddings       [][]float64 `json:"embeddings"`        // Member embeddings, in member order; nil where absent
	SummaryEmbedding []float64   `json:"summary_embedding"` // Absent when the summary could not be embedded
}
