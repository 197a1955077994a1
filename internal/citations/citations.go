// Package citations extracts and resolves the inline cluster and article
// tags of a drafted answer.
package citations

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"newsgraph/internal/core"
)

// contextRadius is the number of characters kept on each side of a tag.
const contextRadius = 50

var tagPattern = regexp.MustCompile(`\[CID (\d+)(?:/A(\d+))?\]`)

// Citation is one distinct tag found in an answer. Ordinal is the 1-based
// article number within the cluster, or 0 when the tag cites the whole
// cluster.
type Citation struct {
	Tag       string `json:"tag"`
	ClusterID int    `json:"cluster_id"`
	Ordinal   int    `json:"ordinal,omitempty"`
	Context   string `json:"context"`
	Title     string `json:"title,omitempty"`
	URL       string `json:"url,omitempty"`
	Source    string `json:"source,omitempty"`
}

// Extract returns the distinct tags of answer in order of first appearance.
func Extract(answer string) []Citation {
	var cites []Citation
	seen := make(map[string]bool)

	for _, loc := range tagPattern.FindAllStringSubmatchIndex(answer, -1) {
		tag := answer[loc[0]:loc[1]]
		if seen[tag] {
			continue
		}
		seen[tag] = true

		cid, err := strconv.Atoi(answer[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		c := Citation{Tag: tag, ClusterID: cid, Context: extractContext(answer, loc[0], loc[1])}
		if loc[4] >= 0 {
			if c.Ordinal, err = strconv.Atoi(answer[loc[4]:loc[5]]); err != nil {
				continue
			}
		}
		cites = append(cites, c)
	}

	return cites
}

// extractContext returns the text around a tag, trimmed to word boundaries
// and with the tag itself removed.
func extractContext(text string, start, end int) string {
	from := start - contextRadius
	if from < 0 {
		from = 0
	}
	to := end + contextRadius
	if to > len(text) {
		to = len(text)
	}

	before := text[from:start]
	after := text[end:to]
	if from > 0 {
		if i := strings.IndexByte(before, ' '); i >= 0 {
			before = before[i+1:]
		}
	}
	if to < len(text) {
		if i := strings.LastIndexByte(after, ' '); i >= 0 {
			after = after[:i]
		}
	}

	return strings.Join(strings.Fields(before+after), " ")
}

// Resolve fills in the cited article for each citation. Tags that point at a
// cluster or article the run does not have are returned as unknown.
func Resolve(cites []Citation, clusters []core.Cluster) (resolved []Citation, unknown []string) {
	byID := make(map[int]core.Cluster, len(clusters))
	for _, c := range clusters {
		byID[c.ID] = c
	}

	for _, cite := range cites {
		cluster, ok := byID[cite.ClusterID]
		if !ok {
			unknown = append(unknown, cite.Tag)
			continue
		}
		if cite.Ordinal == 0 {
			resolved = append(resolved, cite)
			continue
		}
		if cite.Ordinal > len(cluster.Articles) {
			unknown = append(unknown, cite.Tag)
			continue
		}
		a := cluster.Articles[cite.Ordinal-1]
		cite.Title, cite.URL, cite.Source = a.Title, a.URL, a.Source
		resolved = append(resolved, cite)
	}

	return resolved, unknown
}

// Sources renders the resolved article citations as a numbered list.
func Sources(cites []Citation) string {
	var b strings.Builder
	n := 0
	for _, c := range cites {
		if c.URL == "" {
			continue
		}
		n++
		title := c.Title
		if title == "" {
			title = c.URL
		}
		fmt.Fprintf(&b, "%d. %s %s", n, c.Tag, title)
		if c.Source != "" {
			fmt.Fprintf(&b, " (%s)", c.Source)
		}
		fmt.Fprintf(&b, " %s\n", c.URL)
	}
	return b.String()
}
