package narrative

import (
	"fmt"
	"strings"

	"newsgraph/internal/core"
)

// MaxArticleChars bounds the article content quoted in an answer prompt.
const MaxArticleChars = 1200

// ClusterTag cites a whole cluster.
func ClusterTag(cid int) string {
	return fmt.Sprintf("[CID %d]", cid)
}

// ArticleTag cites the ordinal-th (1-based) article of a cluster.
func ArticleTag(cid, ordinal int) string {
	return fmt.Sprintf("[CID %d/A%d]", cid, ordinal)
}

// BuildAnswerPrompt renders the filtered clusters as citable blocks. A
// cluster without member articles is quoted by its summary.
func BuildAnswerPrompt(query string, clusters []core.Cluster) string {
	var blocks strings.Builder
	for _, c := range clusters {
		if len(c.Articles) == 0 {
			fmt.Fprintf(&blocks, "%s Summary: %s\n", ClusterTag(c.ID), strings.TrimSpace(c.Summary))
			continue
		}
		for i, a := range c.Articles {
			title := strings.TrimSpace(a.Title)
			if title == "" {
				title = "Untitled"
			}
			fmt.Fprintf(&blocks, "%s Title: %s\nURL: %s\nContent: %s\n",
				ArticleTag(c.ID, i+1), title, a.URL, truncateRunes(strings.TrimSpace(a.Text()), MaxArticleChars))
		}
	}

	return fmt.Sprintf(`You are a news assistant. Answer the user query using the provided articles.
Always cite sources inline using the tag format [CID x/Ay] where x is the cluster id and y is the article number.
If you have only a cluster summary, cite as [CID x].

User query: %q

Articles:
%s
Return only the answer text with inline citations; no extra commentary.`, query, blocks.String())
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
