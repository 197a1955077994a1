package ranking

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// DefaultBatchSize is how many candidates go into one reranking prompt.
const DefaultBatchSize = 5

// LLMClient is the text generation surface the reranker needs.
type LLMClient interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// LLMReranker asks a language model to score candidates in batches and
// sorts them by the returned relevance.
type LLMReranker struct {
	client    LLMClient
	batchSize int
}

func NewLLMReranker(client LLMClient, batchSize int) *LLMReranker {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &LLMReranker{client: client, batchSize: batchSize}
}

type scored struct {
	id        int
	relevance float64
	order     int
}

// Rerank scores every batch and returns the ids the model rated, highest
// relevance first. Any batch failure fails the whole call.
func (r *LLMReranker) Rerank(ctx context.Context, query string, candidates []Candidate) ([]int, error) {
	var results []scored
	for start := 0; start < len(candidates); start += r.batchSize {
		end := min(start+r.batchSize, len(candidates))
		batch := candidates[start:end]

		response, err := r.client.GenerateText(ctx, buildRerankPrompt(query, batch))
		if err != nil {
			return nil, fmt.Errorf("rerank batch %d: %w", start/r.batchSize, err)
		}

		seen := make(map[int]bool)
		for _, choice := range ParseChoices(response) {
			if choice.Doc < 1 || choice.Doc > len(batch) || seen[choice.Doc] {
				continue
			}
			seen[choice.Doc] = true
			results = append(results, scored{
				id:        batch[choice.Doc-1].ID,
				relevance: choice.Relevance,
				order:     start + choice.Doc - 1,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].relevance != results[j].relevance {
			return results[i].relevance > results[j].relevance
		}
		return results[i].order < results[j].order
	})

	ids := make([]int, len(results))
	for i, s := range results {
		ids[i] = s.id
	}
	return ids, nil
}

func buildRerankPrompt(query string, batch []Candidate) string {
	var b strings.Builder
	b.WriteString("A list of documents is shown below. Each document has a number next to it along with a summary of the document. ")
	b.WriteString("A question is also provided.\n")
	b.WriteString("Respond with the numbers of the documents you should consult to answer the question, in order of relevance, ")
	b.WriteString("as well as the relevance score. The relevance score is a number from 1-10 based on how relevant you think the document is to the question.\n")
	b.WriteString("Do not include any documents that are not relevant to the question.\n\n")
	b.WriteString("Example format:\nDocument 1:\n<summary of document 1>\n\nDocument 2:\n<summary of document 2>\n\n")
	b.WriteString("Question: <question>\nAnswer:\nDoc: 2, Relevance: 7\nDoc: 1, Relevance: 4\n\n")

	for i, c := range batch {
		fmt.Fprintf(&b, "Document %d:\n%s\n\n", i+1, strings.TrimSpace(c.Text))
	}
	fmt.Fprintf(&b, "Question: %s\nAnswer:\n", query)
	return b.String()
}

// Choice is one parsed "Doc: n, Relevance: x" line.
type Choice struct {
	Doc       int
	Relevance float64
}

var choicePattern = regexp.MustCompile(`(?i)doc(?:ument)?\s*:?\s*(\d+)\s*[,;]?\s*relevance\s*:?\s*(-?\d+(?:\.\d+)?)`)

// ParseChoices extracts every "Doc: n, Relevance: x" pair from a response.
// Lines that do not match are skipped.
func ParseChoices(response string) []Choice {
	var out []Choice
	for _, m := range choicePattern.FindAllStringSubmatch(response, -1) {
		doc, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		rel, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		out = append(out, Choice{Doc: doc, Relevance: rel})
	}
	return out
}
