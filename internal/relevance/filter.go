package relevance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"newsgraph/internal/core"
	"newsgraph/internal/llm"
	"newsgraph/internal/logger"
)

// LLMClient is the text generation surface the filter needs.
type LLMClient interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// LLMFilter asks a language model which candidate clusters are relevant.
type LLMFilter struct {
	client LLMClient
	log    *slog.Logger
}

func NewLLMFilter(client LLMClient) *LLMFilter {
	return &LLMFilter{client: client, log: logger.Get()}
}

// Filter returns the candidates the model selected, in candidate order.
// Failure or malformed output selects nothing.
func (f *LLMFilter) Filter(ctx context.Context, query string, candidates []core.Cluster) []core.Cluster {
	if len(candidates) == 0 {
		return []core.Cluster{}
	}

	response, err := f.client.GenerateText(ctx, buildFilterPrompt(query, candidates))
	if err != nil {
		f.log.Warn("Relevance filter failed", "stage", core.StageDraft, "collaborator", "filter", "error", err)
		return []core.Cluster{}
	}

	ids, err := ParseIDs(response)
	if err != nil {
		f.log.Warn("Relevance filter returned malformed output", "stage", core.StageDraft, "collaborator", "filter", "error", err)
		return []core.Cluster{}
	}

	selected := make(map[int]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}
	out := make([]core.Cluster, 0, len(ids))
	for _, c := range candidates {
		if selected[c.ID] {
			out = append(out, c)
		}
	}
	f.log.Info("Filtered clusters", "candidates", len(candidates), "selected", len(out))
	return out
}

func buildFilterPrompt(query string, candidates []core.Cluster) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User query: %q\n\n", query)
	b.WriteString("Below are the candidate story clusters. Each has a summary. ")
	b.WriteString("Rank them by relevance to the query and return only the relevant cluster IDs.\n\n")
	b.WriteString("Clusters:\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "[CID %d]\nSummary: %s\n\n", c.ID, strings.TrimSpace(c.Summary))
	}
	b.WriteString(`Return ONLY JSON of the form {"relevant_ids": [<cid>, ...]}.`)
	return b.String()
}

// ParseIDs reads cluster ids from a model response. It accepts a bare JSON
// list or an object with a "relevant_ids" list. Entries may be integers or
// numeric strings; anything else is skipped.
func ParseIDs(response string) ([]int, error) {
	raw := llm.ExtractJSON(response)

	var items []json.RawMessage
	if strings.HasPrefix(raw, "{") {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			return nil, fmt.Errorf("failed to parse cluster ids: %w", err)
		}
		list, ok := obj["relevant_ids"]
		if !ok {
			for _, key := range []string{"ids", "cids", "clusters"} {
				if list, ok = obj[key]; ok {
					break
				}
			}
		}
		if !ok {
			return nil, fmt.Errorf("failed to parse cluster ids: no id list in %q", raw)
		}
		if err := json.Unmarshal(list, &items); err != nil {
			return nil, fmt.Errorf("failed to parse cluster ids: %w", err)
		}
	} else if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to parse cluster ids: %w", err)
	}

	ids := make([]int, 0, len(items))
	for _, item := range items {
		if id, ok := parseID(item); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func parseID(item json.RawMessage) (int, bool) {
	var n float64
	if err := json.Unmarshal(item, &n); err == nil {
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	}
	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		id, err := strconv.Atoi(strings.TrimSpace(s))
		return id, err == nil
	}
	return 0, false
}
