package similarity

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// OverlapScorer rates how much two topic lists overlap. The response is a
// number in [0,1] formatted as text; callers parse it with ParseScore.
type OverlapScorer interface {
	Score(ctx context.Context, a, b []string) (string, error)
}

// LLMClient is the text generation capability the LLM scorer needs.
type LLMClient interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// LLMOverlapScorer asks a model to rate topical overlap.
type LLMOverlapScorer struct {
	client LLMClient
}

// NewLLMOverlapScorer creates an overlap scorer backed by client
func NewLLMOverlapScorer(client LLMClient) *LLMOverlapScorer {
	return &LLMOverlapScorer{client: client}
}

const overlapPrompt = `Rate how much the two topic lists below overlap in meaning, from 0 (unrelated) to 1 (same subject).
Respond with a single number with two decimals and nothing else.

Topics A: %s
Topics B: %s`

// Score returns the model's raw rating
func (s *LLMOverlapScorer) Score(ctx context.Context, a, b []string) (string, error) {
	prompt := fmt.Sprintf(overlapPrompt, strings.Join(a, ", "), strings.Join(b, ", "))
	return s.client.GenerateText(ctx, prompt)
}

// JaccardScorer rates overlap locally as the Jaccard index of the
// case-folded topic sets.
type JaccardScorer struct{}

// Score returns |A∩B| / |A∪B| with two decimals
func (JaccardScorer) Score(_ context.Context, a, b []string) (string, error) {
	setA := topicSet(a)
	setB := topicSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return "0.00", nil
	}

	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return strconv.FormatFloat(float64(inter)/float64(union), 'f', 2, 64), nil
}

func topicSet(topics []string) map[string]struct{} {
	set := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

var numberPattern = regexp.MustCompile(`[-+]?\d*\.?\d+(?:[eE][-+]?\d+)?`)

// ParseScore reads the first number in a scorer response. Anything that does
// not yield a finite number in [0,1] scores 0.
func ParseScore(response string) float64 {
	match := numberPattern.FindString(strings.TrimSpace(response))
	if match == "" {
		return 0
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 || v > 1 {
		return 0
	}
	return v
}
