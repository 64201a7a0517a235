package summary

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agenthands/cognivault/internal/core/common"
	"github.com/agenthands/cognivault/internal/core/model"
)

const EmptySummary = "This content has been processed successfully."

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	wordPattern   = regexp.MustCompile(`^[a-z0-9]+$`)
)

var (
	positiveWords = []string{"good", "great", "excellent", "amazing", "wonderful", "positive", "success", "achievement", "learn", "understand", "insight"}
	negativeWords = []string{"bad", "difficult", "problem", "challenge", "stress", "confusion", "error", "fail", "hard"}
)

// FallbackMetadata derives an enrichment without a model.
func FallbackMetadata(text string) model.Enrichment {
	return model.Enrichment{
		Summary:   FallbackSummary(text),
		Tags:      FallbackTags(text),
		Entities:  []model.EntityRef{},
		Relations: []model.Relation{},
	}
}

// FallbackSummary keeps the first three substantial sentences, or the
// opening 150 characters when there are none.
func FallbackSummary(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return EmptySummary
	}

	var picked []string
	for _, s := range sentenceSplit.Split(text, -1) {
		s = strings.TrimSpace(s)
		if len([]rune(s)) > 10 {
			picked = append(picked, s)
			if len(picked) == 3 {
				break
			}
		}
	}
	if len(picked) > 0 {
		return strings.Join(picked, ". ") + "."
	}
	return common.Truncate(text, 150) + "..."
}

// FallbackTags returns the five most frequent words longer than four
// characters. Ties keep first-seen order.
func FallbackTags(text string) []string {
	counts := map[string]int{}
	var order []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?\"'()[]{}")
		if len(w) <= 4 || !wordPattern.MatchString(w) {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > 5 {
		order = order[:5]
	}
	if order == nil {
		return []string{}
	}
	return order
}

func FallbackAnalysis(fileName string) model.DocumentAnalysis {
	return model.DocumentAnalysis{
		DocumentType:        "document",
		MainTopic:           fileName,
		KeyPoints:           []string{},
		Sentiment:           "neutral",
		Complexity:          "intermediate",
		SuggestedCategories: []string{"general"},
	}
}

// KeywordSentiment scores text by counting positive and negative cue words.
func KeywordSentiment(text string) model.Sentiment {
	lower := strings.ToLower(text)
	p := countWords(lower, positiveWords)
	n := countWords(lower, negativeWords)

	switch {
	case p > n:
		return model.Sentiment{Label: "positive", Score: min(0.9, 0.5+0.1*float64(p))}
	case n > p:
		return model.Sentiment{Label: "negative", Score: max(0.1, 0.5-0.1*float64(n))}
	default:
		return model.Sentiment{Label: "neutral", Score: 0.5}
	}
}

func countWords(text string, words []string) int {
	c := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			c++
		}
	}
	return c
}
