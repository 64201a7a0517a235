package session

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agenthands/cognivault/internal/core/model"
)

const (
	wordCloudLimit = 20
	entityLimit    = 10
)

var (
	nonWord = regexp.MustCompile(`[^a-z0-9\s]`)

	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	urlPattern   = regexp.MustCompile(`https?://[^\s]+`)
	datePattern  = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`)
)

// WordCloud counts words longer than three characters and keeps the 20 most
// frequent. Ties are broken alphabetically.
func WordCloud(text string) []WordWeight {
	counts := map[string]int{}
	for _, w := range strings.Fields(nonWord.ReplaceAllString(strings.ToLower(text), " ")) {
		if len(w) > 3 {
			counts[w]++
		}
	}

	out := make([]WordWeight, 0, len(counts))
	for w, n := range counts {
		out = append(out, WordWeight{Text: w, Value: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Text < out[j].Text
	})
	if len(out) > wordCloudLimit {
		out = out[:wordCloudLimit]
	}
	return out
}

// BasicEntities finds emails, URLs and slash dates, in that order, capped at ten.
func BasicEntities(text string) []model.EntityRef {
	out := []model.EntityRef{}
	for _, p := range []struct {
		re  *regexp.Regexp
		typ string
	}{
		{emailPattern, "EMAIL"},
		{urlPattern, "URL"},
		{datePattern, "DATE"},
	} {
		for _, m := range p.re.FindAllString(text, -1) {
			if len(out) == entityLimit {
				return out
			}
			out = append(out, model.EntityRef{Name: m, Type: p.typ})
		}
	}
	return out
}

// MergeEntities appends extra entities whose names are not already present.
func MergeEntities(base, extra []model.EntityRef) []model.EntityRef {
	out := make([]model.EntityRef, 0, len(base)+len(extra))
	seen := map[string]bool{}
	for _, e := range append(append([]model.EntityRef{}, base...), extra...) {
		key := strings.ToLower(e.Name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}
