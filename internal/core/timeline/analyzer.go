// Package timeline derives a user's learning history from stored chunks.
// Every read degrades to an empty value when a store fails.
package timeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/agenthands/cognivault/internal/core/common"
	"github.com/agenthands/cognivault/internal/core/community"
	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/agenthands/cognivault/internal/core/similarity"
	"github.com/agenthands/cognivault/internal/core/summary"
	"github.com/agenthands/cognivault/internal/driver"
	"github.com/agenthands/cognivault/internal/logger"
	"github.com/agenthands/cognivault/internal/store"
)

const (
	snippetLength      = 200
	sentimentChunks    = 50
	sentimentTextLimit = 1000
	insightTopTopics   = 3
	insightSpikesLimit = 500
)

const (
	NoEventsInsight = "Start uploading content to see your learning journey unfold!"
	monthLayout     = "2006-01"
)

type Analyzer struct {
	Documents  store.DocumentStore
	Vectors    store.VectorStore
	Graph      driver.GraphDriver
	Summarizer *summary.Summarizer
	Policy     similarity.Policy
	Detector   community.Detector
}

func NewAnalyzer(documents store.DocumentStore, vectors store.VectorStore, graph driver.GraphDriver, summarizer *summary.Summarizer, policy similarity.Policy) *Analyzer {
	return &Analyzer{
		Documents:  documents,
		Vectors:    vectors,
		Graph:      graph,
		Summarizer: summarizer,
		Policy:     policy,
		Detector:   community.NewLabelPropagationDetector(),
	}
}

// Events returns one event per chunk, oldest first.
func (a *Analyzer) Events(ctx context.Context, userID string) []model.TimelineEvent {
	chunks, ok := a.chunks(ctx, userID)
	if !ok {
		return []model.TimelineEvent{}
	}

	files := make(map[string]model.SourceFile)
	list, err := a.Documents.ListFiles(ctx, userID, 0)
	if err != nil {
		logger.Warn("failed to list files for timeline", "user_id", userID, "error", err)
	}
	for _, f := range list {
		files[f.FileID] = f
	}

	events := make([]model.TimelineEvent, 0, len(chunks))
	for _, c := range chunks {
		ev := model.TimelineEvent{
			FileID:      c.SourceID(),
			UserID:      c.UserID,
			Timestamp:   c.CreatedAt,
			Tags:        nonNil(c.Tags),
			Summary:     c.Summary,
			TextSnippet: Snippet(c.Text),
			ChunkID:     c.ChunkID,
		}
		if f, ok := files[c.FileID]; ok {
			name := f.FileName
			ev.FileName = &name
			if f.Analysis != nil && f.Analysis.DocumentType != "" {
				docType := f.Analysis.DocumentType
				ev.DocumentType = &docType
			}
		}
		events = append(events, ev)
	}
	return events
}

// Snippet joins the first two lines of text and caps the result.
func Snippet(text string) string {
	lines := strings.SplitN(text, "\n", 3)
	if len(lines) > 2 {
		lines = lines[:2]
	}
	return common.Truncate(strings.Join(lines, " "), snippetLength)
}

func (a *Analyzer) TopicSpikes(ctx context.Context, userID string) model.TopicSpikes {
	chunks, ok := a.chunks(ctx, userID)
	if !ok {
		return model.TopicSpikes{}
	}
	return CountTopicSpikes(chunks)
}

// CountTopicSpikes counts tags per UTC calendar month.
func CountTopicSpikes(chunks []model.Chunk) model.TopicSpikes {
	spikes := model.TopicSpikes{}
	for _, c := range chunks {
		if c.CreatedAt.IsZero() || len(c.Tags) == 0 {
			continue
		}
		month := c.CreatedAt.UTC().Format(monthLayout)
		for _, tag := range c.Tags {
			tag = common.NormalizeTag(tag)
			if tag == "" {
				continue
			}
			if spikes[month] == nil {
				spikes[month] = make(map[string]int)
			}
			spikes[month][tag]++
		}
	}
	return spikes
}

// EmotionTrend prefers the sentiment stored with each file's analysis and
// falls back to scoring the earliest chunks.
func (a *Analyzer) EmotionTrend(ctx context.Context, userID string) []model.EmotionPoint {
	files, err := a.Documents.ListFiles(ctx, userID, 0)
	if err != nil {
		logger.Warn("failed to list files for emotion trend", "user_id", userID, "error", err)
		return []model.EmotionPoint{}
	}

	points := []model.EmotionPoint{}
	for _, f := range files {
		if f.Analysis == nil || f.Analysis.Sentiment == "" || f.UploadDate.IsZero() {
			continue
		}
		label, score := FileSentiment(f.Analysis.Sentiment)
		points = append(points, model.EmotionPoint{Date: f.UploadDate, Sentiment: label, Score: score})
	}
	if len(points) > 0 {
		sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
		return points
	}

	chunks, ok := a.chunks(ctx, userID)
	if !ok {
		return points
	}
	for _, c := range chunks {
		if len(points) == sentimentChunks {
			break
		}
		if c.CreatedAt.IsZero() || c.Text == "" {
			continue
		}
		text := c.Summary
		if text == "" {
			text = common.Truncate(c.Text, sentimentTextLimit)
		}
		s := a.Summarizer.AnalyzeSentiment(ctx, text)
		points = append(points, model.EmotionPoint{Date: c.CreatedAt, Sentiment: s.Label, Score: s.Score})
	}
	return points
}

// FileSentiment maps a free-form analysis sentiment onto the trend scale.
func FileSentiment(sentiment string) (string, float64) {
	s := strings.ToLower(sentiment)
	switch {
	case strings.Contains(s, "positive"), strings.Contains(s, "analytical"), strings.Contains(s, "informative"):
		return "positive", 0.7
	case strings.Contains(s, "negative"):
		return "negative", 0.3
	default:
		return "neutral", 0.5
	}
}

// Insights summarizes the timeline in a few sentences, from the LLM when one
// is configured and from a template otherwise.
func (a *Analyzer) Insights(ctx context.Context, userID string) string {
	var (
		events    []model.TimelineEvent
		spikes    model.TopicSpikes
		evolution model.KnowledgeEvolution
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		events = a.Events(gctx, userID)
		return nil
	})
	g.Go(func() error {
		spikes = a.TopicSpikes(gctx, userID)
		return nil
	})
	g.Go(func() error {
		evolution = a.KnowledgeEvolution(gctx, userID)
		return nil
	})
	_ = g.Wait()

	if len(events) == 0 {
		return NoEventsInsight
	}

	top := TopTopics(spikes, insightTopTopics)
	spikesJSON, _ := json.Marshal(spikes)
	stats := fmt.Sprintf("Events: %d total learning events\nTop topics: %s\nTopic spikes: %s\nKnowledge evolution: %d topics, %d new branches",
		len(events),
		strings.Join(top, ", "),
		common.Truncate(string(spikesJSON), insightSpikesLimit),
		len(evolution.Nodes),
		len(evolution.NewBranches),
	)

	if text, ok := a.Summarizer.GenerateText(ctx, fmt.Sprintf(a.Summarizer.Prompts.Insights, stats)); ok {
		return text
	}
	return TemplateInsights(len(events), top)
}

func TemplateInsights(events int, topTopics []string) string {
	if events == 0 {
		return NoEventsInsight
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You've created %d learning events. ", events)
	if len(topTopics) > 0 {
		fmt.Fprintf(&b, "Your top topics are: %s. ", strings.Join(topTopics, ", "))
	}
	b.WriteString("Keep exploring!")
	return b.String()
}

// TopTopics totals spikes across months and returns the n most frequent tags.
func TopTopics(spikes model.TopicSpikes, n int) []string {
	counts := make(map[string]int)
	for _, month := range spikes {
		for tag, c := range month {
			counts[tag] += c
		}
	}
	ranked := RankCounts(counts)
	out := make([]string, 0, n)
	for _, tc := range ranked {
		if len(out) == n {
			break
		}
		out = append(out, tc.Topic)
	}
	return out
}

// RankCounts orders counts descending, ties by name.
func RankCounts(counts map[string]int) []model.TopicCount {
	ranked := make([]model.TopicCount, 0, len(counts))
	for topic, c := range counts {
		ranked = append(ranked, model.TopicCount{Topic: topic, Count: c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Topic < ranked[j].Topic
	})
	return ranked
}

// chunks lists the user's chunks oldest first. ok is false when the store failed.
func (a *Analyzer) chunks(ctx context.Context, userID string) ([]model.Chunk, bool) {
	chunks, err := a.Documents.ListChunks(ctx, userID)
	if err != nil {
		logger.Warn("failed to list chunks for timeline", "user_id", userID, "error", err)
		return nil, false
	}
	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].CreatedAt.Before(chunks[j].CreatedAt) })
	return chunks, true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// normalizedTags returns the distinct normalized tags of a chunk in order.
func normalizedTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = common.NormalizeTag(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
