// Package dashboard folds timeline, store and graph facets into one overview.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/agenthands/cognivault/internal/core/common"
	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/agenthands/cognivault/internal/core/summary"
	"github.com/agenthands/cognivault/internal/core/timeline"
	"github.com/agenthands/cognivault/internal/logger"
	"github.com/agenthands/cognivault/internal/store"
)

const (
	recentUploadsLimit = 5
	uploadTagsLimit    = 5
	topTopicsLimit     = 10
	emotionLimit       = 5
	previewLimit       = 5
	triggerLimit       = 3
	suggestionLimit    = 3
	minSuggestions     = 2
)

// StatsProvider reports graph statistics for a user.
type StatsProvider interface {
	Stats(ctx context.Context, userID string) (model.GraphStats, error)
}

type Aggregator struct {
	Documents  store.DocumentStore
	Timeline   *timeline.Analyzer
	Stats      StatsProvider
	Summarizer *summary.Summarizer
}

func NewAggregator(documents store.DocumentStore, analyzer *timeline.Analyzer, stats StatsProvider, summarizer *summary.Summarizer) *Aggregator {
	return &Aggregator{
		Documents:  documents,
		Timeline:   analyzer,
		Stats:      stats,
		Summarizer: summarizer,
	}
}

type facets struct {
	files    []model.SourceFile
	filesOK  bool
	chunks   []model.Chunk
	chunksOK bool
	stats    model.GraphStats
	events   []model.TimelineEvent
	spikes   model.TopicSpikes
	emotions []model.EmotionPoint
	triggers []model.BranchTrigger
}

// Overview assembles the dashboard. Each facet that fails is replaced by its
// empty value; the call itself never fails.
func (a *Aggregator) Overview(ctx context.Context, userID, userName, userEmail string) model.Dashboard {
	f := a.collect(ctx, userID)

	if (!f.filesOK && !f.chunksOK) || (len(f.files) == 0 && len(f.chunks) == 0) {
		return model.EmptyDashboard(userName, userEmail)
	}

	d := model.EmptyDashboard(userName, userEmail)
	d.TotalUploads = len(f.files)

	counts := make(map[string]int)
	for _, c := range f.chunks {
		for _, tag := range c.Tags {
			if tag = common.NormalizeTag(tag); tag != "" {
				counts[tag]++
			}
		}
	}
	ranked := timeline.RankCounts(counts)
	if len(ranked) > topTopicsLimit {
		ranked = ranked[:topTopicsLimit]
	}
	d.TotalTagsDetected = len(counts)
	d.TopicStats = model.TopicStats{
		TopTopics:         ranked,
		TotalUniqueTopics: len(counts),
		MostRecentTopic:   mostRecentTopic(f.spikes, ranked),
	}

	files := append([]model.SourceFile(nil), f.files...)
	sort.SliceStable(files, func(i, j int) bool { return files[i].UploadDate.After(files[j].UploadDate) })
	for i, file := range files {
		if i == recentUploadsLimit {
			break
		}
		d.RecentUploads = append(d.RecentUploads, model.RecentUpload{
			FileID:       file.FileID,
			FileName:     file.FileName,
			UploadDate:   file.UploadDate,
			DocumentType: file.DocumentType(),
			MainTopic:    file.MainTopic(),
			TotalChunks:  file.TotalChunks,
			Tags:         fileTags(file.FileID, f.chunks),
		})
	}
	if len(files) > 0 {
		d.LastUploadedFile = &model.LastUploadedFile{
			FileName:     files[0].FileName,
			UploadDate:   files[0].UploadDate,
			DocumentType: files[0].DocumentType(),
		}
	}

	emotions := append([]model.EmotionPoint(nil), f.emotions...)
	sort.SliceStable(emotions, func(i, j int) bool { return emotions[i].Date.After(emotions[j].Date) })
	d.EmotionalTrend = head(emotions, emotionLimit)

	d.KnowledgeGraphStats = f.stats

	events := append([]model.TimelineEvent(nil), f.events...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp.After(events[j].Timestamp) })
	d.TimelinePreview = head(events, previewLimit)

	triggers := append([]model.BranchTrigger(nil), f.triggers...)
	sort.SliceStable(triggers, func(i, j int) bool { return triggers[i].Date.After(triggers[j].Date) })
	d.BranchTriggers = head(triggers, triggerLimit)

	d.SuggestedNextTopics = SuggestTopics(ranked, d.BranchTriggers)
	d.AIInsights = a.insights(ctx, d)
	return d
}

func (a *Aggregator) collect(ctx context.Context, userID string) facets {
	f := facets{
		stats:    model.EmptyGraphStats(),
		events:   []model.TimelineEvent{},
		spikes:   model.TopicSpikes{},
		emotions: []model.EmotionPoint{},
		triggers: []model.BranchTrigger{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		files, err := a.Documents.ListFiles(gctx, userID, 0)
		if err != nil {
			logger.Warn("dashboard files unavailable", "user_id", userID, "error", err)
			return nil
		}
		f.files, f.filesOK = files, true
		return nil
	})
	g.Go(func() error {
		chunks, err := a.Documents.ListChunks(gctx, userID)
		if err != nil {
			logger.Warn("dashboard chunks unavailable", "user_id", userID, "error", err)
			return nil
		}
		f.chunks, f.chunksOK = chunks, true
		return nil
	})
	g.Go(func() error {
		if a.Stats == nil {
			return nil
		}
		stats, err := a.Stats.Stats(gctx, userID)
		if err != nil {
			logger.Warn("dashboard graph stats unavailable", "user_id", userID, "error", err)
			return nil
		}
		f.stats = stats
		return nil
	})
	g.Go(func() error {
		f.events = a.Timeline.Events(gctx, userID)
		return nil
	})
	g.Go(func() error {
		f.spikes = a.Timeline.TopicSpikes(gctx, userID)
		return nil
	})
	g.Go(func() error {
		f.emotions = a.Timeline.EmotionTrend(gctx, userID)
		return nil
	})
	g.Go(func() error {
		f.triggers = a.Timeline.BranchTriggers(gctx, userID)
		return nil
	})
	_ = g.Wait()
	return f
}

func (a *Aggregator) insights(ctx context.Context, d model.Dashboard) string {
	focus := "learning"
	if len(d.TopicStats.TopTopics) > 0 {
		focus = d.TopicStats.TopTopics[0].Topic
	}
	mood := "neutral"
	if len(d.EmotionalTrend) > 0 {
		mood = d.EmotionalTrend[0].Sentiment
	}

	if a.Summarizer != nil {
		top := make([]string, 0, 5)
		for _, tc := range head(d.TopicStats.TopTopics, 5) {
			top = append(top, tc.Topic)
		}
		stats := fmt.Sprintf("Total Uploads: %d\nTop Topics: %s\nRecent Mood: %s\nNew Branches: %d\nGraph Nodes: %d",
			d.TotalUploads, strings.Join(top, ", "), mood, len(d.BranchTriggers), d.KnowledgeGraphStats.TotalNodes)
		if text, ok := a.Summarizer.GenerateText(ctx, fmt.Sprintf(a.Summarizer.Prompts.Dashboard, stats)); ok {
			return text
		}
	}
	return TemplateInsights(d.TotalUploads, focus, mood, len(d.BranchTriggers))
}

func TemplateInsights(uploads int, focus, mood string, branches int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You've uploaded %d documents. Your focus is on %s. Recent mood: %s. ", uploads, focus, mood)
	if branches > 0 {
		fmt.Fprintf(&b, "%d new knowledge branches detected. ", branches)
	}
	b.WriteString("Keep exploring!")
	return b.String()
}

// SuggestTopics proposes follow-ups from the leading topics and the newest
// branch trigger.
func SuggestTopics(top []model.TopicCount, recentTriggers []model.BranchTrigger) []model.SuggestedTopic {
	out := []model.SuggestedTopic{}
	if len(top) > 0 {
		out = append(out, model.SuggestedTopic{
			Topic:  "Advanced " + top[0].Topic,
			Reason: "You're already exploring this area",
		})
	}
	if len(top) > 1 {
		out = append(out, model.SuggestedTopic{
			Topic:  fmt.Sprintf("Connecting %s and %s", top[0].Topic, top[1].Topic),
			Reason: "These are your two most frequent topics",
		})
	}
	if len(recentTriggers) > 0 {
		out = append(out, model.SuggestedTopic{
			Topic:  "Deep dive into " + recentTriggers[0].Trigger,
			Reason: "You recently started exploring this",
		})
	}
	for _, s := range fallbackSuggestions {
		if len(out) >= minSuggestions {
			break
		}
		out = append(out, s)
	}
	return head(out, suggestionLimit)
}

// fallbackSuggestions pad vaults with too few topics or branches.
var fallbackSuggestions = []model.SuggestedTopic{
	{Topic: "Review your recent uploads", Reason: "Revisiting material strengthens what you've learned"},
	{Topic: "Explore a new subject", Reason: "New subjects start new knowledge branches"},
}

// mostRecentTopic is the leading tag of the latest month with any tags.
func mostRecentTopic(spikes model.TopicSpikes, ranked []model.TopicCount) string {
	latest := ""
	for month, tags := range spikes {
		if len(tags) > 0 && month > latest {
			latest = month
		}
	}
	if latest != "" {
		if month := timeline.RankCounts(spikes[latest]); len(month) > 0 {
			return month[0].Topic
		}
	}
	if len(ranked) > 0 {
		return ranked[0].Topic
	}
	return "None"
}

func fileTags(fileID string, chunks []model.Chunk) []string {
	tags := []string{}
	seen := make(map[string]bool)
	for _, c := range chunks {
		if c.FileID != fileID {
			continue
		}
		for _, t := range c.Tags {
			t = common.NormalizeTag(t)
			if t == "" || seen[t] {
				continue
			}
			if len(tags) == uploadTagsLimit {
				return tags
			}
			seen[t] = true
			tags = append(tags, t)
		}
	}
	return tags
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	if s == nil {
		return []T{}
	}
	return s
}
