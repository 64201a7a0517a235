package timeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/agenthands/cognivault/internal/config"
	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/agenthands/cognivault/internal/core/similarity"
	"github.com/agenthands/cognivault/internal/core/summary"
	"github.com/agenthands/cognivault/internal/driver"
	"github.com/agenthands/cognivault/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type stubLLM struct {
	response string
	err      error
	prompts  []string
}

func (s *stubLLM) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

type brokenDocuments struct {
	*memory.Store
}

func (brokenDocuments) ListChunks(ctx context.Context, userID string) ([]model.Chunk, error) {
	return nil, errors.New("connection refused")
}

func (brokenDocuments) ListFiles(ctx context.Context, userID string, limit int) ([]model.SourceFile, error) {
	return nil, errors.New("connection refused")
}

func chunk(id string, at time.Time, tags ...string) model.Chunk {
	return model.Chunk{
		ChunkID:   id,
		UserID:    "u1",
		Text:      "text of " + id,
		Tags:      tags,
		CreatedAt: at,
	}
}

func newAnalyzer(t *testing.T, graph driver.GraphDriver, chunks ...model.Chunk) (*Analyzer, *memory.Store) {
	t.Helper()
	docs := memory.NewStore()
	for _, c := range chunks {
		require.NoError(t, docs.InsertChunk(context.Background(), c))
	}
	if graph == nil {
		graph = driver.Unavailable{}
	}
	a := NewAnalyzer(docs, memory.NewVectorStore(), graph, summary.NewSummarizer(nil, config.DefaultPrompts()), similarity.DefaultPolicy())
	return a, docs
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	later := chunk("c2", base.Add(time.Hour), "go")
	later.FileID = "f1"
	later.Text = "first line\nsecond line\nthird line"
	a, docs := newAnalyzer(t, nil, later, chunk("c1", base, "graphs"))
	require.NoError(t, docs.CreateFile(ctx, model.SourceFile{
		FileID:   "f1",
		UserID:   "u1",
		FileName: "notes.txt",
		Analysis: &model.DocumentAnalysis{DocumentType: "notes"},
	}))

	events := a.Events(ctx, "u1")
	require.Len(t, events, 2)

	assert.Equal(t, "c1", events[0].ChunkID)
	assert.Equal(t, model.DirectInput, events[0].FileID)
	assert.Nil(t, events[0].FileName)
	assert.Nil(t, events[0].DocumentType)

	assert.Equal(t, "f1", events[1].FileID)
	assert.Equal(t, "first line second line", events[1].TextSnippet)
	require.NotNil(t, events[1].FileName)
	assert.Equal(t, "notes.txt", *events[1].FileName)
	require.NotNil(t, events[1].DocumentType)
	assert.Equal(t, "notes", *events[1].DocumentType)
}

func TestSnippetIsCapped(t *testing.T) {
	assert.Len(t, []rune(Snippet(strings.Repeat("é", 500))), 200)
	assert.Equal(t, "one", Snippet("one"))
}

func TestTopicSpikesIgnoreOrder(t *testing.T) {
	chunks := []model.Chunk{
		chunk("c1", base, "Go", "graphs"),
		chunk("c2", base.AddDate(0, 0, 5), "go"),
		chunk("c3", base.AddDate(0, 1, 0), "rust"),
	}
	reversed := []model.Chunk{chunks[2], chunks[1], chunks[0]}

	spikes := CountTopicSpikes(chunks)
	assert.Equal(t, spikes, CountTopicSpikes(reversed))
	assert.Equal(t, model.TopicSpikes{
		"2024-03": {"go": 2, "graphs": 1},
		"2024-04": {"rust": 1},
	}, spikes)
}

func TestTopicSpikesUseUTC(t *testing.T) {
	tz := time.FixedZone("east", 5*3600)
	c := chunk("c1", time.Date(2024, 4, 1, 2, 0, 0, 0, tz), "go")
	assert.Contains(t, CountTopicSpikes([]model.Chunk{c}), "2024-03")
}

func TestEmotionTrendFromFiles(t *testing.T) {
	ctx := context.Background()
	a, docs := newAnalyzer(t, nil)
	require.NoError(t, docs.CreateFile(ctx, model.SourceFile{
		FileID: "f1", UserID: "u1", UploadDate: base.Add(time.Hour),
		Analysis: &model.DocumentAnalysis{Sentiment: "Analytical"},
	}))
	require.NoError(t, docs.CreateFile(ctx, model.SourceFile{
		FileID: "f2", UserID: "u1", UploadDate: base,
		Analysis: &model.DocumentAnalysis{Sentiment: "negative"},
	}))

	points := a.EmotionTrend(ctx, "u1")
	require.Len(t, points, 2)
	assert.Equal(t, model.EmotionPoint{Date: base, Sentiment: "negative", Score: 0.3}, points[0])
	assert.Equal(t, "positive", points[1].Sentiment)
	assert.Equal(t, 0.7, points[1].Score)
}

func TestEmotionTrendFallsBackToChunks(t *testing.T) {
	c := chunk("c1", base, "go")
	c.Summary = "a great success"
	a, _ := newAnalyzer(t, nil, c)

	points := a.EmotionTrend(context.Background(), "u1")
	require.Len(t, points, 1)
	assert.Equal(t, "positive", points[0].Sentiment)
	assert.InDelta(t, 0.7, points[0].Score, 1e-9)
}

func TestFileSentiment(t *testing.T) {
	label, score := FileSentiment("Informative")
	assert.Equal(t, "positive", label)
	assert.Equal(t, 0.7, score)

	label, score = FileSentiment("mixed")
	assert.Equal(t, "neutral", label)
	assert.Equal(t, 0.5, score)
}

func TestInsightsTemplate(t *testing.T) {
	a, _ := newAnalyzer(t, nil,
		chunk("c1", base, "go", "graphs"),
		chunk("c2", base.Add(time.Hour), "go"),
	)
	assert.Equal(t, "You've created 2 learning events. Your top topics are: go, graphs. Keep exploring!", a.Insights(context.Background(), "u1"))
}

func TestInsightsFromLLM(t *testing.T) {
	a, _ := newAnalyzer(t, nil, chunk("c1", base, "go"))
	llm := &stubLLM{response: "  You are curious about Go.  "}
	a.Summarizer = summary.NewSummarizer(llm, config.DefaultPrompts())

	assert.Equal(t, "You are curious about Go.", a.Insights(context.Background(), "u1"))
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Events: 1 total learning events")
	assert.Contains(t, llm.prompts[0], "Top topics: go")
}

func TestInsightsWithoutEvents(t *testing.T) {
	a, _ := newAnalyzer(t, nil)
	assert.Equal(t, NoEventsInsight, a.Insights(context.Background(), "u1"))
}

func TestTemplateInsightsWithoutTopics(t *testing.T) {
	assert.Equal(t, "You've created 3 learning events. Keep exploring!", TemplateInsights(3, nil))
}

func TestStoreFailuresDegradeToEmpty(t *testing.T) {
	ctx := context.Background()
	a, docs := newAnalyzer(t, nil)
	a.Documents = brokenDocuments{Store: docs}

	assert.NotNil(t, a.Events(ctx, "u1"))
	assert.Empty(t, a.Events(ctx, "u1"))
	assert.Empty(t, a.TopicSpikes(ctx, "u1"))
	assert.NotNil(t, a.EmotionTrend(ctx, "u1"))
	assert.NotNil(t, a.BranchTriggers(ctx, "u1"))
	assert.Equal(t, model.EmptyEvolution(), a.KnowledgeEvolution(ctx, "u1"))
	assert.Equal(t, NoEventsInsight, a.Insights(ctx, "u1"))
}

func TestRankCountsBreaksTiesByName(t *testing.T) {
	ranked := RankCounts(map[string]int{"b": 2, "a": 2, "c": 5})
	assert.Equal(t, []model.TopicCount{{Topic: "c", Count: 5}, {Topic: "a", Count: 2}, {Topic: "b", Count: 2}}, ranked)
}
