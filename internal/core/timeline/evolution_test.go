package timeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/agenthands/cognivault/internal/driver"
	"github.com/agenthands/cognivault/internal/driver/drivertest"
	"github.com/agenthands/cognivault/internal/store"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hours(n int) time.Time {
	return base.Add(time.Duration(n) * time.Hour)
}

func TestBranchTriggersSingleReusedTag(t *testing.T) {
	chunks := []model.Chunk{
		chunk("c1", hours(0), "science"),
		chunk("c2", hours(1), "science"),
		chunk("c3", hours(2), "Science "),
	}

	triggers := DetectBranches(chunks, nil, 0.6)
	require.Len(t, triggers, 1)
	assert.Equal(t, "science", triggers[0].Trigger)
	assert.Equal(t, hours(0), triggers[0].Date)
	assert.Empty(t, triggers[0].LedTo)
}

func TestBranchTriggersNewTagBesideKnownOne(t *testing.T) {
	a, _ := newAnalyzer(t, nil,
		chunk("c1", hours(0), "science"),
		chunk("c2", hours(1), "science", "ethics"),
	)

	triggers := a.BranchTriggers(context.Background(), "u1")
	require.Len(t, triggers, 2)
	assert.Equal(t, "science", triggers[0].Trigger)
	assert.Equal(t, []string{"ethics"}, triggers[0].LedTo)

	assert.Equal(t, "ethics", triggers[1].Trigger)
	assert.Equal(t, hours(1), triggers[1].Date)
	assert.Empty(t, triggers[1].LedTo)
}

func TestBranchTriggersSkipUntaggedChunks(t *testing.T) {
	triggers := DetectBranches([]model.Chunk{
		chunk("c1", hours(0)),
		chunk("c2", hours(1), "go"),
	}, nil, 0.6)
	require.Len(t, triggers, 1)
	assert.Equal(t, hours(1), triggers[0].Date)
}

func TestBranchTriggersSuppressedBySimilarVectors(t *testing.T) {
	chunks := []model.Chunk{
		chunk("c1", hours(0), "go"),
		chunk("c2", hours(1), "golang"),
		chunk("c3", hours(2), "cooking"),
	}
	vectors := map[string][]float32{
		"c1": {1, 0},
		"c2": {0.99, 0.1},
		"c3": {0, 1},
	}

	triggers := DetectBranches(chunks, vectors, 0.6)
	require.Len(t, triggers, 2)
	assert.Equal(t, "go", triggers[0].Trigger)
	assert.Equal(t, "cooking", triggers[1].Trigger)
}

func TestBranchTriggersUseTagOverlapWithoutEarlierVectors(t *testing.T) {
	chunks := []model.Chunk{
		chunk("c1", hours(0), "go", "graphs", "neo4j"),
		chunk("c2", hours(1), "go", "graphs", "cypher"),
	}
	// c1 has no vector, so c2 is compared by tags: 2/3 already seen.
	triggers := DetectBranches(chunks, map[string][]float32{"c2": {1, 0}}, 0.6)
	require.Len(t, triggers, 1)
	assert.Equal(t, "go", triggers[0].Trigger)
	assert.Equal(t, []string{"cypher"}, triggers[0].LedTo)
}

func TestBranchTriggersLedToIsCapped(t *testing.T) {
	chunks := []model.Chunk{
		chunk("c1", hours(0), "go"),
		chunk("c2", hours(1), "go", "a", "b"),
		chunk("c3", hours(2), "go", "c", "d"),
	}
	triggers := DetectBranches(chunks, nil, 0.6)
	require.NotEmpty(t, triggers)
	assert.Equal(t, []string{"a", "b", "c"}, triggers[0].LedTo)
}

type failingVectors struct {
	store.VectorStore
}

func (failingVectors) FetchMany(ctx context.Context, ids []string) (map[string]store.VectorRecord, error) {
	return nil, errors.New("timeout")
}

func TestBranchTriggersSurviveVectorOutage(t *testing.T) {
	a, _ := newAnalyzer(t, nil, chunk("c1", hours(0), "go"))
	a.Vectors = failingVectors{}
	assert.Len(t, a.BranchTriggers(context.Background(), "u1"), 1)
}

func TestKnowledgeEvolutionFromChunks(t *testing.T) {
	a, _ := newAnalyzer(t, &drivertest.Driver{Err: errors.New("graph down")},
		chunk("c1", hours(0), "a", "b"),
		chunk("c2", hours(1), "a", "c"),
		chunk("c3", hours(2), "d"),
		chunk("c4", hours(3), "e", "a"),
	)

	evo := a.KnowledgeEvolution(context.Background(), "u1")

	require.Len(t, evo.Nodes, 5)
	assert.Equal(t, "a", evo.Nodes[0].Label)
	assert.Equal(t, 3, evo.Nodes[0].Count)
	require.NotNil(t, evo.Nodes[0].FirstSeen)
	assert.Equal(t, hours(0), *evo.Nodes[0].FirstSeen)

	assert.Len(t, evo.Edges, 3)
	for _, e := range evo.Edges {
		assert.Equal(t, "topic_0", e.Source)
		assert.Equal(t, 1, e.Weight)
	}

	var topics []string
	for _, b := range evo.NewBranches {
		topics = append(topics, b.Topic)
	}
	assert.Equal(t, []string{"c", "d", "e"}, topics)
	assert.Equal(t, []string{"a"}, evo.NewBranches[0].RelatedTopics)
	assert.Empty(t, evo.NewBranches[1].RelatedTopics)

	assert.Equal(t, [][]string{{"a", "b", "c", "e"}}, evo.Clusters)
}

func TestKnowledgeEvolutionFromGraph(t *testing.T) {
	graph := &drivertest.Driver{
		Handler: func(query string, params map[string]interface{}) (neo4j.EagerResult, error) {
			switch query {
			case driver.ConceptTimelineQuery:
				return drivertest.Result([]string{"name", "count", "first_seen"},
					[]any{"go", int64(4), hours(0)},
					[]any{"graphs", int64(2), hours(1)},
				), nil
			case driver.ConceptCooccurrenceQuery:
				assert.Equal(t, 50, params["limit"])
				return drivertest.Result([]string{"source", "target", "weight"},
					[]any{"go", "graphs", int64(2)},
					[]any{"go", "unknown", int64(1)},
				), nil
			}
			return neo4j.EagerResult{}, nil
		},
	}
	a, _ := newAnalyzer(t, graph, chunk("c1", hours(0), "go", "graphs"))

	evo := a.KnowledgeEvolution(context.Background(), "u1")
	require.Len(t, evo.Nodes, 2)
	assert.Equal(t, "go", evo.Nodes[0].Label)
	assert.Equal(t, 4, evo.Nodes[0].Count)
	require.Len(t, evo.Edges, 1)
	assert.Equal(t, model.TopicEdge{ID: "edge_topic_0_topic_1", Source: "topic_0", Target: "topic_1", Weight: 2, Type: "related"}, evo.Edges[0])
	assert.Equal(t, [][]string{{"go", "graphs"}}, evo.Clusters)
	assert.Empty(t, evo.NewBranches)
}

func TestKnowledgeEvolutionEmpty(t *testing.T) {
	a, _ := newAnalyzer(t, nil)
	evo := a.KnowledgeEvolution(context.Background(), "u1")
	assert.Equal(t, model.EmptyEvolution(), evo)
}

func TestNewBranchesNeedMoreThanThreeTopics(t *testing.T) {
	branches := NewBranches([]model.Chunk{
		chunk("c1", hours(0), "a"),
		chunk("c2", hours(1), "b"),
		chunk("c3", hours(2), "c"),
	})
	assert.NotNil(t, branches)
	assert.Empty(t, branches)
}
