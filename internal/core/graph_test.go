package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/agenthands/cognivault/internal/driver"
	"github.com/agenthands/cognivault/internal/driver/drivertest"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nodeKeys = []string{"id", "type", "label", "props"}

func graphHandler(nodes, edges neo4j.EagerResult) func(string, map[string]interface{}) (neo4j.EagerResult, error) {
	return func(query string, params map[string]interface{}) (neo4j.EagerResult, error) {
		if query == driver.GraphEdgesQuery {
			return edges, nil
		}
		return nodes, nil
	}
}

func TestFullGraph(t *testing.T) {
	nodes := drivertest.Result(nodeKeys,
		[]any{"mem_1", "Memory", "Channels", map[string]any{"summary": "Channels", "embedding": []any{0.1}}},
		[]any{"concept_1", "Concept", "go", map[string]any{"name": "go"}},
		[]any{"mem_1", "Memory", "Channels", map[string]any{}},
	)
	edges := drivertest.Result([]string{"source", "target", "type", "props"},
		[]any{"mem_1", "concept_1", "TAGGED_WITH", map[string]any{}},
	)
	graph := &drivertest.Driver{Handler: graphHandler(nodes, edges)}
	f := newFixture(t, graph)

	g, err := f.vault.FullGraph(context.Background(), "u1", 0)
	require.NoError(t, err)

	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "memory", g.Nodes[0].Type)
	assert.Equal(t, "concept", g.Nodes[1].Type)
	assert.NotContains(t, g.Nodes[0].Properties, "embedding")

	require.Len(t, g.Edges, 1)
	assert.Equal(t, "mem_1-TAGGED_WITH-concept_1", g.Edges[0].ID)
	assert.Equal(t, "TAGGED_WITH", g.Edges[0].Label)

	assert.Equal(t, DefaultGraphLimit, graph.Calls[0].Params["limit"])
	edgeCalls := graph.Matching("properties(r)")
	require.Len(t, edgeCalls, 1)
	assert.Equal(t, []string{"mem_1", "concept_1"}, edgeCalls[0].Params["ids"])
}

func TestFullGraphEmpty(t *testing.T) {
	graph := &drivertest.Driver{}
	f := newFixture(t, graph)

	g, err := f.vault.FullGraph(context.Background(), "u1", 50)
	require.NoError(t, err)
	assert.Empty(t, g.Nodes)
	assert.NotNil(t, g.Edges)
	assert.Len(t, graph.Calls, 1)
}

func TestSubgraph(t *testing.T) {
	graph := &drivertest.Driver{}
	f := newFixture(t, graph)
	ctx := context.Background()

	_, err := f.vault.Subgraph(ctx, "u1", "mem_missing", 2)
	assert.ErrorIs(t, err, model.ErrNotFound)

	graph.Default = drivertest.Result(nodeKeys, []any{"mem_1", "Memory", "Channels", map[string]any{}})
	_, err = f.vault.Subgraph(ctx, "u1", "mem_1", 9)
	require.NoError(t, err)
	_, err = f.vault.Subgraph(ctx, "u1", "mem_1", 0)
	require.NoError(t, err)

	assert.Len(t, graph.Matching("*1..3"), 1)
	assert.Len(t, graph.Matching("*1..1"), 1)
}

func TestClampDepth(t *testing.T) {
	assert.Equal(t, 1, ClampDepth(-4))
	assert.Equal(t, 2, ClampDepth(2))
	assert.Equal(t, 3, ClampDepth(10))
}

func searchDriver() *drivertest.Driver {
	return &drivertest.Driver{Default: drivertest.Result(nodeKeys,
		[]any{"a", "Memory", "first", map[string]any{"summary": "first match"}},
		[]any{"b", "Concept", "second", map[string]any{}},
		[]any{"c", "Entity", "third", map[string]any{}},
	)}
}

func ids(nodes []model.GraphNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("database order", func(t *testing.T) {
		graph := searchDriver()
		f := newFixture(t, graph)
		nodes, err := f.vault.Search(ctx, "u1", "chan", "Memory")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, ids(nodes))
		assert.Equal(t, "Memory", graph.Calls[0].Params["type"])
		assert.Equal(t, SearchLimit, graph.Calls[0].Params["limit"])
	})

	t.Run("reranked", func(t *testing.T) {
		f := newFixture(t, searchDriver())
		f.vault.Reranker = stubReranker{order: []int{2, 0, 1}}
		nodes, err := f.vault.Search(ctx, "u1", "chan", "")
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "a", "b"}, ids(nodes))
	})

	t.Run("reranker failure keeps order", func(t *testing.T) {
		f := newFixture(t, searchDriver())
		f.vault.Reranker = stubReranker{err: errors.New("quota")}
		nodes, err := f.vault.Search(ctx, "u1", "chan", "")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, ids(nodes))

		f.vault.Reranker = stubReranker{order: []int{1}}
		nodes, err = f.vault.Search(ctx, "u1", "chan", "")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, ids(nodes))
	})

	t.Run("graph offline", func(t *testing.T) {
		f := newFixture(t, &drivertest.Driver{Err: errOffline})
		_, err := f.vault.Search(ctx, "u1", "chan", "")
		assert.ErrorIs(t, err, errOffline)
	})
}

func TestStats(t *testing.T) {
	graph := &drivertest.Driver{Handler: func(query string, params map[string]interface{}) (neo4j.EagerResult, error) {
		switch query {
		case driver.CountNodesByTypeQuery:
			return drivertest.Result([]string{"type", "count"},
				[]any{"Memory", int64(3)},
				[]any{"Concept", int64(2)},
			), nil
		case driver.CountEdgesQuery:
			return drivertest.Result([]string{"count"}, []any{int64(4)}), nil
		case driver.TopConceptsQuery:
			return drivertest.Result([]string{"name", "count"}, []any{"go", int64(3)}), nil
		case driver.RecentMemoriesQuery:
			return drivertest.Result([]string{"id", "summary"}, []any{"mem_3", "latest"}), nil
		}
		return neo4j.EagerResult{}, nil
	}}
	f := newFixture(t, graph)

	stats, err := f.vault.Stats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalNodes)
	assert.Equal(t, 4, stats.TotalEdges)
	assert.Equal(t, map[string]int{"Memory": 3, "Concept": 2}, stats.NodesByType)
	assert.Equal(t, []model.ConceptCount{{Name: "go", Frequency: 3}}, stats.TopConcepts)
	assert.Equal(t, []model.RecentNode{{ID: "mem_3", Summary: "latest"}}, stats.RecentNodes)
}

func TestStatsGraphOffline(t *testing.T) {
	f := newFixture(t, &drivertest.Driver{Err: errOffline})

	stats, err := f.vault.Stats(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "count nodes"))
	assert.Zero(t, stats.TotalNodes)
	assert.NotNil(t, stats.TopConcepts)
}
