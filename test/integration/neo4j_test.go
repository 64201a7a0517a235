//go:build integration

package integration

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/cognivault/internal/core"
	"github.com/agenthands/cognivault/internal/core/embedding"
	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/agenthands/cognivault/internal/core/similarity"
	"github.com/agenthands/cognivault/internal/driver"
	"github.com/agenthands/cognivault/internal/store/memory"
)

func neo4jDriver(t *testing.T) *driver.Neo4jDriver {
	t.Helper()
	_ = godotenv.Load("../../.env")

	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		t.Skip("Skipping integration test: NEO4J_URI not set")
	}
	d, err := driver.NewNeo4jDriver(context.Background(), uri, os.Getenv("NEO4J_USER"), os.Getenv("NEO4J_PASSWORD"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close(context.Background()) })
	require.NoError(t, d.BuildIndices(context.Background()))
	return d
}

func TestNeo4jWriteSearchClear(t *testing.T) {
	ctx := context.Background()
	graph := neo4jDriver(t)
	userID := "it_" + uuid.New().String()

	docs := memory.NewStore()
	vectors := memory.NewVectorStore()
	gen := embedding.NewGenerator(nil, 64)
	policy := similarity.DefaultPolicy()
	writer := core.NewWriter(graph, docs, docs, vectors, gen)
	vault := core.NewVault(core.Options{
		Graph:     graph,
		Documents: docs,
		Vectors:   vectors,
		Writer:    writer,
		Linker:    similarity.NewLinker(graph, vectors, docs, gen, policy),
		Policy:    policy,
	})
	t.Cleanup(func() { _, _ = vault.Clear(context.Background(), userID) })

	first, err := writer.Write(ctx, core.MemoryInput{
		UserID:      userID,
		Text:        "Goroutines are multiplexed onto operating system threads.",
		TotalChunks: 1,
		Enrichment: model.Enrichment{
			Summary:  "Goroutine scheduling",
			Tags:     []string{"go", "concurrency"},
			Entities: []model.EntityRef{{Name: "Go runtime", Type: "TECHNOLOGY"}},
		},
	})
	require.NoError(t, err)
	assert.True(t, first.GraphCommitted())

	second, err := writer.Write(ctx, core.MemoryInput{
		UserID:      userID,
		Text:        "Goroutines are multiplexed onto operating system threads by the scheduler.",
		TotalChunks: 1,
		Enrichment:  model.Enrichment{Summary: "Go scheduler", Tags: []string{"go"}},
	})
	require.NoError(t, err)

	full, err := vault.FullGraph(ctx, userID, core.DefaultGraphLimit)
	require.NoError(t, err)
	ids := make([]string, 0, len(full.Nodes))
	for _, n := range full.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Contains(t, ids, first.Chunk.ChunkID)
	assert.Contains(t, ids, second.Chunk.ChunkID)
	assert.NotEmpty(t, full.Edges)

	edges, err := vault.LinkSimilar(ctx, userID, first.Chunk.ChunkID)
	require.NoError(t, err)
	again, err := vault.LinkSimilar(ctx, userID, first.Chunk.ChunkID)
	require.NoError(t, err)
	assert.Len(t, again, len(edges))

	found, err := vault.Search(ctx, userID, "scheduler", "")
	require.NoError(t, err)
	assert.NotEmpty(t, found)

	sub, err := vault.Subgraph(ctx, userID, first.Chunk.ChunkID, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, sub.Nodes)

	stats, err := vault.Stats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.NodesByType["Memory"])

	report, err := vault.Clear(ctx, userID)
	require.NoError(t, err)
	assert.Positive(t, report.Graph)

	empty, err := vault.FullGraph(ctx, userID, core.DefaultGraphLimit)
	require.NoError(t, err)
	assert.Empty(t, empty.Nodes)
}
