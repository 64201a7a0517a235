package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/agenthands/cognivault/internal/config"
	"github.com/agenthands/cognivault/internal/core/embedding"
	"github.com/agenthands/cognivault/internal/core/extraction"
	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/agenthands/cognivault/internal/core/similarity"
	"github.com/agenthands/cognivault/internal/core/summary"
	"github.com/agenthands/cognivault/internal/driver"
	"github.com/agenthands/cognivault/internal/store"
	"github.com/agenthands/cognivault/internal/store/memory"
)

var errOffline = errors.New("connection refused")

type failingChunks struct {
	*memory.Store
}

func (failingChunks) InsertChunk(ctx context.Context, c model.Chunk) error {
	return errOffline
}

type failingVectors struct {
	*memory.VectorStore
}

func (failingVectors) Upsert(ctx context.Context, r store.VectorRecord) error {
	return errOffline
}

type stubReranker struct {
	order []int
	err   error
}

func (s stubReranker) Rank(ctx context.Context, query string, docs []string) ([]int, error) {
	return s.order, s.err
}

type fixture struct {
	vault   *Vault
	writer  *Writer
	docs    *memory.Store
	vectors *memory.VectorStore
}

// newFixture wires a vault over in-memory stores with no LLM, so every
// enrichment takes the deterministic fallback.
func newFixture(t *testing.T, graph driver.GraphDriver) fixture {
	t.Helper()
	docs := memory.NewStore()
	vectors := memory.NewVectorStore()
	return newFixtureWith(t, graph, docs, docs, vectors, vectors)
}

func newFixtureWith(t *testing.T, graph driver.GraphDriver, docs *memory.Store, documents store.DocumentStore, vectors *memory.VectorStore, vectorStore store.VectorStore) fixture {
	t.Helper()
	gen := embedding.NewGenerator(nil, 8)
	writer := NewWriter(graph, documents, docs, vectorStore, gen)

	seq := 0
	writer.NewID = func() string {
		seq++
		return fmt.Sprintf("%03d", seq)
	}
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	writer.Now = func() time.Time { return clock }

	policy := similarity.DefaultPolicy()
	v := NewVault(Options{
		Graph:      graph,
		Documents:  documents,
		Vectors:    vectorStore,
		Extractor:  extraction.NewExtractor(nil, ""),
		Summarizer: summary.NewSummarizer(nil, config.DefaultPrompts()),
		Writer:     writer,
		Linker:     similarity.NewLinker(graph, vectorStore, documents, gen, policy),
		Policy:     policy,
		ChunkSize:  200,
	})
	v.NewID = func() string { return "file-1" }
	v.Now = writer.Now
	return fixture{vault: v, writer: writer, docs: docs, vectors: vectors}
}
