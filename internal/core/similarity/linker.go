package similarity

import (
	"context"
	"errors"
	"fmt"

	"github.com/agenthands/cognivault/internal/core/embedding"
	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/agenthands/cognivault/internal/driver"
	"github.com/agenthands/cognivault/internal/logger"
	"github.com/agenthands/cognivault/internal/store"
)

const EdgeType = "SIMILAR_TO"

// Linker connects a memory to its nearest neighbours in the graph.
type Linker struct {
	Graph     driver.GraphDriver
	Vectors   store.VectorStore
	Documents store.DocumentStore
	Embedder  *embedding.Generator
	Policy    Policy
}

func NewLinker(graph driver.GraphDriver, vectors store.VectorStore, documents store.DocumentStore, embedder *embedding.Generator, policy Policy) *Linker {
	return &Linker{
		Graph:     graph,
		Vectors:   vectors,
		Documents: documents,
		Embedder:  embedder,
		Policy:    policy,
	}
}

func (l *Linker) Link(ctx context.Context, chunkID, userID string) ([]model.SimilarityEdge, error) {
	return l.LinkTop(ctx, chunkID, userID, l.Policy.TopK)
}

// LinkTop merges SIMILAR_TO edges to at most topK neighbours that pass the
// policy threshold. Re-linking overwrites scores and never duplicates edges.
func (l *Linker) LinkTop(ctx context.Context, chunkID, userID string, topK int) ([]model.SimilarityEdge, error) {
	vector, err := l.vectorFor(ctx, chunkID, userID)
	if err != nil {
		return nil, err
	}

	// One extra slot because the chunk finds itself.
	matches, err := l.Vectors.Query(ctx, vector, topK+1, userID)
	if err != nil {
		return nil, &model.StoreError{Store: model.StoreVector, Op: "query", Err: err}
	}

	edges := []model.SimilarityEdge{}
	var firstErr error
	for _, m := range matches {
		if m.ID == chunkID || !l.Policy.Links(m.Score) {
			continue
		}
		if len(edges) == topK {
			break
		}

		low, high := CanonicalPair(chunkID, m.ID)
		res, err := l.Graph.ExecuteQuery(ctx, driver.MergeSimilarityQuery, map[string]interface{}{
			"low":     low,
			"high":    high,
			"user_id": userID,
			"score":   m.Score,
		})
		if err != nil {
			logger.Warn("failed to merge similarity edge", "chunk_id", chunkID, "neighbour", m.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(res.Records) == 0 || driver.RecordInt(res.Records[0], "linked") == 0 {
			logger.Debug("similarity endpoints missing from graph", "chunk_id", chunkID, "neighbour", m.ID)
			continue
		}
		edges = append(edges, model.SimilarityEdge{Source: chunkID, Target: m.ID, Type: EdgeType, Score: m.Score})
	}

	if len(edges) == 0 && firstErr != nil {
		return edges, &model.StoreError{Store: model.StoreGraph, Op: "merge similarity", Err: firstErr}
	}
	return edges, nil
}

// vectorFor prefers the stored vector and re-embeds from the document store
// when the vector write never landed.
func (l *Linker) vectorFor(ctx context.Context, chunkID, userID string) ([]float32, error) {
	rec, err := l.Vectors.Fetch(ctx, chunkID)
	if err == nil {
		if rec.Metadata.UserID != userID {
			return nil, fmt.Errorf("memory %s: %w", chunkID, model.ErrNotFound)
		}
		return rec.Values, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, &model.StoreError{Store: model.StoreVector, Op: "fetch", Err: err}
	}

	chunk, err := l.Documents.GetChunk(ctx, chunkID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("memory %s: %w", chunkID, model.ErrNotFound)
		}
		return nil, &model.StoreError{Store: model.StoreDocument, Op: "get chunk", Err: err}
	}
	if chunk.UserID != userID {
		return nil, fmt.Errorf("memory %s: %w", chunkID, model.ErrNotFound)
	}

	emb := l.Embedder.Embed(ctx, chunk.Text)
	if err := l.Vectors.Upsert(ctx, store.VectorRecord{
		ID:       chunkID,
		Values:   emb.Vector,
		Metadata: VectorMetadata(chunk),
	}); err != nil {
		logger.Warn("failed to restore missing vector", "chunk_id", chunkID, "error", err)
	}
	return emb.Vector, nil
}

// VectorMetadata is the metadata stored beside a chunk's vector.
func VectorMetadata(c model.Chunk) store.VectorMetadata {
	return store.VectorMetadata{
		ChunkID:    c.ChunkID,
		FileID:     c.FileID,
		UserID:     c.UserID,
		FileName:   c.FileName,
		ChunkIndex: c.Index,
		Summary:    c.Summary,
		Timestamp:  c.CreatedAt,
	}
}
