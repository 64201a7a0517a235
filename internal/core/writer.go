package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agenthands/cognivault/internal/core/common"
	"github.com/agenthands/cognivault/internal/core/embedding"
	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/agenthands/cognivault/internal/core/similarity"
	"github.com/agenthands/cognivault/internal/driver"
	"github.com/agenthands/cognivault/internal/logger"
	"github.com/agenthands/cognivault/internal/store"
)

// MemoryInput is one enriched chunk ready to be persisted.
type MemoryInput struct {
	UserID      string
	FileID      string
	FileName    string
	Text        string
	Index       int
	TotalChunks int
	CharOffset  int
	Enrichment  model.Enrichment
}

type WriteResult struct {
	Chunk     model.Chunk
	Intent    model.WriteIntent
	Committed []string
}

func (r WriteResult) GraphCommitted() bool {
	return r.Intent.Graph == model.IntentCommitted
}

// Writer persists a chunk to the graph, document and vector stores under
// one id and records the outcome per store in a write intent.
type Writer struct {
	Graph     driver.GraphDriver
	Documents store.DocumentStore
	Intents   store.IntentStore
	Vectors   store.VectorStore
	Embedder  *embedding.Generator

	NewID func() string
	Now   func() time.Time
}

func NewWriter(graph driver.GraphDriver, documents store.DocumentStore, intents store.IntentStore, vectors store.VectorStore, embedder *embedding.Generator) *Writer {
	return &Writer{
		Graph:     graph,
		Documents: documents,
		Intents:   intents,
		Vectors:   vectors,
		Embedder:  embedder,
		NewID:     func() string { return uuid.New().String() },
		Now:       time.Now,
	}
}

// Write attempts every store independently. Only a failed document write is
// returned as an error; graph and vector failures are left to the reconciler.
func (w *Writer) Write(ctx context.Context, in MemoryInput) (WriteResult, error) {
	// A started write sequence finishes even if the client goes away.
	ctx = context.WithoutCancel(ctx)

	now := w.Now().UTC()
	chunk := model.Chunk{
		ChunkID:     "mem_" + w.NewID(),
		FileID:      in.FileID,
		UserID:      in.UserID,
		FileName:    in.FileName,
		Text:        in.Text,
		Index:       in.Index,
		TotalChunks: in.TotalChunks,
		CharOffset:  in.CharOffset,
		Summary:     in.Enrichment.Summary,
		Tags:        normalizeTags(in.Enrichment.Tags),
		Entities:    nonNilEntities(in.Enrichment.Entities),
		Relations:   nonNilRelations(in.Enrichment.Relations),
		CharCount:   len([]rune(in.Text)),
		CreatedAt:   now,
	}
	chunk.VectorID = chunk.ChunkID

	intent := model.NewWriteIntent(chunk.ChunkID, chunk.UserID, now)
	if err := w.Intents.CreateIntent(ctx, intent); err != nil {
		logger.Error("failed to record write intent", "chunk_id", chunk.ChunkID, "error", err)
	}

	graphErr := w.WriteGraph(ctx, chunk)
	if graphErr == nil {
		chunk.GraphNodeID = chunk.ChunkID
	}
	docErr := w.Documents.InsertChunk(ctx, chunk)
	vecErr := w.WriteVector(ctx, chunk)

	intent.Graph = outcome(graphErr)
	intent.Document = outcome(docErr)
	intent.Vector = outcome(vecErr)
	intent.UpdatedAt = w.Now().UTC()
	if err := errors.Join(graphErr, docErr, vecErr); err != nil {
		intent.LastError = err.Error()
	}
	if err := w.Intents.UpdateIntent(ctx, intent); err != nil {
		logger.Error("failed to update write intent", "chunk_id", chunk.ChunkID, "error", err)
	}

	res := WriteResult{Chunk: chunk, Intent: intent, Committed: []string{}}
	for _, s := range []struct {
		name string
		err  error
	}{
		{model.StoreGraph, graphErr},
		{model.StoreDocument, docErr},
		{model.StoreVector, vecErr},
	} {
		if s.err == nil {
			res.Committed = append(res.Committed, s.name)
			continue
		}
		logger.Error("StorePartialFailure", "store", s.name, "chunk_id", chunk.ChunkID, "error", s.err)
	}

	if docErr != nil {
		return res, &model.StoreError{Store: model.StoreDocument, Op: "insert chunk", Err: docErr}
	}
	return res, nil
}

// WriteGraph creates the Memory node and its Concept, Entity, Source and
// relation edges. Every statement is a MERGE so a retry is harmless.
func (w *Writer) WriteGraph(ctx context.Context, c model.Chunk) error {
	now := c.CreatedAt
	if now.IsZero() {
		now = w.Now().UTC()
	}

	if _, err := w.Graph.ExecuteQuery(ctx, driver.SaveMemoryNodeQuery, map[string]interface{}{
		"id":          c.ChunkID,
		"user_id":     c.UserID,
		"text":        c.Text,
		"summary":     c.Summary,
		"tags":        c.Tags,
		"file_id":     c.SourceID(),
		"chunk_index": c.Index,
		"created_at":  now,
	}); err != nil {
		return fmt.Errorf("failed to save memory node: %w", err)
	}

	for _, tag := range c.Tags {
		if _, err := w.Graph.ExecuteQuery(ctx, driver.TagMemoryQuery, map[string]interface{}{
			"memory_id":  c.ChunkID,
			"name":       tag,
			"user_id":    c.UserID,
			"concept_id": "concept_" + w.NewID(),
			"created_at": now,
		}); err != nil {
			return fmt.Errorf("failed to tag memory with %q: %w", tag, err)
		}
	}

	for _, e := range c.Entities {
		if _, err := w.Graph.ExecuteQuery(ctx, driver.MentionEntityQuery, map[string]interface{}{
			"memory_id":  c.ChunkID,
			"name":       e.Name,
			"type":       e.Type,
			"user_id":    c.UserID,
			"entity_id":  "ent_" + w.NewID(),
			"created_at": now,
		}); err != nil {
			return fmt.Errorf("failed to link entity %q: %w", e.Name, err)
		}
	}

	if c.FileID != "" {
		if _, err := w.Graph.ExecuteQuery(ctx, driver.DeriveFromSourceQuery, map[string]interface{}{
			"memory_id":  c.ChunkID,
			"source_id":  "source_" + c.FileID,
			"user_id":    c.UserID,
			"file_name":  c.FileName,
			"created_at": now,
		}); err != nil {
			return fmt.Errorf("failed to link source: %w", err)
		}
	}

	for _, r := range c.Relations {
		if r.Subject == "" || r.Predicate == "" || r.Object == "" {
			continue
		}
		if _, err := w.Graph.ExecuteQuery(ctx, driver.RelateMemoryQuery, map[string]interface{}{
			"memory_id": c.ChunkID,
			"subject":   r.Subject,
			"predicate": r.Predicate,
			"object":    r.Object,
		}); err != nil {
			return fmt.Errorf("failed to save relation: %w", err)
		}
	}
	return nil
}

// WriteVector embeds the chunk text and upserts it under the chunk id.
func (w *Writer) WriteVector(ctx context.Context, c model.Chunk) error {
	emb := w.Embedder.Embed(ctx, c.Text)
	if emb.Fallback {
		logger.Debug("stored fallback embedding", "chunk_id", c.ChunkID)
	}
	if err := w.Vectors.Upsert(ctx, store.VectorRecord{
		ID:       c.ChunkID,
		Values:   emb.Vector,
		Metadata: similarity.VectorMetadata(c),
	}); err != nil {
		return fmt.Errorf("failed to upsert vector: %w", err)
	}
	return nil
}

func outcome(err error) model.IntentState {
	if err != nil {
		return model.IntentFailed
	}
	return model.IntentCommitted
}

func normalizeTags(tags []string) []string {
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

func nonNilEntities(e []model.EntityRef) []model.EntityRef {
	if e == nil {
		return []model.EntityRef{}
	}
	return e
}

func nonNilRelations(r []model.Relation) []model.Relation {
	if r == nil {
		return []model.Relation{}
	}
	return r
}
