package postgres

import (
	"context"
	"fmt"

	"github.com/agenthands/cognivault/internal/core/model"
)

func (s *Store) CreateIntent(ctx context.Context, w model.WriteIntent) error {
	_, err := s.Pool.Exec(ctx, `
INSERT INTO write_intents (chunk_id, user_id, graph_state, document_state, vector_state,
  attempts, last_error, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		w.ChunkID, w.UserID, string(w.Graph), string(w.Document), string(w.Vector),
		w.Attempts, w.LastError, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert intent %s: %w", w.ChunkID, err)
	}
	return nil
}

func (s *Store) UpdateIntent(ctx context.Context, w model.WriteIntent) error {
	tag, err := s.Pool.Exec(ctx, `
UPDATE write_intents
SET graph_state = $2, document_state = $3, vector_state = $4, attempts = $5, last_error = $6, updated_at = $7
WHERE chunk_id = $1`,
		w.ChunkID, string(w.Graph), string(w.Document), string(w.Vector), w.Attempts, w.LastError, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update intent %s: %w", w.ChunkID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("intent %s: %w", w.ChunkID, model.ErrNotFound)
	}
	return nil
}

func (s *Store) ListUnsettled(ctx context.Context, limit, maxAttempts int) ([]model.WriteIntent, error) {
	if limit <= 0 {
		limit = 50
	}
	if maxAttempts <= 0 {
		maxAttempts = int(^uint32(0) >> 1)
	}
	rows, err := s.Pool.Query(ctx, `
SELECT chunk_id, user_id, graph_state, document_state, vector_state, attempts, last_error, created_at, updated_at
FROM write_intents
WHERE document_state <> 'abandoned'
  AND NOT (graph_state = 'committed' AND document_state = 'committed' AND vector_state = 'committed')
  AND attempts < $2
ORDER BY created_at ASC, chunk_id ASC
LIMIT $1`, limit, maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("list intents: %w", err)
	}
	defer rows.Close()

	out := make([]model.WriteIntent, 0, limit)
	for rows.Next() {
		var (
			w                       model.WriteIntent
			graph, document, vector string
		)
		if err := rows.Scan(&w.ChunkID, &w.UserID, &graph, &document, &vector, &w.Attempts, &w.LastError, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan intent: %w", err)
		}
		w.Graph, w.Document, w.Vector = model.IntentState(graph), model.IntentState(document), model.IntentState(vector)
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate intents: %w", err)
	}
	return out, nil
}
