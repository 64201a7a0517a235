package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/agenthands/cognivault/internal/store"
)

// VectorStore keeps chunk embeddings in a pgvector column with an HNSW
// cosine index.
type VectorStore struct {
	Pool *pgxpool.Pool
}

func NewVectorStore(pool *pgxpool.Pool) *VectorStore {
	return &VectorStore{Pool: pool}
}

func (v *VectorStore) Ping(ctx context.Context) error {
	return v.Pool.Ping(ctx)
}

func (v *VectorStore) Upsert(ctx context.Context, rec store.VectorRecord) error {
	m := rec.Metadata
	_, err := v.Pool.Exec(ctx, `
INSERT INTO chunk_vectors (id, user_id, file_id, file_name, chunk_index, summary, ts, embedding)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
  embedding = EXCLUDED.embedding,
  summary = EXCLUDED.summary,
  ts = EXCLUDED.ts`,
		rec.ID, m.UserID, m.FileID, m.FileName, m.ChunkIndex, m.Summary, m.Timestamp, pgvector.NewVector(rec.Values),
	)
	if err != nil {
		return fmt.Errorf("upsert vector %s: %w", rec.ID, err)
	}
	return nil
}

func (v *VectorStore) Query(ctx context.Context, vector []float32, topK int, userID string) ([]store.Match, error) {
	if topK <= 0 {
		topK = 10
	}
	rows, err := v.Pool.Query(ctx, `
SELECT id, user_id, file_id, file_name, chunk_index, summary, ts,
       1 - (embedding <=> $1) AS score
FROM chunk_vectors
WHERE user_id = $2
ORDER BY embedding <=> $1
LIMIT $3`, pgvector.NewVector(vector), userID, topK)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}
	defer rows.Close()

	out := make([]store.Match, 0, topK)
	for rows.Next() {
		var mt store.Match
		m := &mt.Metadata
		if err := rows.Scan(&mt.ID, &m.UserID, &m.FileID, &m.FileName, &m.ChunkIndex, &m.Summary, &m.Timestamp, &mt.Score); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		m.ChunkID = mt.ID
		out = append(out, mt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return out, nil
}

func scanVector(row pgx.Row) (store.VectorRecord, error) {
	var (
		rec store.VectorRecord
		vec pgvector.Vector
	)
	m := &rec.Metadata
	if err := row.Scan(&rec.ID, &m.UserID, &m.FileID, &m.FileName, &m.ChunkIndex, &m.Summary, &m.Timestamp, &vec); err != nil {
		return store.VectorRecord{}, err
	}
	m.ChunkID = rec.ID
	rec.Values = vec.Slice()
	return rec, nil
}

const vectorColumns = `id, user_id, file_id, file_name, chunk_index, summary, ts, embedding`

func (v *VectorStore) Fetch(ctx context.Context, id string) (store.VectorRecord, error) {
	rec, err := scanVector(v.Pool.QueryRow(ctx, `SELECT `+vectorColumns+` FROM chunk_vectors WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return store.VectorRecord{}, fmt.Errorf("vector %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return store.VectorRecord{}, fmt.Errorf("fetch vector %s: %w", id, err)
	}
	return rec, nil
}

func (v *VectorStore) FetchMany(ctx context.Context, ids []string) (map[string]store.VectorRecord, error) {
	out := make(map[string]store.VectorRecord, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := v.Pool.Query(ctx, `SELECT `+vectorColumns+` FROM chunk_vectors WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch vectors: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		rec, err := scanVector(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vector: %w", err)
		}
		out[rec.ID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vectors: %w", err)
	}
	return out, nil
}

func (v *VectorStore) Delete(ctx context.Context, id string) error {
	if _, err := v.Pool.Exec(ctx, `DELETE FROM chunk_vectors WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete vector %s: %w", id, err)
	}
	return nil
}

func (v *VectorStore) DeleteUser(ctx context.Context, userID string) (int, error) {
	tag, err := v.Pool.Exec(ctx, `DELETE FROM chunk_vectors WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user vectors: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
