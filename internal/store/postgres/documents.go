package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/agenthands/cognivault/internal/store"
)

// Store implements store.DocumentStore and store.IntentStore.
type Store struct {
	Pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) CreateFile(ctx context.Context, f model.SourceFile) error {
	analysis, err := marshalAnalysis(f.Analysis)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
INSERT INTO source_files (file_id, user_id, file_name, file_type, file_size, upload_date,
  document_analysis, status, total_chunks, total_characters, error)
VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9, $10, $11)`,
		f.FileID, f.UserID, f.FileName, f.FileType, f.FileSize, f.UploadDate,
		analysis, string(f.Status), f.TotalChunks, f.TotalCharacters, f.Error,
	)
	if err != nil {
		return fmt.Errorf("insert file %s: %w", f.FileID, err)
	}
	return nil
}

func (s *Store) UpdateFile(ctx context.Context, fileID string, u store.FileUpdate) error {
	analysis, err := marshalAnalysis(u.Analysis)
	if err != nil {
		return err
	}
	tag, err := s.Pool.Exec(ctx, `
UPDATE source_files
SET status = $2, total_chunks = $3, total_characters = $4, error = $5,
    document_analysis = COALESCE($6::jsonb, document_analysis)
WHERE file_id = $1 AND status = 'processing'`,
		fileID, string(u.Status), u.TotalChunks, u.TotalCharacters, u.Error, analysis,
	)
	if err != nil {
		return fmt.Errorf("update file %s: %w", fileID, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := s.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM source_files WHERE file_id = $1)`, fileID).Scan(&exists); err != nil {
		return fmt.Errorf("check file %s: %w", fileID, err)
	}
	if !exists {
		return fmt.Errorf("file %s: %w", fileID, model.ErrNotFound)
	}
	return fmt.Errorf("file %s: %w", fileID, store.ErrFileSettled)
}

const fileColumns = `file_id, user_id, file_name, file_type, file_size, upload_date,
  document_analysis, status, total_chunks, total_characters, error`

func scanFile(row pgx.Row) (model.SourceFile, error) {
	var (
		f        model.SourceFile
		analysis []byte
		status   string
	)
	err := row.Scan(&f.FileID, &f.UserID, &f.FileName, &f.FileType, &f.FileSize, &f.UploadDate,
		&analysis, &status, &f.TotalChunks, &f.TotalCharacters, &f.Error)
	if err != nil {
		return model.SourceFile{}, err
	}
	f.Status = model.FileStatus(status)
	if len(analysis) > 0 {
		var a model.DocumentAnalysis
		if err := json.Unmarshal(analysis, &a); err != nil {
			return model.SourceFile{}, fmt.Errorf("decode analysis for %s: %w", f.FileID, err)
		}
		f.Analysis = &a
	}
	return f, nil
}

func (s *Store) GetFile(ctx context.Context, userID, fileID string) (model.SourceFile, error) {
	f, err := scanFile(s.Pool.QueryRow(ctx, `SELECT `+fileColumns+` FROM source_files WHERE file_id = $1 AND user_id = $2`, fileID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.SourceFile{}, fmt.Errorf("file %s: %w", fileID, model.ErrNotFound)
	}
	if err != nil {
		return model.SourceFile{}, fmt.Errorf("get file %s: %w", fileID, err)
	}
	return f, nil
}

func (s *Store) ListFiles(ctx context.Context, userID string, limit int) ([]model.SourceFile, error) {
	query := `SELECT ` + fileColumns + ` FROM source_files WHERE user_id = $1 ORDER BY upload_date DESC, file_id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	out := make([]model.SourceFile, 0, 16)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return out, nil
}

func (s *Store) InsertChunk(ctx context.Context, c model.Chunk) error {
	entities, err := json.Marshal(nonNil(c.Entities))
	if err != nil {
		return err
	}
	relations, err := json.Marshal(nonNil(c.Relations))
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
INSERT INTO chunks (chunk_id, file_id, user_id, file_name, chunk_text, chunk_index, total_chunks,
  char_offset, summary, tags, entities, relations, vector_id, graph_node_id, char_count, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12::jsonb, $13, $14, $15, $16)
ON CONFLICT (chunk_id) DO UPDATE SET
  chunk_text = EXCLUDED.chunk_text,
  summary = EXCLUDED.summary,
  tags = EXCLUDED.tags,
  entities = EXCLUDED.entities,
  relations = EXCLUDED.relations`,
		c.ChunkID, c.FileID, c.UserID, c.FileName, c.Text, c.Index, c.TotalChunks,
		c.CharOffset, c.Summary, nonNil(c.Tags), string(entities), string(relations),
		c.VectorID, c.GraphNodeID, c.CharCount, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert chunk %s: %w", c.ChunkID, err)
	}
	return nil
}

const chunkColumns = `chunk_id, file_id, user_id, file_name, chunk_text, chunk_index, total_chunks,
  char_offset, summary, tags, entities, relations, vector_id, graph_node_id, char_count, created_at`

func scanChunk(row pgx.Row) (model.Chunk, error) {
	var (
		c                   model.Chunk
		entities, relations []byte
	)
	err := row.Scan(&c.ChunkID, &c.FileID, &c.UserID, &c.FileName, &c.Text, &c.Index, &c.TotalChunks,
		&c.CharOffset, &c.Summary, &c.Tags, &entities, &relations, &c.VectorID, &c.GraphNodeID,
		&c.CharCount, &c.CreatedAt)
	if err != nil {
		return model.Chunk{}, err
	}
	if err := json.Unmarshal(entities, &c.Entities); err != nil {
		return model.Chunk{}, fmt.Errorf("decode entities for %s: %w", c.ChunkID, err)
	}
	if err := json.Unmarshal(relations, &c.Relations); err != nil {
		return model.Chunk{}, fmt.Errorf("decode relations for %s: %w", c.ChunkID, err)
	}
	return c, nil
}

func (s *Store) GetChunk(ctx context.Context, chunkID string) (model.Chunk, error) {
	c, err := scanChunk(s.Pool.QueryRow(ctx, `SELECT `+chunkColumns+` FROM chunks WHERE chunk_id = $1`, chunkID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Chunk{}, fmt.Errorf("chunk %s: %w", chunkID, model.ErrNotFound)
	}
	if err != nil {
		return model.Chunk{}, fmt.Errorf("get chunk %s: %w", chunkID, err)
	}
	return c, nil
}

func (s *Store) ListChunks(ctx context.Context, userID string) ([]model.Chunk, error) {
	return s.queryChunks(ctx, `SELECT `+chunkColumns+` FROM chunks WHERE user_id = $1
ORDER BY created_at ASC, chunk_index ASC, chunk_id ASC`, userID)
}

func (s *Store) ListFileChunks(ctx context.Context, userID, fileID string) ([]model.Chunk, error) {
	return s.queryChunks(ctx, `SELECT `+chunkColumns+` FROM chunks WHERE user_id = $1 AND file_id = $2
ORDER BY chunk_index ASC`, userID, fileID)
}

func (s *Store) queryChunks(ctx context.Context, query string, args ...any) ([]model.Chunk, error) {
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	out := make([]model.Chunk, 0, 64)
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return out, nil
}

func (s *Store) SetGraphNodeID(ctx context.Context, chunkID, nodeID string) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE chunks SET graph_node_id = $2 WHERE chunk_id = $1`, chunkID, nodeID)
	if err != nil {
		return fmt.Errorf("set graph node for %s: %w", chunkID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("chunk %s: %w", chunkID, model.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, userID string) (int, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx delete user: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	chunks, err := tx.Exec(ctx, `DELETE FROM chunks WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete chunks: %w", err)
	}
	files, err := tx.Exec(ctx, `DELETE FROM source_files WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete files: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM write_intents WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("delete intents: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit delete user: %w", err)
	}
	return int(chunks.RowsAffected() + files.RowsAffected()), nil
}

func marshalAnalysis(a *model.DocumentAnalysis) (*string, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode analysis: %w", err)
	}
	s := string(b)
	return &s, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
