// Package store declares the document, intent and vector stores the vault
// writes to. Implementations live in the memory and postgres subpackages.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/agenthands/cognivault/internal/core/model"
)

// ErrFileSettled is returned when updating a file that already left processing.
var ErrFileSettled = errors.New("file status is final")

// FileUpdate moves a processing file to a terminal status.
type FileUpdate struct {
	Status          model.FileStatus
	TotalChunks     int
	TotalCharacters int
	Analysis        *model.DocumentAnalysis
	Error           string
}

type DocumentStore interface {
	CreateFile(ctx context.Context, f model.SourceFile) error
	// UpdateFile applies only while the file is processing.
	UpdateFile(ctx context.Context, fileID string, u FileUpdate) error
	GetFile(ctx context.Context, userID, fileID string) (model.SourceFile, error)
	// ListFiles returns newest first; limit <= 0 means all.
	ListFiles(ctx context.Context, userID string, limit int) ([]model.SourceFile, error)

	InsertChunk(ctx context.Context, c model.Chunk) error
	GetChunk(ctx context.Context, chunkID string) (model.Chunk, error)
	// ListChunks returns the user's chunks oldest first.
	ListChunks(ctx context.Context, userID string) ([]model.Chunk, error)
	ListFileChunks(ctx context.Context, userID, fileID string) ([]model.Chunk, error)
	SetGraphNodeID(ctx context.Context, chunkID, nodeID string) error

	// DeleteUser removes files, chunks and intents, returning the number of
	// files and chunks removed.
	DeleteUser(ctx context.Context, userID string) (int, error)
	Ping(ctx context.Context) error
}

type IntentStore interface {
	CreateIntent(ctx context.Context, w model.WriteIntent) error
	UpdateIntent(ctx context.Context, w model.WriteIntent) error
	// ListUnsettled returns intents that still need work and have been tried
	// fewer than maxAttempts times, oldest first.
	ListUnsettled(ctx context.Context, limit, maxAttempts int) ([]model.WriteIntent, error)
}

type VectorMetadata struct {
	ChunkID    string    `json:"chunk_id"`
	FileID     string    `json:"file_id"`
	UserID     string    `json:"user_id"`
	FileName   string    `json:"file_name"`
	ChunkIndex int       `json:"chunk_index"`
	Summary    string    `json:"summary"`
	Timestamp  time.Time `json:"timestamp"`
}

type VectorRecord struct {
	ID       string
	Values   []float32
	Metadata VectorMetadata
}

type Match struct {
	ID       string
	Score    float64
	Metadata VectorMetadata
}

type VectorStore interface {
	Upsert(ctx context.Context, v VectorRecord) error
	// Query returns up to topK of the user's vectors by descending cosine similarity.
	Query(ctx context.Context, vector []float32, topK int, userID string) ([]Match, error)
	Fetch(ctx context.Context, id string) (VectorRecord, error)
	// FetchMany skips ids that are not stored.
	FetchMany(ctx context.Context, ids []string) (map[string]VectorRecord, error)
	Delete(ctx context.Context, id string) error
	DeleteUser(ctx context.Context, userID string) (int, error)
	Ping(ctx context.Context) error
}
