// Package memory holds process-local stores for development and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/agenthands/cognivault/internal/store"
)

// Store implements store.DocumentStore and store.IntentStore.
type Store struct {
	mu      sync.RWMutex
	files   map[string]model.SourceFile
	chunks  map[string]model.Chunk
	intents map[string]model.WriteIntent
}

func NewStore() *Store {
	return &Store{
		files:   map[string]model.SourceFile{},
		chunks:  map[string]model.Chunk{},
		intents: map[string]model.WriteIntent{},
	}
}

func (s *Store) CreateFile(ctx context.Context, f model.SourceFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[f.FileID]; ok {
		return fmt.Errorf("file %s already exists", f.FileID)
	}
	s.files[f.FileID] = f
	return nil
}

func (s *Store) UpdateFile(ctx context.Context, fileID string, u store.FileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[fileID]
	if !ok {
		return fmt.Errorf("file %s: %w", fileID, model.ErrNotFound)
	}
	if f.Status != model.FileProcessing {
		return fmt.Errorf("file %s: %w", fileID, store.ErrFileSettled)
	}
	f.Status = u.Status
	f.TotalChunks = u.TotalChunks
	f.TotalCharacters = u.TotalCharacters
	f.Error = u.Error
	if u.Analysis != nil {
		a := *u.Analysis
		f.Analysis = &a
	}
	s.files[fileID] = f
	return nil
}

func (s *Store) GetFile(ctx context.Context, userID, fileID string) (model.SourceFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[fileID]
	if !ok || f.UserID != userID {
		return model.SourceFile{}, fmt.Errorf("file %s: %w", fileID, model.ErrNotFound)
	}
	return f, nil
}

func (s *Store) ListFiles(ctx context.Context, userID string, limit int) ([]model.SourceFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.SourceFile{}
	for _, f := range s.files {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadDate.Equal(out[j].UploadDate) {
			return out[i].FileID > out[j].FileID
		}
		return out[i].UploadDate.After(out[j].UploadDate)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) InsertChunk(ctx context.Context, c model.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[c.ChunkID] = cloneChunk(c)
	return nil
}

func (s *Store) GetChunk(ctx context.Context, chunkID string) (model.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[chunkID]
	if !ok {
		return model.Chunk{}, fmt.Errorf("chunk %s: %w", chunkID, model.ErrNotFound)
	}
	return cloneChunk(c), nil
}

func (s *Store) ListChunks(ctx context.Context, userID string) ([]model.Chunk, error) {
	return s.listChunks(func(c model.Chunk) bool { return c.UserID == userID }, func(a, b model.Chunk) bool {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.Index < b.Index
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}), nil
}

func (s *Store) ListFileChunks(ctx context.Context, userID, fileID string) ([]model.Chunk, error) {
	return s.listChunks(func(c model.Chunk) bool { return c.UserID == userID && c.FileID == fileID }, func(a, b model.Chunk) bool {
		return a.Index < b.Index
	}), nil
}

func (s *Store) listChunks(keep func(model.Chunk) bool, less func(a, b model.Chunk) bool) []model.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Chunk{}
	for _, c := range s.chunks {
		if keep(c) {
			out = append(out, cloneChunk(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if less(out[i], out[j]) {
			return true
		}
		if less(out[j], out[i]) {
			return false
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	return out
}

func (s *Store) SetGraphNodeID(ctx context.Context, chunkID, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chunks[chunkID]
	if !ok {
		return fmt.Errorf("chunk %s: %w", chunkID, model.ErrNotFound)
	}
	c.GraphNodeID = nodeID
	s.chunks[chunkID] = c
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, f := range s.files {
		if f.UserID == userID {
			delete(s.files, id)
			n++
		}
	}
	for id, c := range s.chunks {
		if c.UserID == userID {
			delete(s.chunks, id)
			n++
		}
	}
	for id, w := range s.intents {
		if w.UserID == userID {
			delete(s.intents, id)
		}
	}
	return n, nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) CreateIntent(ctx context.Context, w model.WriteIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents[w.ChunkID] = w
	return nil
}

func (s *Store) UpdateIntent(ctx context.Context, w model.WriteIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.intents[w.ChunkID]; !ok {
		return fmt.Errorf("intent %s: %w", w.ChunkID, model.ErrNotFound)
	}
	s.intents[w.ChunkID] = w
	return nil
}

func (s *Store) ListUnsettled(ctx context.Context, limit, maxAttempts int) ([]model.WriteIntent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.WriteIntent{}
	for _, w := range s.intents {
		if w.Settled() || (maxAttempts > 0 && w.Attempts >= maxAttempts) {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ChunkID < out[j].ChunkID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Intent returns the stored intent for inspection.
func (s *Store) Intent(chunkID string) (model.WriteIntent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.intents[chunkID]
	return w, ok
}

func cloneChunk(c model.Chunk) model.Chunk {
	c.Tags = slices.Clone(c.Tags)
	c.Entities = slices.Clone(c.Entities)
	c.Relations = slices.Clone(c.Relations)
	return c
}
