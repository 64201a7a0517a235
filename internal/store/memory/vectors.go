package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/agenthands/cognivault/internal/core/embedding"
	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/agenthands/cognivault/internal/store"
)

// VectorStore is a brute-force cosine index.
type VectorStore struct {
	mu      sync.RWMutex
	records map[string]store.VectorRecord
}

func NewVectorStore() *VectorStore {
	return &VectorStore{records: map[string]store.VectorRecord{}}
}

func (v *VectorStore) Upsert(ctx context.Context, rec store.VectorRecord) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	rec.Values = slices.Clone(rec.Values)
	v.records[rec.ID] = rec
	return nil
}

func (v *VectorStore) Query(ctx context.Context, vector []float32, topK int, userID string) ([]store.Match, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	matches := []store.Match{}
	for id, rec := range v.records {
		if rec.Metadata.UserID != userID {
			continue
		}
		matches = append(matches, store.Match{ID: id, Score: embedding.Cosine(vector, rec.Values), Metadata: rec.Metadata})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (v *VectorStore) Fetch(ctx context.Context, id string) (store.VectorRecord, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	rec, ok := v.records[id]
	if !ok {
		return store.VectorRecord{}, fmt.Errorf("vector %s: %w", id, model.ErrNotFound)
	}
	rec.Values = slices.Clone(rec.Values)
	return rec, nil
}

func (v *VectorStore) FetchMany(ctx context.Context, ids []string) (map[string]store.VectorRecord, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]store.VectorRecord, len(ids))
	for _, id := range ids {
		if rec, ok := v.records[id]; ok {
			rec.Values = slices.Clone(rec.Values)
			out[id] = rec
		}
	}
	return out, nil
}

func (v *VectorStore) Delete(ctx context.Context, id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.records, id)
	return nil
}

func (v *VectorStore) DeleteUser(ctx context.Context, userID string) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for id, rec := range v.records {
		if rec.Metadata.UserID == userID {
			delete(v.records, id)
			n++
		}
	}
	return n, nil
}

func (v *VectorStore) Ping(ctx context.Context) error { return nil }
