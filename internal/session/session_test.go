package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Hour)
	s.now = func() time.Time { return now }

	put, err := s.Put(ctx, Session{ID: "inc_1", UserID: "u1", Summary: "hello"})
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), put.ExpiresAt)

	got, err := s.Get(ctx, "inc_1")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Summary)

	now = now.Add(time.Hour)
	_, err = s.Get(ctx, "inc_1")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Minute)
	s.now = func() time.Time { return now }

	_, _ = s.Put(ctx, Session{ID: "old"})
	now = now.Add(30 * time.Second)
	_, _ = s.Put(ctx, Session{ID: "new"})
	now = now.Add(45 * time.Second)

	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.Get(ctx, "new")
	assert.NoError(t, err)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)
	_, _ = s.Put(ctx, Session{ID: "x"})
	require.NoError(t, s.Delete(ctx, "x"))
	_, err := s.Get(ctx, "x")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}
