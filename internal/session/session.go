// Package session keeps short-lived private workspaces that never reach the
// persistent stores.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agenthands/cognivault/internal/core/model"
)

type WordWeight struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

type Session struct {
	ID        string            `json:"sessionId"`
	UserID    string            `json:"-"`
	FileName  string            `json:"fileName"`
	Text      string            `json:"-"`
	Summary   string            `json:"summary"`
	Tags      []string          `json:"tags"`
	Entities  []model.EntityRef `json:"entities"`
	WordCloud []WordWeight      `json:"wordCloud"`
	CreatedAt time.Time         `json:"createdAt"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

type Store interface {
	// Put stamps CreatedAt and ExpiresAt and stores the session.
	Put(ctx context.Context, s Session) (Session, error)
	// Get fails with model.ErrNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
	// Sweep drops expired sessions and returns how many were removed.
	Sweep(ctx context.Context) (int, error)
}

type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]Session
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: map[string]Session{},
		now:      time.Now,
	}
}

func (m *MemoryStore) Put(ctx context.Context, s Session) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	s.CreatedAt = now
	s.ExpiresAt = now.Add(m.ttl)
	m.sessions[s.ID] = s
	return s, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("session %s: %w", id, model.ErrNotFound)
	}
	if !m.now().Before(s.ExpiresAt) {
		delete(m.sessions, id)
		return Session{}, fmt.Errorf("session %s expired: %w", id, model.ErrNotFound)
	}
	return s, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) Sweep(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for id, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}
