package tokenstore

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// MemoryStore 进程内实现，用于测试和单机开发
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, token string, session Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = memoryEntry{session: session, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, token string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	delete(s.entries, token)
	if s.now().After(entry.expiresAt) {
		return Session{}, ErrNotFound
	}
	return entry.session, nil
}

func (s *MemoryStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
	return nil
}

func (s *MemoryStore) RevokeUser(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, entry := range s.entries {
		if entry.session.UserID == userID {
			delete(s.entries, token)
		}
	}
	return nil
}

// Len 当前有效令牌数
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
