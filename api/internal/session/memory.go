package session

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local Store; expired entries are dropped on access.
type Memory struct {
	mu   sync.Mutex
	byID map[string]Session
	now  func() time.Time
}

func NewMemory() *Memory {
	return &Memory{byID: make(map[string]Session), now: time.Now}
}

func (m *Memory) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[s.Token] = s
	return nil
}

func (m *Memory) Load(_ context.Context, token string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	if s.Expired(m.now()) {
		delete(m.byID, token)
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (m *Memory) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, token)
	return nil
}
