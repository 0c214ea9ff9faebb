package registry

import (
	"context"
	"sync"
	"time"
)

// memoryRegistry is a single-process Registry used in tests and local runs
// without Redis.
type memoryRegistry struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemory(ttl time.Duration) Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &memoryRegistry{
		ttl:     ttl,
		entries: map[string]time.Time{},
		now:     time.Now,
	}
}

func (m *memoryRegistry) Register(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID] = m.now().Add(m.ttl)
	return nil
}

func (m *memoryRegistry) Unregister(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userID)
	return nil
}

func (m *memoryRegistry) IsOnline(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.entries[userID]
	if !ok {
		return false, nil
	}
	if m.now().After(exp) {
		delete(m.entries, userID)
		return false, nil
	}
	return true, nil
}
