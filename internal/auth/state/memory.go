package state

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryBackend keeps state in process. Expired entries are purged by the
// cache janitor.
type MemoryBackend struct {
	mu sync.Mutex
	c  *gocache.Cache
}

func NewMemoryBackend(ttl time.Duration) *MemoryBackend {
	return &MemoryBackend{c: gocache.New(ttl, 5*time.Minute)}
}

func (m *MemoryBackend) Put(_ context.Context, state string, entry Entry, ttl time.Duration) error {
	m.c.Set(state, entry, ttl)
	return nil
}

func (m *MemoryBackend) Take(_ context.Context, state string) (*Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.c.Get(state)
	if !ok {
		return nil, false, nil
	}
	m.c.Delete(state)

	entry, ok := v.(Entry)
	if !ok {
		return nil, false, nil
	}
	return &entry, true, nil
}

// Count returns the number of live state tokens.
func (m *MemoryBackend) Count() int {
	return m.c.ItemCount()
}
