package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-process Cache used when no Redis address is configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache returns an empty MemoryCache whose entries expire after ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(entry.expiresAt) {
		m.evictExpired(key)
		return nil, false, nil
	}

	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	m.entries[key] = memoryEntry{value: stored, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

// evictExpired deletes key only if the entry present under the write lock has
// expired, so a value stored after the read is kept.
func (m *MemoryCache) evictExpired(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.entries[key]; ok && !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
	}
}
