package cache

import (
	"context"
	"sync"
	"time"
)

type memEntry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e memEntry[V]) expired() bool {
	return time.Now().After(e.expiresAt)
}

// Memory is a process-local TTL cache. Entries expire lazily on read and
// eagerly through a background janitor. There is no size bound: the
// resolver keys it by hostname with short TTLs, which keeps it small.
type Memory[V any] struct {
	mu         sync.Mutex
	items      map[string]memEntry[V]
	defaultTTL time.Duration
	done       chan struct{}
	closeOnce  sync.Once
}

// NewMemory creates an in-memory cache. defaultTTL applies when Set is
// called with a zero TTL; cleanupInterval <= 0 disables the janitor.
func NewMemory[V any](defaultTTL, cleanupInterval time.Duration) *Memory[V] {
	m := &Memory[V]{
		items:      make(map[string]memEntry[V]),
		defaultTTL: defaultTTL,
		done:       make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go m.janitor(cleanupInterval)
	}
	return m
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok || e.expired() {
		delete(m.items, key)
		var zero V
		return zero, ErrNotFound
	}
	return e.value, nil
}

func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = memEntry[V]{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

// Close stops the janitor goroutine.
func (m *Memory[V]) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}

func (m *Memory[V]) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			for key, e := range m.items {
				if e.expired() {
					delete(m.items, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
