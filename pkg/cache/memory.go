package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type item[V any] struct {
	value      V
	expiration int64
}

func (i item[V]) expired(now int64) bool {
	return i.expiration > 0 && now > i.expiration
}

// Memory is an in-process cache. Expired entries are dropped by Purge, which
// the janitor calls every interval when one is given.
type Memory[V any] struct {
	items  map[string]item[V]
	mu     sync.RWMutex
	done   chan struct{}
	once   sync.Once
	closed bool
}

func NewMemory[V any](janitorInterval time.Duration) *Memory[V] {
	m := &Memory[V]{
		items: make(map[string]item[V]),
		done:  make(chan struct{}),
	}
	if janitorInterval > 0 {
		go m.janitor(janitorInterval)
	}
	return m
}

// Set stores value for ttl; a ttl of zero or less never expires
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	var expiration int64
	if ttl > 0 {
		expiration = time.Now().Add(ttl).UnixNano()
	}
	m.items[key] = item[V]{value: value, expiration: expiration}
	return nil
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var zero V
	if m.closed {
		return zero, ErrClosed
	}
	it, found := m.items[key]
	if !found || it.expired(time.Now().UnixNano()) {
		return zero, ErrNotFound
	}
	return it.value, nil
}

func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *Memory[V]) DeletePrefix(_ context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			delete(m.items, k)
			deleted++
		}
	}
	return deleted, nil
}

// Purge drops expired entries and returns how many were removed
func (m *Memory[V]) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UnixNano()
	purged := 0
	for k, it := range m.items {
		if it.expired(now) {
			delete(m.items, k)
			purged++
		}
	}
	return purged
}

func (m *Memory[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *Memory[V]) Close() error {
	m.once.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.items = make(map[string]item[V])
		m.mu.Unlock()
		close(m.done)
	})
	return nil
}

func (m *Memory[V]) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Purge()
		case <-m.done:
			return
		}
	}
}
