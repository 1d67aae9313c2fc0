// Package cache keeps tenant config values for a bounded time.
package cache

import (
	"context"
	"sync"
	"time"
)

// Store is a per-tenant string cache.
type Store interface {
	Get(ctx context.Context, bot, key string) (string, bool, error)
	Set(ctx context.Context, bot, key, value string) error
	DeleteTenant(ctx context.Context, bot string) error
}

type entry struct {
	value   string
	expires time.Time
}

// Memory is an in-process Store used when no Redis address is configured.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	tenants map[string]map[string]entry
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		tenants: make(map[string]map[string]entry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, bot, key string) (string, bool, error) {
	m.mu.RLock()
	e, ok := m.tenants[bot][key]
	m.mu.RUnlock()

	if !ok || !m.now().Before(e.expires) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, bot, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, ok := m.tenants[bot]
	if !ok {
		entries = make(map[string]entry)
		m.tenants[bot] = entries
	}
	entries[key] = entry{value: value, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) DeleteTenant(_ context.Context, bot string) error {
	m.mu.Lock()
	delete(m.tenants, bot)
	m.mu.Unlock()
	return nil
}
