package session

import (
	"context"
	"sync"
	"time"

	"expensectl/internal/cache"
)

// Tier is one named persistence backend for session values.
// Get reports ok=false for a missing key; Delete of a missing key is a no-op.
type Tier interface {
	Name() string
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// MemoryTier keeps values in a map. It backs the durable tier when
// SESSION_BACKEND=memory and stands in for SQLite in tests.
type MemoryTier struct {
	mu     sync.Mutex
	name   string
	values map[string]string
}

func NewMemoryTier(name string) *MemoryTier {
	return &MemoryTier{name: name, values: make(map[string]string)}
}

func (m *MemoryTier) Name() string { return m.name }

func (m *MemoryTier) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryTier) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryTier) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// EphemeralTier is scoped to the running process. Entries also expire after
// the configured TTL, so a long-lived shell does not hold a token forever.
type EphemeralTier struct {
	store cache.Cache[string]
}

func NewEphemeralTier(ttl time.Duration) *EphemeralTier {
	return &EphemeralTier{store: cache.NewLRUCache[string](16, ttl)}
}

// NewEphemeralTierWithCache wraps an existing cache, e.g. one registered with
// a cache.Manager for periodic sweeping.
func NewEphemeralTierWithCache(c cache.Cache[string]) *EphemeralTier {
	return &EphemeralTier{store: c}
}

func (e *EphemeralTier) Name() string { return "ephemeral" }

func (e *EphemeralTier) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := e.store.Get(key)
	return v, ok, nil
}

func (e *EphemeralTier) Set(_ context.Context, key, value string) error {
	e.store.Set(key, value)
	return nil
}

func (e *EphemeralTier) Delete(_ context.Context, key string) error {
	e.store.Delete(key)
	return nil
}

// End drops everything, as when the tab (process) that owns the tier closes.
func (e *EphemeralTier) End() {
	e.store.Clear()
}
