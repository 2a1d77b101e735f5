package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Store is a key/value cache of JSON-encoded values.
type Store interface {
	// Get decodes the value at key into dest. It reports false when the key is missing.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// Version returns the generation of key. A key never bumped is at 0.
	Version(ctx context.Context, key string) (int64, error)
	// Bump advances the generation of each key.
	Bump(ctx context.Context, keys ...string) error
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// Memory is an in-process Store used when no Redis address is configured.
type Memory struct {
	mu      sync.Mutex
	entries  map[string]memoryEntry
	versions map[string]int64
	now      func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry), versions: make(map[string]int64), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if ok && !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(e.data, dest)
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	e := memoryEntry{data: b}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Version(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.versions[key], nil
}

func (m *Memory) Bump(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		m.versions[k]++
	}
	m.mu.Unlock()
	return nil
}

// Len returns the number of entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
