// Package cache stores JSON-encoded values under string keys, in redis when
// one is configured and in process memory otherwise.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Cache is a best-effort key/value store. A miss is (false, nil).
type Cache interface {
	GetObject(ctx context.Context, key string, dest any) (bool, error)
	SetObject(ctx context.Context, key string, obj any, exp time.Duration) error
	Remove(ctx context.Context, keys ...string) error
}

type entry struct {
	val     []byte
	expires time.Time
}

// Memory is the in-process Cache used when REDIS_ADDR is not set and in tests.
type Memory struct {
	mu    sync.Mutex
	items map[string]entry
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]entry), now: time.Now}
}

func (m *Memory) GetObject(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	e, ok := m.items[key]
	if ok && !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.items, key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(e.val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) SetObject(_ context.Context, key string, obj any, exp time.Duration) error {
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	e := entry{val: b}
	if exp > 0 {
		e.expires = m.now().Add(exp)
	}
	m.mu.Lock()
	m.items[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.items, k)
	}
	m.mu.Unlock()
	return nil
}
