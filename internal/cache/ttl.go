package cache

import (
	"context"
	"sync"
	"time"
)

// TTL is a minimal in-process TTL map. Expiration is lazy: stale entries are dropped when read.
type TTL[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]entry[V]
	now  func() time.Time
}

type entry[V any] struct {
	val V
	exp time.Time // zero: never expires
}

func (e entry[V]) expired(now time.Time) bool {
	return !e.exp.IsZero() && !now.Before(e.exp)
}

func NewTTL[K comparable, V any]() *TTL[K, V] {
	return &TTL[K, V]{data: make(map[K]entry[V]), now: time.Now}
}

// Get returns the value and true if found and not expired; otherwise zero value and false.
func (t *TTL[K, V]) Get(k K) (V, bool) {
	t.mu.RLock()
	e, ok := t.data[k]
	t.mu.RUnlock()
	if ok && !e.expired(t.now()) {
		return e.val, true
	}
	if ok {
		t.mu.Lock()
		// A Set may have replaced the entry since the read.
		if cur, still := t.data[k]; still && cur.expired(t.now()) {
			delete(t.data, k)
		}
		t.mu.Unlock()
	}
	var zero V
	return zero, false
}

// Set stores v for ttl. A ttl of zero or less keeps the entry until it is deleted.
func (t *TTL[K, V]) Set(k K, v V, ttl time.Duration) {
	var exp time.Time
	if ttl > 0 {
		exp = t.now().Add(ttl)
	}
	t.mu.Lock()
	t.data[k] = entry[V]{val: v, exp: exp}
	t.mu.Unlock()
}

func (t *TTL[K, V]) Delete(k K) {
	t.mu.Lock()
	delete(t.data, k)
	t.mu.Unlock()
}

// Memory adapts a TTL map to ports.Cache for single-process deployments and tests.
type Memory struct {
	ttl *TTL[string, []byte]
}

func NewMemory() *Memory {
	return &Memory{ttl: NewTTL[string, []byte]()}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.ttl.Get(key)
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.ttl.Set(key, value, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.ttl.Delete(key)
	return nil
}
