package cache

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Memo is a per-run, write-once map with at most one in-flight load per key.
// Concurrent callers for the same key wait for the first load's result.
type Memo[V any] struct {
	mu    sync.RWMutex
	data  map[string]V
	group singleflight.Group
}

func NewMemo[V any]() *Memo[V] {
	return &Memo[V]{data: make(map[string]V)}
}

func (m *Memo[V]) Get(key string) (V, bool) {
	m.mu.RLock()
	v, ok := m.data[key]
	m.mu.RUnlock()
	return v, ok
}

// Store records v unless key already holds a value. It reports whether v was stored.
func (m *Memo[V]) Store(key string, v V) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false
	}
	m.data[key] = v
	return true
}

// Load returns the value for key, calling fetch when absent. Failed fetches
// are not remembered.
func (m *Memo[V]) Load(key string, fetch func() (V, error)) (V, error) {
	if v, ok := m.Get(key); ok {
		return v, nil
	}

	res, err, _ := m.group.Do(key, func() (interface{}, error) {
		if v, ok := m.Get(key); ok {
			return v, nil
		}
		v, err := fetch()
		if err != nil {
			return v, err
		}
		m.Store(key, v)
		stored, _ := m.Get(key)
		return stored, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}
