package cache

import (
	"fmt"
	"strings"
)

// Store is a persistent key-value namespace.
type Store interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(key string) (value []byte, ok bool, err error)
	Put(key string, value []byte) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendPebble = "pebble"
	BackendDir    = "dir"
	BackendMemory = "memory"
)

// Open creates the store for a configured backend.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendPebble, "":
		return NewPebbleStore(path)
	case BackendDir:
		return NewDirStore(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", backend)
	}
}
