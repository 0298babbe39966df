package store

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryBackend keeps preferences in process memory. Entries never expire.
type MemoryBackend struct {
	cache *gocache.Cache
}

// NewMemoryBackend creates an empty memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// Load returns a copy of the stored value
func (m *MemoryBackend) Load(_ context.Context, key string) ([]byte, error) {
	val, found := m.cache.Get(key)
	if !found {
		return nil, ErrNotFound
	}
	data := val.([]byte)
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Save stores a copy of value
func (m *MemoryBackend) Save(_ context.Context, key string, value []byte) error {
	data := make([]byte, len(value))
	copy(data, value)
	m.cache.Set(key, data, gocache.NoExpiration)
	return nil
}

// Delete removes a value
func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}

// Close drops every entry
func (m *MemoryBackend) Close() error {
	m.cache.Flush()
	return nil
}

// Len reports how many users are stored
func (m *MemoryBackend) Len() int {
	return m.cache.ItemCount()
}
