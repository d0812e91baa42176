// Package store defines the string key/value abstraction the list is
// persisted through. Concrete backends live in subpackages.
package store

import "sync"

// KV is a durable string-keyed store.
type KV interface {
	// Get returns the value for key; ok is false when the key was never set.
	Get(key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
}

// Backend is a KV that holds resources.
type Backend interface {
	KV
	Close() error
}

// Memory is a map-backed Backend. It forgets everything on exit.
type Memory struct {
	mu   sync.Mutex
	data map[string]string
}

var _ Backend = (*Memory)(nil)

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Close() error { return nil }
