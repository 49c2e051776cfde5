package store

import (
	"sync"
	"time"

	"github.com/jpalmerr/cadenceboard/telemetry"
)

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore is used when no data file is configured and in tests. The
// snapshot is lost on restart.
type MemoryStore struct {
	hub

	mu       sync.RWMutex
	snapshot telemetry.Payload
	saved    bool
}

// NewMemoryStore creates a new in-memory [Store] implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save stores p and notifies all subscribers.
func (m *MemoryStore) Save(p telemetry.Payload) error {
	m.mu.Lock()
	m.snapshot = p
	m.saved = true
	m.mu.Unlock()

	m.publish(p)
	return nil
}

// Load returns the last saved snapshot, or the default payload.
func (m *MemoryStore) Load() (telemetry.Payload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.saved {
		return telemetry.DefaultPayload(time.Now()), nil
	}
	return m.snapshot, nil
}

// Exists reports whether Save has been called.
func (m *MemoryStore) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saved
}
