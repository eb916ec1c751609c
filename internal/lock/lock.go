// Package lock provides per-key serialization for document stores.
// Every gate operation is a read-modify-write over a whole JSON
// document, which is not naturally atomic; callers hold the key's
// mutex for the full cycle so concurrent writers to the same pipeline
// cannot lose updates. Different keys proceed in parallel.
package lock

import "sync"

// MutexMap hands out one mutex per key, lazily.
type MutexMap struct {
	mu      sync.Mutex
	mutexes map[string]*sync.Mutex
}

// NewMutexMap creates an empty MutexMap.
func NewMutexMap() *MutexMap {
	return &MutexMap{mutexes: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use.
func (m *MutexMap) Lock(key string) {
	m.getMutex(key).Lock()
}

// Unlock releases the mutex for key.
func (m *MutexMap) Unlock(key string) {
	m.getMutex(key).Unlock()
}

func (m *MutexMap) getMutex(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mu, ok := m.mutexes[key]; ok {
		return mu
	}
	mu := &sync.Mutex{}
	m.mutexes[key] = mu
	return mu
}
