package lock

import (
	"sync"

	"github.com/google/uuid"
)

// KeyedMutex serializes work per lot inside a single process. Each key gets
// its own mutex, so resolutions on different lots never block each other;
// entries are refcounted and dropped when the last holder releases, keeping
// the map bounded by the number of concurrently contested lots.
//
// This only covers one process. Cross-process safety comes from the version
// column on the lot row.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex creates an empty keyed mutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		entries: make(map[uuid.UUID]*entry),
	}
}

// Lock acquires the mutex for the key, creating it on first use
func (k *KeyedMutex) Lock(key uuid.UUID) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for the key and drops the entry once no one
// else is waiting on it
func (k *KeyedMutex) Unlock(key uuid.UUID) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		k.mu.Unlock()
		panic("lock: unlock of unheld key")
	}
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}

// Len returns the number of keys currently held or contended
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
