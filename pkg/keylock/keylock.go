// Package keylock provides per-key mutual exclusion for serializing
// spend authorization on a (beneficiary, category) pair. Balance and
// limit checks recompute from the transaction log on every request, so
// two concurrent requests for the same pair could both observe the same
// available balance and jointly overspend it; holding the pair's lock
// across the whole check-then-persist sequence closes that gap.
package keylock

import "sync"

// KeyLock is a dynamic set of named mutexes. The zero value is not
// usable; call New.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New creates an empty KeyLock.
func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*entry)}
}

// Lock acquires the mutex for key, creating it on first use. Entries
// are reference counted and removed again once the last holder unlocks,
// so the map does not grow with the number of distinct keys ever seen.
func (k *KeyLock) Lock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for key. Unlocking a key that is not held
// panics, matching sync.Mutex semantics.
func (k *KeyLock) Unlock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		k.mu.Unlock()
		panic("keylock: unlock of unheld key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
