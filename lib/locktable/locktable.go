// Package locktable provides a table of per-key mutexes grown on demand,
// the shape record.Store uses to linearize writes to a single record id
// (spec invariant: RevocationRegistry/RevocationRegistryInfo writes under
// a given id are serialized) without holding one lock over the whole store.
package locktable

import "sync"

// Table hands out a *sync.Mutex per key, creating it on first use.
type Table struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New builds an empty Table.
func New() *Table {
	return &Table{locks: make(map[string]*sync.Mutex)}
}

// Lock locks the mutex for key, creating it if necessary.
func (t *Table) Lock(key string) {
	t.forKey(key).Lock()
}

// Unlock unlocks the mutex for key.
func (t *Table) Unlock(key string) {
	t.forKey(key).Unlock()
}

// WithLock runs fn while holding key's mutex.
func (t *Table) WithLock(key string, fn func() error) error {
	t.Lock(key)
	defer t.Unlock(key)
	return fn()
}

func (t *Table) forKey(key string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.locks[key]
	if !ok {
		m = &sync.Mutex{}
		t.locks[key] = m
	}
	return m
}
