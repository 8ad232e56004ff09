// Package lock serialises ledger mutations per key, in process or across
// processes through Redis.
package lock

import (
	"context"
	"sync"
)

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

// Keyed is an in-process Locker. Entries are reference counted and dropped
// once nobody holds or waits on them.
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

func NewKeyed() *Keyed {
	return &Keyed{entries: make(map[string]*keyedEntry)}
}

func (k *Keyed) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &keyedEntry{ch: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			k.release(key, e)
		})
	}, nil
}

func (k *Keyed) release(key string, e *keyedEntry) {
	k.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()
}

// size reports tracked keys; tests use it to check entries are released.
func (k *Keyed) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
