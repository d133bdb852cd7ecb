// Package lock provides a per-key exclusive lock whose acquisition honours
// context cancellation. Entries are reference counted and dropped once no
// goroutine holds or waits for them.
package lock

import (
	"context"
	"sync"
)

// Unlock releases a held key; calling it more than once is a no-op
type Unlock func()

// Locker acquires exclusive access to a key
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

type entry struct {
	ch   chan struct{}
	refs int
}

// Keyed implements Locker with one slot per key
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
}

var _ Locker = (*Keyed)(nil)

// New creates a keyed lock
func New() *Keyed {
	return &Keyed{entries: map[string]*entry{}}
}

// Lock blocks until key is free or ctx is done
func (k *Keyed) Lock(ctx context.Context, key string) (Unlock, error) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
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

// Len returns number of keys currently held or awaited
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

func (k *Keyed) release(key string, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
}
