package store

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/viant/turnflow/service/dao"
)

// MemoryStore is a generic in-memory implementation of dao.Service backed by
// a TTL cache. Entries idle for longer than ttl are evicted; a zero ttl keeps
// them forever. Values are copied on the way in and out so callers never
// share memory with the store.
type MemoryStore[K comparable, T any] struct {
	cache       *ttlcache.Cache[K, *T]
	keySelector func(*T) K
	clone       func(*T) *T
	mu          sync.Mutex
	started     bool
}

// NewMemoryStore creates a new MemoryStore.
// keySelector extracts the entity key; clone copies an entity (nil means shallow copy).
func NewMemoryStore[K comparable, T any](keySelector func(*T) K, clone func(*T) *T, ttl time.Duration) *MemoryStore[K, T] {
	if clone == nil {
		clone = func(v *T) *T {
			ret := *v
			return &ret
		}
	}
	s := &MemoryStore[K, T]{
		cache:       ttlcache.New[K, *T](ttlcache.WithTTL[K, *T](ttl)),
		keySelector: keySelector,
		clone:       clone,
	}
	if ttl > 0 {
		s.started = true
		go s.cache.Start()
	}
	return s
}

// OnExpire registers a callback invoked when an entry expires
func (s *MemoryStore[K, T]) OnExpire(fn func(key K)) {
	s.cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[K, *T]) {
		if reason == ttlcache.EvictionReasonExpired {
			fn(item.Key())
		}
	})
}

// Save stores or overwrites a record.
func (s *MemoryStore[K, T]) Save(_ context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(v)
	var zero K
	if key == zero {
		return dao.ErrInvalidID
	}
	s.cache.Set(key, s.clone(v), ttlcache.DefaultTTL)
	return nil
}

// Load returns a record by key.
func (s *MemoryStore[K, T]) Load(_ context.Context, key K) (*T, error) {
	var zero K
	if key == zero {
		return nil, dao.ErrInvalidID
	}
	item := s.cache.Get(key)
	if item == nil {
		return nil, dao.ErrNotFound
	}
	return s.clone(item.Value()), nil
}

// Delete removes a record.
func (s *MemoryStore[K, T]) Delete(_ context.Context, key K) error {
	var zero K
	if key == zero {
		return dao.ErrInvalidID
	}
	if !s.cache.Has(key) {
		return dao.ErrNotFound
	}
	s.cache.Delete(key)
	return nil
}

// List returns all stored records; parameters are left to wrapping DAOs.
func (s *MemoryStore[K, T]) List(_ context.Context, _ ...*dao.Parameter) ([]*T, error) {
	items := s.cache.Items()
	out := make([]*T, 0, len(items))
	for _, item := range items {
		out = append(out, s.clone(item.Value()))
	}
	return out, nil
}

// Len returns number of records
func (s *MemoryStore[K, T]) Len() int {
	return s.cache.Len()
}

// Expiring returns true while the expiry loop runs
func (s *MemoryStore[K, T]) Expiring() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Close stops the expiry loop
func (s *MemoryStore[K, T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		s.started = false
		s.cache.Stop()
	}
	return nil
}
