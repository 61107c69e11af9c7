// Package cache is an in-process TTL store used by the participant cache
// decorators. Concurrent misses for one key share a single loader call.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	value     any
	expiresAt time.Time
}

type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	// gens counts Delete calls per key. A load only stores its result when
	// the generation it started from is still current.
	gens  map[string]uint64
	ttl   time.Duration
	loads singleflight.Group
	now   func() time.Time
}

// NewStore returns a store whose entries live for ttl. A non-positive ttl
// keeps entries until they are deleted.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]entry),
		gens:    make(map[string]uint64),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *Store) Get(_ context.Context, key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !s.expired(e) {
		return e.value, true
	}

	s.mu.Lock()
	if cur, ok := s.entries[key]; ok && s.expired(cur) {
		delete(s.entries, key)
	}
	s.mu.Unlock()
	return nil, false
}

func (s *Store) Set(_ context.Context, key string, value any) {
	if key == "" {
		return
	}

	s.mu.Lock()
	s.entries[key] = s.newEntry(value)
	s.mu.Unlock()
}

// Generation returns the invalidation counter of key. Pass it to
// SetIfGeneration after reading the value from the source of truth.
func (s *Store) Generation(key string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gens[key]
}

// SetIfGeneration stores value only when key has not been deleted since gen
// was read. It reports whether the value was stored.
func (s *Store) SetIfGeneration(_ context.Context, key string, gen uint64, value any) bool {
	if key == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[key] != gen {
		return false
	}
	s.entries[key] = s.newEntry(value)
	return true
}

// Delete drops keys and abandons any in-flight load for them. A load that
// started before the delete returns to its own callers but is never stored.
func (s *Store) Delete(_ context.Context, keys ...string) {
	s.mu.Lock()
	for _, key := range keys {
		delete(s.entries, key)
		s.gens[key]++
	}
	s.mu.Unlock()

	for _, key := range keys {
		s.loads.Forget(key)
	}
}

// GetOrLoad returns the cached value for key or runs loader once for all
// concurrent callers. Loader errors are not cached. A caller whose ctx ends
// stops waiting; the shared load keeps running for the others.
func (s *Store) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := s.loads.DoChan(key, func() (any, error) {
		if cached, ok := s.Get(loadCtx, key); ok {
			return cached, nil
		}
		gen := s.Generation(key)
		loaded, err := loader(loadCtx)
		if err != nil {
			return nil, err
		}
		s.SetIfGeneration(loadCtx, key, gen, loaded)
		return loaded, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val, nil
	}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) newEntry(value any) entry {
	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = s.now().Add(s.ttl)
	}
	return entry{value: value, expiresAt: expiresAt}
}

func (s *Store) expired(e entry) bool {
	return s.ttl > 0 && !e.expiresAt.After(s.now())
}
