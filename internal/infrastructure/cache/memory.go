package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const defaultCleanupInterval = 30 * time.Second

type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e *cacheEntry[T]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryOption configures a MemoryStore
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	cleanupInterval time.Duration
	now             func() time.Time
}

// WithCleanupInterval sets how often expired entries are swept. Zero disables sweeping.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(o *memoryOptions) { o.cleanupInterval = d }
}

// WithMemoryClock replaces time.Now
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(o *memoryOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// MemoryStore is a process-local Store backed by sync.Map.
// It does not share state across instances.
type MemoryStore[T any] struct {
	entries sync.Map // string -> *cacheEntry[T]
	now     func() time.Time
	stopCh  chan struct{}
	stopped atomic.Bool

	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemoryStore creates an in-memory store and starts its sweeper
func NewMemoryStore[T any](opts ...MemoryOption) *MemoryStore[T] {
	o := memoryOptions{cleanupInterval: defaultCleanupInterval, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	s := &MemoryStore[T]{now: o.now, stopCh: make(chan struct{})}
	if o.cleanupInterval > 0 {
		go s.sweep(o.cleanupInterval)
	}
	return s
}

// Get implements Store
func (s *MemoryStore[T]) Get(_ context.Context, key string) (T, bool, error) {
	var zero T
	v, ok := s.entries.Load(key)
	if !ok {
		s.misses.Add(1)
		return zero, false, nil
	}
	entry := v.(*cacheEntry[T])
	if entry.expired(s.now()) {
		s.entries.CompareAndDelete(key, v)
		s.misses.Add(1)
		return zero, false, nil
	}
	s.hits.Add(1)
	return entry.value, true, nil
}

// Set implements Store. A non-positive ttl keeps the entry until deleted.
func (s *MemoryStore[T]) Set(_ context.Context, key string, value T, ttl time.Duration) error {
	entry := &cacheEntry[T]{value: value}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.entries.Store(key, entry)
	return nil
}

// Delete implements Store
func (s *MemoryStore[T]) Delete(_ context.Context, key string) error {
	s.entries.Delete(key)
	return nil
}

// counts returns hit and miss counts since creation
func (s *MemoryStore[T]) counts() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// Stop halts the sweeper. It is safe to call more than once.
func (s *MemoryStore[T]) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopCh)
	}
}

func (s *MemoryStore[T]) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.removeExpired()
		}
	}
}

func (s *MemoryStore[T]) removeExpired() {
	now := s.now()
	s.entries.Range(func(key, v any) bool {
		if v.(*cacheEntry[T]).expired(now) {
			s.entries.CompareAndDelete(key, v)
		}
		return true
	})
}
