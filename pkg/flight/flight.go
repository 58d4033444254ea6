// Package flight coalesces concurrent lookups of the same key and keeps results for a while.
package flight

import (
	"context"
	"sync"
	"time"
)

// Cache runs work once per key. Callers arriving while a lookup is in flight wait for it,
// and successful results are served until they expire.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	finished map[K]entry[V]
	pending  map[K]*job[V]

	work func(context.Context, K) (V, error)
	ttl  time.Duration
	now  func() time.Time
}

type entry[V any] struct {
	val      V
	deadline time.Time // zero => never expires
}

type job[V any] struct {
	val  V
	err  error
	done chan struct{}
}

func NewCache[K comparable, V any](ttl time.Duration, work func(context.Context, K) (V, error)) *Cache[K, V] {
	return &Cache[K, V]{
		finished: make(map[K]entry[V]),
		pending:  make(map[K]*job[V]),
		work:     work,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the cached value for k, joining an in-flight lookup if there is one.
// Errors are not cached.
func (p *Cache[K, V]) Get(ctx context.Context, k K) (V, error) {
	p.mu.Lock()
	if e, ok := p.finished[k]; ok {
		if e.deadline.IsZero() || p.now().Before(e.deadline) {
			p.mu.Unlock()
			return e.val, nil
		}
		delete(p.finished, k)
	}

	if pending, ok := p.pending[k]; ok {
		p.mu.Unlock()
		select {
		case <-pending.done:
			return pending.val, pending.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}

	j := &job[V]{done: make(chan struct{})}
	p.pending[k] = j
	p.mu.Unlock()

	j.val, j.err = p.work(ctx, k)

	p.mu.Lock()
	if j.err == nil {
		e := entry[V]{val: j.val}
		if p.ttl > 0 {
			e.deadline = p.now().Add(p.ttl)
		}
		p.finished[k] = e
	}
	delete(p.pending, k)
	close(j.done)
	p.mu.Unlock()

	return j.val, j.err
}

// Forget drops the cached value for k so the next Get runs work again.
func (p *Cache[K, V]) Forget(k K) {
	p.mu.Lock()
	delete(p.finished, k)
	p.mu.Unlock()
}
