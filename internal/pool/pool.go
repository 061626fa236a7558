// Package pool recycles render target storage between frames.
//
// Backends allocate offscreen targets at a handful of sizes every frame.
// A Pool keeps released storage in per-size buckets so the next frame can
// reuse it instead of allocating. Unlike sync.Pool, a Pool never drops
// entries silently: entries pushed out of a full bucket, and everything left
// at Drain, go through the evict callback, which GPU backends use to destroy
// device objects.
package pool

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/compositor/geom"
)

// DefaultBucketLimit is the number of idle entries kept per size.
const DefaultBucketLimit = 4

// Stats counts pool traffic.
type Stats struct {
	Hits, Misses, Evictions uint64
	Idle                    int
}

// Pool is a size-bucketed free list. It is safe for concurrent use.
type Pool[T any] struct {
	mu      sync.Mutex
	buckets map[uint32][]T
	idle    int

	limit int
	alloc func(geom.ISize) (T, error)
	reset func(T)
	evict func(T)

	hits, misses, evictions atomic.Uint64
}

// Option configures a Pool.
type Option[T any] func(*Pool[T])

// WithBucketLimit sets how many idle entries each size keeps.
func WithBucketLimit[T any](n int) Option[T] {
	return func(p *Pool[T]) {
		if n >= 0 {
			p.limit = n
		}
	}
}

// WithReset sets a function run on entries handed out again.
func WithReset[T any](fn func(T)) Option[T] {
	return func(p *Pool[T]) { p.reset = fn }
}

// WithEvict sets a function run on entries the pool lets go of.
func WithEvict[T any](fn func(T)) Option[T] {
	return func(p *Pool[T]) { p.evict = fn }
}

// New creates a pool that allocates new entries with alloc.
func New[T any](alloc func(geom.ISize) (T, error), opts ...Option[T]) *Pool[T] {
	p := &Pool[T]{
		buckets: make(map[uint32][]T),
		limit:   DefaultBucketLimit,
		alloc:   alloc,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Get returns an idle entry of the given size or allocates one.
func (p *Pool[T]) Get(size geom.ISize) (T, error) {
	key := sizeKey(size)
	p.mu.Lock()
	if b := p.buckets[key]; len(b) > 0 {
		v := b[len(b)-1]
		var zero T
		b[len(b)-1] = zero
		p.buckets[key] = b[:len(b)-1]
		p.idle--
		p.mu.Unlock()
		p.hits.Add(1)
		if p.reset != nil {
			p.reset(v)
		}
		return v, nil
	}
	p.mu.Unlock()
	p.misses.Add(1)
	return p.alloc(size)
}

// Put returns an entry of the given size. When the bucket is full the
// entry is evicted.
func (p *Pool[T]) Put(size geom.ISize, v T) {
	key := sizeKey(size)
	p.mu.Lock()
	if len(p.buckets[key]) >= p.limit {
		p.mu.Unlock()
		p.evictOne(v)
		return
	}
	p.buckets[key] = append(p.buckets[key], v)
	p.idle++
	p.mu.Unlock()
}

// Drain evicts every idle entry.
func (p *Pool[T]) Drain() {
	p.mu.Lock()
	buckets := p.buckets
	p.buckets = make(map[uint32][]T)
	p.idle = 0
	p.mu.Unlock()
	for _, b := range buckets {
		for _, v := range b {
			p.evictOne(v)
		}
	}
}

// Stats returns a snapshot of the pool counters.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	idle := p.idle
	p.mu.Unlock()
	return Stats{
		Hits:      p.hits.Load(),
		Misses:    p.misses.Load(),
		Evictions: p.evictions.Load(),
		Idle:      idle,
	}
}

func (p *Pool[T]) evictOne(v T) {
	p.evictions.Add(1)
	if p.evict != nil {
		p.evict(v)
	}
}

// sizeKey packs a size into a bucket key. Dimensions are clamped to 16 bits.
func sizeKey(s geom.ISize) uint32 {
	w := min(max(s.W, 0), 0xFFFF)
	h := min(max(s.H, 0), 0xFFFF)
	return uint32(w)<<16 | uint32(h) //nolint:gosec // values are clamped above
}
