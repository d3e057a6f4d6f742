// Package cache holds query results keyed by their SQL text.
//
// A QueryCache is bounded by entry count (least recently used entries are
// evicted first) and by a per-entry TTL. A key is only recomputed once it has
// been evicted or has expired. An optional Backend shares results between
// processes; it is consulted after a local miss and filled after a load.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// Backend is a shared second-level store for encoded results.
type Backend interface {
	// Get returns the value stored under key. A missing key is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Stats counts lookups served by GetOrLoad.
type Stats struct {
	Hits   int64
	Misses int64
}

// QueryCache maps query strings to results. Safe for concurrent use.
type QueryCache[T any] struct {
	lru   *expirable.LRU[string, T]
	group singleflight.Group
	ttl   time.Duration

	backend        Backend
	onBackendError func(error)

	mu      sync.Mutex
	flights map[string]*flight

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache holding at most maxEntries results for ttl each.
// maxEntries <= 0 means unbounded and ttl <= 0 means entries never expire.
func New[T any](maxEntries int, ttl time.Duration) *QueryCache[T] {
	if maxEntries < 0 {
		maxEntries = 0
	}
	if ttl < 0 {
		ttl = 0
	}
	return &QueryCache[T]{
		lru:     expirable.NewLRU[string, T](maxEntries, nil, ttl),
		ttl:     ttl,
		flights: make(map[string]*flight),
	}
}

// WithBackend attaches a shared store. Results are stored in it as JSON.
// Backend failures never fail a lookup; they are passed to onError, which may be nil.
// It must be called before the cache is used.
func (c *QueryCache[T]) WithBackend(b Backend, onError func(error)) *QueryCache[T] {
	c.backend = b
	c.onBackendError = onError
	return c
}

// Get returns the cached result for query.
func (c *QueryCache[T]) Get(query string) (T, bool) {
	return c.lru.Get(query)
}

// Add stores result under query and reports whether an older entry was evicted.
func (c *QueryCache[T]) Add(query string, result T) bool {
	return c.lru.Add(query, result)
}

type loaded[T any] struct {
	value T
	hit   bool
	from  *flight
}

// flight is the context of an in-progress load. It stays live while any
// caller is still waiting for the result.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// GetOrLoad returns the cached result for query, or runs load and stores its
// result. Failed loads are not stored, but the value load returned alongside
// the error is passed through.
//
// Concurrent misses for the same query share a single load. The load is
// cancelled only once every waiting caller has given up, so one caller's
// cancellation never fails the others. A caller whose ctx ends stops waiting
// and gets ctx.Err().
func (c *QueryCache[T]) GetOrLoad(ctx context.Context, query string, load func(ctx context.Context) (T, error)) (result T, hit bool, err error) {
	if v, ok := c.lru.Get(query); ok {
		c.hits.Add(1)
		return v, true, nil
	}

	for {
		f := c.join(ctx, query)
		ch := c.group.DoChan(query, func() (any, error) {
			if v, ok := c.lru.Get(query); ok {
				return loaded[T]{value: v, hit: true, from: f}, nil
			}
			if v, ok := c.fromBackend(f.ctx, query); ok {
				c.lru.Add(query, v)
				return loaded[T]{value: v, hit: true, from: f}, nil
			}
			v, err := load(f.ctx)
			if err != nil {
				return loaded[T]{value: v, from: f}, err
			}
			c.lru.Add(query, v)
			c.toBackend(f.ctx, query, v)
			return loaded[T]{value: v, from: f}, nil
		})

		var res singleflight.Result
		select {
		case res = <-ch:
			c.leave(query, f)
		case <-ctx.Done():
			c.leave(query, f)
			var zero T
			return zero, false, ctx.Err()
		}

		l, _ := res.Val.(loaded[T])

		// This caller joined a load that its own waiters had already abandoned.
		if res.Err != nil && ctx.Err() == nil && l.from != f && isContextError(res.Err) {
			continue
		}

		if l.hit {
			c.hits.Add(1)
		} else {
			c.misses.Add(1)
		}
		return l.value, l.hit, res.Err
	}
}

func (c *QueryCache[T]) join(ctx context.Context, query string) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.flights[query]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		c.flights[query] = f
	}
	f.waiters++
	return f
}

func (c *QueryCache[T]) leave(query string, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if c.flights[query] == f {
		delete(c.flights, query)
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *QueryCache[T]) fromBackend(ctx context.Context, query string) (T, bool) {
	var v T
	if c.backend == nil {
		return v, false
	}
	data, ok, err := c.backend.Get(ctx, query)
	if err != nil {
		c.backendError(err)
		return v, false
	}
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		c.backendError(err)
		return v, false
	}
	return v, true
}

func (c *QueryCache[T]) toBackend(ctx context.Context, query string, v T) {
	if c.backend == nil {
		return
	}
	data, err := json.Marshal(v)
	if err == nil {
		err = c.backend.Set(ctx, query, data, c.ttl)
	}
	if err != nil {
		c.backendError(err)
	}
}

func (c *QueryCache[T]) backendError(err error) {
	if c.onBackendError != nil {
		c.onBackendError(err)
	}
}

// Stats returns the hit and miss counts of GetOrLoad so far.
func (c *QueryCache[T]) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Remove drops query from the cache.
func (c *QueryCache[T]) Remove(query string) bool {
	return c.lru.Remove(query)
}

// Len returns the number of resident entries, including expired ones not yet purged.
func (c *QueryCache[T]) Len() int {
	return c.lru.Len()
}

// Purge empties the cache.
func (c *QueryCache[T]) Purge() {
	c.lru.Purge()
}
