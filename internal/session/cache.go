// Package session provides the bounded in-memory caches of the bot: per-chat
// menu state and fetched schedule results. Entries expire after a TTL and the
// least recently used entry is evicted when the cache is full.
package session

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Recorder receives cache metrics. *metrics.Metrics implements it.
type Recorder interface {
	RecordCacheHit(cache string)
	RecordCacheMiss(cache string)
	SetCacheEntries(cache string, n int)
}

// Options configures a Cache.
type Options struct {
	Name     string // metrics label
	Capacity int
	TTL      time.Duration

	// Sliding renews an entry's expiry on every read. Sessions slide;
	// schedule results expire at a fixed time after they were fetched.
	Sliding bool

	Metrics Recorder // optional
}

type entry[K comparable, V any] struct {
	key     K
	value   V
	expires time.Time
}

// Cache is a capacity- and TTL-bounded LRU map. It is safe for concurrent use.
type Cache[K comparable, V any] struct {
	mu    sync.Mutex
	opts  Options
	ll    *list.List // front = most recently used
	items map[K]*list.Element
	now   func() time.Time
}

// New creates a cache. Capacity below 1 is treated as 1.
func New[K comparable, V any](opts Options) *Cache[K, V] {
	return newWithClock[K, V](opts, time.Now)
}

func newWithClock[K comparable, V any](opts Options, now func() time.Time) *Cache[K, V] {
	if opts.Capacity < 1 {
		opts.Capacity = 1
	}
	return &Cache[K, V]{
		opts:  opts,
		ll:    list.New(),
		items: make(map[K]*list.Element),
		now:   now,
	}
}

// Get returns the live value for key.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	v, ok := c.getLocked(key)
	c.mu.Unlock()

	c.recordLookup(ok)
	return v, ok
}

func (c *Cache[K, V]) getLocked(key K) (V, bool) {
	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[K, V])
	now := c.now()
	if !now.Before(e.expires) {
		c.removeLocked(el)
		return zero, false
	}
	if c.opts.Sliding {
		e.expires = now.Add(c.opts.TTL)
	}
	c.ll.MoveToFront(el)
	return e.value, true
}

// Set stores value under key with a fresh TTL, evicting the least recently
// used entry when the cache is full.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	c.setLocked(key, value)
	n := c.ll.Len()
	c.mu.Unlock()

	c.publishSize(n)
}

func (c *Cache[K, V]) setLocked(key K, value V) {
	expires := c.now().Add(c.opts.TTL)
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[K, V])
		e.value, e.expires = value, expires
		c.ll.MoveToFront(el)
		return
	}
	for c.ll.Len() >= c.opts.Capacity {
		c.removeLocked(c.ll.Back())
	}
	c.items[key] = c.ll.PushFront(&entry[K, V]{key: key, value: value, expires: expires})
}

// Update atomically replaces the value of key with fn(current, found) and
// returns the stored result.
func (c *Cache[K, V]) Update(key K, fn func(current V, found bool) V) V {
	c.mu.Lock()
	current, found := c.getLocked(key)
	next := fn(current, found)
	c.setLocked(key, next)
	n := c.ll.Len()
	c.mu.Unlock()

	c.recordLookup(found)
	c.publishSize(n)
	return next
}

// Delete removes key.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		c.removeLocked(el)
	}
	n := c.ll.Len()
	c.mu.Unlock()

	c.publishSize(n)
}

// Len returns the number of stored entries, expired ones included until purged.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Purge removes expired entries and returns how many were removed.
func (c *Cache[K, V]) Purge() int {
	c.mu.Lock()
	now := c.now()
	removed := 0
	for el := c.ll.Back(); el != nil; {
		prev := el.Prev()
		if !now.Before(el.Value.(*entry[K, V]).expires) {
			c.removeLocked(el)
			removed++
		}
		el = prev
	}
	n := c.ll.Len()
	c.mu.Unlock()

	c.publishSize(n)
	return removed
}

// RunJanitor purges expired entries every interval until ctx is done.
func (c *Cache[K, V]) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Purge()
		}
	}
}

func (c *Cache[K, V]) removeLocked(el *list.Element) {
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry[K, V]).key)
}

func (c *Cache[K, V]) recordLookup(hit bool) {
	if c.opts.Metrics == nil {
		return
	}
	if hit {
		c.opts.Metrics.RecordCacheHit(c.opts.Name)
	} else {
		c.opts.Metrics.RecordCacheMiss(c.opts.Name)
	}
}

func (c *Cache[K, V]) publishSize(n int) {
	if c.opts.Metrics != nil {
		c.opts.Metrics.SetCacheEntries(c.opts.Name, n)
	}
}
