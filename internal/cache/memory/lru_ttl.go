// Package memory provides an in-process LRU cache bounded by entry count,
// total byte size and per-entry TTL.
package memory

import (
	"container/list"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
	size      int
}

// LRUTTL is a threadsafe LRU cache with per-entry TTL.
type LRUTTL[K comparable, V any] struct {
	mu         sync.Mutex
	ll         *list.List
	items      map[K]*list.Element
	maxEntries int
	maxBytes   int
	totalBytes int
	ttl        time.Duration
	now        func() time.Time
	onEvict    func(K, V)
}

// NewLRUTTL creates a cache. maxBytes <= 0 disables the byte bound.
func NewLRUTTL[K comparable, V any](maxEntries int, maxBytes int, ttl time.Duration) *LRUTTL[K, V] {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &LRUTTL[K, V]{
		ll:         list.New(),
		items:      make(map[K]*list.Element),
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		ttl:        ttl,
		now:        time.Now,
	}
}

// OnEvict registers fn to run, under the cache lock, whenever an entry is
// dropped for size or expiry. Explicit Delete does not trigger it.
func (c *LRUTTL[K, V]) OnEvict(fn func(K, V)) *LRUTTL[K, V] {
	c.onEvict = fn
	return c
}

func (c *LRUTTL[K, V]) Get(key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ele, ok := c.items[key]
	if !ok {
		return zero, false
	}
	ent := ele.Value.(*entry[K, V])
	if c.now().After(ent.expiresAt) {
		c.evict(ele)
		return zero, false
	}
	c.ll.MoveToFront(ele)
	return ent.value, true
}

// Set stores value. An entry larger than the byte bound is not stored and
// Set reports false.
func (c *LRUTTL[K, V]) Set(key K, value V, sizeBytes int) bool {
	if c == nil {
		return false
	}
	if sizeBytes < 0 {
		sizeBytes = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxBytes > 0 && sizeBytes > c.maxBytes {
		if ele, ok := c.items[key]; ok {
			c.remove(ele)
		}
		return false
	}

	expiresAt := c.now().Add(c.ttl)
	if ele, ok := c.items[key]; ok {
		ent := ele.Value.(*entry[K, V])
		c.totalBytes += sizeBytes - ent.size
		ent.value = value
		ent.size = sizeBytes
		ent.expiresAt = expiresAt
		c.ll.MoveToFront(ele)
		c.evictLocked()
		return true
	}

	ele := c.ll.PushFront(&entry[K, V]{key: key, value: value, size: sizeBytes, expiresAt: expiresAt})
	c.items[key] = ele
	c.totalBytes += sizeBytes
	c.evictLocked()
	return true
}

func (c *LRUTTL[K, V]) Delete(key K) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, ok := c.items[key]; ok {
		c.remove(ele)
	}
}

// Len returns the number of entries, including expired ones not yet purged.
func (c *LRUTTL[K, V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Bytes returns the accounted size of all entries.
func (c *LRUTTL[K, V]) Bytes() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalBytes
}

// Purge drops every expired entry.
func (c *LRUTTL[K, V]) Purge() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for ele := c.ll.Back(); ele != nil; {
		prev := ele.Prev()
		if now.After(ele.Value.(*entry[K, V]).expiresAt) {
			c.evict(ele)
			n++
		}
		ele = prev
	}
	return n
}

func (c *LRUTTL[K, V]) evictLocked() {
	for c.ll.Len() > 0 {
		if c.ll.Len() <= c.maxEntries && (c.maxBytes <= 0 || c.totalBytes <= c.maxBytes) {
			return
		}
		c.evict(c.ll.Back())
	}
}

func (c *LRUTTL[K, V]) evict(ele *list.Element) {
	ent := c.remove(ele)
	if ent != nil && c.onEvict != nil {
		c.onEvict(ent.key, ent.value)
	}
}

func (c *LRUTTL[K, V]) remove(ele *list.Element) *entry[K, V] {
	if ele == nil {
		return nil
	}
	c.ll.Remove(ele)
	ent := ele.Value.(*entry[K, V])
	delete(c.items, ent.key)
	c.totalBytes -= ent.size
	if c.totalBytes < 0 {
		c.totalBytes = 0
	}
	return ent
}
