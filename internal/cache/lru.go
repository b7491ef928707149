// internal/cache/lru.go
//
// Bounded in-process LRU backend for the two-way URL cache.  No external
// deps; good for a single front-controller process.  Multi-process
// deployments should use the redis backend so every process sees the same
// invalidations.
package cache

import (
	"container/list"
	"context"
	"sync"
)

// LRU is a least-recently-used Store.  Safe for concurrent use.
type LRU struct {
	mu   sync.Mutex
	cap  int
	ll   *list.List
	dict map[string]*list.Element
}

type pair struct {
	key string
	val string
}

// NewLRU returns an LRU with the given capacity.  Panics on cap < 1.
func NewLRU(capacity int) *LRU {
	if capacity < 1 {
		panic("cache: capacity must be ≥1")
	}
	return &LRU{
		cap:  capacity,
		ll:   list.New(),
		dict: make(map[string]*list.Element, capacity),
	}
}

func lruKey(ns Namespace, key string) string { return string(ns) + "\x00" + key }

// Get retrieves a value and marks it MRU.
func (c *LRU) Get(_ context.Context, ns Namespace, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, hit := c.dict[lruKey(ns, key)]; hit {
		c.ll.MoveToFront(ele)
		return ele.Value.(pair).val, nil
	}
	return "", ErrMiss
}

// Set inserts or updates a value.
func (c *LRU) Set(_ context.Context, ns Namespace, key, val string) error {
	k := lruKey(ns, key)
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, hit := c.dict[k]; hit {
		ele.Value = pair{k, val}
		c.ll.MoveToFront(ele)
		return nil
	}
	ele := c.ll.PushFront(pair{k, val})
	c.dict[k] = ele
	if c.ll.Len() > c.cap {
		last := c.ll.Back()
		c.ll.Remove(last)
		delete(c.dict, last.Value.(pair).key)
	}
	return nil
}

// Delete removes a value.  Missing keys are not an error.
func (c *LRU) Delete(_ context.Context, ns Namespace, key string) error {
	k := lruKey(ns, key)
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, hit := c.dict[k]; hit {
		c.ll.Remove(ele)
		delete(c.dict, k)
	}
	return nil
}

// Purge drops every entry.
func (c *LRU) Purge(context.Context) error {
	c.mu.Lock()
	c.ll.Init()
	c.dict = make(map[string]*list.Element, c.cap)
	c.mu.Unlock()
	return nil
}

// Len reports current size across both namespaces.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
