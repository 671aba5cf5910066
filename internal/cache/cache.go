package cache

import (
	"container/list"
	"context"
	"sync"

	"github.com/kjstillabower/weather-relay/internal/models"
)

// DefaultCapacity is the number of distinct lookups held by an LRUCache when
// no capacity is configured.
const DefaultCapacity = 500

// Cache defines the interface for lookup result caching implementations.
// Entries have no TTL; they live until evicted by capacity pressure.
type Cache interface {
	Get(ctx context.Context, key models.Key) (models.Result, bool, error)
	Set(ctx context.Context, key models.Key, value models.Result) error
}

// LRUCache implements Cache as a bounded map with least-recently-used eviction.
// Safe for concurrent use.
type LRUCache struct {
	mu        sync.Mutex
	capacity  int
	items     map[models.Key]*list.Element
	evictList *list.List
	onEvict   func(key models.Key)
}

type lruEntry struct {
	key   models.Key
	value models.Result
}

// NewLRUCache creates an LRUCache holding at most capacity entries.
// A capacity <= 0 uses DefaultCapacity.
func NewLRUCache(capacity int) *LRUCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &LRUCache{
		capacity:  capacity,
		items:     make(map[models.Key]*list.Element, capacity),
		evictList: list.New(),
	}
}

// OnEvict registers fn to be called with the key of every evicted entry.
// fn runs with the cache lock held and must not call back into the cache.
func (c *LRUCache) OnEvict(fn func(key models.Key)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get returns the stored result for key and marks it most recently used.
func (c *LRUCache) Get(ctx context.Context, key models.Key) (models.Result, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return models.Result{}, false, nil
	}
	c.evictList.MoveToFront(elem)
	return elem.Value.(*lruEntry).value, true, nil
}

// Set stores value under key. Inserting a new key into a full cache evicts
// the least recently used entry first; replacing an existing key evicts nothing.
func (c *LRUCache) Set(ctx context.Context, key models.Key, value models.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*lruEntry).value = value
		c.evictList.MoveToFront(elem)
		return nil
	}

	if c.evictList.Len() >= c.capacity {
		c.removeOldest()
	}
	c.items[key] = c.evictList.PushFront(&lruEntry{key: key, value: value})
	return nil
}

// Contains reports whether key is cached without touching its recency.
func (c *LRUCache) Contains(key models.Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// Len returns the number of cached entries.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

// Capacity returns the maximum number of entries.
func (c *LRUCache) Capacity() int {
	return c.capacity
}

func (c *LRUCache) removeOldest() {
	elem := c.evictList.Back()
	if elem == nil {
		return
	}
	c.evictList.Remove(elem)
	entry := elem.Value.(*lruEntry)
	delete(c.items, entry.key)
	if c.onEvict != nil {
		c.onEvict(entry.key)
	}
}
