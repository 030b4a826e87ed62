package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Advisor is the assessment surface CachedAdvisor wraps. *Client implements
// it.
type Advisor interface {
	Assess(ctx context.Context, region string, temperature float64) (string, error)
}

// CachedAdvisor wraps an Advisor with an in-memory LRU cache. A region's
// temperature only changes when the pipeline refreshes, so repeated advisory
// requests between refreshes are served without another Gemini call.
type CachedAdvisor struct {
	inner Advisor
	cache *lruCache
}

// NewCachedAdvisor creates a cache decorator around an advisor.
func NewCachedAdvisor(inner Advisor, maxEntries int) *CachedAdvisor {
	return &CachedAdvisor{
		inner: inner,
		cache: newLRUCache(maxEntries),
	}
}

func (c *CachedAdvisor) Assess(ctx context.Context, region string, temperature float64) (string, error) {
	key := fmt.Sprintf("%s|%.1f", region, temperature)
	if text, ok := c.cache.get(key); ok {
		return text, nil
	}
	text, err := c.inner.Assess(ctx, region, temperature)
	if err != nil {
		return text, err
	}
	// Rate-limit fallbacks are never cached so a recovered API replaces them
	// on the next request.
	if text != "" && !strings.HasPrefix(text, fallbackHeader) {
		c.cache.put(key, text)
	}
	return text, nil
}

// lruCache is a simple thread-safe LRU cache for advisory texts.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value string
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
