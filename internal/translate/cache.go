package translate

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the two-tier translation cache from spec §5: a bounded
// in-process LRU-lite tier (≤500 entries) in front of an unbounded,
// TTL-backed external tier. Both are read-through; writes are
// best-effort, matching the spec's "writes are best-effort" note.
type Cache struct {
	mu       sync.Mutex
	ll       *list.List
	items    map[string]*list.Element
	capacity int

	redis *redis.Client
	ttl   time.Duration
}

type cacheEntry struct {
	key   string
	value string
}

// NewCache builds a Cache. redisClient may be nil, in which case the
// external tier is skipped (dev/test mode).
func NewCache(redisClient *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		ll:       list.New(),
		items:    make(map[string]*list.Element),
		capacity: 500,
		redis:    redisClient,
		ttl:      ttl,
	}
}

func cacheKey(messageID int64, targetLang string) string {
	return fmt.Sprintf("tr:%d:%s", messageID, targetLang)
}

// Get checks the in-process tier first, then the external tier.
func (c *Cache) Get(messageID int64, targetLang string) (string, bool) {
	key := cacheKey(messageID, targetLang)

	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		val := el.Value.(*cacheEntry).value
		c.mu.Unlock()
		return val, true
	}
	c.mu.Unlock()

	if c.redis == nil {
		return "", false
	}
	val, err := c.redis.Get(context.Background(), key).Result()
	if err != nil {
		return "", false
	}
	c.setLocal(key, val)
	return val, true
}

// Set writes through both tiers, best-effort.
func (c *Cache) Set(messageID int64, targetLang, value string) {
	key := cacheKey(messageID, targetLang)
	c.setLocal(key, value)

	if c.redis == nil {
		return
	}
	_ = c.redis.Set(context.Background(), key, value, c.ttl).Err()
}

func (c *Cache) setLocal(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		el.Value.(*cacheEntry).value = value
		return
	}

	el := c.ll.PushFront(&cacheEntry{key: key, value: value})
	c.items[key] = el

	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}
}
