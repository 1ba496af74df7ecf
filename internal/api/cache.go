package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Cache holds the last rendered feed for a TTL, with an ETag minted per
// rebuild so readers can revalidate cheaply.
type Cache struct {
	mu   sync.Mutex
	at   time.Time
	val  []byte
	etag string
	ttl  time.Duration
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl}
}

func (c *Cache) Get() ([]byte, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.val == nil || time.Since(c.at) > c.ttl {
		return nil, "", false
	}
	return c.val, c.etag, true
}

func (c *Cache) Set(b []byte) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.val = b
	c.etag = `"` + uuid.NewString() + `"`
	c.at = time.Now()
	return c.etag
}
