package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Cache maps payload content hashes to already-uploaded public URLs so a
// byte-identical image is uploaded at most once. Entries are only ever
// added, never evicted; the zero lifetime is the process.
type Cache struct {
	mu   sync.Mutex
	urls map[string]string
}

// NewCache returns an empty dedup cache.
func NewCache() *Cache {
	return &Cache{urls: make(map[string]string)}
}

var sharedCache = NewCache()

// SharedCache returns the process-wide dedup cache used by the services.
func SharedCache() *Cache {
	return sharedCache
}

// contentKey hashes decoded payload bytes.
func contentKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Lookup returns the URL a payload was previously uploaded to, if any.
func (c *Cache) Lookup(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	url, ok := c.urls[key]
	return url, ok
}

// Store records the URL for a payload.
func (c *Cache) Store(key, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.urls[key] = url
}
