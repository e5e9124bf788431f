package speech

import (
	"context"
	"strings"
	"sync"

	"github.com/inovabank/nina/internal/playback"
)

// Cache maps normalized spoken text to previously resolved audio. Entries are
// never evicted in-session: per-session phrase cardinality is small.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	data        []byte
	contentType string
	sourceURL   string
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// CacheKey normalizes text into a case- and whitespace-insensitive lookup key.
func CacheKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func (c *Cache) Get(text string) (data []byte, contentType string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[CacheKey(text)]
	if !ok {
		return nil, "", false
	}
	return e.data, e.contentType, true
}

func (c *Cache) Put(text string, data []byte, contentType, sourceURL string) {
	key := CacheKey(text)
	if key == "" || len(data) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{data: data, contentType: contentType, sourceURL: sourceURL}
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CacheBackend replays previously fetched audio without touching the network.
type CacheBackend struct {
	cache  *Cache
	player *Player
}

func NewCacheBackend(cache *Cache, player *Player) *CacheBackend {
	return &CacheBackend{cache: cache, player: player}
}

func (b *CacheBackend) Name() string { return "cache" }

func (b *CacheBackend) Available() bool {
	return b != nil && b.cache != nil && b.player.Available()
}

func (b *CacheBackend) Synthesize(_ context.Context, text string) (playback.Playable, error) {
	data, contentType, ok := b.cache.Get(text)
	if !ok {
		return nil, ErrCacheMiss
	}
	return b.player.Clip(data, contentType), nil
}
