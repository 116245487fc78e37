package tokeninfo

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Fetcher is the upstream lookup the cache fronts.
type Fetcher interface {
	Lookup(ctx context.Context, address string) (Info, error)
}

type entry struct {
	info       Info
	insertedAt time.Time
}

// Cache fronts token metadata lookups with three layers: cache hit,
// in-flight join, or new fetch. For any key at most one upstream request
// is in flight at a time; concurrent callers for the same key all receive
// the result of that single request.
//
// Failures are not errors from the caller's perspective: a network
// failure, a non-2xx status, and a malformed payload are all observably
// identical to a miss.
//
// The cache is safe for unbounded concurrent callers. The lock guards
// only map access; no network I/O happens while it is held.
type Cache struct {
	fetcher Fetcher
	now     func() time.Time

	mu      sync.RWMutex
	entries map[string]entry

	group singleflight.Group
}

// NewCache creates a cache over the given fetcher.
func NewCache(fetcher Fetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

func normalizeKey(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// Fetch returns the metadata for an address, consulting the cache first,
// then joining any in-flight fetch for the same key, and only then
// issuing a new upstream request. ok is false when the value could not
// be resolved.
func (c *Cache) Fetch(ctx context.Context, address string) (Info, bool) {
	key := normalizeKey(address)
	if key == "" {
		return Info{}, false
	}

	c.mu.RLock()
	cached, hit := c.entries[key]
	c.mu.RUnlock()
	if hit {
		return cached.info, true
	}

	value, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A fetch that completed between the read above and joining the
		// flight serves from cache without another upstream call.
		c.mu.RLock()
		cached, hit := c.entries[key]
		c.mu.RUnlock()
		if hit {
			return cached.info, nil
		}

		info, err := c.fetcher.Lookup(ctx, address)
		if err != nil {
			return Info{}, err
		}

		c.mu.Lock()
		c.entries[key] = entry{info: info, insertedAt: c.now()}
		c.mu.Unlock()
		return info, nil
	})
	if err != nil {
		return Info{}, false
	}
	return value.(Info), true
}

// FetchMany fans out one Fetch per distinct key and returns the subset
// that resolved, keyed by normalized address. Individual failures are
// dropped; partial results are the expected behavior, not an error.
func (c *Cache) FetchMany(ctx context.Context, addresses []string) map[string]Info {
	results := make(map[string]Info)
	seen := make(map[string]struct{}, len(addresses))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, address := range addresses {
		key := normalizeKey(address)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		wg.Add(1)
		go func(address, key string) {
			defer wg.Done()
			if info, ok := c.Fetch(ctx, address); ok {
				mu.Lock()
				results[key] = info
				mu.Unlock()
			}
		}(address, key)
	}
	wg.Wait()

	return results
}

// Clear atomically empties the cache. In-flight fetches are not
// cancelled; their results land in the now-empty cache, which is fine.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
