package bis

import (
	"context"
	"sync"
	"time"
)

// DefaultCacheTTL bounds how long a GET body is reused. Changes made in BIS
// by other clients become visible after at most this long.
const DefaultCacheTTL = 60 * time.Second

// Cache tags. Each GET declares the tags its response depends on and each
// mutation invalidates the tags it touches.
const (
	TagEvents        = "events"
	TagUsers         = "users"
	TagLocations     = "locations"
	TagCategories    = "categories"
	TagOpportunities = "opportunities"
)

func eventTag(id int) string        { return "event:" + itoa(id) }
func applicationsTag(id int) string { return "applications:" + itoa(id) }
func userTag(id int) string         { return "user:" + itoa(id) }

type bypassKey struct{}

// WithoutCache marks ctx so reads made with it skip cached responses. The
// fresh answer still replaces the cached one.
func WithoutCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassKey{}, true)
}

func bypassCache(ctx context.Context) bool {
	v, _ := ctx.Value(bypassKey{}).(bool)
	return v
}

type cacheEntry struct {
	body    []byte
	tags    []string
	expires time.Time
}

// responseCache holds raw GET bodies keyed by path and query
type responseCache struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	generation uint64
	ttl        time.Duration
	now        func() time.Time
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{entries: make(map[string]cacheEntry), ttl: ttl, now: time.Now}
}

func (c *responseCache) get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expires) {
		return nil, false
	}
	return e.body, true
}

// gen returns the invalidation counter. A response fetched before an
// invalidation must not be stored after it.
func (c *responseCache) gen() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

func (c *responseCache) put(key string, body []byte, tags []string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || c.ttl <= 0 {
		return
	}
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{body: body, tags: tags, expires: now.Add(c.ttl)}
}

// invalidate drops every entry carrying any of tags and returns how many
// entries were removed.
func (c *responseCache) invalidate(tags ...string) int {
	if len(tags) == 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++

	drop := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		drop[t] = struct{}{}
	}
	removed := 0
	for key, e := range c.entries {
		for _, t := range e.tags {
			if _, ok := drop[t]; ok {
				delete(c.entries, key)
				removed++
				break
			}
		}
	}
	return removed
}

func (c *responseCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.entries = make(map[string]cacheEntry)
}

func (c *responseCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
