package idempotency

import (
	"sync"
	"time"
)

// CachedResponse is a previously produced successful HTTP response
type CachedResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
	StoredAt    time.Time
}

// Guard deduplicates retried state-changing requests by client-supplied key.
// Only successful responses are recorded; errors are never cached so the
// client can fix the request and retry with the same key.
type Guard struct {
	mu       sync.Mutex
	entries  map[string]CachedResponse
	ttl      time.Duration
	purgeAge time.Duration
	now      func() time.Time
}

func NewGuard(ttl, purgeAge time.Duration) *Guard {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if purgeAge < ttl {
		purgeAge = 2 * ttl
	}
	return &Guard{
		entries:  make(map[string]CachedResponse),
		ttl:      ttl,
		purgeAge: purgeAge,
		now:      time.Now,
	}
}

// Check returns the cached response for key, if one exists within the TTL.
func (g *Guard) Check(key string) (CachedResponse, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.entries[key]
	if !ok {
		return CachedResponse{}, false
	}

	if g.now().Sub(entry.StoredAt) > g.ttl {
		delete(g.entries, key)
		return CachedResponse{}, false
	}

	return entry, true
}

// Record stores a successful response under key. Expired entries are swept
// lazily on writes, so the map never needs a background goroutine.
func (g *Guard) Record(key string, resp CachedResponse) {
	if resp.StatusCode >= 400 {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	resp.StoredAt = g.now()
	g.entries[key] = resp

	for k, v := range g.entries {
		if g.now().Sub(v.StoredAt) > g.purgeAge {
			delete(g.entries, k)
		}
	}
}

// Len reports the current number of cached entries
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}
