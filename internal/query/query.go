package query

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Key identifies a cached query, e.g. {"tournament", guildID}.
type Key []string

func (k Key) String() string {
	return strings.Join(k, "\x1f")
}

// HasPrefix reports whether k starts with every part of prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

type entry struct {
	key       Key
	value     any
	fetchedAt time.Time
}

// flight is a running fetch. Invalidate drops it so that its result, read
// before a write, is not stored.
type flight struct {
	key Key
	seq uint64
}

// Cache keeps query results for a while and collapses concurrent fetches of
// the same key into one call.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	entries  map[string]entry
	inflight map[string]flight
	seq      uint64
	group    singleflight.Group
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]entry),
		inflight: make(map[string]flight),
	}
}

func (c *Cache) expired(e entry, now time.Time) bool {
	return now.Sub(e.fetchedAt) >= c.ttl
}

func (c *Cache) lookup(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.String()]
	if !ok {
		return nil, false
	}
	if c.expired(e, c.now()) {
		delete(c.entries, key.String())
		return nil, false
	}
	return e.value, true
}

func (c *Cache) begin(key Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.inflight[key.String()] = flight{key: key, seq: c.seq}
	return c.seq
}

// finish stores value unless the key was invalidated since begin. Expired
// entries of other keys are swept on the way.
func (c *Cache) finish(key Key, seq uint64, value any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key.String()
	if f, ok := c.inflight[k]; !ok || f.seq != seq {
		return
	}
	delete(c.inflight, k)
	if err != nil {
		return
	}

	now := c.now()
	for ek, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, ek)
		}
	}
	c.entries[k] = entry{key: key, value: value, fetchedAt: now}
}

// Invalidate drops every entry whose key starts with prefix. Fetches of those
// keys already running are detached: their result is not stored and later
// callers start a new fetch.
func (c *Cache) Invalidate(prefix Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			delete(c.entries, k)
		}
	}
	for k, f := range c.inflight {
		if f.key.HasPrefix(prefix) {
			delete(c.inflight, k)
			c.group.Forget(k)
		}
	}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Fetch returns the cached value for key or runs fn. Errors are not cached.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn func(context.Context) (T, error)) (T, error) {
	if v, ok := c.lookup(key); ok {
		return v.(T), nil
	}

	ch := c.group.DoChan(key.String(), func() (any, error) {
		seq := c.begin(key)
		// The shared call outlives any single caller's request.
		v, err := fn(context.WithoutCancel(ctx))
		c.finish(key, seq, v, err)
		if err != nil {
			return nil, err
		}
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
