package schema

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache holds the current Description behind an atomic pointer. Readers
// always see a complete snapshot; refresh builds the replacement off to the
// side and publishes it with a single pointer swap. Concurrent refresh
// calls are coalesced so reflection runs at most once at a time.
type Cache struct {
	reflector Reflector
	ttl       time.Duration

	current    atomic.Pointer[Description]
	group      singleflight.Group
	refreshing atomic.Bool
}

// NewCache wraps a reflector. A zero ttl disables staleness-driven refresh.
func NewCache(r Reflector, ttl time.Duration) *Cache {
	return &Cache{reflector: r, ttl: ttl}
}

// Refresh re-runs reflection and swaps the cached snapshot. Callers that
// arrive while a refresh is in flight wait for and share its result
// instead of starting duplicate reflection work.
func (c *Cache) Refresh(ctx context.Context) (*Description, error) {
	v, err, _ := c.group.Do("refresh", func() (any, error) {
		desc, err := c.reflector.Reflect(ctx)
		if err != nil {
			return nil, err
		}
		c.current.Store(desc)
		log.Printf("schema refreshed: %d tables (%s)", len(desc.Tables), desc.Dialect)
		return desc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Description), nil
}

// Snapshot returns the current description, reflecting first only if the
// cache is empty. A snapshot older than the TTL is still served
// immediately; the replacement is built in the background so readers never
// wait out a reflection pass. The returned value must be treated as
// read-only.
func (c *Cache) Snapshot(ctx context.Context) (*Description, error) {
	desc := c.current.Load()
	if desc == nil {
		return c.Refresh(ctx)
	}
	if c.ttl > 0 && time.Since(desc.RefreshedAt) > c.ttl {
		c.refreshInBackground()
	}
	return desc, nil
}

// refreshInBackground starts one asynchronous refresh pass. The flag keeps
// stale readers from stacking up goroutines behind the singleflight while
// a pass is running.
func (c *Cache) refreshInBackground() {
	if !c.refreshing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer c.refreshing.Store(false)
		if _, err := c.Refresh(context.Background()); err != nil {
			// Stale context beats no context; the next pass can recover.
			log.Printf("WARN: ttl refresh failed, serving stale snapshot: %v", err)
		}
	}()
}
