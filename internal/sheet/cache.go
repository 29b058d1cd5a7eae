package sheet

import (
	"sync"
	"time"

	"github.com/kncci/jiinue-dashboard/internal/participant"
)

// Cache holds the most recently loaded snapshot with its fetch time. Within
// the staleness window repeated loads return the cached table unchanged even
// if the remote sheet has moved on; that bounded staleness is the trade for
// not refetching on every interaction. Safe for concurrent readers with a
// single-writer refresh.
type Cache struct {
	mu  sync.RWMutex
	ttl time.Duration
	now func() time.Time

	table     participant.Table
	fetchedAt time.Time
	loaded    bool
}

// NewCache creates a snapshot cache. now is injectable so staleness is
// testable with a fake clock; pass nil for time.Now.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{ttl: ttl, now: now}
}

// Fresh returns the cached table while it is inside the staleness window.
func (c *Cache) Fresh() (participant.Table, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded || c.now().Sub(c.fetchedAt) >= c.ttl {
		return nil, time.Time{}, false
	}
	return c.table, c.fetchedAt, true
}

// Last returns the cached table regardless of age. Callers use it to decide
// whether to serve stale data after a failed refresh.
func (c *Cache) Last() (participant.Table, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return nil, time.Time{}, false
	}
	return c.table, c.fetchedAt, true
}

// Put replaces the snapshot and restarts the staleness window.
func (c *Cache) Put(t participant.Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table = t
	c.fetchedAt = c.now()
	c.loaded = true
}
