package core

import (
	"context"
	"log/slog"
	"sync"
)

// Cache holds the last successfully fetched collection snapshot for one
// entity type. Reloads are stale-while-revalidate: the previous value stays
// visible until a fetch succeeds, and a failed fetch leaves it untouched.
type Cache[E any] struct {
	mu        sync.Mutex
	value     []E
	loading   int // number of in-flight fetches
	gen       uint64
	seq       uint64 // ticket handed to each fetch as it starts
	committed uint64 // ticket of the newest fetch that committed
	fetch     func(context.Context) ([]E, error)
	logger    *slog.Logger
}

// NewCache builds a cache over the given fetch function. The logger receives
// load failures; a nil logger falls back to slog.Default.
func NewCache[E any](fetch func(context.Context) ([]E, error), logger *slog.Logger) *Cache[E] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache[E]{fetch: fetch, logger: logger}
}

// Value returns the last successful snapshot. Callers must not mutate the
// returned slice.
func (c *Cache[E]) Value() []E {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// IsLoading reports whether any fetch is in flight.
func (c *Cache[E]) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading > 0
}

// Generation returns a counter incremented on every successful reload.
func (c *Cache[E]) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Reload fetches the collection and swaps it in on success. On failure the
// previous value is retained and the error is logged, not returned: the cache
// never propagates load failures to its readers.
//
// Reloads may overlap. Each fetch takes a ticket on entry; a fetch that
// resolves after a younger one has already committed is discarded, so a slow
// stale fetch can never overwrite a newer snapshot. The loading flag stays
// set until the last in-flight fetch returns.
func (c *Cache[E]) Reload(ctx context.Context) {
	c.mu.Lock()
	c.seq++
	ticket := c.seq
	c.loading++
	c.mu.Unlock()

	items, err := c.fetch(ctx)

	c.mu.Lock()
	c.loading--
	if err == nil && ticket > c.committed {
		c.value = items
		c.committed = ticket
		c.gen++
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("collection reload failed", "error", err)
	}
}
