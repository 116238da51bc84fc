package proxy

import (
	"context"
	"sync"
)

// cell is a single-assignment cache slot. The first successful load is kept;
// a failed load leaves the cell empty so the next caller tries again.
// Callers arriving during a load wait for it, or for their own context,
// instead of starting their own.
type cell struct {
	mu       sync.Mutex
	done     bool
	value    any
	inflight chan struct{}
}

func (c *cell) get(ctx context.Context, load func() (any, error)) (any, error) {
	for {
		c.mu.Lock()
		if c.done {
			v := c.value
			c.mu.Unlock()
			return v, nil
		}
		if wait := c.inflight; wait != nil {
			c.mu.Unlock()
			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if err := ctx.Err(); err != nil {
			c.mu.Unlock()
			return nil, err
		}
		wait := make(chan struct{})
		c.inflight = wait
		c.mu.Unlock()

		v, err := load()

		c.mu.Lock()
		if err == nil {
			c.value, c.done = v, true
		}
		c.inflight = nil
		c.mu.Unlock()
		close(wait)
		return v, err
	}
}

// loaded reports whether the cell holds a value.
func (c *cell) loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}
