package reference

import (
	"sync/atomic"
)

// Counter is an atomic reference count. The holder that observes the
// transition to zero in Drop owns the release of the referenced value.
type Counter struct {
	count atomic.Int64
}

func (c *Counter) Init(n int64) {
	c.count.Store(n)
}

func (c *Counter) Grab() int64 {
	n := c.count.Add(1)
	if n < 2 {
		panic("reference: grab of released value")
	}
	return n
}

func (c *Counter) Drop() (last bool) {
	n := c.count.Add(-1)
	if n < 0 {
		panic("reference: dropped below zero")
	}
	last = n == 0
	return
}

func (c *Counter) Count() int64 {
	return c.count.Load()
}
