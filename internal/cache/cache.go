// Package cache holds small shared in-memory state that multiple
// goroutines touch during a session.
package cache

import "sync"

// SafeCounter is a thread-safe counter. The session service uses one to
// hand out experiment numbers.
type SafeCounter struct {
	mu sync.Mutex
	v  uint
}

func (c *SafeCounter) Value() uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v uint) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

// Next increments the counter and returns the new value.
func (c *SafeCounter) Next() uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v++
	return c.v
}
