package concurrent

import (
	"sync"
	"sync/atomic"
)

// Counter is a synchronous counter for tracking events and synchronising progress.
type Counter struct {
	waitGroup *sync.WaitGroup
	count     uint64
}

// NewCounter creates a new counter.
// The wait group is optional and is released once per tracked event.
func NewCounter(waitGroup *sync.WaitGroup) *Counter {
	return &Counter{
		waitGroup: waitGroup,
	}
}

// Track increments the counter by one and returns the new count.
func (c *Counter) Track() int {
	n := atomic.AddUint64(&c.count, 1)
	if c.waitGroup != nil {
		c.waitGroup.Done()
	}
	return int(n)
}

// Get returns the current count.
func (c *Counter) Get() int {
	return int(atomic.LoadUint64(&c.count))
}
