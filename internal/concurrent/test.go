package concurrent

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Assertion expects a number of events from concurrent routines.
type Assertion struct {
	counter  *Counter
	expected int
}

// NewAssertion creates an assertion for the expected number of events.
func NewAssertion(expected int) *Assertion {
	wg := new(sync.WaitGroup)
	wg.Add(expected)
	return &Assertion{
		counter:  NewCounter(wg),
		expected: expected,
	}
}

// Expect records an event.
func (a *Assertion) Expect() {
	if a.counter.Get() >= a.expected {
		panic(fmt.Sprintf("unexpected event: %d of %d", a.counter.Get()+1, a.expected))
	}
	a.counter.Track()
}

// Assert waits for the expected events up to the timeout.
func (a *Assertion) Assert(t *testing.T, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		a.counter.waitGroup.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Errorf("timed out waiting for events: %d of %d", a.counter.Get(), a.expected)
	}
	assert.Equal(t, a.expected, a.counter.Get())
}
