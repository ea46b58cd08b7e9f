package watch

import (
	"sync"
	"time"
)

// debouncer collapses bursts of triggers per key into a single callback
// after a quiet period. Every key debounces independently, so writes to
// one path never delay another path's refresh. Shutdown stops accepting
// new triggers, releases pending timers and waits for in-flight
// callbacks, so nothing is interrupted mid-write.
type debouncer struct {
	delay time.Duration

	mu       sync.Mutex
	timers   map[string]*time.Timer
	closed   bool
	inflight sync.WaitGroup
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:  delay,
		timers: make(map[string]*time.Timer),
	}
}

// Schedule arms (or re-arms) the timer for a key. The callback runs once
// the key has been quiet for the full delay.
func (d *debouncer) Schedule(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if t, ok := d.timers[key]; ok {
		t.Reset(d.delay)
		return
	}
	d.timers[key] = time.AfterFunc(d.delay, func() {
		d.fire(key, fn)
	})
}

// fire runs a due callback unless shutdown won the race
func (d *debouncer) fire(key string, fn func()) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	delete(d.timers, key)
	d.inflight.Add(1)
	d.mu.Unlock()

	defer d.inflight.Done()
	fn()
}

// Shutdown releases pending timers and waits for in-flight callbacks
func (d *debouncer) Shutdown() {
	d.mu.Lock()
	d.closed = true
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
	d.mu.Unlock()

	d.inflight.Wait()
}
