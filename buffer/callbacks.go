package buffer

import "sync"

type callbacks struct {
	mu     sync.Mutex
	cbs    []chan struct{}
	done   chan struct{}
	closed bool
}

func notifyCallback(notify <-chan struct{}, done <-chan struct{}, callback chan<- int) {
	for {
		select {
		case <-notify:
		case <-done:
			return
		}
		select {
		case callback <- 1: // potentially blocking send
		case <-done:
			return
		}
	}
}

// Add registers callback. Sends to a user channel may block, so each callback
// gets its own buffered channel and forwarding goroutine. A slow callback may
// miss intermediate updates but is always signaled at least once after the
// latest one.
func (c *callbacks) Add(callback chan<- int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.done == nil {
		c.done = make(chan struct{})
	}
	notify := make(chan struct{}, 1)
	c.cbs = append(c.cbs, notify)
	go notifyCallback(notify, c.done, callback)
}

// Signal all callback channels without blocking.
func (c *callbacks) Signal() {
	c.mu.Lock()
	for _, ch := range c.cbs {
		select {
		case ch <- struct{}{}:
			// The callback will be signaled (at some point).
		default:
			// We're still waiting for a previous signal to be sent, dropping
			// this signal.
		}
	}
	c.mu.Unlock()
}

// Close stops every forwarding goroutine, including those blocked sending to
// a callback nobody reads. Signals not yet delivered are dropped.
func (c *callbacks) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.done != nil {
		close(c.done)
	}
	c.cbs = nil
}
