package monitor

import (
	"sync"
	"sync/atomic"
)

// Manual switches only when Trigger is called. Triggers that arrive before
// the loop polls are coalesced into one switch.
type Manual struct {
	pending  atomic.Bool
	notify   chan struct{}
	mu       sync.Mutex
	outcomes []bool
}

func NewManual() *Manual {
	return &Manual{notify: make(chan struct{}, 1)}
}

// Trigger requests a switch and wakes the loop. It never blocks.
func (m *Manual) Trigger() {
	m.pending.Store(true)
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

func (m *Manual) ShouldSwitch() bool { return m.pending.Swap(false) }

func (m *Manual) ReportOutcome(success bool) {
	m.mu.Lock()
	m.outcomes = append(m.outcomes, success)
	m.mu.Unlock()
}

// Outcomes returns a copy of every outcome reported so far, oldest first.
func (m *Manual) Outcomes() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.outcomes...)
}

func (m *Manual) Notify() <-chan struct{} { return m.notify }
