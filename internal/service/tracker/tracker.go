// Package tracker counts orders that are currently being worked on.
package tracker

import "sync/atomic"

// Tracker counts in-flight orders using atomics and remembers the peak.
type Tracker struct {
	running atomic.Int64
	peak    atomic.Int64
	started atomic.Int64
}

// Inc marks one more order in flight.
func (t *Tracker) Inc() {
	t.started.Add(1)
	n := t.running.Add(1)
	for {
		p := t.peak.Load()
		if n <= p || t.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

// Dec marks one order as finished.
func (t *Tracker) Dec() { t.running.Add(-1) }

// Running returns the current in-flight count.
func (t *Tracker) Running() int64 { return t.running.Load() }

// Peak returns the highest in-flight count seen.
func (t *Tracker) Peak() int64 { return t.peak.Load() }

// Started returns how many orders have entered the tracker.
func (t *Tracker) Started() int64 { return t.started.Load() }
