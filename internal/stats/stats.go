// Package stats accumulates the pizzeria's daily statistics.
//
// Calls and completions are guarded by separate locks: every order records a
// call, only successful ones record a completion, and the two never need to
// be consistent with each other until the day is over.
package stats

import (
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Aggregator is safe for concurrent use by order workers.
type Aggregator struct {
	price int

	callMu     sync.Mutex
	totalCalls int

	doneMu     sync.Mutex
	successful int
	revenue    int
	callWait   latency
	doorTime   latency
	coldTime   latency
	doorTimes  []time.Duration
}

type latency struct {
	total time.Duration
	max   time.Duration
}

func (l *latency) add(d time.Duration) {
	l.total += d
	if d > l.max {
		l.max = d
	}
}

// New returns an empty aggregator that charges pricePerPizza per pizza.
func New(pricePerPizza int) *Aggregator {
	return &Aggregator{price: pricePerPizza}
}

// RecordCall counts one incoming call, whatever its outcome.
func (a *Aggregator) RecordCall() {
	a.callMu.Lock()
	a.totalCalls++
	a.callMu.Unlock()
}

// RecordCompletion accounts for one delivered order of size pizzas.
func (a *Aggregator) RecordCompletion(size int, callWait, doorTime, coldTime time.Duration) {
	a.doneMu.Lock()
	defer a.doneMu.Unlock()

	a.successful++
	a.revenue += a.price * size
	a.callWait.add(callWait)
	a.doorTime.add(doorTime)
	a.coldTime.add(coldTime)
	a.doorTimes = append(a.doorTimes, doorTime)
}

// Snapshot returns the accumulated statistics. It is meant to be called once
// every worker has finished.
func (a *Aggregator) Snapshot() DayStats {
	a.callMu.Lock()
	calls := a.totalCalls
	a.callMu.Unlock()

	a.doneMu.Lock()
	defer a.doneMu.Unlock()

	return DayStats{
		TotalCalls:       calls,
		SuccessfulOrders: a.successful,
		Revenue:          a.revenue,
		CallWaitTotal:    a.callWait.total,
		CallWaitMax:      a.callWait.max,
		DoorTimeTotal:    a.doorTime.total,
		DoorTimeMax:      a.doorTime.max,
		ColdTimeTotal:    a.coldTime.total,
		ColdTimeMax:      a.coldTime.max,
		DoorTimes:        append([]time.Duration(nil), a.doorTimes...),
	}
}

// DayStats is a point-in-time copy of the aggregated statistics.
type DayStats struct {
	TotalCalls       int
	SuccessfulOrders int
	Revenue          int

	CallWaitTotal time.Duration
	CallWaitMax   time.Duration
	DoorTimeTotal time.Duration
	DoorTimeMax   time.Duration
	ColdTimeTotal time.Duration
	ColdTimeMax   time.Duration

	// DoorTimes holds one sample per successful order, in completion order.
	DoorTimes []time.Duration
}

// FailedOrders is the number of calls that did not end in a delivery.
func (s DayStats) FailedOrders() int { return s.TotalCalls - s.SuccessfulOrders }

// MeanCallWait averages the recorded call wait over every call.
func (s DayStats) MeanCallWait() time.Duration {
	if s.TotalCalls == 0 {
		return 0
	}
	return s.CallWaitTotal / time.Duration(s.TotalCalls)
}

// MeanDoorTime averages time to delivery over successful orders.
func (s DayStats) MeanDoorTime() time.Duration {
	if s.SuccessfulOrders == 0 {
		return 0
	}
	return s.DoorTimeTotal / time.Duration(s.SuccessfulOrders)
}

// MeanColdTime averages cold time over successful orders.
func (s DayStats) MeanColdTime() time.Duration {
	if s.SuccessfulOrders == 0 {
		return 0
	}
	return s.ColdTimeTotal / time.Duration(s.SuccessfulOrders)
}

// DoorTimeQuantile returns the empirical p-quantile of time to delivery.
func (s DayStats) DoorTimeQuantile(p float64) time.Duration {
	if len(s.DoorTimes) == 0 {
		return 0
	}
	xs := make([]float64, len(s.DoorTimes))
	for i, d := range s.DoorTimes {
		xs[i] = float64(d)
	}
	sort.Float64s(xs)
	return time.Duration(stat.Quantile(p, stat.Empirical, xs, nil))
}
