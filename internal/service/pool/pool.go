// Package pool provides the finite shared resources of the pizzeria: a
// counting semaphore with variable-quantity acquisition and an exclusive
// single-unit station.
package pool

import (
	"context"
	"fmt"
	"sync"
)

// WakePolicy selects how waiters are woken when units are released.
type WakePolicy int

const (
	// WakeOne signals a single waiter per release. Only valid for pools where
	// every acquisition asks for exactly one unit, so any waiter can proceed.
	WakeOne WakePolicy = iota
	// WakeAll broadcasts on every release. Required when acquisitions ask for
	// different quantities: each waiter rechecks its own demand and goes back
	// to waiting if it still cannot be met.
	WakeAll
)

// String returns the policy name.
func (w WakePolicy) String() string {
	switch w {
	case WakeOne:
		return "wake_one"
	case WakeAll:
		return "wake_all"
	default:
		return "unknown"
	}
}

// Observer receives every grant and release of a resource. Calls for one
// resource are serialized and reflect the order in which they happened.
type Observer interface {
	Acquired(pool string, n, inUse int)
	Released(pool string, n, inUse int)
}

// Option configures a resource.
type Option func(*options)

type options struct {
	observer Observer
}

// WithObserver reports grants and releases to o.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		opts.observer = o
	}
}

// Pool is a blocking counting semaphore over a fixed number of units.
// Acquisition is not FIFO: a later request may be granted before an earlier
// one if it is woken first.
type Pool struct {
	name     string
	capacity int
	policy   WakePolicy
	observer Observer

	mu        sync.Mutex
	cond      *sync.Cond
	available int
	waiting   int
}

// New creates a pool of capacity units. It panics if capacity is not positive.
func New(name string, capacity int, policy WakePolicy, opts ...Option) *Pool {
	if capacity <= 0 {
		panic(fmt.Sprintf("pool.New(%s): capacity %d must be positive", name, capacity))
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	p := &Pool{
		name:      name,
		capacity:  capacity,
		policy:    policy,
		observer:  o.observer,
		available: capacity,
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Acquire takes n units, blocking until that many are available or the
// context is done. It panics unless 0 < n <= capacity.
func (p *Pool) Acquire(ctx context.Context, n int) error {
	if n <= 0 || n > p.capacity {
		panic(fmt.Sprintf("pool %s: acquire %d units of capacity %d", p.name, n, p.capacity))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.available < n {
		if err := p.wait(ctx, n); err != nil {
			return err
		}
	}

	p.available -= n
	if p.observer != nil {
		p.observer.Acquired(p.name, n, p.capacity-p.available)
	}
	return nil
}

// wait blocks until n units are available. p.mu must be held.
func (p *Pool) wait(ctx context.Context, n int) error {
	if ctx.Done() != nil {
		stop := context.AfterFunc(ctx, func() {
			p.mu.Lock()
			p.cond.Broadcast()
			p.mu.Unlock()
		})
		defer stop()
	}

	p.waiting++
	defer func() { p.waiting-- }()

	for p.available < n {
		if err := ctx.Err(); err != nil {
			// A signal consumed by a waiter that gives up must reach another one.
			if p.policy == WakeOne && p.available > 0 {
				p.cond.Signal()
			}
			return err
		}
		p.cond.Wait()
	}
	return nil
}

// Release returns n units previously acquired by the caller and wakes waiters
// according to the pool's policy. Quantities are not checked.
func (p *Pool) Release(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.available += n
	if p.observer != nil {
		p.observer.Released(p.name, n, p.capacity-p.available)
	}

	switch p.policy {
	case WakeAll:
		p.cond.Broadcast()
	default:
		p.cond.Signal()
	}
}

// Name returns the pool name.
func (p *Pool) Name() string { return p.name }

// Capacity returns the fixed number of units.
func (p *Pool) Capacity() int { return p.capacity }

// Policy returns the wake policy.
func (p *Pool) Policy() WakePolicy { return p.policy }

// Available returns the units currently free.
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available
}

// InUse returns the units currently held.
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.capacity - p.available
}

// Waiting returns the number of callers blocked in Acquire.
func (p *Pool) Waiting() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waiting
}
