package pool

import "context"

// Lock is an exclusive single-unit resource, such as the packaging station.
type Lock struct {
	name     string
	sem      chan struct{}
	observer Observer
}

// NewLock creates an unheld Lock.
func NewLock(name string, opts ...Option) *Lock {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Lock{name: name, sem: make(chan struct{}, 1), observer: o.observer}
}

// Acquire blocks until the lock is free or the context is canceled.
// It returns ctx.Err() if acquisition is aborted due to cancellation.
func (l *Lock) Acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	if l.observer != nil {
		l.observer.Acquired(l.name, 1, 1)
	}
	return nil
}

// Release frees the lock. It must be held by the caller.
func (l *Lock) Release() {
	// Reported before the unit is handed back so events stay ordered.
	if l.observer != nil {
		l.observer.Released(l.name, 1, 0)
	}
	<-l.sem
}

// Name returns the lock name.
func (l *Lock) Name() string { return l.name }

// Held reports whether the lock is currently held.
func (l *Lock) Held() bool { return len(l.sem) == 1 }
