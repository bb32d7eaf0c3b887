// Package dispatcher simulates customers calling the pizzeria: it creates one
// order per customer at randomized intervals and runs each on a bounded
// group of workers.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pizzeria/internal/apperr"
	"pizzeria/internal/model"
	"pizzeria/internal/random"
	"pizzeria/internal/service/shared"
	"pizzeria/internal/service/tracker"
)

// Processor runs one order to its end.
type Processor interface {
	Process(ctx context.Context, o *model.Order) ([]model.StepResult, error)
}

// SourceFunc returns the random source owned by order id.
type SourceFunc func(seed uint64, id int) random.Source

// Config controls arrivals and concurrency.
type Config struct {
	// Workers bounds the orders processed at once.
	Workers int
	Arrival shared.Range
	Unit    time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTracker counts in-flight orders on tr.
func WithTracker(tr *tracker.Tracker) Option {
	return func(d *Dispatcher) { d.tr = tr }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// WithSource overrides how per-order random sources are derived.
func WithSource(fn SourceFunc) Option {
	return func(d *Dispatcher) { d.source = fn }
}

// Dispatcher feeds orders to a Processor.
type Dispatcher struct {
	proc   Processor
	clock  clockwork.Clock
	cfg    Config
	tr     *tracker.Tracker
	log    *zap.Logger
	source SourceFunc
}

// New creates a Dispatcher. It panics on a nil processor or clock, or a
// non-positive worker bound.
func New(proc Processor, clk clockwork.Clock, cfg Config, opts ...Option) *Dispatcher {
	if proc == nil {
		panic("dispatcher.New: nil processor")
	}
	if clk == nil {
		panic("dispatcher.New: nil clock")
	}
	if cfg.Workers <= 0 {
		panic(fmt.Sprintf("dispatcher.New: workers %d must be positive", cfg.Workers))
	}
	d := &Dispatcher{
		proc:   proc,
		clock:  clk,
		cfg:    cfg,
		tr:     &tracker.Tracker{},
		log:    zap.NewNop(),
		source: random.ForOrder,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run places one order per customer and waits for all of them. Order i
// gets id i+1. Arrival gaps come from a source seeded with seed; nothing is
// waited for after the last arrival.
//
// Every order created is returned, even on error. A worker that panics ends
// the run with apperr.ErrSynchronization, one that fails for a reason other
// than a declined payment with apperr.ErrWorkerJoin, and cancellation before
// every order was placed with apperr.ErrWorkerSpawn.
func (d *Dispatcher) Run(ctx context.Context, customers int, seed uint64) ([]*model.Order, error) {
	orders := make([]*model.Order, 0, customers)
	arrivals := random.New(seed)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Workers)

	var spawnErr error
	for i := range customers {
		id := i + 1
		if err := gctx.Err(); err != nil {
			spawnErr = fmt.Errorf("order %d: %w: %w", id, apperr.ErrWorkerSpawn, err)
			break
		}

		o := model.New(id, seed, d.source(seed, id), d.clock.Now())
		orders = append(orders, o)
		d.spawn(gctx, g, o)

		if id == customers {
			break
		}
		gap := shared.Units(d.cfg.Arrival.Draw(arrivals), d.cfg.Unit)
		if err := shared.SleepOrDone(gctx, d.clock, gap); err != nil {
			spawnErr = fmt.Errorf("order %d: %w: %w", id+1, apperr.ErrWorkerSpawn, err)
			break
		}
	}

	if err := g.Wait(); err != nil {
		d.log.Error("run failed", zap.Error(err), zap.Int("placed", len(orders)))
		return orders, err
	}
	if spawnErr != nil {
		d.log.Error("dispatch aborted", zap.Error(spawnErr), zap.Int("placed", len(orders)))
		return orders, spawnErr
	}
	if err := ctx.Err(); err != nil {
		return orders, err
	}

	d.log.Info("all orders finished",
		zap.Int("orders", len(orders)),
		zap.Int64("peak_in_flight", d.tr.Peak()),
	)
	return orders, nil
}

// spawn starts the worker for o and returns once the order is counted in
// flight, so the count never lags behind the next arrival timer.
func (d *Dispatcher) spawn(ctx context.Context, g *errgroup.Group, o *model.Order) {
	counted := make(chan struct{})
	g.Go(func() error {
		d.tr.Inc()
		close(counted)
		defer d.tr.Dec()
		return d.work(ctx, o)
	})
	<-counted
}

func (d *Dispatcher) work(ctx context.Context, o *model.Order) (err error) {

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("order %d: %w: %v", o.ID, apperr.ErrSynchronization, r)
		}
	}()

	_, err = d.proc.Process(ctx, o)
	switch {
	case err == nil, apperr.IsOutcome(err):
		return nil
	case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		// The run is already ending; Run reports why.
		return nil
	default:
		return fmt.Errorf("order %d: %w: %w", o.ID, apperr.ErrWorkerJoin, err)
	}
}
