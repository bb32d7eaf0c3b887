// Package courier contains the delivery step of the order pipeline.
// It limits concurrent deliveries to the available deliverers and simulates
// the round trip to the customer.
package courier

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"pizzeria/internal/model"
	"pizzeria/internal/service/shared"
)

type Limiter interface {
	Acquire(ctx context.Context, n int) error
	Release(n int)
}

// Notifier is told when pizzas reach the customer's door.
type Notifier interface {
	Delivered(orderID int, elapsed time.Duration)
}

// Config holds the delivery parameters in simulated time units.
type Config struct {
	Unit     time.Duration
	Delivery shared.Range
}

// Fleet delivers packaged orders.
type Fleet struct {
	deliverers Limiter
	clock      clockwork.Clock
	cfg        Config
	notify     Notifier
}

// New creates a Fleet. It panics if deliverers or clk is nil.
func New(deliverers Limiter, clk clockwork.Clock, cfg Config, notify Notifier) *Fleet {
	if deliverers == nil {
		panic("courier.New: nil deliverers")
	}
	if clk == nil {
		panic("courier.New: nil clock")
	}
	if notify == nil {
		notify = discard{}
	}
	return &Fleet{deliverers: deliverers, clock: clk, cfg: cfg, notify: notify}
}

// Deliver runs the delivery step for an order in the Packaging state.
//
// The order counts as delivered when the outbound leg ends; the deliverer is
// held for the return leg of the same length as well.
func (f *Fleet) Deliver(ctx context.Context, o *model.Order) error {
	if err := f.deliverers.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("courier: deliverer: %w", err)
	}
	defer f.deliverers.Release(1)

	if err := o.Advance(model.Delivering, f.clock.Now()); err != nil {
		return err
	}

	leg := shared.Units(f.cfg.Delivery.Draw(o.Rand), f.cfg.Unit)

	if err := shared.SleepOrDone(ctx, f.clock, leg); err != nil {
		return fmt.Errorf("courier: outbound: %w", err)
	}
	o.DeliveredAt = f.clock.Now()
	f.notify.Delivered(o.ID, o.DoorTime())

	if err := shared.SleepOrDone(ctx, f.clock, leg); err != nil {
		return fmt.Errorf("courier: return: %w", err)
	}
	return nil
}

type discard struct{}

func (discard) Delivered(int, time.Duration) {}
