// Package payment provides the call-center step of the order pipeline: a
// phone line is held while the customer pays, and the order is either placed
// or declined.
//
// A declined payment is a normal outcome, reported as an error wrapping
// ErrDeclined so that callers can tell it apart from failures of the run.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"pizzeria/internal/model"
	"pizzeria/internal/service/shared"
)

type declinedError struct{}

func (declinedError) Error() string { return "payment declined" }
func (declinedError) Kind() string  { return "payment_declined" }

// ErrDeclined is returned when a customer's payment fails.
var ErrDeclined = declinedError{}

// Limiter is a pool of phone lines.
type Limiter interface {
	Acquire(ctx context.Context, n int) error
	Release(n int)
}

// Notifier is told the outcome of each call.
type Notifier interface {
	Placed(orderID int)
	Failed(orderID int)
}

// Config holds the payment parameters, in simulated time units.
type Config struct {
	Unit        time.Duration
	Delay       shared.Range
	Sizes       shared.Range
	FailPercent int
}

// Desk answers calls and takes payments.
type Desk struct {
	lines  Limiter
	clock  clockwork.Clock
	cfg    Config
	notify Notifier
}

// New creates a Desk. It panics if lines or clk is nil; a nil notifier is
// replaced by one that discards events.
func New(lines Limiter, clk clockwork.Clock, cfg Config, notify Notifier) *Desk {
	if lines == nil {
		panic("payment.New: nil phone lines")
	}
	if clk == nil {
		panic("payment.New: nil clock")
	}
	if notify == nil {
		notify = discard{}
	}
	return &Desk{lines: lines, clock: clk, cfg: cfg, notify: notify}
}

// Process answers the order's call and takes its payment.
//
// On success the order is sized and moved to Cooking; on a decline it is
// moved to Failed and an error wrapping ErrDeclined is returned. The phone
// line is released on every path.
func (d *Desk) Process(ctx context.Context, o *model.Order) error {
	if err := d.lines.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("payment: phone line: %w", err)
	}

	o.AnsweredAt = d.clock.Now()
	if err := o.Advance(model.Answered, o.AnsweredAt); err != nil {
		d.lines.Release(1)
		return err
	}

	wait := shared.Units(d.cfg.Delay.Draw(o.Rand), d.cfg.Unit)
	if err := shared.SleepOrDone(ctx, d.clock, wait); err != nil {
		d.lines.Release(1)
		return fmt.Errorf("payment: %w", err)
	}

	if o.Rand.IntN(100) < d.cfg.FailPercent {
		d.lines.Release(1)
		if err := o.Advance(model.Failed, d.clock.Now()); err != nil {
			return err
		}
		d.notify.Failed(o.ID)
		return fmt.Errorf("payment: order %d: %w", o.ID, ErrDeclined)
	}

	d.notify.Placed(o.ID)
	o.Size = d.cfg.Sizes.Draw(o.Rand)
	d.lines.Release(1)

	return o.Advance(model.Cooking, d.clock.Now())
}

type discard struct{}

func (discard) Placed(int) {}
func (discard) Failed(int) {}
