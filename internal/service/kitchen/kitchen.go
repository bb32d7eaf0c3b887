// Package kitchen contains the cooking step of the order pipeline: prep by a
// cook, baking in ovens and packaging at the single packaging station.
//
// The handoffs between stations never leave an order holding nothing: the
// next resource is secured before the previous one is released.
package kitchen

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"pizzeria/internal/model"
	"pizzeria/internal/service/shared"
)

// Pool is a counted resource such as the cooks or the ovens.
type Pool interface {
	Acquire(ctx context.Context, n int) error
	Release(n int)
}

// Station is an exclusive resource such as the packaging station.
type Station interface {
	Acquire(ctx context.Context) error
	Release()
}

// Notifier is told when an order leaves the kitchen.
type Notifier interface {
	// Prepared reports the time from the customer's call until packaging
	// was done.
	Prepared(orderID int, elapsed time.Duration)
}

// Config holds per-pizza durations in simulated time units.
type Config struct {
	Unit time.Duration
	Prep int
	Bake int
	Pack int
}

// Kitchen prepares paid orders.
type Kitchen struct {
	cooks     Pool
	ovens     Pool
	packaging Station
	clock     clockwork.Clock
	cfg       Config
	notify    Notifier
}

// New creates a Kitchen. It panics on a nil resource or clock.
func New(cooks, ovens Pool, packaging Station, clk clockwork.Clock, cfg Config, notify Notifier) *Kitchen {
	if cooks == nil || ovens == nil || packaging == nil {
		panic("kitchen.New: nil resource")
	}
	if clk == nil {
		panic("kitchen.New: nil clock")
	}
	if notify == nil {
		notify = discard{}
	}
	return &Kitchen{
		cooks:     cooks,
		ovens:     ovens,
		packaging: packaging,
		clock:     clk,
		cfg:       cfg,
		notify:    notify,
	}
}

// holdings tracks what an order currently holds so that error paths can
// give everything back.
type holdings struct {
	k         *Kitchen
	cooks     int
	ovens     int
	packaging bool
}

func (h *holdings) releaseAll() {
	if h.packaging {
		h.k.packaging.Release()
		h.packaging = false
	}
	if h.ovens > 0 {
		h.k.ovens.Release(h.ovens)
		h.ovens = 0
	}
	if h.cooks > 0 {
		h.k.cooks.Release(h.cooks)
		h.cooks = 0
	}
}

// Prepare cooks, bakes and packs an order in the Cooking state, leaving it
// in Packaging with CookedAt set. Every resource is released on return.
func (k *Kitchen) Prepare(ctx context.Context, o *model.Order) error {
	h := &holdings{k: k}
	defer h.releaseAll()

	if err := k.cooks.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("kitchen: cook: %w", err)
	}
	h.cooks = 1

	if err := k.work(ctx, k.cfg.Prep, o.Size); err != nil {
		return fmt.Errorf("kitchen: prep: %w", err)
	}

	if err := k.secureOvens(ctx, h, o.Size); err != nil {
		return err
	}
	if err := o.Advance(model.Baking, k.clock.Now()); err != nil {
		return err
	}

	if err := k.work(ctx, k.cfg.Bake, o.Size); err != nil {
		return fmt.Errorf("kitchen: bake: %w", err)
	}
	o.CookedAt = k.clock.Now()

	if err := k.claimPackaging(ctx, h); err != nil {
		return err
	}
	if err := o.Advance(model.Packaging, k.clock.Now()); err != nil {
		return err
	}

	if err := k.work(ctx, k.cfg.Pack, o.Size); err != nil {
		return fmt.Errorf("kitchen: pack: %w", err)
	}

	// Ovens go back while the station is still held.
	k.ovens.Release(h.ovens)
	h.ovens = 0
	k.packaging.Release()
	h.packaging = false

	k.notify.Prepared(o.ID, k.clock.Now().Sub(o.CalledAt))
	return nil
}

// secureOvens takes n ovens while the cook is held and only then frees the
// cook.
func (k *Kitchen) secureOvens(ctx context.Context, h *holdings, n int) error {
	if err := k.ovens.Acquire(ctx, n); err != nil {
		return fmt.Errorf("kitchen: ovens: %w", err)
	}
	h.ovens = n

	k.cooks.Release(h.cooks)
	h.cooks = 0
	return nil
}

// claimPackaging takes the packaging station while the ovens are held.
func (k *Kitchen) claimPackaging(ctx context.Context, h *holdings) error {
	if err := k.packaging.Acquire(ctx); err != nil {
		return fmt.Errorf("kitchen: packaging: %w", err)
	}
	h.packaging = true
	return nil
}

func (k *Kitchen) work(ctx context.Context, perPizza, size int) error {
	return shared.SleepOrDone(ctx, k.clock, shared.Units(perPizza*size, k.cfg.Unit))
}

type discard struct{}

func (discard) Prepared(int, time.Duration) {}
