// Package shared provides the simulated-time helpers used across service
// steps: inclusive random ranges and clock-driven, cancellation-aware sleeps.
package shared

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"pizzeria/internal/random"
)

// Range is an inclusive interval of simulated time units.
type Range struct {
	Low  int `yaml:"low"`
	High int `yaml:"high"`
}

// Draw returns a value drawn uniformly from [Low, High].
func (r Range) Draw(src random.Source) int {
	if r.High <= r.Low {
		return r.Low
	}
	return r.Low + src.IntN(r.High-r.Low+1)
}

// Valid reports whether the range is non-negative and ordered.
func (r Range) Valid() bool {
	return r.Low >= 0 && r.Low <= r.High
}

// Units converts n simulated units to a duration.
func Units(n int, unit time.Duration) time.Duration {
	return time.Duration(n) * unit
}

// SleepOrDone waits for d on clk or returns early on context cancellation.
func SleepOrDone(ctx context.Context, clk clockwork.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := clk.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.Chan():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
