// Package random provides the seeded, per-worker random sources used by the
// simulation. A Source is never shared between goroutines.
package random

import "math/rand/v2"

// Source yields uniformly distributed integers in [0, n).
type Source interface {
	IntN(n int) int
}

// New returns a source seeded with seed.
func New(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, 0))
}

// ForOrder returns the source owned by order id, derived from the global seed.
func ForOrder(seed uint64, id int) Source {
	return rand.New(rand.NewPCG(seed+uint64(id), uint64(id)))
}

// Fixed is a Source that always yields the same value, clamped to [0, n).
type Fixed int

// IntN implements Source.
func (f Fixed) IntN(n int) int {
	v := int(f)
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
