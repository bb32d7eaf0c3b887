package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testKindErr struct {
	kind string
}

func (e testKindErr) Error() string { return e.kind }
func (e testKindErr) Kind() string  { return e.kind }

func TestKind(t *testing.T) {
	t.Parallel()

	declined := testKindErr{kind: "payment_declined"}
	wrapped := fmt.Errorf("payment: %w", declined)

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "payment_declined", err: declined, want: "payment_declined"},
		{name: "payment_declined_wrapped", err: wrapped, want: "payment_declined"},
		{name: "deadline", err: context.DeadlineExceeded, want: "timeout"},
		{name: "canceled", err: context.Canceled, want: "canceled"},
		{name: "sync", err: ErrSynchronization, want: "internal"},
		{name: "unknown", err: errors.New("unknown"), want: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestIsOutcome(t *testing.T) {
	t.Parallel()

	assert.True(t, IsOutcome(fmt.Errorf("order 3: %w", testKindErr{kind: "payment_declined"})))
	assert.False(t, IsOutcome(nil))
	assert.False(t, IsOutcome(context.Canceled))
	assert.False(t, IsOutcome(ErrWorkerJoin))
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "arg_count", err: ErrArgCount, want: 3},
		{name: "invalid_argument", err: fmt.Errorf("customers %q: %w", "x", ErrInvalidArgument), want: 4},
		{name: "out_of_memory", err: ErrOutOfMemory, want: 5},
		{name: "spawn", err: fmt.Errorf("order 7: %w", ErrWorkerSpawn), want: 6},
		{name: "join", err: ErrWorkerJoin, want: 8},
		{name: "sync", err: fmt.Errorf("order 2: %w", ErrSynchronization), want: 9},
		{name: "sync_beats_join", err: fmt.Errorf("%w: %w", ErrWorkerJoin, ErrSynchronization), want: 9},
		{name: "no_calls", err: ErrNoCalls, want: 66},
		{name: "unknown", err: errors.New("boom"), want: ExitInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
