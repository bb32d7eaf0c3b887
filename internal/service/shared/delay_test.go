package shared

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pizzeria/internal/random"
)

func TestRangeDraw(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		r    Range
		src  random.Source
		want int
	}{
		{name: "low_end", r: Range{Low: 1, High: 5}, src: random.Fixed(0), want: 1},
		{name: "high_end", r: Range{Low: 1, High: 5}, src: random.Fixed(4), want: 5},
		{name: "degenerate", r: Range{Low: 3, High: 3}, src: random.Fixed(9), want: 3},
		{name: "zero", r: Range{}, src: random.Fixed(9), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.r.Draw(tt.src))
		})
	}
}

func TestRangeDrawStaysInBounds(t *testing.T) {
	t.Parallel()

	r := Range{Low: 5, High: 15}
	src := random.New(42)
	for i := 0; i < 1000; i++ {
		v := r.Draw(src)
		require.GreaterOrEqual(t, v, 5)
		require.LessOrEqual(t, v, 15)
	}
}

func TestRangeValid(t *testing.T) {
	t.Parallel()

	assert.True(t, Range{Low: 0, High: 0}.Valid())
	assert.True(t, Range{Low: 1, High: 2}.Valid())
	assert.False(t, Range{Low: 3, High: 2}.Valid())
	assert.False(t, Range{Low: -1, High: 2}.Valid())
}

func TestSleepOrDone(t *testing.T) {
	t.Parallel()

	clk := clockwork.NewFakeClock()
	start := clk.Now()

	done := make(chan error, 1)
	go func() {
		done <- SleepOrDone(context.Background(), clk, 10*time.Second)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clk.BlockUntilContext(ctx, 1))

	clk.Advance(10 * time.Second)
	require.NoError(t, <-done)
	assert.Equal(t, 10*time.Second, clk.Since(start))
}

func TestSleepOrDoneZeroReturnsAtOnce(t *testing.T) {
	t.Parallel()

	clk := clockwork.NewFakeClock()
	assert.NoError(t, SleepOrDone(context.Background(), clk, 0))
}

func TestSleepOrDoneCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := SleepOrDone(ctx, clockwork.NewFakeClock(), time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
