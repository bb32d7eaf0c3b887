package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pizzeria/internal/random"
)

func TestOrderHappyPath(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	o := New(1, 1001, random.Fixed(0), t0)
	require.Equal(t, Calling, o.State)

	path := []State{Answered, Cooking, Baking, Packaging, Delivering, Completed}
	for i, s := range path {
		require.NoError(t, o.Advance(s, t0.Add(time.Duration(i+1)*time.Second)))
	}

	assert.Equal(t, Completed, o.State)
	assert.True(t, o.State.Terminal())
	assert.Len(t, o.History, len(path)+1)

	at, ok := o.EnteredAt(Baking)
	require.True(t, ok)
	assert.Equal(t, t0.Add(3*time.Second), at)

	_, ok = o.EnteredAt(Failed)
	assert.False(t, ok)
}

func TestOrderFailedAfterAnswer(t *testing.T) {
	t.Parallel()

	o := New(2, 1002, random.Fixed(0), time.Time{})
	require.NoError(t, o.Advance(Answered, time.Time{}))
	require.NoError(t, o.Advance(Failed, time.Time{}))
	assert.True(t, o.State.Terminal())

	err := o.Advance(Cooking, time.Time{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrderRejectsSkippedStages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from []State
		to   State
	}{
		{name: "calling_to_cooking", to: Cooking},
		{name: "answered_to_baking", from: []State{Answered}, to: Baking},
		{name: "cooking_to_packaging", from: []State{Answered, Cooking}, to: Packaging},
		{name: "baking_to_delivering", from: []State{Answered, Cooking, Baking}, to: Delivering},
		{name: "calling_to_completed", to: Completed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			o := New(3, 0, random.Fixed(0), time.Time{})
			for _, s := range tt.from {
				require.NoError(t, o.Advance(s, time.Time{}))
			}
			before := o.State
			assert.ErrorIs(t, o.Advance(tt.to, time.Time{}), ErrInvalidTransition)
			assert.Equal(t, before, o.State)
		})
	}
}

func TestOrderLatencies(t *testing.T) {
	t.Parallel()

	t0 := time.Unix(0, 0)
	o := New(4, 0, random.Fixed(0), t0)
	o.AnsweredAt = t0.Add(3 * time.Second)
	o.CookedAt = t0.Add(40 * time.Second)
	o.DeliveredAt = t0.Add(55 * time.Second)

	assert.Equal(t, 3*time.Second, o.CallWait())
	assert.Equal(t, 55*time.Second, o.DoorTime())
	assert.Equal(t, 15*time.Second, o.ColdTime())
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "calling", Calling.String())
	assert.Equal(t, "delivering", Delivering.String())
	assert.Equal(t, "completed", Completed.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.Equal(t, "unknown", State(-1).String())
}
