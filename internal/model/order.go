// Package model defines the order record that flows through the pizzeria and
// the per-step results reported by the pipeline.
package model

import (
	"errors"
	"fmt"
	"time"

	"pizzeria/internal/random"
)

// ErrInvalidTransition is returned when an order is moved to a state that
// cannot follow its current one.
var ErrInvalidTransition = errors.New("invalid order transition")

// State is the stage an order is in.
type State int

const (
	Calling State = iota
	Answered
	Failed
	Cooking
	Baking
	Packaging
	Delivering
	Completed
)

var stateNames = [...]string{
	Calling:    "calling",
	Answered:   "answered",
	Failed:     "failed",
	Cooking:    "cooking",
	Baking:     "baking",
	Packaging:  "packaging",
	Delivering: "delivering",
	Completed:  "completed",
}

// String returns the state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == Failed || s == Completed
}

// next lists the states reachable from each state.
var next = map[State][]State{
	Calling:    {Answered},
	Answered:   {Failed, Cooking},
	Cooking:    {Baking},
	Baking:     {Packaging},
	Packaging:  {Delivering},
	Delivering: {Completed},
}

// Transition records when an order entered a state.
type Transition struct {
	State State
	At    time.Time
}

// Order is one customer's call and everything that follows it. An order is
// owned by a single worker for its whole lifetime.
type Order struct {
	ID   int
	Seed uint64
	Rand random.Source

	// Size is the number of pizzas, drawn once payment succeeds.
	Size int

	State   State
	History []Transition

	CalledAt    time.Time
	AnsweredAt  time.Time
	CookedAt    time.Time
	DeliveredAt time.Time
}

// New creates an order in the Calling state.
func New(id int, seed uint64, src random.Source, calledAt time.Time) *Order {
	return &Order{
		ID:       id,
		Seed:     seed,
		Rand:     src,
		State:    Calling,
		History:  []Transition{{State: Calling, At: calledAt}},
		CalledAt: calledAt,
	}
}

// Advance moves the order to state to at the given time.
func (o *Order) Advance(to State, at time.Time) error {
	for _, s := range next[o.State] {
		if s == to {
			o.State = to
			o.History = append(o.History, Transition{State: to, At: at})
			return nil
		}
	}
	return fmt.Errorf("order %d: %s -> %s: %w", o.ID, o.State, to, ErrInvalidTransition)
}

// EnteredAt returns when the order entered s and whether it ever did.
func (o *Order) EnteredAt(s State) (time.Time, bool) {
	for _, tr := range o.History {
		if tr.State == s {
			return tr.At, true
		}
	}
	return time.Time{}, false
}

// CallWait is the time the customer waited for a free phone line.
func (o *Order) CallWait() time.Duration { return o.AnsweredAt.Sub(o.CalledAt) }

// DoorTime is the time from the call until the pizzas reached the door.
func (o *Order) DoorTime() time.Duration { return o.DeliveredAt.Sub(o.CalledAt) }

// ColdTime is the time the pizzas spent out of the oven before delivery.
func (o *Order) ColdTime() time.Duration { return o.DeliveredAt.Sub(o.CookedAt) }
