// Package order runs a single pizza order through the pipeline steps.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"pizzeria/internal/apperr"
	"pizzeria/internal/model"
)

// Step is one named stage of the pipeline.
type Step struct {
	Name string
	Run  func(ctx context.Context, o *model.Order) error
}

// Recorder accumulates the day's statistics.
type Recorder interface {
	RecordCall()
	RecordCompletion(size int, callWait, doorTime, coldTime time.Duration)
}

// Observer is told about every finished step and order.
type Observer interface {
	StepFinished(r model.StepResult)
	OrderFinished(o *model.Order)
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used to time steps and stamp completion.
func WithClock(clk clockwork.Clock) Option {
	return func(s *Service) { s.clock = clk }
}

// WithRecorder sets where calls and completions are recorded.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithObserver adds an observer of steps and orders.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// Service orchestrates the order workflow.
type Service struct {
	steps    []Step
	clock    clockwork.Clock
	recorder Recorder
	observer Observer
	log      *zap.Logger
}

// New creates a Service running steps in order. It panics if no steps are
// given.
func New(steps []Step, opts ...Option) *Service {
	if len(steps) == 0 {
		panic("order.New: no steps")
	}
	s := &Service{
		steps:    steps,
		clock:    clockwork.NewRealClock(),
		recorder: nopRecorder{},
		observer: nopObserver{},
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process counts the call, then runs the steps one after another and returns
// their results in step order. A failing step stops the order; steps after it
// do not run. An order that passes every step is completed and its
// statistics recorded.
func (s *Service) Process(ctx context.Context, o *model.Order) ([]model.StepResult, error) {
	s.recorder.RecordCall()
	defer s.observer.OrderFinished(o)

	results := make([]model.StepResult, 0, len(s.steps))
	for _, st := range s.steps {
		r, err := s.record(ctx, st, o)
		results = append(results, r)
		if err != nil {
			return results, fmt.Errorf("order %d: %s: %w", o.ID, st.Name, err)
		}
	}

	if err := o.Advance(model.Completed, s.clock.Now()); err != nil {
		return results, err
	}
	s.recorder.RecordCompletion(o.Size, o.CallWait(), o.DoorTime(), o.ColdTime())

	return results, nil
}

func (s *Service) record(ctx context.Context, st Step, o *model.Order) (model.StepResult, error) {
	start := s.clock.Now()
	err := st.Run(ctx, o)
	dur := s.clock.Since(start)

	status := model.StepOK
	detail := ""
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = model.StepCanceled
		} else {
			status = model.StepError
			if apperr.IsOutcome(err) {
				detail = apperr.Kind(err)
			}
		}
	}

	r := model.StepResult{
		Name:       st.Name,
		Status:     status,
		DurationMS: dur.Milliseconds(),
		Detail:     detail,
	}
	s.observer.StepFinished(r)
	s.log.Debug("step finished",
		zap.Int("order_id", o.ID),
		zap.String("step", st.Name),
		zap.String("status", status),
		zap.Duration("duration", dur),
		zap.Stringer("state", o.State),
	)
	return r, err
}

type nopRecorder struct{}

func (nopRecorder) RecordCall()                                                       {}
func (nopRecorder) RecordCompletion(int, time.Duration, time.Duration, time.Duration) {}

type nopObserver struct{}

func (nopObserver) StepFinished(model.StepResult) {}
func (nopObserver) OrderFinished(*model.Order)    {}
