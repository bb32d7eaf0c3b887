// Package app wires the pizzeria together for a single simulated day.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"pizzeria/internal/apperr"
	"pizzeria/internal/config"
	"pizzeria/internal/dispatcher"
	"pizzeria/internal/logging"
	"pizzeria/internal/metrics"
	"pizzeria/internal/model"
	"pizzeria/internal/order"
	"pizzeria/internal/random"
	"pizzeria/internal/report"
	"pizzeria/internal/service/courier"
	"pizzeria/internal/service/kitchen"
	"pizzeria/internal/service/payment"
	"pizzeria/internal/service/pool"
	"pizzeria/internal/service/tracker"
	"pizzeria/internal/stats"
	httptransport "pizzeria/internal/transport/http"
)

// Option configures an App.
type Option func(*App)

// WithClock sets the clock driving simulated time.
func WithClock(clk clockwork.Clock) Option {
	return func(a *App) { a.clock = clk }
}

// WithOutput sets where the banner, journal and summary are written.
func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

// WithLogger sets the structured logger.
func WithLogger(l *logging.Logger) Option {
	return func(a *App) { a.log = l }
}

// WithSource overrides the per-order random sources.
func WithSource(fn dispatcher.SourceFunc) Option {
	return func(a *App) { a.source = fn }
}

// WithPoolObserver adds an observer of every resource.
func WithPoolObserver(o pool.Observer) Option {
	return func(a *App) { a.observers = append(a.observers, o) }
}

// WithTracker counts in-flight orders on tr instead of a fresh tracker per
// run.
func WithTracker(tr *tracker.Tracker) Option {
	return func(a *App) { a.tracker = tr }
}

// App runs simulated days with a fixed configuration.
type App struct {
	cfg       *config.Config
	clock     clockwork.Clock
	out       io.Writer
	log       *logging.Logger
	source    dispatcher.SourceFunc
	observers []pool.Observer
	tracker   *tracker.Tracker
}

// New creates an App. It panics on a nil configuration.
func New(cfg *config.Config, opts ...Option) *App {
	if cfg == nil {
		panic("app.New: nil config")
	}
	a := &App{
		cfg:    cfg,
		clock:  clockwork.NewRealClock(),
		out:    os.Stdout,
		log:    logging.NewNop(),
		source: random.ForOrder,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Result is what a day leaves behind.
type Result struct {
	RunID   string
	Stats   stats.DayStats
	Orders  []*model.Order
	Metrics *metrics.Metrics
	Tracker *tracker.Tracker
}

// Run simulates one day with the given number of customers and seed, prints
// its journal and summary, and returns the collected statistics.
func (a *App) Run(ctx context.Context, customers int, seed uint64) (Result, error) {
	if customers <= 0 {
		return Result{}, fmt.Errorf("customers %d: %w", customers, apperr.ErrInvalidArgument)
	}
	if customers > a.cfg.Run.MaxCustomers {
		return Result{}, fmt.Errorf("%d customers exceed the limit of %d: %w",
			customers, a.cfg.Run.MaxCustomers, apperr.ErrOutOfMemory)
	}

	res := Result{
		RunID:   uuid.NewString(),
		Metrics: metrics.New(a.cfg.Orders.PricePerPizza),
		Tracker: a.tracker,
	}
	if res.Tracker == nil {
		res.Tracker = &tracker.Tracker{}
	}
	res.Metrics.TrackInFlight(res.Tracker)
	log := a.log.WithRun(res.RunID, customers, seed)

	health := httptransport.New(res.RunID, res.Tracker, res.Metrics.Registry())
	stopServer := a.serveMetrics(ctx, health, log)
	defer stopServer()

	agg := stats.New(a.cfg.Orders.PricePerPizza)
	disp := a.build(res, agg, log)

	if err := report.WriteBanner(a.out, customers); err != nil {
		return res, err
	}

	log.Info("day started")
	orders, err := disp.Run(ctx, customers, seed)
	res.Orders = orders
	health.Finish(err)
	if err != nil {
		return res, err
	}

	res.Stats = agg.Snapshot()
	log.Info("day finished",
		zap.Int("calls", res.Stats.TotalCalls),
		zap.Int("successful", res.Stats.SuccessfulOrders),
		zap.Int("revenue", res.Stats.Revenue),
	)
	return res, report.WriteSummary(a.out, res.Stats, a.cfg.Timing.Unit)
}

// build creates the resources and the pipeline of one day.
func (a *App) build(res Result, agg *stats.Aggregator, log *logging.Logger) *dispatcher.Dispatcher {
	cfg := a.cfg
	unit := cfg.Timing.Unit

	obs := pool.WithObserver(fanout(append([]pool.Observer{res.Metrics}, a.observers...)))
	phones := pool.New("phones", cfg.Resources.Phones, pool.WakeOne, obs)
	cooks := pool.New("cooks", cfg.Resources.Cooks, pool.WakeOne, obs)
	ovens := pool.New("ovens", cfg.Resources.Ovens, pool.WakeAll, obs)
	packaging := pool.NewLock("packaging", obs)
	deliverers := pool.New("deliverers", cfg.Resources.Deliverers, pool.WakeOne, obs)

	poolLog := log.Component("pool")
	for _, p := range []*pool.Pool{phones, cooks, ovens, deliverers} {
		poolLog.Debug("resource ready",
			zap.String("pool", p.Name()),
			zap.Int("capacity", p.Capacity()),
			zap.Stringer("policy", p.Policy()),
		)
	}
	poolLog.Debug("resource ready", zap.String("pool", packaging.Name()), zap.Int("capacity", 1))

	journal := report.NewJournal(a.out, unit)

	desk := payment.New(phones, a.clock, payment.Config{
		Unit:        unit,
		Delay:       cfg.Timing.Payment(),
		Sizes:       cfg.Orders.Sizes(),
		FailPercent: cfg.Orders.FailPercent,
	}, journal)
	k := kitchen.New(cooks, ovens, packaging, a.clock, kitchen.Config{
		Unit: unit,
		Prep: cfg.Timing.Prep,
		Bake: cfg.Timing.Bake,
		Pack: cfg.Timing.Pack,
	}, journal)
	fleet := courier.New(deliverers, a.clock, courier.Config{
		Unit:     unit,
		Delivery: cfg.Timing.Delivery(),
	}, journal)

	svc := order.New(order.Pipeline(desk, k, fleet),
		order.WithClock(a.clock),
		order.WithRecorder(agg),
		order.WithObserver(res.Metrics),
		order.WithLogger(log.Component("order")),
	)

	return dispatcher.New(svc, a.clock, dispatcher.Config{
		Workers: cfg.Run.Workers,
		Arrival: cfg.Timing.Arrival(),
		Unit:    unit,
	},
		dispatcher.WithTracker(res.Tracker),
		dispatcher.WithLogger(log.Component("dispatcher")),
		dispatcher.WithSource(a.source),
	)
}

// serveMetrics starts the metrics server when an address is configured and
// returns a function that stops it.
func (a *App) serveMetrics(ctx context.Context, h *httptransport.Handler, log *logging.Logger) func() {
	addr := a.cfg.Metrics.Addr
	if addr == "" {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	srvLog := log.Component("http")
	go func() {
		defer close(done)
		if err := httptransport.NewServer(addr, h, srvLog).ListenAndServe(ctx); err != nil {
			srvLog.Error("metrics server failed", zap.Error(err))
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// fanout reports resource events to several observers.
type fanout []pool.Observer

func (f fanout) Acquired(name string, n, inUse int) {
	for _, o := range f {
		o.Acquired(name, n, inUse)
	}
}

func (f fanout) Released(name string, n, inUse int) {
	for _, o := range f {
		o.Released(name, n, inUse)
	}
}
