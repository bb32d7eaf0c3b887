// Package metrics exposes the simulation as Prometheus metrics: resource
// occupancy, order outcomes, revenue and step durations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"pizzeria/internal/model"
	"pizzeria/internal/service/tracker"
)

// Order outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeDeclined  = "declined"
	OutcomeAborted   = "aborted"
)

// Metrics holds the collectors of one run, registered on their own registry.
type Metrics struct {
	PoolInUse    *prometheus.GaugeVec
	PoolAcquired *prometheus.CounterVec
	PoolReleased *prometheus.CounterVec
	Orders       *prometheus.CounterVec
	Revenue      prometheus.Counter
	StepDuration *prometheus.HistogramVec

	registry *prometheus.Registry
	factory  promauto.Factory
	price    int
}

// New creates the collectors. Revenue is counted at pricePerPizza.
func New(pricePerPizza int) *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		PoolInUse: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pizzeria_pool_in_use",
				Help: "Units of a resource currently held",
			},
			[]string{"pool"},
		),
		PoolAcquired: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pizzeria_pool_acquired_units_total",
				Help: "Units of a resource granted",
			},
			[]string{"pool"},
		),
		PoolReleased: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pizzeria_pool_released_units_total",
				Help: "Units of a resource given back",
			},
			[]string{"pool"},
		),
		Orders: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pizzeria_orders_total",
				Help: "Orders finished, by outcome",
			},
			[]string{"outcome"},
		),
		Revenue: f.NewCounter(
			prometheus.CounterOpts{
				Name: "pizzeria_revenue_total",
				Help: "Revenue from delivered orders",
			},
		),
		StepDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pizzeria_step_duration_seconds",
				Help:    "Pipeline step duration in seconds",
				Buckets: []float64{.001, .01, .1, 1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"step", "status"},
		),
		registry: reg,
		factory:  f,
		price:    pricePerPizza,
	}
}

// Registry returns the registry holding the run's collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Acquired records a grant on a resource.
func (m *Metrics) Acquired(pool string, n, inUse int) {
	m.PoolAcquired.WithLabelValues(pool).Add(float64(n))
	m.PoolInUse.WithLabelValues(pool).Set(float64(inUse))
}

// Released records units given back to a resource.
func (m *Metrics) Released(pool string, n, inUse int) {
	m.PoolReleased.WithLabelValues(pool).Add(float64(n))
	m.PoolInUse.WithLabelValues(pool).Set(float64(inUse))
}

// StepFinished records one pipeline step.
func (m *Metrics) StepFinished(r model.StepResult) {
	m.StepDuration.WithLabelValues(r.Name, r.Status).Observe(float64(r.DurationMS) / 1000)
}

// OrderFinished records the outcome of an order and its revenue.
func (m *Metrics) OrderFinished(o *model.Order) {
	switch o.State {
	case model.Completed:
		m.Orders.WithLabelValues(OutcomeCompleted).Inc()
		m.Revenue.Add(float64(m.price * o.Size))
	case model.Failed:
		m.Orders.WithLabelValues(OutcomeDeclined).Inc()
	default:
		m.Orders.WithLabelValues(OutcomeAborted).Inc()
	}
}

// TrackInFlight exports the tracker's in-flight and peak counts.
func (m *Metrics) TrackInFlight(tr *tracker.Tracker) {
	m.factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "pizzeria_orders_in_flight",
			Help: "Orders currently being processed",
		},
		func() float64 { return float64(tr.Running()) },
	)
	m.factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "pizzeria_orders_in_flight_peak",
			Help: "Highest number of orders processed at once",
		},
		func() float64 { return float64(tr.Peak()) },
	)
}
