// Package config holds the pizzeria's parameters. Values start from the
// built-in defaults, are overridden by an optional YAML file and finally by
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"

	"pizzeria/internal/logging"
	"pizzeria/internal/service/shared"
)

// ErrInvalid is returned for a configuration that cannot run.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all simulator configuration.
type Config struct {
	Resources ResourceConfig `yaml:"resources"`
	Orders    OrderConfig    `yaml:"orders"`
	Timing    TimingConfig   `yaml:"timing"`
	Run       RunConfig      `yaml:"run"`
	Logging   LogConfig      `yaml:"logging"`
	Metrics   MetricsConfig  `yaml:"metrics"`
}

// ResourceConfig sizes the shared resources.
type ResourceConfig struct {
	Phones     int `yaml:"phones" envconfig:"PIZZERIA_PHONES"`
	Cooks      int `yaml:"cooks" envconfig:"PIZZERIA_COOKS"`
	Ovens      int `yaml:"ovens" envconfig:"PIZZERIA_OVENS"`
	Deliverers int `yaml:"deliverers" envconfig:"PIZZERIA_DELIVERERS"`
}

// OrderConfig describes what customers order and pay.
type OrderConfig struct {
	SizeLow       int `yaml:"size_low" envconfig:"PIZZERIA_SIZE_LOW"`
	SizeHigh      int `yaml:"size_high" envconfig:"PIZZERIA_SIZE_HIGH"`
	PricePerPizza int `yaml:"price_per_pizza" envconfig:"PIZZERIA_PRICE"`
	FailPercent   int `yaml:"fail_percent" envconfig:"PIZZERIA_FAIL_PERCENT"`
}

// TimingConfig holds durations in simulated units. Unit is the real length of
// one unit; zero runs the simulation without waiting.
type TimingConfig struct {
	Unit         time.Duration `yaml:"unit" envconfig:"PIZZERIA_TIME_UNIT"`
	ArrivalLow   int           `yaml:"arrival_low" envconfig:"PIZZERIA_ARRIVAL_LOW"`
	ArrivalHigh  int           `yaml:"arrival_high" envconfig:"PIZZERIA_ARRIVAL_HIGH"`
	PaymentLow   int           `yaml:"payment_low" envconfig:"PIZZERIA_PAYMENT_LOW"`
	PaymentHigh  int           `yaml:"payment_high" envconfig:"PIZZERIA_PAYMENT_HIGH"`
	Prep         int           `yaml:"prep" envconfig:"PIZZERIA_PREP"`
	Bake         int           `yaml:"bake" envconfig:"PIZZERIA_BAKE"`
	Pack         int           `yaml:"pack" envconfig:"PIZZERIA_PACK"`
	DeliveryLow  int           `yaml:"delivery_low" envconfig:"PIZZERIA_DELIVERY_LOW"`
	DeliveryHigh int           `yaml:"delivery_high" envconfig:"PIZZERIA_DELIVERY_HIGH"`
}

// RunConfig bounds a single run.
type RunConfig struct {
	Workers      int `yaml:"workers" envconfig:"PIZZERIA_WORKERS"`
	MaxCustomers int `yaml:"max_customers" envconfig:"PIZZERIA_MAX_CUSTOMERS"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Development bool   `yaml:"development" envconfig:"LOG_DEV"`
}

// MetricsConfig enables the metrics endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr" envconfig:"METRICS_ADDR"`
}

// Default returns the pizzeria's standard configuration.
func Default() *Config {
	return &Config{
		Resources: ResourceConfig{
			Phones:     3,
			Cooks:      2,
			Ovens:      10,
			Deliverers: 7,
		},
		Orders: OrderConfig{
			SizeLow:       1,
			SizeHigh:      5,
			PricePerPizza: 10,
			FailPercent:   5,
		},
		Timing: TimingConfig{
			Unit:         time.Second,
			ArrivalLow:   1,
			ArrivalHigh:  5,
			PaymentLow:   1,
			PaymentHigh:  2,
			Prep:         1,
			Bake:         10,
			Pack:         2,
			DeliveryLow:  5,
			DeliveryHigh: 15,
		},
		Run: RunConfig{
			Workers:      64,
			MaxCustomers: 1 << 20,
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if path
// is not empty) and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting the simulation cannot run with.
func (c *Config) Validate() error {
	r := c.Resources
	if r.Phones <= 0 || r.Cooks <= 0 || r.Ovens <= 0 || r.Deliverers <= 0 {
		return fmt.Errorf("%w: resource counts must be positive: %+v", ErrInvalid, r)
	}

	ranges := []struct {
		name string
		r    shared.Range
	}{
		{"sizes", c.Orders.Sizes()},
		{"arrival", c.Timing.Arrival()},
		{"payment", c.Timing.Payment()},
		{"delivery", c.Timing.Delivery()},
	}
	for _, rg := range ranges {
		if !rg.r.Valid() {
			return fmt.Errorf("%w: %s range [%d, %d]", ErrInvalid, rg.name, rg.r.Low, rg.r.High)
		}
	}
	if c.Orders.SizeLow < 1 {
		return fmt.Errorf("%w: orders must have at least one pizza", ErrInvalid)
	}
	if c.Orders.SizeHigh > r.Ovens {
		return fmt.Errorf("%w: largest order of %d pizzas exceeds %d ovens", ErrInvalid, c.Orders.SizeHigh, r.Ovens)
	}
	if c.Orders.FailPercent < 0 || c.Orders.FailPercent > 100 {
		return fmt.Errorf("%w: fail percent %d outside [0, 100]", ErrInvalid, c.Orders.FailPercent)
	}
	if c.Orders.PricePerPizza < 0 {
		return fmt.Errorf("%w: negative price", ErrInvalid)
	}

	t := c.Timing
	if t.Unit < 0 || t.Prep < 0 || t.Bake < 0 || t.Pack < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalid)
	}

	if c.Run.Workers <= 0 {
		return fmt.Errorf("%w: workers %d must be positive", ErrInvalid, c.Run.Workers)
	}
	if c.Run.MaxCustomers <= 0 {
		return fmt.Errorf("%w: max customers %d must be positive", ErrInvalid, c.Run.MaxCustomers)
	}
	return nil
}

// Sizes is the range of pizzas per order.
func (o OrderConfig) Sizes() shared.Range { return shared.Range{Low: o.SizeLow, High: o.SizeHigh} }

// Arrival is the range of gaps between customer calls.
func (t TimingConfig) Arrival() shared.Range {
	return shared.Range{Low: t.ArrivalLow, High: t.ArrivalHigh}
}

// Payment is the range of payment durations.
func (t TimingConfig) Payment() shared.Range {
	return shared.Range{Low: t.PaymentLow, High: t.PaymentHigh}
}

// Delivery is the range of one-way delivery durations.
func (t TimingConfig) Delivery() shared.Range {
	return shared.Range{Low: t.DeliveryLow, High: t.DeliveryHigh}
}

// Logger returns the logging configuration in the form the logging package
// expects.
func (l LogConfig) Logger() logging.Config {
	cfg := logging.DefaultConfig()
	if l.Development {
		cfg = logging.DevelopmentConfig()
	}
	if l.Level != "" {
		cfg.Level = l.Level
	}
	return cfg
}
