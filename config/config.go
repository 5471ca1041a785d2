// Package config describes a backtest run in YAML.
//
//	currency: USD
//	initial_cash: 100000
//	prices: prices.jsonl
//	strategy:
//	  name: momentum
//	  params:
//	    window: 125
//	benchmark:
//	  ticker: SPY
//
// Relative paths are relative to the directory of the configuration file.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/etnz/backtest/date"
	"gopkg.in/yaml.v3"
)

// Strategy selects a registered strategy and its parameters.
type Strategy struct {
	Name   string             `yaml:"name"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// Benchmark is a ticker to compare the run with. Its prices come from its
// own file, or from the run prices if empty.
type Benchmark struct {
	Ticker string `yaml:"ticker"`
	Prices string `yaml:"prices,omitempty"`
}

// Metrics configures the statistics of a run.
type Metrics struct {
	RiskFreeRate float64 `yaml:"risk_free_rate"`
	TradingDays  int     `yaml:"trading_days"`
}

// Report configures the valuation trail report.
type Report struct {
	Period   date.Period `yaml:"period"` // one row per period
	Holdings bool        `yaml:"holdings,omitempty"`
}

// Run is a named variant of the configuration, for sweeps.
type Run struct {
	Name        string   `yaml:"name"`
	Strategy    Strategy `yaml:"strategy"`
	InitialCash float64  `yaml:"initial_cash,omitempty"` // the configuration one if zero
}

// Config describes a backtest.
type Config struct {
	Currency    string   `yaml:"currency"`
	InitialCash float64  `yaml:"initial_cash"`
	Prices      string   `yaml:"prices"`
	From        string   `yaml:"from,omitempty"`
	To          string   `yaml:"to,omitempty"`
	Tickers     []string `yaml:"tickers,omitempty"`

	// Orders is an order file. It excludes Strategy.
	Orders   string    `yaml:"orders,omitempty"`
	Strategy *Strategy `yaml:"strategy,omitempty"`

	Benchmark   *Benchmark `yaml:"benchmark,omitempty"`
	Metrics     Metrics    `yaml:"metrics"`
	Report      Report     `yaml:"report"`
	Sweep       []Run      `yaml:"sweep,omitempty"`
	Concurrency int        `yaml:"concurrency,omitempty"`

	dir string // of the loaded file
}

// Default returns a configuration running the mean reversion strategy on
// prices.jsonl.
func Default() *Config {
	return &Config{
		Currency:    "USD",
		InitialCash: 100000,
		Prices:      "prices.jsonl",
		Strategy:    &Strategy{Name: "mean-reversion"},
		Metrics:     Metrics{RiskFreeRate: 0.0045, TradingDays: 252},
		Concurrency: 4,
	}
}

// Load reads a YAML file from disk. Missing values take their Default.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	cfg := Default()
	cfg.Strategy = nil
	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode yaml %s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// Save persists a Config to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Path resolves a path of the configuration.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Range returns the date range of the run, unbounded if neither From nor To is set.
func (c *Config) Range() (date.Range, error) {
	var r date.Range
	var err error
	if c.From == "" && c.To == "" {
		return r, nil
	}
	r.From, r.To = date.New(1, 1, 1), date.New(9999, 12, 31)
	if c.From != "" {
		if r.From, err = date.Parse(c.From); err != nil {
			return r, fmt.Errorf("from: %w", err)
		}
	}
	if c.To != "" {
		if r.To, err = date.Parse(c.To); err != nil {
			return r, fmt.Errorf("to: %w", err)
		}
	}
	if r.To.Before(r.From) {
		return r, fmt.Errorf("from %s is after to %s", r.From, r.To)
	}
	return r, nil
}

// Validate checks the configuration. It returns every problem found.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Currency) != 3 {
		errs = append(errs, fmt.Errorf("currency must be a 3 letters code, got %q", c.Currency))
	}
	if math.IsNaN(c.InitialCash) || math.IsInf(c.InitialCash, 0) || c.InitialCash < 0 {
		errs = append(errs, fmt.Errorf("initial cash must be a positive number, got %v", c.InitialCash))
	}
	if c.Prices == "" {
		errs = append(errs, errors.New("missing prices file"))
	}
	if _, err := c.Range(); err != nil {
		errs = append(errs, err)
	}
	switch {
	case c.Orders != "" && c.Strategy != nil:
		errs = append(errs, errors.New("orders and strategy are exclusive"))
	case c.Orders == "" && c.Strategy == nil && len(c.Sweep) == 0:
		errs = append(errs, errors.New("missing orders file or strategy"))
	case c.Strategy != nil && c.Strategy.Name == "":
		errs = append(errs, errors.New("missing strategy name"))
	}
	if c.Benchmark != nil && c.Benchmark.Ticker == "" {
		errs = append(errs, errors.New("missing benchmark ticker"))
	}
	if c.Metrics.TradingDays <= 0 {
		errs = append(errs, fmt.Errorf("trading days must be positive, got %d", c.Metrics.TradingDays))
	}
	if math.IsNaN(c.Metrics.RiskFreeRate) || math.IsInf(c.Metrics.RiskFreeRate, 0) {
		errs = append(errs, fmt.Errorf("invalid risk free rate %v", c.Metrics.RiskFreeRate))
	}
	names := make(map[string]bool)
	for i, run := range c.Sweep {
		switch {
		case run.Name == "":
			errs = append(errs, fmt.Errorf("sweep #%d: missing name", i))
		case names[run.Name]:
			errs = append(errs, fmt.Errorf("sweep #%d: duplicate name %q", i, run.Name))
		}
		names[run.Name] = true
		if run.Strategy.Name == "" {
			errs = append(errs, fmt.Errorf("sweep %q: missing strategy name", run.Name))
		}
		if run.InitialCash < 0 {
			errs = append(errs, fmt.Errorf("sweep %q: negative initial cash", run.Name))
		}
	}
	return errors.Join(errs...)
}
