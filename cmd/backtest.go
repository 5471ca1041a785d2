package cmd

import (
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/config"
	"github.com/etnz/backtest/date"
	"github.com/etnz/backtest/metrics"
	"github.com/etnz/backtest/strategy"
)

// backtestFlags describe a backtest on the command line, when there is no
// configuration file.
type backtestFlags struct {
	config    string
	orders    string
	strategy  string
	params    stringList
	cash      float64
	from, to  string
	tickers   string
	benchmark string
}

func (b *backtestFlags) SetFlags(f *flag.FlagSet) {
	def := config.Default()
	f.StringVar(&b.config, "config", "", "YAML configuration of the backtest. Other backtest flags are ignored.")
	f.StringVar(&b.orders, "orders", "", "Orders file (JSONL format) to run instead of a strategy.")
	f.StringVar(&b.strategy, "strategy", def.Strategy.Name, "Strategy generating the orders, see 'bt strategies'.")
	f.Var(&b.params, "param", "Strategy parameter as key=value. Can be repeated.")
	f.Float64Var(&b.cash, "cash", def.InitialCash, "Initial cash.")
	f.StringVar(&b.from, "from", "", "First day of the backtest (YYYY-MM-DD). Defaults to the first day with prices.")
	f.StringVar(&b.to, "to", "", "Last day of the backtest (YYYY-MM-DD). Defaults to the last day with prices.")
	f.StringVar(&b.tickers, "tickers", "", "Comma separated tickers to trade. Defaults to every ticker with prices.")
	f.StringVar(&b.benchmark, "benchmark", "", "Ticker to compare the backtest with.")
}

// load returns the configuration from -config, or from the flags.
func (b *backtestFlags) load() (*config.Config, error) {
	if b.config != "" {
		cfg, err := config.Load(b.config)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration %q: %w", b.config, err)
		}
		return cfg, nil
	}

	cfg := config.Default()
	cfg.Currency = *defaultCurrency
	cfg.Prices = *pricesFile
	cfg.InitialCash = b.cash
	cfg.From, cfg.To = b.from, b.to
	if b.tickers != "" {
		for _, t := range strings.Split(b.tickers, ",") {
			cfg.Tickers = append(cfg.Tickers, strings.TrimSpace(t))
		}
	}
	if b.orders != "" {
		cfg.Orders, cfg.Strategy = b.orders, nil
	} else {
		params, err := strategy.ParseParams(b.params)
		if err != nil {
			return nil, err
		}
		cfg.Strategy = &config.Strategy{Name: b.strategy, Params: params}
	}
	if b.benchmark != "" {
		cfg.Benchmark = &config.Benchmark{Ticker: b.benchmark}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// inputs are the resolved inputs of a configuration.
type inputs struct {
	cfg       *config.Config
	prices    *backtest.PriceTable
	benchmark *date.History[float64]
}

// prepare loads the prices of a configuration.
func prepare(cfg *config.Config) (*inputs, error) {
	all, err := DecodePrices(cfg.Path(cfg.Prices), cfg.Currency)
	if err != nil {
		return nil, err
	}
	r, err := cfg.Range()
	if err != nil {
		return nil, err
	}
	tickers := cfg.Tickers
	if b := cfg.Benchmark; len(tickers) == 0 && b != nil && b.Prices == "" {
		// the benchmark shares the prices file but is not traded.
		tickers = slices.DeleteFunc(all.Tickers(), func(t string) bool { return t == b.Ticker })
		if len(tickers) == 0 {
			return nil, fmt.Errorf("no prices in %s besides the benchmark %q", cfg.Prices, b.Ticker)
		}
	}
	in := &inputs{cfg: cfg, prices: all.Sub(r, tickers...)}
	for _, t := range cfg.Tickers {
		if !in.prices.Has(t) {
			return nil, fmt.Errorf("no prices for %q in %s", t, cfg.Prices)
		}
	}
	if len(in.prices.Days()) == 0 {
		return nil, fmt.Errorf("no prices in %s for the backtest range", cfg.Prices)
	}

	if b := cfg.Benchmark; b != nil {
		src := all
		if b.Prices != "" {
			if src, err = DecodePrices(cfg.Path(b.Prices), cfg.Currency); err != nil {
				return nil, err
			}
		}
		series := src.Series(b.Ticker)
		if series == nil {
			return nil, fmt.Errorf("no prices for the benchmark %q", b.Ticker)
		}
		if !r.IsZero() {
			series = series.Between(r)
		}
		in.benchmark = series
	}
	return in, nil
}

// initialCash of a run, or of the configuration.
func (in *inputs) initialCash(cash float64) backtest.Money {
	if cash == 0 {
		cash = in.cfg.InitialCash
	}
	return backtest.M(cash, in.cfg.Currency)
}

// orders generates the orders of s, or reads the orders file if s is nil.
func (in *inputs) orders(s *config.Strategy) ([]backtest.Order, error) {
	if s == nil {
		if in.cfg.Orders == "" {
			return nil, errors.New("missing orders file or strategy")
		}
		return DecodeOrders(in.cfg.Path(in.cfg.Orders))
	}
	gen, err := strategy.New(s.Name, s.Params)
	if err != nil {
		return nil, err
	}
	return gen.GenerateOrders(in.prices)
}

// report computes the metrics of trail.
func (in *inputs) report(trail *backtest.Trail) (metrics.Report, error) {
	m := metrics.Extended{RiskFreeRate: in.cfg.Metrics.RiskFreeRate, TradingDays: in.cfg.Metrics.TradingDays}
	return m.Calculate(metrics.Input{Trail: trail, Prices: in.prices, Benchmark: in.benchmark})
}

// title names the backtest of a configuration.
func title(cfg *config.Config) string {
	if cfg.Strategy != nil {
		return "Backtest: " + cfg.Strategy.Name
	}
	return "Backtest: " + filepath.Base(cfg.Orders)
}
