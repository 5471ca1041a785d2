package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/config"
	"github.com/etnz/backtest/metrics"
	"github.com/etnz/backtest/renderer"
	"github.com/google/subcommands"
)

type metricsCmd struct {
	benchmark    string
	riskFreeRate float64
	tradingDays  int
}

func (*metricsCmd) Name() string     { return "metrics" }
func (*metricsCmd) Synopsis() string { return "compute the metrics of a stored valuation trail" }
func (*metricsCmd) Usage() string {
	return `bt metrics [-benchmark <ticker>] <trail.jsonl>

  Computes the performance metrics of a valuation trail written by
  'bt run -o'. Turnover and benchmark use the prices file.
`
}

func (c *metricsCmd) SetFlags(f *flag.FlagSet) {
	def := config.Default().Metrics
	f.StringVar(&c.benchmark, "benchmark", "", "Ticker to compare the trail with.")
	f.Float64Var(&c.riskFreeRate, "risk-free-rate", def.RiskFreeRate, "Annual risk free rate of the Sharpe ratio.")
	f.IntVar(&c.tradingDays, "trading-days", def.TradingDays, "Trading days per year.")
}

func (c *metricsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: a trail file is required.")
		return subcommands.ExitUsageError
	}
	if c.tradingDays <= 0 {
		return failure(fmt.Errorf("trading days must be positive, got %d", c.tradingDays))
	}
	path := f.Arg(0)
	file, err := os.Open(path)
	if err != nil {
		return failure(err)
	}
	defer file.Close()
	trail, err := backtest.DecodeTrail(file, path, *defaultCurrency)
	if err != nil {
		return failure(err)
	}

	prices, err := DecodePrices(*pricesFile, *defaultCurrency)
	if err != nil {
		return failure(err)
	}
	in := metrics.Input{Trail: trail, Prices: prices}
	if c.benchmark != "" {
		if in.Benchmark = prices.Series(c.benchmark); in.Benchmark == nil {
			return failure(fmt.Errorf("no prices for the benchmark %q", c.benchmark))
		}
	}

	m := metrics.Extended{RiskFreeRate: c.riskFreeRate, TradingDays: c.tradingDays}
	report, err := m.Calculate(in)
	if err != nil {
		return failure(err)
	}
	printMarkdown(renderer.MetricsMarkdown(report))
	return subcommands.ExitSuccess
}
