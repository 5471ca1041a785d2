package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/date"
	"github.com/etnz/backtest/renderer"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

type runCmd struct {
	backtestFlags
	output   string
	holdings bool
	period   date.Period
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run a backtest and report its valuation trail and metrics" }
func (*runCmd) Usage() string {
	return `bt run [-config <file.yaml>] [-strategy <name> [-param key=value]... | -orders <file>] [-o <trail.jsonl>]

  Simulates the orders of a strategy, or of an orders file, over every
  trading day of the prices file and prints the valuation trail followed by
  the performance metrics.

  See 'bt topic sizing' for how orders are executed.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	c.backtestFlags.SetFlags(f)
	f.StringVar(&c.output, "o", "", "Write the valuation trail to this file (JSONL format).")
	f.BoolVar(&c.holdings, "holdings", false, "Show the quantity held of each ticker.")
	f.Var(&c.period, "period", "Show one row per period (daily, weekly, monthly, quarterly, yearly).")
}

func (c *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := c.load()
	if err != nil {
		return failure(err)
	}
	if cfg.Orders == "" && cfg.Strategy == nil {
		return failure(errors.New("nothing to run: the configuration has no orders file nor strategy, see 'bt sweep'"))
	}

	logger := NewLogger(*logLevel)
	defer logger.Sync()

	in, err := prepare(cfg)
	if err != nil {
		return failure(err)
	}
	orders, err := in.orders(cfg.Strategy)
	if err != nil {
		return failure(err)
	}
	engine := backtest.NewEquityEngine(backtest.WithLogger(logger))
	trail, err := engine.Run(in.initialCash(0), orders, in.prices)
	if err != nil {
		return failure(err)
	}
	logger.Info("backtest done",
		zap.Int("orders", len(orders)),
		zap.Int("days", trail.Len()),
		zap.Strings("tickers", in.prices.Tickers()))

	if c.output != "" {
		if err := encodeFile(c.output, func(w io.Writer) error { return backtest.EncodeTrail(w, trail) }); err != nil {
			return failure(err)
		}
		fmt.Fprintf(os.Stderr, "Valuation trail written to %s\n", c.output)
	}

	report, err := in.report(trail)
	if err != nil {
		return failure(err)
	}
	// flags win over the configuration.
	opts := renderer.TrailOptions{Title: title(cfg), Holdings: cfg.Report.Holdings, Period: cfg.Report.Period}
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "holdings":
			opts.Holdings = c.holdings
		case "period":
			opts.Period = c.period
		}
	})
	doc := renderer.TrailMarkdown(trail, opts)
	printMarkdown(doc + "\n" + renderer.MetricsMarkdown(report))
	return subcommands.ExitSuccess
}
