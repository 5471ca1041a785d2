package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/config"
	"github.com/etnz/backtest/renderer"
	"github.com/etnz/backtest/strategy"
	"github.com/google/subcommands"
)

type generateCmd struct {
	strategy string
	params   stringList
	from, to string
	tickers  string
	output   string
	markdown bool
}

func (*generateCmd) Name() string     { return "generate" }
func (*generateCmd) Synopsis() string { return "generate the orders of a strategy" }
func (*generateCmd) Usage() string {
	return `bt generate -strategy <name> [-param key=value]... [-o <orders.jsonl>]

  Generates the orders of a strategy on the prices file. Orders are written
  in the JSONL format read by 'bt run -orders', on stdout by default.
`
}

func (c *generateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.strategy, "strategy", config.Default().Strategy.Name, "Strategy generating the orders, see 'bt strategies'.")
	f.Var(&c.params, "param", "Strategy parameter as key=value. Can be repeated.")
	f.StringVar(&c.from, "from", "", "First day (YYYY-MM-DD).")
	f.StringVar(&c.to, "to", "", "Last day (YYYY-MM-DD).")
	f.StringVar(&c.tickers, "tickers", "", "Comma separated tickers. Defaults to every ticker with prices.")
	f.StringVar(&c.output, "o", "", "Write the orders to this file instead of stdout.")
	f.BoolVar(&c.markdown, "md", false, "Print the orders as a markdown table instead of JSONL.")
}

func (c *generateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	b := backtestFlags{strategy: c.strategy, params: c.params, from: c.from, to: c.to, tickers: c.tickers, cash: config.Default().InitialCash}
	cfg, err := b.load()
	if err != nil {
		return failure(err)
	}
	in, err := prepare(cfg)
	if err != nil {
		return failure(err)
	}
	orders, err := in.orders(cfg.Strategy)
	if err != nil {
		return failure(err)
	}

	switch {
	case c.output != "":
		if err := encodeFile(c.output, func(w io.Writer) error { return backtest.EncodeOrders(w, orders) }); err != nil {
			return failure(err)
		}
		fmt.Fprintf(os.Stderr, "%d orders written to %s\n", len(orders), c.output)
	case c.markdown:
		printMarkdown(renderer.OrdersMarkdown(orders))
	default:
		if err := backtest.EncodeOrders(stdout, orders); err != nil {
			return failure(err)
		}
	}
	return subcommands.ExitSuccess
}

type strategiesCmd struct{}

func (*strategiesCmd) Name() string     { return "strategies" }
func (*strategiesCmd) Synopsis() string { return "list the strategies and their parameters" }
func (*strategiesCmd) Usage() string {
	return `bt strategies [<name>...]

  Describes the strategies available to -strategy, all of them by default.
`
}

func (*strategiesCmd) SetFlags(f *flag.FlagSet) {}

func (*strategiesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	names := f.Args()
	if len(names) == 0 {
		names = strategy.Names()
	}
	var infos []strategy.Info
	for _, name := range names {
		info, ok := strategy.Describe(name)
		if !ok {
			return failure(fmt.Errorf("unknown strategy %q", name))
		}
		infos = append(infos, info)
	}
	printMarkdown(renderer.StrategiesMarkdown(infos))
	return subcommands.ExitSuccess
}
