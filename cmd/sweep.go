package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/config"
	"github.com/etnz/backtest/renderer"
	"github.com/etnz/backtest/strategy"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

type sweepCmd struct {
	backtestFlags
	vary        stringList
	concurrency int
}

func (*sweepCmd) Name() string     { return "sweep" }
func (*sweepCmd) Synopsis() string { return "compare backtests of several strategy parameters" }
func (*sweepCmd) Usage() string {
	return `bt sweep -config <file.yaml>
bt sweep -strategy <name> -vary key=v1,v2,... [-vary key=v1,v2,...]...

  Runs one backtest per run of the 'sweep' section of the configuration, or
  per combination of the -vary values, on the same prices, and compares
  their metrics. Runs are independent: a failing run does not stop the
  others.
`
}

func (c *sweepCmd) SetFlags(f *flag.FlagSet) {
	c.backtestFlags.SetFlags(f)
	f.Var(&c.vary, "vary", "Strategy parameter values as key=v1,v2,... Can be repeated, every combination is run.")
	f.IntVar(&c.concurrency, "concurrency", config.Default().Concurrency, "Maximum number of concurrent runs, no limit if <= 0. Overrides the configuration.")
}

func (c *sweepCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := c.load()
	if err != nil {
		return failure(err)
	}
	runs := cfg.Sweep
	if len(c.vary) > 0 {
		if cfg.Strategy == nil {
			return failure(errors.New("-vary needs a strategy"))
		}
		if runs, err = grid(*cfg.Strategy, c.vary); err != nil {
			return failure(err)
		}
	}
	if len(runs) == 0 {
		return failure(errors.New("nothing to sweep: use -vary or the sweep section of a configuration"))
	}
	limit := cfg.Concurrency
	f.Visit(func(fl *flag.Flag) {
		if fl.Name == "concurrency" {
			limit = c.concurrency
		}
	})

	logger := NewLogger(*logLevel)
	defer logger.Sync()

	in, err := prepare(cfg)
	if err != nil {
		return failure(err)
	}

	// runs whose orders cannot be generated are reported without a job.
	rows := make([]renderer.SweepRow, len(runs))
	var jobs []backtest.Job
	var index []int
	for i, run := range runs {
		rows[i].Name = run.Name
		orders, err := in.orders(&run.Strategy)
		if err != nil {
			rows[i].Err = err
			continue
		}
		jobs = append(jobs, backtest.Job{Name: run.Name, InitialCash: in.initialCash(run.InitialCash), Orders: orders})
		index = append(index, i)
	}

	engine := backtest.NewEquityEngine(backtest.WithLogger(logger))
	results, err := backtest.RunBatch(ctx, engine, in.prices, jobs, limit)
	if err != nil {
		return failure(err)
	}
	for k, res := range results {
		row := &rows[index[k]]
		if res.Err != nil {
			row.Err = res.Err
			continue
		}
		row.Report, row.Err = in.report(res.Trail)
	}
	logger.Info("sweep done", zap.Int("runs", len(runs)), zap.Int("jobs", len(jobs)))

	printMarkdown(renderer.SweepMarkdown(rows))
	return subcommands.ExitSuccess
}

// grid returns a run for every combination of the "key=v1,v2,..." values,
// on top of the parameters of base. Runs are named after the values.
func grid(base config.Strategy, vary []string) ([]config.Run, error) {
	params := []strategy.Params{maps.Clone(strategy.Params(base.Params))}
	if params[0] == nil {
		params[0] = strategy.Params{}
	}
	names := []string{""}
	for _, v := range vary {
		key, list, ok := strings.Cut(v, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" || list == "" {
			return nil, fmt.Errorf("invalid -vary %q, want key=v1,v2,...", v)
		}
		var values []float64
		for _, s := range strings.Split(list, ",") {
			x, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid -vary %q: %w", v, err)
			}
			values = append(values, x)
		}
		var nextParams []strategy.Params
		var nextNames []string
		for i, p := range params {
			for _, x := range values {
				q := maps.Clone(p)
				q[key] = x
				nextParams = append(nextParams, q)
				nextNames = append(nextNames, strings.TrimSpace(fmt.Sprintf("%s %s=%g", names[i], key, x)))
			}
		}
		params, names = nextParams, nextNames
	}

	runs := make([]config.Run, len(params))
	for i, p := range params {
		runs[i] = config.Run{Name: names[i], Strategy: config.Strategy{Name: base.Name, Params: p}}
	}
	return runs, nil
}
