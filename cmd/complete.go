package cmd

import (
	"flag"

	"github.com/etnz/backtest/date"
	"github.com/etnz/backtest/docs"
	"github.com/etnz/backtest/strategy"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion describes the command line for shell completion: global flags,
// commands and their flags.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: flags(flag.CommandLine),
	}
	for _, r := range commands() {
		fs := flag.NewFlagSet(r.cmd.Name(), flag.ContinueOnError)
		r.cmd.SetFlags(fs)
		root.Sub[r.cmd.Name()] = &complete.Command{Flags: flags(fs)}
	}
	root.Sub["strategies"].Args = predict.Set(strategy.Names())
	if topics, err := docs.GetAllTopics(); err == nil {
		root.Sub["topic"].Args = predict.Set(topics)
	}
	return root
}

func flags(fs *flag.FlagSet) map[string]complete.Predictor {
	m := make(map[string]complete.Predictor)
	fs.VisitAll(func(f *flag.Flag) { m[f.Name] = predictFlag(f) })
	return m
}

// predictFlag predicts the value of a flag.
func predictFlag(f *flag.Flag) complete.Predictor {
	if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return predict.Nothing
	}
	switch f.Name {
	case "strategy":
		return predict.Set(strategy.Names())
	case "period":
		var names predict.Set
		for _, p := range date.Periods() {
			names = append(names, p.String())
		}
		return names
	case "log-level":
		return predict.Set{"debug", "info", "warn", "error"}
	case "config":
		return predict.Files("*.yaml")
	case "prices-file", "orders", "o":
		return predict.Files("*.jsonl")
	}
	return predict.Something
}
