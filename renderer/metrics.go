package renderer

import (
	"bytes"
	"fmt"
	"math"

	"github.com/etnz/backtest/metrics"
	md "github.com/nao1215/markdown"
)

// MetricsMarkdown renders a metrics report.
func MetricsMarkdown(r metrics.Report) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Backtest Metrics")
	if r.Days > 0 {
		doc.PlainText(fmt.Sprintf("From %s to %s, %d trading days: %s to %s.", r.From, r.To, r.Days, r.Start, r.End))
	}

	rows := [][]string{
		{"Daily Return", r.DailyReturn.SignedString()},
		{"Cumulative Return", r.CumulativeReturn.SignedString()},
		{"Log Return", r.LogReturn.SignedString()},
		{"Volatility", r.Volatility.String()},
		{"Sharpe Ratio", ratio(r.SharpeRatio)},
		{"Max Drawdown", r.MaxDrawdown.String()},
		{"Annual Turnover", ratio(r.AnnualTurnover)},
		{"Average Turnover", ratio(r.AverageTurnover)},
	}
	if r.HasBenchmark {
		rows = append(rows,
			[]string{"Benchmark Return", r.BenchmarkReturn.SignedString()},
			[]string{"Excess Return", r.ExcessReturn.SignedString()},
		)
	}
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Metric", "Value"},
		Rows:      rows,
	})
	doc.PlainText("Volatility, Sharpe ratio and annual turnover are annualized.")
	return doc.String()
}

func ratio(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}
