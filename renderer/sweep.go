package renderer

import (
	"bytes"

	"github.com/etnz/backtest/metrics"
	md "github.com/nao1215/markdown"
)

// SweepRow is the outcome of one run of a sweep.
type SweepRow struct {
	Name   string
	Report metrics.Report
	Err    error
}

// SweepMarkdown renders a comparison of runs, in the given order.
func SweepMarkdown(rows []SweepRow) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Sweep")
	set := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{"Run", "Final Value", "Cumulative Return", "Volatility", "Sharpe Ratio", "Max Drawdown"},
		Rows:      [][]string{},
	}
	for _, row := range rows {
		if row.Err != nil {
			set.Rows = append(set.Rows, []string{row.Name, md.Bold(row.Err.Error()), "", "", "", ""})
			continue
		}
		r := row.Report
		set.Rows = append(set.Rows, []string{
			row.Name,
			r.End.String(),
			r.CumulativeReturn.SignedString(),
			r.Volatility.String(),
			ratio(r.SharpeRatio),
			r.MaxDrawdown.String(),
		})
	}
	doc.Table(set)
	return doc.String()
}
