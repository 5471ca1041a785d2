// Package renderer formats backtest results as markdown documents.
package renderer

import (
	"bytes"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/date"
	"github.com/etnz/backtest/metrics"
	md "github.com/nao1215/markdown"
)

// TrailOptions configures TrailMarkdown.
type TrailOptions struct {
	Title    string
	Holdings bool        // add a column per ticker ever held
	Period   date.Period // one row per period, at its last trading day
}

// TrailMarkdown renders the valuation trail as a table.
func TrailMarkdown(t *backtest.Trail, opts TrailOptions) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	title := opts.Title
	if title == "" {
		title = "Valuation Trail"
	}
	doc.H1(title)
	if t.Len() == 0 {
		doc.PlainText("No trading day.")
		return doc.String()
	}

	table := t.Table()
	set := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{periodHeader(opts.Period), "Cash", "Value", "Change"},
		Rows:      [][]string{},
	}
	if opts.Holdings {
		for _, ticker := range table.Tickers {
			set.Alignment = append(set.Alignment, md.AlignRight)
			set.Header = append(set.Header, ticker)
		}
	}

	prev := t.At(0).TotalValue
	for i, row := range table.Rows {
		if !lastOfPeriod(table.Rows, i, opts.Period) {
			continue
		}
		value := t.At(i).TotalValue
		change := "-"
		if prev.IsPositive() {
			change = metrics.Percent(value.Ratio(prev) - 1).SignedString()
		}
		prev = value

		cells := []string{periodLabel(row.Date, opts.Period), row.Cash.String(), value.String(), change}
		if opts.Holdings {
			for _, q := range row.Quantities {
				cells = append(cells, quantity(q))
			}
		}
		set.Rows = append(set.Rows, cells)
	}
	doc.Table(set)
	return doc.String()
}

// lastOfPeriod reports whether rows[i] is the last trading day of its period.
func lastOfPeriod(rows []backtest.HoldingsRow, i int, p date.Period) bool {
	if p == date.Daily || i == len(rows)-1 {
		return true
	}
	return date.NewRange(rows[i].Date, p) != date.NewRange(rows[i+1].Date, p)
}

func periodHeader(p date.Period) string {
	if p == date.Daily {
		return "Date"
	}
	return "Period"
}

func periodLabel(on date.Date, p date.Period) string {
	return date.NewRange(on, p).Identifier()
}

// quantity renders a zero quantity as a "-".
func quantity(q backtest.Quantity) string {
	if q.IsZero() {
		return "-"
	}
	return q.String()
}

