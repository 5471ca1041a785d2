package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/backtest"
	md "github.com/nao1215/markdown"
)

// Order renders an order to a sentence.
func Order(o backtest.Order) string {
	switch {
	case o.Side == backtest.Buy && o.IsFractional():
		return fmt.Sprintf("Buy %s of the portfolio value in %s", fraction(o.Quantity), o.Ticker)
	case o.Side == backtest.Buy:
		return fmt.Sprintf("Buy %s %s", o.Quantity, o.Ticker)
	case o.Side == backtest.Sell && o.IsFractional():
		return fmt.Sprintf("Sell %s of the %s position", fraction(o.Quantity), o.Ticker)
	case o.Side == backtest.Sell:
		return fmt.Sprintf("Sell %s %s", o.Quantity, o.Ticker)
	default:
		return o.String()
	}
}

func fraction(q backtest.Quantity) string {
	return fmt.Sprintf("%.2f%%", 100*q.Float())
}

// OrdersMarkdown renders an order stream, in stream order.
func OrdersMarkdown(orders []backtest.Order) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Orders")
	if len(orders) == 0 {
		doc.PlainText("No order.")
		return doc.String()
	}
	buys := 0
	for _, o := range orders {
		if o.Side == backtest.Buy {
			buys++
		}
	}
	doc.PlainText(fmt.Sprintf("%d orders: %d buys, %d sells.", len(orders), buys, len(orders)-buys))

	set := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft},
		Header:    []string{"Date", "Order"},
		Rows:      [][]string{},
	}
	for _, o := range orders {
		set.Rows = append(set.Rows, []string{o.Date.String(), Order(o)})
	}
	doc.Table(set)
	return doc.String()
}
