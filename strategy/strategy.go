// Package strategy generates order streams from historical prices.
//
// A strategy looks at each ticker of a price table in isolation, and emits
// orders in the daily order format understood by the backtest engine. It
// never sees the portfolio: sizing is expressed with fractional quantities
// and resolved by the engine.
package strategy

import (
	"fmt"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/date"
)

// OrderGenerator turns a price table into an order stream.
type OrderGenerator interface {
	GenerateOrders(prices *backtest.PriceTable) ([]backtest.Order, error)
}

// Signal is the decision of a strategy for one ticker on one day.
type Signal int

const (
	// WarmUp means there is not enough history yet to decide.
	WarmUp Signal = iota
	// Hold means no order.
	Hold
	Enter
	Exit
)

func (s Signal) String() string {
	switch s {
	case WarmUp:
		return "warm-up"
	case Hold:
		return "hold"
	case Enter:
		return "enter"
	case Exit:
		return "exit"
	default:
		return fmt.Sprintf("Signal(%d)", int(s))
	}
}

// signaler computes the daily signals of a single price series.
type signaler interface {
	Signals(series *date.History[float64]) *date.History[Signal]
}

// generate runs s over every ticker of prices, in alphabetical order, and
// converts Enter and Exit signals into orders. The result is sorted by date,
// orders of the same day are in ticker order.
func generate(s signaler, prices *backtest.PriceTable, enter, exit func(on backtest.Date, ticker string) backtest.Order) []backtest.Order {
	var orders []backtest.Order
	for _, ticker := range prices.Tickers() {
		for on, sig := range s.Signals(prices.Series(ticker)).Values() {
			switch sig {
			case Enter:
				orders = append(orders, enter(on, ticker))
			case Exit:
				orders = append(orders, exit(on, ticker))
			}
		}
	}
	backtest.SortOrders(orders)
	return orders
}
