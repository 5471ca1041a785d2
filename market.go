package backtest

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/etnz/backtest/date"
)

// PriceTable holds daily prices for a set of tickers. It is the only source
// of prices of a simulation, and is never modified by it.
type PriceTable struct {
	cur   string
	index map[string]*date.History[float64]

	mu   sync.Mutex
	days []Date // cached union of all trading days, nil when stale.
}

// NewPriceTable returns a new empty price table, prices are in 'currency'.
func NewPriceTable(currency string) *PriceTable {
	return &PriceTable{
		cur:   currency,
		index: make(map[string]*date.History[float64]),
	}
}

// Currency returns the currency of all prices.
func (p *PriceTable) Currency() string { return p.cur }

// Has reports whether the table holds prices for ticker.
func (p *PriceTable) Has(ticker string) bool {
	_, ok := p.index[ticker]
	return ok
}

// Append records the price of ticker on a given day. An existing price is
// overwritten.
func (p *PriceTable) Append(ticker string, on Date, price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return fmt.Errorf("invalid price %v for %q on %s: must be a positive number", price, ticker, on)
	}
	h, ok := p.index[ticker]
	if !ok {
		h = new(date.History[float64])
		p.index[ticker] = h
	}
	h.Append(on, price)
	p.mu.Lock()
	p.days = nil
	p.mu.Unlock()
	return nil
}

// read a single value from the table for a given (ticker, day).
func (p *PriceTable) read(ticker string, day Date) (float64, bool) {
	h, ok := p.index[ticker]
	if !ok {
		return 0.0, false
	}
	return h.Get(day)
}

// Price returns the price of ticker on that day. There is no fallback on a
// previous day: a missing price is reported as such.
func (p *PriceTable) Price(on Date, ticker string) (Money, bool) {
	v, ok := p.read(ticker, on)
	if !ok {
		return Money{}, false
	}
	return M(v, p.cur), true
}

// Days returns the trading days in ascending order. A day is a trading day
// if at least one ticker has a price on it.
func (p *PriceTable) Days() []Date {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.days == nil {
		histories := make([]*date.History[float64], 0, len(p.index))
		for _, ticker := range p.Tickers() {
			histories = append(histories, p.index[ticker])
		}
		p.days = slices.Collect(date.Iterate(histories...))
	}
	return slices.Clone(p.days)
}

// Tickers returns all tickers in alphabetical order.
func (p *PriceTable) Tickers() []string {
	tickers := make([]string, 0, len(p.index))
	for t := range p.index {
		tickers = append(tickers, t)
	}
	slices.Sort(tickers)
	return tickers
}

// Series returns the price history of ticker, or nil.
func (p *PriceTable) Series(ticker string) *date.History[float64] { return p.index[ticker] }

// Sub returns a new table restricted to the tickers (all if empty) and the range r
// (unbounded if zero).
func (p *PriceTable) Sub(r Range, tickers ...string) *PriceTable {
	if len(tickers) == 0 {
		tickers = p.Tickers()
	}
	sub := NewPriceTable(p.cur)
	for _, t := range tickers {
		h, ok := p.index[t]
		if !ok {
			continue
		}
		if r.IsZero() {
			h = h.Clone()
		} else {
			h = h.Between(r)
		}
		if h.Len() > 0 {
			sub.index[t] = h
		}
	}
	return sub
}
