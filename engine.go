package backtest

import (
	"fmt"

	"go.uber.org/zap"
)

// Engine runs a backtest: it executes orders against prices and returns the
// valuation trail of the portfolio.
type Engine interface {
	Run(initialCash Money, orders []Order, prices *PriceTable) (*Trail, error)
}

// EquityEngine simulates a long only equity portfolio, without transaction
// costs nor slippage.
//
// Each trading day d is processed in four steps:
//  1. the portfolio is valued with the prices of d. This value is the basis
//     of every fractional Buy of the day.
//  2. the orders of d are applied in stream order. A Buy that cash cannot
//     cover is skipped, a Sell larger than the position is reduced to it.
//  3. the portfolio is valued again with the prices of d.
//  4. a Snapshot is appended to the trail.
//
// An EquityEngine holds no state between runs and can be used concurrently.
type EquityEngine struct {
	logger *zap.Logger
}

// Option configures an EquityEngine.
type Option func(*EquityEngine)

// WithLogger logs skipped and reduced orders at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(e *EquityEngine) { e.logger = logger }
}

// NewEquityEngine returns a new engine.
func NewEquityEngine(opts ...Option) *EquityEngine {
	e := &EquityEngine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run simulates the orders over every trading day of prices.
//
// Orders need not be sorted, but orders of the same day are applied in the
// order of the slice. Malformed orders and missing prices abort the run
// without a trail.
func (e *EquityEngine) Run(initialCash Money, orders []Order, prices *PriceTable) (*Trail, error) {
	if initialCash.IsNegative() {
		return nil, fmt.Errorf("initial cash must not be negative, got %v", initialCash)
	}
	if c := initialCash.Currency(); c != "" && prices.Currency() != "" && c != prices.Currency() {
		return nil, fmt.Errorf("initial cash in %s but prices in %s", c, prices.Currency())
	}
	if err := ValidateOrders(orders); err != nil {
		return nil, err
	}

	byDate := groupByDate(orders)
	days := prices.Days()
	// An order on a day without prices could never be executed.
	if err := checkOrderDays(byDate, days); err != nil {
		return nil, err
	}

	pf := NewPortfolio(M(initialCash.value, prices.Currency()))
	trail := NewTrail(prices.Currency())
	for _, on := range days {
		basis, err := pf.Value(on, prices)
		if err != nil {
			return nil, err
		}
		for _, o := range byDate[on] {
			if err := e.execute(pf, o, basis, prices); err != nil {
				return nil, err
			}
		}
		total, err := pf.Value(on, prices)
		if err != nil {
			return nil, err
		}
		if err := trail.Append(Snapshot{Date: on, Cash: pf.Cash(), TotalValue: total, Holdings: pf.Holdings()}); err != nil {
			return nil, err
		}
	}
	return trail, nil
}

// checkOrderDays returns a *MissingPriceError for the first order scheduled
// on a day that is not a trading day.
func checkOrderDays(byDate map[Date][]Order, days []Date) error {
	trading := make(map[Date]struct{}, len(days))
	for _, on := range days {
		trading[on] = struct{}{}
	}
	var first *Order
	for on, orders := range byDate {
		if _, ok := trading[on]; ok {
			continue
		}
		if first == nil || on.Before(first.Date) {
			first = &orders[0]
		}
	}
	if first != nil {
		return &MissingPriceError{Date: first.Date, Ticker: first.Ticker}
	}
	return nil
}

// execute applies a single order. basis is the portfolio value at the start
// of the day.
func (e *EquityEngine) execute(pf *Portfolio, o Order, basis Money, prices *PriceTable) error {
	price, ok := prices.Price(o.Date, o.Ticker)
	if !ok {
		return &MissingPriceError{Date: o.Date, Ticker: o.Ticker}
	}

	switch o.Side {
	case Buy:
		shares := o.Quantity
		if o.IsFractional() {
			shares = basis.Mul(o.Quantity).Shares(price)
		}
		if shares.IsZero() {
			e.skip(o, shares, pf, "zero size")
			return nil
		}
		if pf.Cash().LessThan(price.Mul(shares)) {
			e.skip(o, shares, pf, "insufficient cash")
			return nil
		}
		pf.applyBuy(o.Ticker, shares, price)

	case Sell:
		held := pf.Position(o.Ticker)
		shares := o.Quantity
		if o.IsFractional() {
			shares = held.Mul(o.Quantity).Floor()
		}
		if clamped := shares.Min(held); !clamped.Equal(shares) {
			e.logger.Debug("sell reduced to position",
				zap.Stringer("date", o.Date),
				zap.String("ticker", o.Ticker),
				zap.Stringer("requested", shares),
				zap.Stringer("held", held))
			shares = clamped
		}
		if shares.IsZero() {
			e.skip(o, shares, pf, "zero size")
			return nil
		}
		pf.applySell(o.Ticker, shares, price)
	}
	return nil
}

func (e *EquityEngine) skip(o Order, shares Quantity, pf *Portfolio, reason string) {
	e.logger.Debug("order skipped",
		zap.String("reason", reason),
		zap.Stringer("date", o.Date),
		zap.String("ticker", o.Ticker),
		zap.Stringer("side", o.Side),
		zap.Stringer("quantity", o.Quantity),
		zap.Stringer("shares", shares),
		zap.Stringer("cash", pf.Cash()))
}
