package strategy

import (
	"fmt"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/date"
	"gonum.org/v1/gonum/floats"
)

// Momentum enters a ticker when its price nears the high of the previous
// Window days, and exits when it nears the low.
//
// "Near" is within Threshold (a ratio): price >= high*(1-Threshold) to enter,
// price <= low*(1+Threshold) to exit. Today is never part of the window. The
// strategy tracks its own position: it enters only when out, exits only when
// in.
type Momentum struct {
	Window       int
	Threshold    float64
	BuyFraction  backtest.Quantity // of the portfolio value
	SellFraction backtest.Quantity // of the holding
}

// NewMomentum returns the strategy with its default parameters.
func NewMomentum() *Momentum {
	return &Momentum{Window: 125, Threshold: 0.02, BuyFraction: backtest.Q(0.3), SellFraction: backtest.Q(1)}
}

// Validate checks the parameters.
func (m *Momentum) Validate() error {
	if m.Window < 1 {
		return fmt.Errorf("momentum: window must be positive, got %d", m.Window)
	}
	if !(m.Threshold >= 0 && m.Threshold < 1) {
		return fmt.Errorf("momentum: threshold must be in [0, 1[, got %v", m.Threshold)
	}
	on := date.New(2000, 1, 1)
	for _, o := range []backtest.Order{backtest.NewBuy(on, "probe", m.BuyFraction), backtest.NewSell(on, "probe", m.SellFraction)} {
		if !o.IsFractional() {
			return fmt.Errorf("momentum: %s fraction must be in ]0, 1], got %v", o.Side, o.Quantity)
		}
	}
	return nil
}

// Signals returns the signal of each day of series.
func (m *Momentum) Signals(series *date.History[float64]) *date.History[Signal] {
	signals := new(date.History[Signal])
	if series == nil || m.Window < 1 {
		return signals
	}
	values := make([]float64, 0, series.Len())
	in := false
	for on, price := range series.Values() {
		if len(values) < m.Window {
			values = append(values, price)
			signals.Append(on, WarmUp)
			continue
		}
		window := values[len(values)-m.Window:]
		low, high := floats.Min(window), floats.Max(window)
		values = append(values, price)
		switch {
		case !in && price >= high*(1-m.Threshold):
			in = true
			signals.Append(on, Enter)
		case in && price <= low*(1+m.Threshold):
			in = false
			signals.Append(on, Exit)
		default:
			signals.Append(on, Hold)
		}
	}
	return signals
}

// GenerateOrders implements OrderGenerator.
func (m *Momentum) GenerateOrders(prices *backtest.PriceTable) ([]backtest.Order, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return generate(m, prices,
		func(on backtest.Date, ticker string) backtest.Order { return backtest.NewBuy(on, ticker, m.BuyFraction) },
		func(on backtest.Date, ticker string) backtest.Order { return backtest.NewSell(on, ticker, m.SellFraction) },
	), nil
}
