package strategy

import (
	"fmt"
	"math"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/date"
	"gonum.org/v1/gonum/stat"
)

// MeanReversion trades the z-score of the price against its rolling mean.
//
// On each day with a full window (today included), z = (price - mean) / std.
// The strategy buys when z < -Entry, otherwise sells when z > Exit. With the
// default Exit of -2 every day that is not a buy is a sell.
type MeanReversion struct {
	Window   int
	Entry    float64
	Exit     float64
	Quantity backtest.Quantity // shares, or a fraction, per order
}

// NewMeanReversion returns the strategy with its default parameters.
func NewMeanReversion() *MeanReversion {
	return &MeanReversion{Window: 100, Entry: 2, Exit: -2, Quantity: backtest.Q(100)}
}

// Validate checks the parameters.
func (m *MeanReversion) Validate() error {
	if m.Window < 2 {
		return fmt.Errorf("mean-reversion: window must be at least 2, got %d", m.Window)
	}
	if math.IsNaN(m.Entry) || math.IsNaN(m.Exit) {
		return fmt.Errorf("mean-reversion: thresholds must be numbers")
	}
	probe := backtest.NewBuy(date.New(2000, 1, 1), "probe", m.Quantity)
	if err := probe.Validate(); err != nil {
		return fmt.Errorf("mean-reversion: invalid quantity: %w", err)
	}
	return nil
}

// Signals returns the signal of each day of series.
func (m *MeanReversion) Signals(series *date.History[float64]) *date.History[Signal] {
	signals := new(date.History[Signal])
	if series == nil {
		return signals
	}
	values := make([]float64, 0, series.Len())
	for on, price := range series.Values() {
		values = append(values, price)
		if len(values) < m.Window {
			signals.Append(on, WarmUp)
			continue
		}
		mean, std := stat.MeanStdDev(values[len(values)-m.Window:], nil)
		// a flat window gives an infinite score, or NaN on the mean itself.
		z := (price - mean) / std
		switch {
		case math.IsNaN(z):
			signals.Append(on, Hold)
		case z < -m.Entry:
			signals.Append(on, Enter)
		case z > m.Exit:
			signals.Append(on, Exit)
		default:
			signals.Append(on, Hold)
		}
	}
	return signals
}

// GenerateOrders implements OrderGenerator.
func (m *MeanReversion) GenerateOrders(prices *backtest.PriceTable) ([]backtest.Order, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return generate(m, prices,
		func(on backtest.Date, ticker string) backtest.Order { return backtest.NewBuy(on, ticker, m.Quantity) },
		func(on backtest.Date, ticker string) backtest.Order { return backtest.NewSell(on, ticker, m.Quantity) },
	), nil
}
