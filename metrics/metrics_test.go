package metrics

import (
	"math"
	"testing"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/date"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = date.New(2024, 1, 1)

// simulate buys X with all the cash on day 1 and sells half of it on day 3.
func simulate(t *testing.T) (*backtest.Trail, *backtest.PriceTable) {
	t.Helper()
	prices := backtest.NewPriceTable("USD")
	for i, p := range []float64{10, 11, 9.9, 12} {
		require.NoError(t, prices.Append("X", start.Add(i), p))
	}
	orders := []backtest.Order{
		backtest.NewBuy(start, "X", backtest.Q(1)),
		backtest.NewSell(start.Add(2), "X", backtest.Q(0.5)),
	}
	trail, err := backtest.NewEquityEngine().Run(backtest.M(1000, "USD"), orders, prices)
	require.NoError(t, err)
	return trail, prices
}

func TestExtended_Calculate(t *testing.T) {
	trail, prices := simulate(t)
	bench := new(date.History[float64])
	bench.Append(start, 100).Append(start.Add(1), 101).Append(start.Add(2), 100)

	r, err := NewExtended().Calculate(Input{Trail: trail, Prices: prices, Benchmark: bench})
	require.NoError(t, err)

	assert.Equal(t, 4, r.Days)
	assert.Equal(t, start, r.From)
	assert.Equal(t, start.Add(3), r.To)
	assert.True(t, r.End.Equal(backtest.M(1095, "USD")), "End = %v", r.End)

	// values are 1000, 1100, 990, 1095.
	assert.InDelta(t, 0.0353535, float64(r.DailyReturn), 1e-6)
	assert.InDelta(t, 0.095, float64(r.CumulativeReturn), 1e-9)
	assert.InDelta(t, 0.0302515, float64(r.LogReturn), 1e-6)
	assert.InDelta(t, 1.8614251, float64(r.Volatility), 1e-6)
	assert.InDelta(t, 4.7837491, r.SharpeRatio, 1e-6)
	assert.InDelta(t, -0.1, float64(r.MaxDrawdown), 1e-9)

	// only day 3 trades: 50 shares at 9.9 over 1100.
	assert.InDelta(t, 0.15, r.AverageTurnover, 1e-9)
	assert.InDelta(t, 37.8, r.AnnualTurnover, 1e-9)

	assert.True(t, r.HasBenchmark)
	assert.InDelta(t, 0, float64(r.BenchmarkReturn), 1e-9)
	assert.InDelta(t, 0.095, float64(r.ExcessReturn), 1e-9)
}

func TestExtended_InsufficientData(t *testing.T) {
	prices := backtest.NewPriceTable("USD")
	require.NoError(t, prices.Append("X", start, 10))
	trail, err := backtest.NewEquityEngine().Run(backtest.M(1000, "USD"), nil, prices)
	require.NoError(t, err)

	r, err := NewExtended().Calculate(Input{Trail: trail})
	require.NoError(t, err)
	for name, v := range map[string]float64{
		"DailyReturn":      float64(r.DailyReturn),
		"CumulativeReturn": float64(r.CumulativeReturn),
		"Volatility":       float64(r.Volatility),
		"SharpeRatio":      r.SharpeRatio,
		"AverageTurnover":  r.AverageTurnover,
	} {
		assert.True(t, math.IsNaN(v), "%s = %v want NaN", name, v)
	}
	assert.Zero(t, float64(r.MaxDrawdown))
	assert.False(t, r.HasBenchmark)

	_, err = NewExtended().Calculate(Input{})
	assert.Error(t, err)
}

func TestExtended_FlatSeries(t *testing.T) {
	prices := backtest.NewPriceTable("USD")
	for i := range 5 {
		require.NoError(t, prices.Append("X", start.Add(i), 10))
	}
	trail, err := backtest.NewEquityEngine().Run(backtest.M(1000, "USD"), nil, prices)
	require.NoError(t, err)

	r, err := NewExtended().Calculate(Input{Trail: trail, Prices: prices})
	require.NoError(t, err)
	assert.Zero(t, float64(r.Volatility))
	assert.True(t, math.IsNaN(r.SharpeRatio), "a risk free series has no Sharpe ratio")
	assert.Zero(t, r.AverageTurnover)
}

func TestReturnsAndCumulative(t *testing.T) {
	h := new(date.History[float64])
	h.Append(start, 10).Append(start.Add(1), 12).Append(start.Add(3), 9)

	returns := Returns(h)
	require.Equal(t, 2, returns.Len())
	r1, _ := returns.Get(start.Add(1))
	r2, _ := returns.Get(start.Add(3))
	assert.InDelta(t, 0.2, r1, 1e-12)
	assert.InDelta(t, -0.25, r2, 1e-12)

	_, last := Cumulative(returns).Latest()
	assert.InDelta(t, -0.1, last, 1e-12)
}

func TestBenchmarkReturn(t *testing.T) {
	bench := new(date.History[float64])
	bench.Append(start.Add(1), 100).Append(start.Add(3), 110).Append(start.Add(6), 99)

	assert.InDelta(t, 0.1, benchmarkReturn(bench, start, start.Add(4)), 1e-12, "from its first day to its last known price")
	assert.InDelta(t, -0.1, benchmarkReturn(bench, start.Add(4), start.Add(9)), 1e-12)
	assert.True(t, math.IsNaN(benchmarkReturn(bench, start, start)), "ends before the benchmark starts")
	assert.True(t, math.IsNaN(benchmarkReturn(new(date.History[float64]), start, start.Add(1))))
}

func TestStd(t *testing.T) {
	// sample deviation, as pandas with ddof=1.
	assert.InDelta(t, 1.2909944, std([]float64{1, 2, 3, 4}), 1e-7)
	assert.Zero(t, std([]float64{3, 3, 3}))
	assert.True(t, math.IsNaN(std([]float64{3})))
	assert.True(t, math.IsNaN(std(nil)))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "1.50%", Percent(0.015).String())
	assert.Equal(t, "+1.50%", Percent(0.015).SignedString())
	assert.Equal(t, "-", Percent(0).SignedString())
	assert.Equal(t, "n/a", Percent(math.NaN()).String())
	assert.True(t, Percent(0.1).Equal(Percent(0.1000000001)))
}
