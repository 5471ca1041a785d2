// Package metrics computes performance statistics of a backtest trail.
//
// Statistics are floating point: they summarize a simulation that is itself
// exact. A statistic that the data cannot support (too few days, no price
// table, a flat series) is NaN rather than an error.
package metrics

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"slices"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/date"
	"gonum.org/v1/gonum/stat"
)

// Input is what a Metrics needs.
type Input struct {
	Trail *backtest.Trail
	// Prices of the simulation. Turnover is NaN without them.
	Prices *backtest.PriceTable
	// Benchmark is an optional price series to compare the trail with.
	Benchmark *date.History[float64]
}

// Report holds the statistics of a trail. Returns are ratios: 0.01 is 1%.
type Report struct {
	From, To date.Date
	Days     int // trading days in the trail

	Start, End backtest.Money

	DailyReturn      Percent // mean daily return
	CumulativeReturn Percent
	LogReturn        Percent // mean daily log return
	Volatility       Percent // annualized
	SharpeRatio      float64 // annualized
	MaxDrawdown      Percent

	AnnualTurnover  float64
	AverageTurnover float64 // mean daily traded value over the previous day value

	HasBenchmark     bool
	BenchmarkReturn  Percent // cumulative, over the trail returns days
	ExcessReturn     Percent // CumulativeReturn - BenchmarkReturn
}

// Metrics computes a Report.
type Metrics interface {
	Calculate(in Input) (Report, error)
}

// Extended computes every statistic of the Report.
type Extended struct {
	RiskFreeRate float64 // annual
	TradingDays  int     // per year
}

// NewExtended returns the metrics for a 252 trading days year and an
// annual risk free rate of 0.45%.
func NewExtended() Extended { return Extended{RiskFreeRate: 0.0045, TradingDays: 252} }

// Calculate implements Metrics.
func (e Extended) Calculate(in Input) (Report, error) {
	if in.Trail == nil {
		return Report{}, errors.New("metrics: missing trail")
	}
	if e.TradingDays <= 0 {
		return Report{}, fmt.Errorf("metrics: trading days must be positive, got %d", e.TradingDays)
	}
	nan := Percent(math.NaN())
	r := Report{
		Days:             in.Trail.Len(),
		DailyReturn:      nan,
		CumulativeReturn: nan,
		LogReturn:        nan,
		Volatility:       nan,
		SharpeRatio:      math.NaN(),
		MaxDrawdown:      nan,
		AnnualTurnover:   math.NaN(),
		AverageTurnover:  math.NaN(),
		BenchmarkReturn:  nan,
		ExcessReturn:     nan,
	}
	if last, ok := in.Trail.Last(); ok {
		r.From, r.Start = in.Trail.At(0).Date, in.Trail.At(0).TotalValue
		r.To, r.End = last.Date, last.TotalValue
	}

	returns := in.Trail.Returns()
	rets := slices.Collect(values(returns))
	annual := math.Sqrt(float64(e.TradingDays))

	r.DailyReturn = Percent(stat.Mean(rets, nil))
	if returns.Len() > 0 {
		_, c := Cumulative(returns).Latest()
		r.CumulativeReturn = Percent(c)
	}
	logs := make([]float64, len(rets))
	for i, v := range rets {
		logs[i] = math.Log1p(v)
	}
	r.LogReturn = Percent(stat.Mean(logs, nil))
	r.Volatility = Percent(std(rets) * annual)

	// excess returns over the risk free rate have the deviation of the returns.
	if s := std(rets); s > 0 {
		daily := e.RiskFreeRate / float64(e.TradingDays)
		r.SharpeRatio = (stat.Mean(rets, nil) - daily) / s * annual
	}

	totals := make([]float64, 0, in.Trail.Len())
	for _, v := range in.Trail.Values().Values() {
		totals = append(totals, v.AsFloat())
	}
	r.MaxDrawdown = Percent(maxDrawdown(totals))

	if in.Prices != nil {
		turnover, err := Turnover(in.Trail, in.Prices)
		if err != nil {
			return Report{}, err
		}
		if t := stat.Mean(slices.Collect(values(turnover)), nil); !math.IsNaN(t) {
			r.AverageTurnover = t
			r.AnnualTurnover = t * float64(e.TradingDays)
		}
	}

	if in.Benchmark != nil {
		r.HasBenchmark = true
		if returns.Len() > 0 {
			r.BenchmarkReturn = Percent(benchmarkReturn(in.Benchmark, r.From, r.To))
			r.ExcessReturn = r.CumulativeReturn - r.BenchmarkReturn
		}
	}
	return r, nil
}

// Returns computes the daily returns of a price series, from the second
// day on. Days following a non positive price have no return.
func Returns(prices *date.History[float64]) *date.History[float64] {
	returns := new(date.History[float64])
	prev := math.NaN()
	for on, v := range prices.Values() {
		if prev > 0 {
			returns.Append(on, v/prev-1)
		}
		prev = v
	}
	return returns
}

// benchmarkReturn is the return of the benchmark from one day to another,
// each priced at its last known value. A start before the first benchmark day
// uses that first day instead.
func benchmarkReturn(bench *date.History[float64], from, to date.Date) float64 {
	if bench.Len() == 0 {
		return math.NaN()
	}
	start, ok := bench.ValueAsOf(from)
	if !ok {
		_, start = bench.At(0)
	}
	end, ok := bench.ValueAsOf(to)
	if !ok || start <= 0 {
		return math.NaN()
	}
	return end/start - 1
}

// Cumulative compounds daily returns into the cumulative return up to each day.
func Cumulative(returns *date.History[float64]) *date.History[float64] {
	cumulative := new(date.History[float64])
	p := 1.0
	for on, r := range returns.Values() {
		p *= 1 + r
		cumulative.Append(on, p-1)
	}
	return cumulative
}

// Turnover computes the daily turnover of a trail, from its second day on:
// the value traded on that day (at that day prices) over the total value of
// the previous day. A day following a worthless portfolio has no turnover.
func Turnover(trail *backtest.Trail, prices *backtest.PriceTable) (*date.History[float64], error) {
	turnover := new(date.History[float64])
	table := trail.Table()
	for i := 1; i < len(table.Rows); i++ {
		row, prev := table.Rows[i], table.Rows[i-1]
		traded := 0.0
		for j, ticker := range table.Tickers {
			delta := row.Quantities[j].Sub(prev.Quantities[j]).Abs()
			if delta.IsZero() {
				continue
			}
			price, ok := prices.Price(row.Date, ticker)
			if !ok {
				return nil, fmt.Errorf("metrics: turnover: %w", &backtest.MissingPriceError{Date: row.Date, Ticker: ticker})
			}
			traded += price.Mul(delta).AsFloat()
		}
		base := trail.At(i - 1).TotalValue
		if !base.IsPositive() {
			turnover.Append(row.Date, 0)
			continue
		}
		turnover.Append(row.Date, traded/base.AsFloat())
	}
	return turnover, nil
}

// values iterates over the values of h, in date order.
func values[T any](h *date.History[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range h.Values() {
			if !yield(v) {
				return
			}
		}
	}
}
