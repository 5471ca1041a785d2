package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// std is the sample standard deviation, NaN for less than two values.
func std(vals []float64) float64 {
	if len(vals) < 2 {
		return math.NaN()
	}
	return stat.StdDev(vals, nil)
}

// maxDrawdown returns the worst decline from a running peak, as a negative
// ratio. Values before the first positive peak are ignored.
func maxDrawdown(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	peak, worst := 0.0, 0.0
	for _, v := range vals {
		peak = math.Max(peak, v)
		if peak <= 0 {
			continue
		}
		worst = math.Min(worst, v/peak-1)
	}
	return worst
}
