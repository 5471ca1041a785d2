package metrics

import (
	"fmt"
	"math"
)

// Percent is a ratio displayed as a percentage: 0.01 is 1%.
type Percent float64

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 1e-6
	return math.Abs(float64(p-q)) < precision
}

func (p Percent) String() string {
	if math.IsNaN(float64(p)) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", 100*p)
}

// SignedString always shows the sign, 0 is represented as a "-".
func (p Percent) SignedString() string {
	if math.IsNaN(float64(p)) {
		return "n/a"
	}
	res := fmt.Sprintf("%+.2f%%", 100*p)
	if res == "+0.00%" || res == "-0.00%" {
		return "-"
	}
	return res
}
