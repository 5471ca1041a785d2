package backtest

import "testing"

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// day is a trading day in a test price table.
type day struct {
	on     string
	prices map[string]float64
}

// mustPrices builds a USD price table from days.
func mustPrices(t testing.TB, days ...day) *PriceTable {
	t.Helper()
	p := NewPriceTable("USD")
	for _, d := range days {
		on, err := ParseDate(d.on)
		if err != nil {
			t.Fatalf("invalid test date: %v", err)
		}
		for ticker, v := range d.prices {
			if err := p.Append(ticker, on, v); err != nil {
				t.Fatalf("Append(%q, %v, %v) error = %v", ticker, on, v, err)
			}
		}
	}
	return p
}

func mustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
