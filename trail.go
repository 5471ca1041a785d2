package backtest

import (
	"fmt"
	"slices"

	"github.com/etnz/backtest/date"
)

// Snapshot is the state of the portfolio at the close of a trading day,
// after all orders of that day have been applied.
type Snapshot struct {
	Date       Date
	Cash       Money
	TotalValue Money
	Holdings   Holdings
}

// Trail is the valuation trail of a simulation: one snapshot per trading
// day, in strictly ascending date order.
type Trail struct {
	cur       string
	snapshots []Snapshot
}

// NewTrail returns an empty trail in 'currency'.
func NewTrail(currency string) *Trail { return &Trail{cur: currency} }

// Append adds the snapshot of the next trading day. Days must be strictly
// increasing.
func (t *Trail) Append(s Snapshot) error {
	if n := len(t.snapshots); n > 0 && !t.snapshots[n-1].Date.Before(s.Date) {
		return fmt.Errorf("snapshot on %s does not follow %s", s.Date, t.snapshots[n-1].Date)
	}
	t.snapshots = append(t.snapshots, s)
	return nil
}

// Currency returns the currency of the trail values.
func (t *Trail) Currency() string { return t.cur }

// Len returns the number of trading days in the trail.
func (t *Trail) Len() int { return len(t.snapshots) }

// At returns the i-th snapshot.
func (t *Trail) At(i int) Snapshot { return t.snapshots[i] }

// Snapshots returns all snapshots in date order.
func (t *Trail) Snapshots() []Snapshot { return slices.Clone(t.snapshots) }

// Last returns the last snapshot, false if the trail is empty.
func (t *Trail) Last() (Snapshot, bool) {
	if len(t.snapshots) == 0 {
		return Snapshot{}, false
	}
	return t.snapshots[len(t.snapshots)-1], true
}

// Values returns the total value of the portfolio per day.
func (t *Trail) Values() *date.History[Money] {
	h := new(date.History[Money])
	for _, s := range t.snapshots {
		h.Append(s.Date, s.TotalValue)
	}
	return h
}

// Returns returns the daily returns of the total value, starting on the
// second day. Days following a zero value have no return.
func (t *Trail) Returns() *date.History[float64] {
	h := new(date.History[float64])
	for i := 1; i < len(t.snapshots); i++ {
		prev, cur := t.snapshots[i-1].TotalValue, t.snapshots[i].TotalValue
		if prev.IsZero() {
			continue
		}
		h.Append(t.snapshots[i].Date, cur.Ratio(prev)-1)
	}
	return h
}

// Tickers returns every ticker held at least once, in alphabetical order.
func (t *Trail) Tickers() []string {
	seen := make(map[string]struct{})
	for _, s := range t.snapshots {
		for ticker := range s.Holdings.All() {
			seen[ticker] = struct{}{}
		}
	}
	tickers := make([]string, 0, len(seen))
	for ticker := range seen {
		tickers = append(tickers, ticker)
	}
	slices.Sort(tickers)
	return tickers
}

// HoldingsTable is the daily cash and holdings of a trail as a dense table.
type HoldingsTable struct {
	Tickers []string
	Rows    []HoldingsRow
}

// HoldingsRow is one day of a HoldingsTable. Quantities are in the order of
// the table Tickers, a ticker not held is zero.
type HoldingsRow struct {
	Date       Date
	Cash       Money
	Quantities []Quantity
}

// Table returns the daily cash and holdings, with every ticker ever held as
// a column.
func (t *Trail) Table() HoldingsTable {
	table := HoldingsTable{Tickers: t.Tickers()}
	for _, s := range t.snapshots {
		row := HoldingsRow{Date: s.Date, Cash: s.Cash, Quantities: make([]Quantity, len(table.Tickers))}
		for i, ticker := range table.Tickers {
			row.Quantities[i] = s.Holdings.Get(ticker)
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
