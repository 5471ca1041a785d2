package backtest

import (
	"time"

	"github.com/etnz/backtest/date"
)

// Date is a day-granularity date.
type Date = date.Date

// Range is a range of dates, bounds included.
type Range = date.Range

// NewDate returns a normalized Date for the given year, month, and day.
func NewDate(year int, month time.Month, day int) Date { return date.New(year, month, day) }

// ParseDate parses a date in the YYYY-MM-DD format.
func ParseDate(str string) (Date, error) { return date.Parse(str) }
