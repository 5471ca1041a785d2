package date

import (
	"fmt"
	"strings"
)

// Period is a calendar period used to sample daily series.
type Period int

const (
	Daily Period = iota
	Weekly
	Monthly
	Quarterly
	Yearly
)

// Periods returns every period, shortest first.
func Periods() []Period { return []Period{Daily, Weekly, Monthly, Quarterly, Yearly} }

func (p Period) String() string {
	switch p {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Quarterly:
		return "quarterly"
	case Yearly:
		return "yearly"
	default:
		panic(fmt.Sprintf("unknown period %d", p))
	}
}

// ParsePeriod parses a period name, like "monthly" or "month".
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day", "d":
		return Daily, nil
	case "weekly", "week", "w":
		return Weekly, nil
	case "monthly", "month", "m":
		return Monthly, nil
	case "quarterly", "quarter", "q":
		return Quarterly, nil
	case "yearly", "year", "y":
		return Yearly, nil
	default:
		return Daily, fmt.Errorf("unknown period %q, want daily, weekly, monthly, quarterly or yearly", s)
	}
}

// Set implements flag.Value.
func (p *Period) Set(s string) (err error) {
	*p, err = ParsePeriod(s)
	return err
}

// UnmarshalText parses a period name.
func (p *Period) UnmarshalText(text []byte) error { return p.Set(string(text)) }

// MarshalText returns the period name.
func (p Period) MarshalText() ([]byte, error) { return []byte(p.String()), nil }
