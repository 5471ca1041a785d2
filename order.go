package backtest

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Side is the direction of an order.
type Side int

const (
	Buy Side = iota + 1
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// ParseSide parses "BUY" or "SELL", case insensitive.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	default:
		return 0, fmt.Errorf("unknown order side %q want BUY or SELL", s)
	}
}

func (s Side) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *Side) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	// unknown sides are kept as is, and reported by Validate.
	side, err := ParseSide(str)
	if err != nil {
		side = 0
	}
	*s = side
	return nil
}

// Order is an instruction to buy or sell a security on a given day.
//
// A Quantity in ]0, 1] is a fraction: of the portfolio value for a Buy, of
// the current holding for a Sell. Any other positive Quantity is a number of
// shares.
type Order struct {
	Date     Date
	Ticker   string
	Side     Side
	Quantity Quantity
}

// NewBuy returns a Buy order.
func NewBuy(on Date, ticker string, quantity Quantity) Order {
	return Order{Date: on, Ticker: ticker, Side: Buy, Quantity: quantity}
}

// NewSell returns a Sell order.
func NewSell(on Date, ticker string, quantity Quantity) Order {
	return Order{Date: on, Ticker: ticker, Side: Sell, Quantity: quantity}
}

var one = Q(1)

// IsFractional reports whether the order is sized as a fraction.
func (o Order) IsFractional() bool {
	return o.Quantity.IsPositive() && !o.Quantity.GreaterThan(one)
}

// Validate checks the shape of the order.
func (o Order) Validate() error {
	switch {
	case o.Date.IsZero():
		return fmt.Errorf("missing date")
	case strings.TrimSpace(o.Ticker) == "":
		return fmt.Errorf("missing ticker")
	case o.Side != Buy && o.Side != Sell:
		return fmt.Errorf("unknown side %v", o.Side)
	case !o.Quantity.IsPositive():
		return fmt.Errorf("quantity must be positive, got %v", o.Quantity)
	case !o.IsFractional() && !o.Quantity.IsInteger():
		return fmt.Errorf("absolute quantity must be a whole number of shares, got %v", o.Quantity)
	}
	return nil
}

func (o Order) String() string {
	return fmt.Sprintf("%s %s %s %s", o.Date, o.Side, o.Ticker, o.Quantity)
}

// ValidateOrders validates every order of the stream. It returns an
// *InvalidOrderError for the first malformed order.
func ValidateOrders(orders []Order) error {
	for i, o := range orders {
		if err := o.Validate(); err != nil {
			return &InvalidOrderError{Index: i, Order: o, Reason: err.Error()}
		}
	}
	return nil
}

// groupByDate indexes the orders by day. Orders of the same day keep their
// relative order from the stream.
func groupByDate(orders []Order) map[Date][]Order {
	days := make(map[Date][]Order)
	for _, o := range orders {
		days[o.Date] = append(days[o.Date], o)
	}
	return days
}

// SortOrders sorts orders by date. Orders of the same day keep their relative
// order.
func SortOrders(orders []Order) {
	slices.SortStableFunc(orders, func(a, b Order) int { return a.Date.Compare(b.Date) })
}
