package backtest

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingPrice is matched by every *MissingPriceError.
	ErrMissingPrice = errors.New("missing price")
	// ErrInvalidOrder is matched by every *InvalidOrderError.
	ErrInvalidOrder = errors.New("invalid order")
)

// MissingPriceError reports a price required by the simulation that is
// absent from the price table. It aborts the run.
type MissingPriceError struct {
	Date   Date
	Ticker string
}

func (e *MissingPriceError) Error() string {
	return fmt.Sprintf("missing price for %q on %s", e.Ticker, e.Date)
}

func (e *MissingPriceError) Is(target error) bool { return target == ErrMissingPrice }

// InvalidOrderError reports a malformed order in the stream. It aborts the
// run before the first day is simulated.
type InvalidOrderError struct {
	Index  int // position in the stream
	Order  Order
	Reason string
}

func (e *InvalidOrderError) Error() string {
	return fmt.Sprintf("invalid order #%d (%v): %s", e.Index, e.Order, e.Reason)
}

func (e *InvalidOrderError) Is(target error) bool { return target == ErrInvalidOrder }
