package backtest

import (
	"iter"

	"github.com/tidwall/btree"
)

// Holdings maps tickers to the number of shares held. Tickers are kept in
// alphabetical order, and a ticker that is not held has a zero quantity.
//
// The zero value is an empty Holdings ready to use.
type Holdings struct {
	m *btree.Map[string, Quantity]
}

func (h *Holdings) tree() *btree.Map[string, Quantity] {
	if h.m == nil {
		h.m = new(btree.Map[string, Quantity])
	}
	return h.m
}

// Get returns the quantity held for ticker, zero if none.
func (h Holdings) Get(ticker string) Quantity {
	if h.m == nil {
		return Quantity{}
	}
	q, _ := h.m.Get(ticker)
	return q
}

// set updates the quantity held for ticker, a zero quantity removes it.
func (h *Holdings) set(ticker string, q Quantity) {
	if q.IsZero() {
		if h.m != nil {
			h.m.Delete(ticker)
		}
		return
	}
	h.tree().Set(ticker, q)
}

// Len returns the number of tickers held.
func (h Holdings) Len() int {
	if h.m == nil {
		return 0
	}
	return h.m.Len()
}

// All returns an iterator over the tickers held and their quantity, in
// alphabetical order.
func (h Holdings) All() iter.Seq2[string, Quantity] {
	return func(yield func(string, Quantity) bool) {
		if h.m == nil {
			return
		}
		h.m.Scan(func(ticker string, q Quantity) bool { return yield(ticker, q) })
	}
}

// Tickers returns the tickers held, in alphabetical order.
func (h Holdings) Tickers() []string {
	tickers := make([]string, 0, h.Len())
	for t := range h.All() {
		tickers = append(tickers, t)
	}
	return tickers
}

// Copy returns an independent copy of the holdings. The copy is lazy, and
// cheap until either side is modified.
func (h Holdings) Copy() Holdings {
	if h.m == nil {
		return Holdings{}
	}
	return Holdings{m: h.m.Copy()}
}
