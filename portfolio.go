package backtest

// Portfolio is the state evolved by a simulation: a cash balance and the
// shares held per ticker.
//
// Cash and every holding are never negative. Mutators expect the caller to
// have checked it.
type Portfolio struct {
	cash     Money
	holdings Holdings
}

// NewPortfolio returns a portfolio holding only cash.
func NewPortfolio(cash Money) *Portfolio {
	return &Portfolio{cash: cash}
}

// Cash returns the cash balance.
func (p *Portfolio) Cash() Money { return p.cash }

// Position returns the number of shares held for ticker.
func (p *Portfolio) Position(ticker string) Quantity { return p.holdings.Get(ticker) }

// Holdings returns a copy of the holdings.
func (p *Portfolio) Holdings() Holdings { return p.holdings.Copy() }

// applyBuy debits cash and credits shares. cash must be at least shares*price.
func (p *Portfolio) applyBuy(ticker string, shares Quantity, price Money) {
	p.cash = p.cash.Sub(price.Mul(shares))
	p.holdings.set(ticker, p.holdings.Get(ticker).Add(shares))
}

// applySell debits shares and credits cash. shares must not exceed the position.
func (p *Portfolio) applySell(ticker string, shares Quantity, price Money) {
	p.holdings.set(ticker, p.holdings.Get(ticker).Sub(shares))
	p.cash = p.cash.Add(price.Mul(shares))
}

// Value returns cash plus the market value of every holding on that day.
func (p *Portfolio) Value(on Date, prices *PriceTable) (Money, error) {
	total := p.cash
	for ticker, q := range p.holdings.All() {
		price, ok := prices.Price(on, ticker)
		if !ok {
			return Money{}, &MissingPriceError{Date: on, Ticker: ticker}
		}
		total = total.Add(price.Mul(q))
	}
	return total, nil
}
