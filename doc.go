// Package backtest simulates the execution of a stream of trade orders
// against historical daily prices and produces the valuation trail of the
// resulting portfolio. It is designed to be offline, deterministic and
// auditable, so that a strategy can be evaluated with full confidence in
// the numbers it produces.
//
// The core functionalities include:
//   - Price Table: an immutable (day, ticker) lookup of daily prices, with
//     an ascending axis of trading days.
//   - Orders: BUY and SELL instructions sized either in absolute shares or
//     as a fraction of the portfolio (BUY) or of the current holding (SELL).
//   - Simulation Engine: a causally ordered state machine that walks trading
//     days, applies each day's orders in input order and never violates
//     solvency nor shorts a security.
//   - Valuation Trail: a daily record of cash, holdings and total value,
//     ready for metrics and reports.
//   - Data Persistence: human-readable JSONL encoding of prices, orders and
//     trails.
//
// This package serves as the foundational logic for the `bt` command-line
// tool.
package backtest
