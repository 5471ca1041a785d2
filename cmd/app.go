// Package cmd implements the bt command line: it runs backtests on daily
// prices, generates orders from strategies and reports the results.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/etnz/backtest"
	"github.com/google/subcommands"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	EnvPricesFile = "BT_PRICES_FILE"
	EnvCurrency   = "BT_CURRENCY"
	EnvLogLevel   = "BT_LOG_LEVEL"
	EnvAPIKey     = "EODHD_API_KEY"
)

// registration is a command and its help group.
type registration struct {
	cmd   subcommands.Command
	group string
}

// commands lists every command of the application.
func commands() []registration {
	return []registration{
		{&runCmd{}, "backtest"},
		{&sweepCmd{}, "backtest"},
		{&metricsCmd{}, "backtest"},
		{&generateCmd{}, "strategies"},
		{&strategiesCmd{}, "strategies"},
		{&fetchCmd{}, "prices"},
		{&searchCmd{}, "prices"},
		{&topicCmd{}, "help"},
	}
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, r := range commands() {
		c.Register(r.cmd, r.group)
	}
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var pricesFile = flag.String("prices-file", envOr(EnvPricesFile, "prices.jsonl"), "Path to the daily prices file (JSONL format). Defaults to $"+EnvPricesFile+" if set.")
var defaultCurrency = flag.String("currency", envOr(EnvCurrency, "USD"), "Currency of prices and cash. Defaults to $"+EnvCurrency+" if set.")
var logLevel = flag.String("log-level", envOr(EnvLogLevel, "info"), "Log level (debug, info, warn, error). Defaults to $"+EnvLogLevel+" if set.")
var rawOutput = flag.Bool("raw", false, "Print markdown as is, without terminal rendering.")

// stdout receives the reports.
var stdout io.Writer = os.Stdout

func envOr(name, value string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}
	return value
}

// NewLogger returns a console logger on stderr. An unknown level means info.
func NewLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.DisableStacktrace = true
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// DecodePrices reads a price table from a JSONL file.
func DecodePrices(path, currency string) (*backtest.PriceTable, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("prices file %q does not exist, see 'bt fetch' to create one", path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return backtest.DecodePrices(f, path, currency)
}

// DecodeOrders reads orders from a JSONL file.
func DecodeOrders(path string) ([]backtest.Order, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return backtest.DecodeOrders(f, path)
}

// encodeFile creates path and writes it with encode.
func encodeFile(path string, encode func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		return fmt.Errorf("cannot write %q: %w", path, err)
	}
	return f.Close()
}

// failure reports err and returns the failure status.
func failure(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}

// stringList is a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return fmt.Sprint(*l) }
func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}
