package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/date"
	"github.com/etnz/backtest/eodhd"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

// eodhdFlags are the flags of the commands consuming the EODHD API.
type eodhdFlags struct {
	apiKey  string
	baseURL string
	noCache bool
}

func (e *eodhdFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&e.apiKey, "eodhd-api-key", "", "EODHD API key to use for consuming EODHD.com API. This flag takes precedence over the "+EnvAPIKey+" environment variable. You can get one at https://eodhd.com/")
	f.StringVar(&e.baseURL, "eodhd-url", eodhd.DefaultBaseURL, "Root of the EODHD API.")
	f.BoolVar(&e.noCache, "no-cache", false, "Do not cache EODHD responses for the day.")
}

// client returns an EODHD client, reading the key from the environment if
// the flag is not set.
func (e *eodhdFlags) client(logger *zap.Logger, opts ...eodhd.Option) (*eodhd.Client, error) {
	key := e.apiKey
	if key == "" {
		key = os.Getenv(EnvAPIKey)
	}
	if key == "" {
		return nil, fmt.Errorf("EODHD API key is not set. Use -eodhd-api-key flag or %s environment variable", EnvAPIKey)
	}
	opts = append(opts, eodhd.WithLogger(logger), eodhd.WithBaseURL(e.baseURL))
	if e.noCache {
		opts = append(opts, eodhd.WithCacheDir(""))
	}
	return eodhd.NewClient(key, opts...), nil
}

type fetchCmd struct {
	eodhdFlags
	from, to string
	field    string
	output   string
	replace  bool
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "fetch daily prices from EODHD into the prices file" }
func (*fetchCmd) Usage() string {
	return `bt fetch [-from <date>] [-to <date>] [-o <prices.jsonl>] <ticker>...

  Fetches the daily prices of tickers from EOD Historical Data. Tickers
  use the EODHD format SYMBOL.EXCHANGE, like AAPL.US, see 'bt search'.

  Fetched prices are merged into the prices file unless -replace is set.
  Requires the EODHD_API_KEY environment variable to be set or passed as a flag.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	c.eodhdFlags.SetFlags(f)
	f.StringVar(&c.from, "from", "", "First day to fetch (YYYY-MM-DD). Defaults to one year ago.")
	f.StringVar(&c.to, "to", "", "Last day to fetch (YYYY-MM-DD). Defaults to today.")
	f.StringVar(&c.field, "field", eodhd.DefaultField, "JSON path of the price in an EODHD record.")
	f.StringVar(&c.output, "o", "", "Prices file to update. Defaults to -prices-file.")
	f.BoolVar(&c.replace, "replace", false, "Replace the prices file instead of merging into it.")
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one ticker is required.")
		return subcommands.ExitUsageError
	}
	tickers := make([]string, 0, f.NArg())
	for _, t := range f.Args() {
		tickers = append(tickers, strings.ToUpper(t))
	}
	to, from := date.Today(), date.Today().Add(-365)
	var err error
	if c.to != "" {
		if to, err = date.Parse(c.to); err != nil {
			return failure(err)
		}
	}
	if c.from != "" {
		if from, err = date.Parse(c.from); err != nil {
			return failure(err)
		}
	}
	if to.Before(from) {
		return failure(fmt.Errorf("from %s is after to %s", from, to))
	}

	logger := NewLogger(*logLevel)
	defer logger.Sync()
	client, err := c.client(logger, eodhd.WithField(c.field))
	if err != nil {
		return failure(err)
	}
	fetched, err := client.FetchPrices(ctx, tickers, from, to, *defaultCurrency)
	if err != nil {
		return failure(err)
	}

	output := c.output
	if output == "" {
		output = *pricesFile
	}
	prices := backtest.NewPriceTable(*defaultCurrency)
	if _, err := os.Stat(output); err == nil && !c.replace {
		if prices, err = DecodePrices(output, *defaultCurrency); err != nil {
			return failure(err)
		}
	}
	if err := merge(prices, fetched); err != nil {
		return failure(err)
	}
	if err := encodeFile(output, func(w io.Writer) error { return backtest.EncodePrices(w, prices) }); err != nil {
		return failure(err)
	}
	fmt.Fprintf(os.Stderr, "Prices of %s written to %s\n", strings.Join(tickers, ", "), output)
	return subcommands.ExitSuccess
}

// merge appends every price of src into dst. src wins on conflicts.
func merge(dst, src *backtest.PriceTable) error {
	for _, ticker := range src.Tickers() {
		for on, price := range src.Series(ticker).Values() {
			if err := dst.Append(ticker, on, price); err != nil {
				return fmt.Errorf("%s: %w", ticker, err)
			}
		}
	}
	return nil
}
