package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
)

// searchCmd implements the "search" command.
type searchCmd struct {
	eodhdFlags
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "searches for tickers on EODHD" }
func (*searchCmd) Usage() string {
	return `bt search <search term>

  Searches for securities via EOD Historical Data API and prints
  ready-to-use 'bt fetch' commands for the results.

  Requires the EODHD_API_KEY environment variable to be set or passed as a flag.
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) { c.eodhdFlags.SetFlags(f) }

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a search term is required.")
		return subcommands.ExitUsageError
	}
	searchTerm := strings.Join(f.Args(), " ")

	logger := NewLogger(*logLevel)
	defer logger.Sync()
	client, err := c.client(logger)
	if err != nil {
		return failure(err)
	}
	results, err := client.Search(ctx, searchTerm)
	if err != nil {
		return failure(fmt.Errorf("cannot search %q: %w", searchTerm, err))
	}

	if len(results) == 0 {
		fmt.Fprintf(stdout, "No results found for '%s'.\n", searchTerm)
		return subcommands.ExitSuccess
	}

	fmt.Fprintf(stdout, "Found %d results for '%s':\n\n", len(results), searchTerm)
	for _, item := range results {
		fmt.Fprintf(stdout, "➡️   Name       : %s (%s)\n", item.Name, item.Code)
		fmt.Fprintf(stdout, "    Type        : %s, Country: %s, Currency: %s\n", item.Type, item.Country, item.Currency)
		if item.ISIN != "" {
			fmt.Fprintf(stdout, "    ISIN        : %s\n", item.ISIN)
		}
		fmt.Fprintf(stdout, "    Prev. Close : %.2f on %s\n", item.PreviousClose, item.PreviousCloseDate)
		fmt.Fprintf(stdout, "    $ bt -currency %s fetch %s\n\n", item.Currency, item.Ticker())
	}
	return subcommands.ExitSuccess
}
