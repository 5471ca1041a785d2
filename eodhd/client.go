// Package eodhd fetches daily prices from the EOD Historical Data API
// (https://eodhd.com) into a backtest price table.
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/date"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBaseURL is the root of the EODHD API.
	DefaultBaseURL = "https://eodhd.com/api"
	// DefaultField selects the close price adjusted for splits and dividends.
	DefaultField = "$.adjusted_close"
)

// Client is an EODHD API client.
type Client struct {
	APIKey  string
	BaseURL string
	// Field is the JSON path of the price in an end of day record, see DefaultField.
	Field string
	// Limit is the maximum number of concurrent requests, no limit if <= 0.
	Limit  int
	HTTP   *http.Client
	Logger *zap.Logger

	cacheDir string
	noCache  bool
}

// Option configures a Client.
type Option func(*Client)

// WithLogger logs requests at debug level.
func WithLogger(logger *zap.Logger) Option { return func(c *Client) { c.Logger = logger } }

// WithField selects the price field with a JSON path, like "$.close".
func WithField(path string) Option { return func(c *Client) { c.Field = path } }

// WithBaseURL changes the API root.
func WithBaseURL(u string) Option { return func(c *Client) { c.BaseURL = u } }

// WithCacheDir caches responses in dir for the day. An empty dir disables
// the cache.
func WithCacheDir(dir string) Option {
	return func(c *Client) { c.cacheDir, c.noCache = dir, dir == "" }
}

// WithHTTPClient replaces the caching client.
func WithHTTPClient(client *http.Client) Option { return func(c *Client) { c.HTTP = client } }

// NewClient returns a client caching responses daily in the temp dir.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{APIKey: apiKey, BaseURL: DefaultBaseURL, Field: DefaultField, Limit: 4, Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	switch {
	case c.HTTP != nil:
	case c.noCache:
		c.HTTP = new(http.Client)
	default:
		c.HTTP = newCachingClient(c.cacheDir, date.Daily, c.logger())
	}
	return c
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// newCachingClient returns an http.Client that uses a disk cache where entries expire every period.
func newCachingClient(dir string, period date.Period, logger *zap.Logger) *http.Client {
	return &http.Client{Transport: &diskCache{base: http.DefaultTransport, dir: dir, period: period, logger: logger, today: date.Today}}
}

// endpoint builds the address of an API call.
func (c *Client) endpoint(path string, query url.Values) string {
	query.Set("fmt", "json")
	query.Set("api_token", c.APIKey)
	return fmt.Sprintf("%s/%s?%s", c.BaseURL, path, query.Encode())
}

// FetchPrices fetches the daily prices of every ticker between from and to,
// bounds included, and returns them as a table in currency. Tickers use the
// EODHD format "SYMBOL.EXCHANGE", they are the keys of the table.
func (c *Client) FetchPrices(ctx context.Context, tickers []string, from, to date.Date, currency string) (*backtest.PriceTable, error) {
	series := make([][]record, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	if c.Limit > 0 {
		g.SetLimit(c.Limit)
	}
	for i, ticker := range tickers {
		g.Go(func() error {
			records, err := c.fetchEOD(gctx, ticker, from, to)
			if err != nil {
				return fmt.Errorf("cannot fetch prices of %s: %w", ticker, err)
			}
			series[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	prices := backtest.NewPriceTable(currency)
	for i, records := range series {
		for _, r := range records {
			if err := prices.Append(tickers[i], r.on, r.price); err != nil {
				return nil, fmt.Errorf("%s: %w", tickers[i], err)
			}
		}
		c.logger().Info("fetched prices", zap.String("ticker", tickers[i]), zap.Int("days", len(records)))
	}
	return prices, nil
}

// jwget performs an HTTP GET request to the given address and unmarshals the
// JSON response body into the provided data structure.
func jwget(ctx context.Context, client *http.Client, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(content, data)
}
