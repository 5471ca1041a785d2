package eodhd

import (
	"context"
	"fmt"
	"net/url"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/backtest/date"
)

// record is a day of a price series.
type record struct {
	on    date.Date
	price float64
}

// fetchEOD fetches the end of day series of a ticker.
func (c *Client) fetchEOD(ctx context.Context, ticker string, from, to date.Date) ([]record, error) {
	// https://eodhd.com/api/eod/MCD.US?api_token=demo&fmt=json&from=2024-01-01&to=2024-02-01
	// [
	//   {
	//     "date": "2024-02-13",
	//     "open": 675.066,
	//     "high": 684.219,
	//     "low": 648.659,
	//     "close": 668.445,
	//     "adjusted_close": 67.705,
	//     "volume": 0
	//   },
	// bounds are included in the response.
	query := url.Values{}
	query.Set("from", from.String())
	query.Set("to", to.String())
	addr := c.endpoint("eod/"+url.PathEscape(ticker), query)

	var content []any
	if err := jwget(ctx, c.HTTP, addr, &content); err != nil {
		return nil, err
	}
	records := make([]record, 0, len(content))
	for i, item := range content {
		r, ok, err := c.parse(item)
		if err != nil {
			return nil, fmt.Errorf("record #%d: %w", i, err)
		}
		if ok {
			records = append(records, r)
		}
	}
	return records, nil
}

// parse reads a record from an end of day item. A null price is not an
// error, ok is false.
func (c *Client) parse(item any) (r record, ok bool, err error) {
	jdate, err := jsonpath.Get("$.date", item)
	if err != nil {
		return r, false, fmt.Errorf("missing date: %w", err)
	}
	s, isString := jdate.(string)
	if !isString {
		return r, false, fmt.Errorf("date must be a string, got %v", jdate)
	}
	if r.on, err = date.Parse(s); err != nil {
		return r, false, err
	}

	jval, err := jsonpath.Get(c.Field, item)
	if err != nil {
		return r, false, fmt.Errorf("on %s: cannot select %q: %w", r.on, c.Field, err)
	}
	// jsonpath may return a list of 1 answer, keep the first one if any.
	if jlist, isList := jval.([]any); isList && len(jlist) > 0 {
		jval = jlist[0]
	}
	switch v := jval.(type) {
	case nil:
		return r, false, nil
	case float64:
		r.price = v
		return r, true, nil
	default:
		return r, false, fmt.Errorf("on %s: %q is not a number: %v", r.on, c.Field, jval)
	}
}
