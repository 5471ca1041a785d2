package backtest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
)

const attrOn = "on"

// This file contains code to persist prices in a human-readable and
// git-friendly way: a JSONL file, one line per trading day.
//
//	{"on":"2024-01-02","AAPL":185.64,"MSFT":370.87}
//	{"on":"2024-01-03","AAPL":184.25,"MSFT":370.6}
//
// A ticker absent from a line has no price on that day.

// fileLine structures a line from a file as the persistence layer represent them.
type fileLine struct {
	filename string
	i        int
	txt      string
}

// DecodePrices reads a price table from r. filename is for error messages only.
func DecodePrices(r io.Reader, filename, currency string) (*PriceTable, error) {
	table := NewPriceTable(currency)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024) // wide tables make long lines.
	i := 0
	for scanner.Scan() {
		i++
		if err := decodeDailyPrices(table, fileLine{filename, i, scanner.Text()}); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read %q: %w", filename, err)
	}
	return table, nil
}

// decodeDailyPrices decodes a single line from the persisted files.
func decodeDailyPrices(p *PriceTable, l fileLine) error {
	// Start simply ignoring empty lines.
	if strings.TrimSpace(l.txt) == "" {
		return nil
	}

	jobj := make(map[string]any)
	if err := json.Unmarshal([]byte(l.txt), &jobj); err != nil {
		return fmt.Errorf("parse error %s:%v: not a correct json: %w", l.filename, l.i, err)
	}

	// Read the timestamp
	jvalue, ok := jobj[attrOn]
	if !ok {
		return fmt.Errorf("parse error %s:%v: missing the property %q with a date", l.filename, l.i, attrOn)
	}
	jstring, ok := jvalue.(string)
	if !ok {
		return fmt.Errorf("parse error %s:%v: property %q must be of type 'string'", l.filename, l.i, attrOn)
	}
	on, err := ParseDate(jstring)
	if err != nil {
		return fmt.Errorf("parse error %s:%v: property %q must be a valid date: %w", l.filename, l.i, attrOn, err)
	}

	// Read all other attributes as (ticker, price) pairs, in a stable order.
	for _, ticker := range slices.Sorted(maps.Keys(jobj)) {
		price := jobj[ticker]
		if ticker == attrOn { // reserved word for timestamp
			continue
		}
		if price == nil { // explicit null means no price that day.
			continue
		}
		v, ok := price.(float64)
		if !ok {
			return fmt.Errorf("parse error %s:%v: property %q must be of type 'number'", l.filename, l.i, ticker)
		}
		if err := p.Append(ticker, on, v); err != nil {
			return fmt.Errorf("parse error %s:%v: %w", l.filename, l.i, err)
		}
	}
	return nil
}

// EncodePrices writes the price table to w, one line per trading day with
// tickers in alphabetical order.
func EncodePrices(w io.Writer, p *PriceTable) error {
	tickers := p.Tickers()
	for _, on := range p.Days() {
		var jw jsonObjectWriter
		jw.Append(attrOn, on)
		for _, ticker := range tickers {
			if v, ok := p.read(ticker, on); ok {
				jw.Append(ticker, v)
			}
		}
		line, err := jw.MarshalJSON()
		if err != nil {
			return fmt.Errorf("cannot encode prices on %s: %w", on, err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", line); err != nil {
			return err
		}
	}
	return nil
}
