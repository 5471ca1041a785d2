package backtest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Orders are persisted as JSONL, one order per line, in stream order:
//
//	{"date":"2024-01-02","ticker":"AAPL","type":"BUY","quantity":0.5}
//	{"date":"2024-01-02","ticker":"MSFT","type":"SELL","quantity":10}

// jorder is the object read from the file using json parser.
type jorder struct {
	Date     Date     `json:"date"`
	Ticker   string   `json:"ticker"`
	Type     string   `json:"type"`
	Quantity Quantity `json:"quantity"`
}

// DecodeOrders reads an order stream from r. filename is for error messages only.
func DecodeOrders(r io.Reader, filename string) ([]Order, error) {
	orders := make([]Order, 0, 1024)
	scanner := bufio.NewScanner(r)
	i := 0
	for scanner.Scan() {
		i++
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var jo jorder
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&jo); err != nil {
			return nil, fmt.Errorf("parse error %s:%v: %w", filename, i, err)
		}
		side, err := ParseSide(jo.Type)
		if err != nil {
			return nil, fmt.Errorf("parse error %s:%v: %w", filename, i, err)
		}
		orders = append(orders, Order{Date: jo.Date, Ticker: strings.TrimSpace(jo.Ticker), Side: side, Quantity: jo.Quantity})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read %q: %w", filename, err)
	}
	return orders, nil
}

// EncodeOrders writes the orders to w, in slice order.
func EncodeOrders(w io.Writer, orders []Order) error {
	for _, o := range orders {
		var jw jsonObjectWriter
		jw.Append("date", o.Date).
			Append("ticker", o.Ticker).
			Append("type", o.Side).
			Append("quantity", o.Quantity)
		line, err := jw.MarshalJSON()
		if err != nil {
			return fmt.Errorf("cannot encode order %v: %w", o, err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", line); err != nil {
			return err
		}
	}
	return nil
}
