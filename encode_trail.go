package backtest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// A trail is persisted as JSONL, one snapshot per line:
//
//	{"date":"2024-01-02","cash":5000,"value":10000,"holdings":{"AAPL":100}}

// EncodeTrail writes the trail to w.
func EncodeTrail(w io.Writer, t *Trail) error {
	for _, s := range t.snapshots {
		var holdings jsonObjectWriter
		for ticker, q := range s.Holdings.All() {
			holdings.Append(ticker, q)
		}
		var jw jsonObjectWriter
		jw.Append("date", s.Date).
			Append("cash", s.Cash).
			Append("value", s.TotalValue).
			Append("holdings", &holdings)
		line, err := jw.MarshalJSON()
		if err != nil {
			return fmt.Errorf("cannot encode snapshot on %s: %w", s.Date, err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

// DecodeTrail reads a trail written by EncodeTrail.
func DecodeTrail(r io.Reader, filename, currency string) (*Trail, error) {
	type jsnapshot struct {
		Date     Date                `json:"date"`
		Cash     Money               `json:"cash"`
		Value    Money               `json:"value"`
		Holdings map[string]Quantity `json:"holdings"`
	}
	t := NewTrail(currency)
	scanner := bufio.NewScanner(r)
	i := 0
	for scanner.Scan() {
		i++
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var js jsnapshot
		if err := json.Unmarshal(line, &js); err != nil {
			return nil, fmt.Errorf("parse error %s:%v: %w", filename, i, err)
		}
		s := Snapshot{Date: js.Date, Cash: M(js.Cash.value, currency), TotalValue: M(js.Value.value, currency)}
		for ticker, q := range js.Holdings {
			if q.IsNegative() {
				return nil, fmt.Errorf("parse error %s:%v: negative holding for %q", filename, i, ticker)
			}
			s.Holdings.set(ticker, q)
		}
		if err := t.Append(s); err != nil {
			return nil, fmt.Errorf("parse error %s:%v: %w", filename, i, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read %q: %w", filename, err)
	}
	return t, nil
}
