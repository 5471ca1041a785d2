package backtest

import (
	"context"
	"errors"
	"testing"
)

func TestRunBatch(t *testing.T) {
	prices := mustPrices(t,
		day{"2024-01-02", map[string]float64{"X": 10}},
		day{"2024-01-03", map[string]float64{"X": 20}},
	)
	d1 := mustDate("2024-01-02")
	jobs := []Job{
		{Name: "hold", InitialCash: USD(100)},
		{Name: "all in", InitialCash: USD(100), Orders: []Order{NewBuy(d1, "X", Q(1))}},
		{Name: "broken", InitialCash: USD(100), Orders: []Order{NewBuy(d1, "X", Q(0))}},
		{Name: "half", InitialCash: USD(100), Orders: []Order{NewBuy(d1, "X", Q(0.5))}},
	}
	results, err := RunBatch(context.Background(), NewEquityEngine(), prices, jobs, 2)
	if err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}
	want := []Money{USD(100), USD(200), {}, USD(150)}
	for i, r := range results {
		if r.Job.Name != jobs[i].Name {
			t.Errorf("results[%d] is %q want %q", i, r.Job.Name, jobs[i].Name)
		}
		if i == 2 {
			if !errors.Is(r.Err, ErrInvalidOrder) {
				t.Errorf("results[2].Err = %v want ErrInvalidOrder", r.Err)
			}
			continue
		}
		if r.Err != nil {
			t.Errorf("results[%d].Err = %v", i, r.Err)
			continue
		}
		if last, _ := r.Trail.Last(); !last.TotalValue.Equal(want[i]) {
			t.Errorf("results[%d] final value = %v want %v", i, last.TotalValue, want[i])
		}
	}
}

func TestRunBatch_Cancelled(t *testing.T) {
	prices := mustPrices(t, day{"2024-01-02", map[string]float64{"X": 10}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := RunBatch(ctx, NewEquityEngine(), prices, []Job{{Name: "a"}, {Name: "b"}}, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RunBatch() error = %v want context.Canceled", err)
	}
	for i, r := range results {
		if r.Trail != nil || !errors.Is(r.Err, context.Canceled) {
			t.Errorf("results[%d] = %v, %v want a cancelled job", i, r.Trail, r.Err)
		}
	}
}
