package date

import (
	"slices"
	"testing"
)

func TestHistory_Append(t *testing.T) {
	h := new(History[float64])
	d1, d2, d3 := New(2024, 7, 1), New(2024, 7, 2), New(2024, 7, 3)

	// out of order appends must keep the series sorted.
	h.Append(d3, 3).Append(d1, 1).Append(d2, 2)
	if h.Len() != 3 {
		t.Fatalf("History.Len() = %v want 3", h.Len())
	}
	if want := []Date{d1, d2, d3}; !slices.Equal(h.Days(), want) {
		t.Errorf("History.Days() = %v want %v", h.Days(), want)
	}

	// same date overwrites.
	h.Append(d2, 20)
	if v, ok := h.Get(d2); !ok || v != 20 {
		t.Errorf("Get(%v) = %v, %v want 20, true", d2, v, ok)
	}
	if h.Len() != 3 {
		t.Errorf("History.Len() after overwrite = %v want 3", h.Len())
	}
	if day, v := h.Latest(); day != d3 || v != 3 {
		t.Errorf("Latest() = %v, %v want %v, 3", day, v, d3)
	}
}

func TestHistory_ValueAsOf(t *testing.T) {
	h := new(History[string])
	h.Append(New(2024, 1, 10), "a").Append(New(2024, 1, 20), "b")

	testCases := []struct {
		on     Date
		want   string
		wantOk bool
	}{
		{New(2024, 1, 9), "", false},
		{New(2024, 1, 10), "a", true},
		{New(2024, 1, 15), "a", true},
		{New(2024, 1, 20), "b", true},
		{New(2024, 2, 1), "b", true},
	}
	for _, tc := range testCases {
		got, ok := h.ValueAsOf(tc.on)
		if got != tc.want || ok != tc.wantOk {
			t.Errorf("ValueAsOf(%v) = %q, %v want %q, %v", tc.on, got, ok, tc.want, tc.wantOk)
		}
	}
	if _, ok := h.Get(New(2024, 1, 15)); ok {
		t.Error("Get() on a missing day must not find a value")
	}
}

func TestHistory_Between(t *testing.T) {
	h := new(History[int])
	for i := 1; i <= 10; i++ {
		h.Append(New(2024, 3, i), i)
	}
	sub := h.Between(Range{From: New(2024, 3, 3), To: New(2024, 3, 5)})
	if sub.Len() != 3 {
		t.Fatalf("Between().Len() = %d want 3", sub.Len())
	}
	if on, v := sub.At(0); on != New(2024, 3, 3) || v != 3 {
		t.Errorf("Between().At(0) = %v, %v want 2024-03-03, 3", on, v)
	}
}

func TestIterate(t *testing.T) {
	a, b := new(History[float64]), new(History[float64])
	a.Append(New(2024, 1, 1), 1).Append(New(2024, 1, 3), 1)
	b.Append(New(2024, 1, 2), 1).Append(New(2024, 1, 3), 1).Append(New(2024, 1, 4), 1)

	got := slices.Collect(Iterate(a, b))
	want := []Date{New(2024, 1, 1), New(2024, 1, 2), New(2024, 1, 3), New(2024, 1, 4)}
	if !slices.Equal(got, want) {
		t.Errorf("Iterate() = %v want %v", got, want)
	}
}
