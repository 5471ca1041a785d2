package backtest

import (
	"testing"
)

func TestJsonObjectWriter(t *testing.T) {
	var w jsonObjectWriter
	w.Append("on", mustDate("2024-01-02")).
		Append(`we"ird`, 1.5).
		Append("kept", Q(2))
	got, err := w.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	want := `{"on":"2024-01-02","we\"ird":1.5,"kept":2}`
	if string(got) != want {
		t.Errorf("MarshalJSON() = %s want %s", got, want)
	}

	var empty jsonObjectWriter
	if got, _ := empty.MarshalJSON(); string(got) != "{}" {
		t.Errorf("empty MarshalJSON() = %s want {}", got)
	}

	var bad jsonObjectWriter
	if _, err := bad.Append("f", func() {}).MarshalJSON(); err == nil {
		t.Error("MarshalJSON() expected an error for a func value")
	}
}
