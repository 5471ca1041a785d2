package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/config"
	"github.com/google/subcommands"
	"go.uber.org/zap/zapcore"
)

const testPrices = `{"on":"2024-01-02","AAPL":100,"MSFT":200}
{"on":"2024-01-03","AAPL":90,"MSFT":210}
{"on":"2024-01-04","AAPL":80,"MSFT":205}
{"on":"2024-01-05","AAPL":95,"MSFT":190}
{"on":"2024-01-08","AAPL":110,"MSFT":195}
{"on":"2024-01-09","AAPL":105,"MSFT":200}
`

const testOrders = `{"date":"2024-01-02","ticker":"AAPL","type":"BUY","quantity":0.5}
{"date":"2024-01-08","ticker":"AAPL","type":"SELL","quantity":1}
`

// setGlobal changes a global flag for the duration of the test.
func setGlobal[T any](t *testing.T, p *T, v T) {
	t.Helper()
	old := *p
	*p = v
	t.Cleanup(func() { *p = old })
}

// workspace writes files in a temporary directory, and points the global
// flags to it.
func workspace(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	setGlobal(t, pricesFile, filepath.Join(dir, "prices.jsonl"))
	setGlobal(t, defaultCurrency, "USD")
	setGlobal(t, logLevel, "error")
	setGlobal(t, rawOutput, true)
	return dir
}

// execute runs a command with args and returns its status and output.
func execute(t *testing.T, c subcommands.Command, args ...string) (subcommands.ExitStatus, string) {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	defer func() { stdout = old }()

	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("%s %v: %v", c.Name(), args, err)
	}
	status := c.Execute(context.Background(), fs)
	return status, buf.String()
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"error", false, false},
		{"unknown", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			core := NewLogger(tt.level).Core()
			if got := core.Enabled(zapcore.DebugLevel); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := core.Enabled(zapcore.InfoLevel); got != tt.wantInfo {
				t.Errorf("info enabled = %v, want %v", got, tt.wantInfo)
			}
		})
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv(EnvCurrency, "")
	if got := envOr(EnvCurrency, "USD"); got != "USD" {
		t.Errorf("envOr() with empty variable = %q, want %q", got, "USD")
	}
	t.Setenv(EnvCurrency, "EUR")
	if got := envOr(EnvCurrency, "USD"); got != "EUR" {
		t.Errorf("envOr() = %q, want %q", got, "EUR")
	}
}

func TestRunCmd(t *testing.T) {
	dir := workspace(t, map[string]string{"prices.jsonl": testPrices, "orders.jsonl": testOrders})
	trailFile := filepath.Join(dir, "trail.jsonl")

	status, out := execute(t, &runCmd{}, "-orders", filepath.Join(dir, "orders.jsonl"), "-cash", "10000", "-holdings", "-o", trailFile)
	if status != subcommands.ExitSuccess {
		t.Fatalf("run status = %v, want success", status)
	}
	for _, want := range []string{"Backtest: orders.jsonl", "Backtest Metrics", "AAPL", "$10,500.00", "+5.00%"} {
		if !strings.Contains(out, want) {
			t.Errorf("run output does not contain %q:\n%s", want, out)
		}
	}

	f, err := os.Open(trailFile)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	trail, err := backtest.DecodeTrail(f, trailFile, "USD")
	if err != nil {
		t.Fatalf("DecodeTrail() error = %v", err)
	}
	if trail.Len() != 6 {
		t.Errorf("trail has %d snapshots, want 6", trail.Len())
	}

	// the stored trail gives the same metrics.
	status, out = execute(t, &metricsCmd{}, "-benchmark", "MSFT", trailFile)
	if status != subcommands.ExitSuccess {
		t.Fatalf("metrics status = %v, want success", status)
	}
	for _, want := range []string{"Cumulative Return", "+5.00%", "Benchmark Return"} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output does not contain %q:\n%s", want, out)
		}
	}
}

func TestRunCmd_Errors(t *testing.T) {
	dir := workspace(t, map[string]string{"prices.jsonl": testPrices})

	tests := []struct {
		name string
		args []string
	}{
		{"unknown strategy", []string{"-strategy", "nope"}},
		{"unknown parameter", []string{"-strategy", "momentum", "-param", "nope=1"}},
		{"missing orders", []string{"-orders", filepath.Join(dir, "missing.jsonl")}},
		{"unknown ticker", []string{"-tickers", "GOOG"}},
		{"empty range", []string{"-from", "2025-01-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, _ := execute(t, &runCmd{}, tt.args...); status != subcommands.ExitFailure {
				t.Errorf("run %v status = %v, want failure", tt.args, status)
			}
		})
	}
}

func TestRunCmd_Config(t *testing.T) {
	dir := workspace(t, map[string]string{
		"prices.jsonl": testPrices,
		"backtest.yaml": `currency: USD
initial_cash: 10000
prices: prices.jsonl
tickers: [AAPL]
strategy:
  name: momentum
  params:
    window: 2
benchmark:
  ticker: MSFT
report:
  period: weekly
`,
	})
	// prices are resolved relative to the configuration.
	setGlobal(t, pricesFile, "elsewhere.jsonl")

	status, out := execute(t, &runCmd{}, "-config", filepath.Join(dir, "backtest.yaml"))
	if status != subcommands.ExitSuccess {
		t.Fatalf("run status = %v, want success", status)
	}
	for _, want := range []string{"Backtest: momentum", "Benchmark Return", "2024-W02"} {
		if !strings.Contains(out, want) {
			t.Errorf("run output does not contain %q:\n%s", want, out)
		}
	}
}

func TestPrepare_Benchmark(t *testing.T) {
	dir := workspace(t, map[string]string{"prices.jsonl": testPrices})

	cfg := config.Default()
	cfg.Prices = filepath.Join(dir, "prices.jsonl")
	cfg.Benchmark = &config.Benchmark{Ticker: "MSFT"}
	in, err := prepare(cfg)
	if err != nil {
		t.Fatalf("prepare() error = %v", err)
	}
	if in.prices.Has("MSFT") {
		t.Error("the benchmark is in the traded prices")
	}
	if !in.prices.Has("AAPL") {
		t.Error("AAPL is missing from the traded prices")
	}
	if in.benchmark.Len() != 6 {
		t.Errorf("benchmark has %d days, want 6", in.benchmark.Len())
	}

	// explicit tickers are kept as is.
	cfg.Tickers = []string{"AAPL", "MSFT"}
	if in, err = prepare(cfg); err != nil {
		t.Fatalf("prepare() error = %v", err)
	}
	if !in.prices.Has("MSFT") {
		t.Error("MSFT is missing from the explicit tickers")
	}

	// nothing left to trade.
	only := workspace(t, map[string]string{"prices.jsonl": `{"on":"2024-01-02","MSFT":200}` + "\n"})
	cfg.Tickers = nil
	cfg.Prices = filepath.Join(only, "prices.jsonl")
	if _, err := prepare(cfg); err == nil {
		t.Error("prepare() expected an error without tradable tickers")
	}
}

func TestGenerateCmd(t *testing.T) {
	workspace(t, map[string]string{"prices.jsonl": testPrices})

	status, out := execute(t, &generateCmd{}, "-strategy", "momentum", "-param", "window=2")
	if status != subcommands.ExitSuccess {
		t.Fatalf("generate status = %v, want success", status)
	}
	orders, err := backtest.DecodeOrders(strings.NewReader(out), "stdout")
	if err != nil {
		t.Fatalf("generated orders cannot be decoded: %v\n%s", err, out)
	}
	if err := backtest.ValidateOrders(orders); err != nil {
		t.Errorf("generated orders are invalid: %v", err)
	}
}

func TestStrategiesCmd(t *testing.T) {
	workspace(t, nil)
	status, out := execute(t, &strategiesCmd{})
	if status != subcommands.ExitSuccess {
		t.Fatalf("strategies status = %v, want success", status)
	}
	for _, want := range []string{"mean-reversion", "momentum", "window"} {
		if !strings.Contains(out, want) {
			t.Errorf("strategies output does not contain %q:\n%s", want, out)
		}
	}
	if status, _ := execute(t, &strategiesCmd{}, "nope"); status != subcommands.ExitFailure {
		t.Errorf("strategies nope status = %v, want failure", status)
	}
}

func TestSweepCmd(t *testing.T) {
	workspace(t, map[string]string{"prices.jsonl": testPrices})

	status, out := execute(t, &sweepCmd{}, "-strategy", "momentum", "-vary", "window=0,2,3", "-concurrency", "2")
	if status != subcommands.ExitSuccess {
		t.Fatalf("sweep status = %v, want success", status)
	}
	for _, want := range []string{"Sweep", "window=0", "window=2", "window=3", "window must be positive"} {
		if !strings.Contains(out, want) {
			t.Errorf("sweep output does not contain %q:\n%s", want, out)
		}
	}

	if status, _ := execute(t, &sweepCmd{}, "-strategy", "momentum"); status != subcommands.ExitFailure {
		t.Errorf("sweep without runs status = %v, want failure", status)
	}
}

func TestGrid(t *testing.T) {
	base := config.Strategy{Name: "momentum", Params: map[string]float64{"threshold": 0.05}}
	runs, err := grid(base, []string{"window=10,20", "buy=0.5,1"})
	if err != nil {
		t.Fatalf("grid() error = %v", err)
	}
	want := []string{"window=10 buy=0.5", "window=10 buy=1", "window=20 buy=0.5", "window=20 buy=1"}
	if len(runs) != len(want) {
		t.Fatalf("grid() returned %d runs, want %d", len(runs), len(want))
	}
	for i, run := range runs {
		if run.Name != want[i] {
			t.Errorf("run #%d name = %q, want %q", i, run.Name, want[i])
		}
		if run.Strategy.Name != "momentum" || run.Strategy.Params["threshold"] != 0.05 {
			t.Errorf("run #%d strategy = %+v, want momentum with threshold 0.05", i, run.Strategy)
		}
	}
	if base.Params["window"] != 0 {
		t.Errorf("grid() modified the base parameters: %v", base.Params)
	}

	for _, vary := range []string{"window", "window=", "=1,2", "window=a,b"} {
		if _, err := grid(base, []string{vary}); err == nil {
			t.Errorf("grid(%q) succeeded, want an error", vary)
		}
	}
}

func TestFetchCmd(t *testing.T) {
	dir := workspace(t, map[string]string{"prices.jsonl": `{"on":"2023-12-29","AAPL.US":190}` + "\n"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_token") != "secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/eod/AAPL.US":
			fmt.Fprint(w, `[{"date":"2024-01-02","adjusted_close":184.29},{"date":"2024-01-03","adjusted_close":182.91}]`)
		case "/search/apple":
			fmt.Fprint(w, `[{"Code":"AAPL","Exchange":"US","Name":"Apple Inc","Type":"Common Stock","Country":"USA","Currency":"USD","previousClose":185.64,"previousCloseDate":"2024-01-02"}]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	t.Setenv(EnvAPIKey, "secret")

	status, _ := execute(t, &fetchCmd{}, "-eodhd-url", srv.URL, "-no-cache", "-from", "2024-01-01", "-to", "2024-01-31", "aapl.us")
	if status != subcommands.ExitSuccess {
		t.Fatalf("fetch status = %v, want success", status)
	}
	prices, err := DecodePrices(filepath.Join(dir, "prices.jsonl"), "USD")
	if err != nil {
		t.Fatal(err)
	}
	if got := len(prices.Days()); got != 3 {
		t.Errorf("merged prices have %d days, want 3", got)
	}
	if p, ok := prices.Price(backtest.NewDate(2024, 1, 3), "AAPL.US"); !ok || p.AsFloat() != 182.91 {
		t.Errorf("price on 2024-01-03 = %v, %v, want 182.91", p, ok)
	}

	status, out := execute(t, &searchCmd{}, "-eodhd-url", srv.URL, "-no-cache", "apple")
	if status != subcommands.ExitSuccess {
		t.Fatalf("search status = %v, want success", status)
	}
	if !strings.Contains(out, "bt -currency USD fetch AAPL.US") {
		t.Errorf("search output does not suggest a fetch command:\n%s", out)
	}

	t.Setenv(EnvAPIKey, "")
	if status, _ := execute(t, &fetchCmd{}, "-eodhd-url", srv.URL, "AAPL.US"); status != subcommands.ExitFailure {
		t.Errorf("fetch without key status = %v, want failure", status)
	}
}

func TestTopicCmd(t *testing.T) {
	workspace(t, nil)
	status, out := execute(t, &topicCmd{}, "sizing")
	if status != subcommands.ExitSuccess {
		t.Fatalf("topic status = %v, want success", status)
	}
	if !strings.Contains(out, "fraction") {
		t.Errorf("topic sizing does not mention fractions:\n%s", out)
	}
	if status, _ := execute(t, &topicCmd{}, "nope"); status != subcommands.ExitFailure {
		t.Errorf("topic nope status = %v, want failure", status)
	}
}

func TestCompletion(t *testing.T) {
	c := Completion()
	for _, name := range []string{"run", "sweep", "metrics", "generate", "strategies", "fetch", "search", "topic"} {
		if _, ok := c.Sub[name]; !ok {
			t.Errorf("completion has no %q command", name)
		}
	}
	if _, ok := c.Sub["run"].Flags["strategy"]; !ok {
		t.Errorf("completion of run has no -strategy flag")
	}
	if _, ok := c.Flags["prices-file"]; !ok {
		t.Errorf("completion has no global -prices-file flag")
	}
	if got := c.Sub["strategies"].Args.Predict(""); !strings.Contains(strings.Join(got, " "), "momentum") {
		t.Errorf("strategies arguments = %v, want momentum among them", got)
	}
}
