package strategy

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/etnz/backtest"
)

// Params are the numerical parameters of a strategy, by name.
type Params map[string]float64

// Parameter describes a strategy parameter.
type Parameter struct {
	Name        string
	Default     float64
	Description string
}

// Info describes a registered strategy.
type Info struct {
	Name        string
	Description string
	Parameters  []Parameter
}

// Creator builds a strategy from its parameters. Missing parameters take
// their default value.
type Creator func(Params) (OrderGenerator, error)

type entry struct {
	create Creator
	info   Info
}

var registry = map[string]entry{}

// Register makes a strategy available to New. It panics if the name is
// already taken.
func Register(info Info, create Creator) {
	if _, exists := registry[info.Name]; exists {
		panic(fmt.Sprintf("strategy %q registered twice", info.Name))
	}
	registry[info.Name] = entry{create: create, info: info}
}

// New creates the strategy registered as name.
func New(name string, params Params) (OrderGenerator, error) {
	e, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q, available: %s", name, strings.Join(Names(), ", "))
	}
	for key := range params {
		if !slices.ContainsFunc(e.info.Parameters, func(p Parameter) bool { return p.Name == key }) {
			return nil, fmt.Errorf("strategy %q has no parameter %q", name, key)
		}
	}
	return e.create(params)
}

// Names returns the registered strategy names in alphabetical order.
func Names() []string {
	names := slices.Collect(maps.Keys(registry))
	sort.Strings(names)
	return names
}

// Describe returns the description of a registered strategy.
func Describe(name string) (Info, bool) {
	e, ok := registry[name]
	return e.info, ok
}

// ParseParams parses "key=value" pairs.
func ParseParams(pairs []string) (Params, error) {
	params := make(Params, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid parameter %q, want key=value", pair)
		}
		var v float64
		if _, err := fmt.Sscan(value, &v); err != nil {
			return nil, fmt.Errorf("invalid parameter %q: %w", pair, err)
		}
		params[strings.TrimSpace(key)] = v
	}
	return params, nil
}

// intParam reads an integer parameter.
func (p Params) intParam(name string, dst *int) error {
	v, ok := p[name]
	if !ok {
		return nil
	}
	if v != math.Trunc(v) {
		return fmt.Errorf("parameter %q must be an integer, got %v", name, v)
	}
	*dst = int(v)
	return nil
}

func (p Params) floatParam(name string, dst *float64) {
	if v, ok := p[name]; ok {
		*dst = v
	}
}

func (p Params) quantityParam(name string, dst *backtest.Quantity) {
	if v, ok := p[name]; ok {
		*dst = backtest.Q(v)
	}
}

func init() {
	Register(Info{
		Name:        "mean-reversion",
		Description: "Buys when the price is far below its rolling mean, sells otherwise.",
		Parameters: []Parameter{
			{"window", 100, "rolling window in trading days, today included"},
			{"entry", 2, "buy when the z-score is below -entry"},
			{"exit", -2, "sell when the z-score is above exit"},
			{"quantity", 100, "order quantity, shares or a fraction in ]0, 1]"},
		},
	}, func(p Params) (OrderGenerator, error) {
		m := NewMeanReversion()
		if err := p.intParam("window", &m.Window); err != nil {
			return nil, err
		}
		p.floatParam("entry", &m.Entry)
		p.floatParam("exit", &m.Exit)
		p.quantityParam("quantity", &m.Quantity)
		if err := m.Validate(); err != nil {
			return nil, err
		}
		return m, nil
	})

	Register(Info{
		Name:        "momentum",
		Description: "Enters near the high of the lookback window, exits near its low.",
		Parameters: []Parameter{
			{"window", 125, "lookback window in trading days, today excluded"},
			{"threshold", 0.02, "distance to the high or low, as a ratio"},
			{"buy", 0.3, "fraction of the portfolio value to buy"},
			{"sell", 1, "fraction of the holding to sell"},
		},
	}, func(p Params) (OrderGenerator, error) {
		m := NewMomentum()
		if err := p.intParam("window", &m.Window); err != nil {
			return nil, err
		}
		p.floatParam("threshold", &m.Threshold)
		p.quantityParam("buy", &m.BuyFraction)
		p.quantityParam("sell", &m.SellFraction)
		if err := m.Validate(); err != nil {
			return nil, err
		}
		return m, nil
	})
}
