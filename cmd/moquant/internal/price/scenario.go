package price

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/meenmo/moquant/config"
	"github.com/meenmo/moquant/daycount"
	"github.com/meenmo/moquant/termstructure"
)

// Scenario is the pricing input. It is read as YAML, so JSON works too.
//
// Conventions:
//   - rates, spreads, caps, floors and volatilities are decimals (0.025 means 2.5%)
//   - dates use config.DateLayout
type Scenario struct {
	// EvaluationDate overrides the configured evaluation date.
	EvaluationDate string `yaml:"evaluation_date"`

	Curve CurveInput `yaml:"curve"`

	// CapletVol and SwaptionVol are flat Black volatilities.
	CapletVol   float64 `yaml:"caplet_vol"`
	SwaptionVol float64 `yaml:"swaption_vol"`

	// Fixings holds past index fixings keyed by index, e.g. "Euribor3M",
	// then by fixing date.
	Fixings map[string]map[string]float64 `yaml:"fixings"`

	Legs []LegInput `yaml:"legs"`

	// Yield adds flat-yield analytics to every leg when set.
	Yield *YieldInput `yaml:"yield"`
}

// YieldInput is a flat yield. Compounding is simple, compounded,
// continuous or simple_then_compounded; Frequency is payments per year and
// only read for the compounded kinds.
type YieldInput struct {
	Rate        float64 `yaml:"rate"`
	DayCounter  string  `yaml:"day_counter"`
	Compounding string  `yaml:"compounding"`
	Frequency   int     `yaml:"frequency"`
}

// CurveInput is a discount curve whose reference date is the evaluation date.
type CurveInput struct {
	DayCounter      string             `yaml:"day_counter"`
	DiscountFactors map[string]float64 `yaml:"discount_factors"`
}

// LegInput describes one leg. Type is fixed, ibor or cms.
type LegInput struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Effective   string `yaml:"effective"`
	Termination string `yaml:"termination"`

	// Tenor is the payment frequency, e.g. "3M".
	Tenor      string `yaml:"tenor"`
	Calendar   string `yaml:"calendar"`
	DayCounter string `yaml:"day_counter"`

	Nominal    float64 `yaml:"nominal"`
	Redemption bool    `yaml:"redemption"`

	// FixedRate applies to fixed legs.
	FixedRate float64 `yaml:"fixed_rate"`

	// IndexTenor is the Euribor tenor, defaulting to Tenor for ibor legs and
	// 6M under a CMS swap index. SwapTenor is the CMS swap length.
	IndexTenor string `yaml:"index_tenor"`
	SwapTenor  string `yaml:"swap_tenor"`

	Gearing   *float64 `yaml:"gearing"`
	Spread    float64  `yaml:"spread"`
	Cap       *float64 `yaml:"cap"`
	Floor     *float64 `yaml:"floor"`
	InArrears bool     `yaml:"in_arrears"`
}

// Decode parses a YAML or JSON scenario.
func Decode(data []byte) (Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("Decode: %w", err)
	}
	if len(s.Legs) == 0 {
		return Scenario{}, fmt.Errorf("Decode: no legs")
	}
	return s, nil
}

func parseDate(field, s string) (time.Time, error) {
	d, err := time.Parse(config.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: %v", field, s, err)
	}
	return d, nil
}

func (y YieldInput) interestRate(defaultDC string) (termstructure.InterestRate, error) {
	name := y.DayCounter
	if name == "" {
		name = defaultDC
	}
	dc, err := daycount.Parse(name)
	if err != nil {
		return termstructure.InterestRate{}, fmt.Errorf("yield: %w", err)
	}
	var comp termstructure.Compounding
	switch strings.ToLower(strings.TrimSpace(y.Compounding)) {
	case "simple":
		comp = termstructure.Simple
	case "", "compounded":
		comp = termstructure.Compounded
	case "continuous":
		comp = termstructure.Continuous
	case "simple_then_compounded":
		comp = termstructure.SimpleThenCompounded
	default:
		return termstructure.InterestRate{}, fmt.Errorf("yield: unknown compounding %q", y.Compounding)
	}
	freq := termstructure.Frequency(y.Frequency)
	if freq == 0 {
		freq = termstructure.Annual
	}
	r, err := termstructure.NewInterestRate(y.Rate, dc, comp, freq)
	if err != nil {
		return termstructure.InterestRate{}, fmt.Errorf("yield: %w", err)
	}
	return r, nil
}
