package termstructure

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/meenmo/moquant/daycount"
)

var (
	ErrInvalidFrequency   = errors.New("termstructure: frequency not allowed for this interest rate")
	ErrNegativeTime       = errors.New("termstructure: negative time not allowed")
	ErrUnknownCompounding = errors.New("termstructure: unknown compounding convention")
	ErrInvalidCompound    = errors.New("termstructure: positive compound factor and time required")
)

// Compounding turns a rate and a time into a growth factor.
type Compounding int

const (
	Simple               Compounding = iota // 1 + r t
	Compounded                              // (1 + r/f)^(f t)
	Continuous                              // exp(r t)
	SimpleThenCompounded                    // simple up to 1/f, compounded after
)

func (c Compounding) String() string {
	switch c {
	case Simple:
		return "simple"
	case Compounded:
		return "compounded"
	case Continuous:
		return "continuous"
	case SimpleThenCompounded:
		return "simple then compounded"
	}
	return fmt.Sprintf("Compounding(%d)", int(c))
}

// Frequency is the number of compounding periods per year.
type Frequency int

const (
	NoFrequency Frequency = -1
	Once        Frequency = 0
	Annual      Frequency = 1
	Semiannual  Frequency = 2
	Quarterly   Frequency = 4
	Monthly     Frequency = 12
)

// InterestRate is a rate together with the conventions needed to turn it
// into discount factors. Build one with NewInterestRate.
type InterestRate struct {
	rate        float64
	dc          daycount.DayCounter
	compounding Compounding
	frequency   Frequency
}

// NewInterestRate validates the conventions. Compounded and
// SimpleThenCompounded need a frequency of at least Annual; the other
// conventions ignore freq. A nil day counter means Actual/365 (Fixed).
func NewInterestRate(rate float64, dc daycount.DayCounter, comp Compounding, freq Frequency) (InterestRate, error) {
	if dc == nil {
		dc = daycount.Actual365Fixed{}
	}
	switch comp {
	case Simple, Continuous:
		freq = NoFrequency
	case Compounded, SimpleThenCompounded:
		if freq < Annual {
			return InterestRate{}, fmt.Errorf("NewInterestRate: %s with frequency %d: %w", comp, freq, ErrInvalidFrequency)
		}
	default:
		return InterestRate{}, fmt.Errorf("NewInterestRate: %w", ErrUnknownCompounding)
	}
	return InterestRate{rate: rate, dc: dc, compounding: comp, frequency: freq}, nil
}

func (r InterestRate) Rate() float64                   { return r.rate }
func (r InterestRate) DayCounter() daycount.DayCounter { return r.dc }
func (r InterestRate) Compounding() Compounding        { return r.compounding }

// Frequency is NoFrequency for simple and continuous rates.
func (r InterestRate) Frequency() Frequency { return r.frequency }

// CompoundFactor is the growth of one unit over t years.
func (r InterestRate) CompoundFactor(t float64) (float64, error) {
	if t < 0 {
		return 0, fmt.Errorf("CompoundFactor: t=%g: %w", t, ErrNegativeTime)
	}
	f := float64(r.frequency)
	switch r.compounding {
	case Simple:
		return 1 + r.rate*t, nil
	case Compounded:
		return math.Pow(1+r.rate/f, f*t), nil
	case Continuous:
		return math.Exp(r.rate * t), nil
	case SimpleThenCompounded:
		if t <= 1/f {
			return 1 + r.rate*t, nil
		}
		return math.Pow(1+r.rate/f, f*t), nil
	}
	return 0, ErrUnknownCompounding
}

// DiscountFactor is 1 / CompoundFactor(t).
func (r InterestRate) DiscountFactor(t float64) (float64, error) {
	c, err := r.CompoundFactor(t)
	if err != nil {
		return 0, err
	}
	return 1 / c, nil
}

// Discount is the discount factor between d1 and d2 on the rate's day counter.
func (r InterestRate) Discount(d1, d2 time.Time) (float64, error) {
	return r.DiscountFactor(r.dc.YearFraction(d1, d2, time.Time{}, time.Time{}))
}

// EquivalentRate is the rate under comp and freq that grows one unit by the
// same amount over t years.
func (r InterestRate) EquivalentRate(t float64, comp Compounding, freq Frequency) (InterestRate, error) {
	c, err := r.CompoundFactor(t)
	if err != nil {
		return InterestRate{}, err
	}
	return ImpliedRate(c, t, r.dc, comp, freq)
}

// ImpliedRate is the rate under the given conventions whose compound factor
// over t years is compound.
func ImpliedRate(compound, t float64, dc daycount.DayCounter, comp Compounding, freq Frequency) (InterestRate, error) {
	if !(compound > 0) || !(t > 0) {
		return InterestRate{}, fmt.Errorf("ImpliedRate: compound %g over %g years: %w", compound, t, ErrInvalidCompound)
	}
	ir, err := NewInterestRate(0, dc, comp, freq)
	if err != nil {
		return InterestRate{}, err
	}
	f := float64(ir.frequency)
	switch comp {
	case Simple:
		ir.rate = (compound - 1) / t
	case Compounded:
		ir.rate = (math.Pow(compound, 1/(f*t)) - 1) * f
	case Continuous:
		ir.rate = math.Log(compound) / t
	case SimpleThenCompounded:
		if t <= 1/f {
			ir.rate = (compound - 1) / t
		} else {
			ir.rate = (math.Pow(compound, 1/(f*t)) - 1) * f
		}
	}
	return ir, nil
}

func (r InterestRate) String() string {
	switch r.compounding {
	case Compounded:
		return fmt.Sprintf("%.6f %s %d-per-year compounding", r.rate, r.dc.Name(), int(r.frequency))
	case SimpleThenCompounded:
		return fmt.Sprintf("%.6f %s simple up to %d months, then %d-per-year compounding", r.rate, r.dc.Name(), 12/int(r.frequency), int(r.frequency))
	}
	return fmt.Sprintf("%.6f %s %s compounding", r.rate, r.dc.Name(), r.compounding)
}
