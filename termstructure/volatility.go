package termstructure

import (
	"time"

	"github.com/meenmo/moquant/daycount"
	"github.com/meenmo/moquant/observer"
	"github.com/meenmo/moquant/quote"
)

// CapletVolatilityStructure gives Black variances for optionlets on a rate
// fixing at a date.
type CapletVolatilityStructure interface {
	observer.Observable
	ReferenceDate() time.Time
	Volatility(fixing time.Time, strike float64) float64
	BlackVariance(fixing time.Time, strike float64) float64
}

// SwaptionVolatilityStructure gives Black variances for options on swap rates
// of a given tenor in years.
type SwaptionVolatilityStructure interface {
	observer.Observable
	ReferenceDate() time.Time
	Volatility(expiry time.Time, tenorYears, strike float64) float64
	BlackVariance(expiry time.Time, tenorYears, strike float64) float64
}

// ConstantOptionletVolatility is a flat caplet volatility read from a quote.
type ConstantOptionletVolatility struct {
	observer.Subject

	reference time.Time
	vol       quote.Quote
	dc        daycount.DayCounter
}

// NewConstantOptionletVolatility registers with vol and relays its changes.
func NewConstantOptionletVolatility(reference time.Time, vol quote.Quote, dc daycount.DayCounter) *ConstantOptionletVolatility {
	if dc == nil {
		dc = daycount.Actual365Fixed{}
	}
	v := &ConstantOptionletVolatility{reference: reference, vol: vol, dc: dc}
	vol.RegisterObserver(v)
	return v
}

func (v *ConstantOptionletVolatility) ReferenceDate() time.Time { return v.reference }

func (v *ConstantOptionletVolatility) Volatility(time.Time, float64) float64 {
	return v.vol.Value()
}

// BlackVariance is sigma^2 times the time to the fixing, zero for past dates.
func (v *ConstantOptionletVolatility) BlackVariance(fixing time.Time, strike float64) float64 {
	s := v.Volatility(fixing, strike)
	return s * s * optionTime(v.dc, v.reference, fixing)
}

func (v *ConstantOptionletVolatility) Update() { v.NotifyObservers() }

// ConstantSwaptionVolatility is a flat swaption volatility read from a quote.
type ConstantSwaptionVolatility struct {
	observer.Subject

	reference time.Time
	vol       quote.Quote
	dc        daycount.DayCounter
}

// NewConstantSwaptionVolatility registers with vol and relays its changes.
func NewConstantSwaptionVolatility(reference time.Time, vol quote.Quote, dc daycount.DayCounter) *ConstantSwaptionVolatility {
	if dc == nil {
		dc = daycount.Actual365Fixed{}
	}
	v := &ConstantSwaptionVolatility{reference: reference, vol: vol, dc: dc}
	vol.RegisterObserver(v)
	return v
}

func (v *ConstantSwaptionVolatility) ReferenceDate() time.Time { return v.reference }

func (v *ConstantSwaptionVolatility) Volatility(time.Time, float64, float64) float64 {
	return v.vol.Value()
}

func (v *ConstantSwaptionVolatility) BlackVariance(expiry time.Time, tenorYears, strike float64) float64 {
	s := v.Volatility(expiry, tenorYears, strike)
	return s * s * optionTime(v.dc, v.reference, expiry)
}

func (v *ConstantSwaptionVolatility) Update() { v.NotifyObservers() }

func optionTime(dc daycount.DayCounter, reference, d time.Time) float64 {
	t := dc.YearFraction(reference, d, time.Time{}, time.Time{})
	if t < 0 {
		return 0
	}
	return t
}
