package index

import (
	"fmt"
	"time"

	"github.com/meenmo/moquant/calendar"
	"github.com/meenmo/moquant/daycount"
	"github.com/meenmo/moquant/settings"
	"github.com/meenmo/moquant/termstructure"
)

// SwapParams configures a SwapIndex. Settings default to the Ibor index's
// and FixedLegConvention to ModifiedFollowing. A nil Discount curve means
// the Ibor forwarding curve also discounts.
type SwapParams struct {
	Family             string
	Tenor              calendar.Period
	FixingDays         int
	Calendar           calendar.CalendarID
	FixedLegTenor      calendar.Period
	FixedLegConvention calendar.BusinessDayConvention
	FixedLegDayCounter daycount.DayCounter
	Ibor               *IborIndex
	Discount           termstructure.YieldTermStructure
	Settings           *settings.Settings
	History            *FixingHistory
}

// SwapIndex fixes at the par rate of a fixed-vs-Ibor swap.
type SwapIndex struct {
	base

	fixedTenor calendar.Period
	fixedConv  calendar.BusinessDayConvention
	ibor       *IborIndex
	discount   termstructure.YieldTermStructure
}

// NewSwapIndex validates p and subscribes to the Ibor index and the discount curve.
func NewSwapIndex(p SwapParams) (*SwapIndex, error) {
	if p.Ibor == nil {
		return nil, fmt.Errorf("NewSwapIndex: %s: nil ibor index: %w", p.Family, ErrInvalidIndex)
	}
	if _, ok := p.FixedLegTenor.Months(); !ok || p.FixedLegTenor.N <= 0 {
		return nil, fmt.Errorf("NewSwapIndex: %s: fixed leg tenor %s: %w", p.Family, p.FixedLegTenor, ErrInvalidIndex)
	}
	if _, ok := p.Tenor.Months(); !ok {
		return nil, fmt.Errorf("NewSwapIndex: %s: swap tenor %s: %w", p.Family, p.Tenor, ErrInvalidIndex)
	}
	s := p.Settings
	if s == nil {
		s = p.Ibor.Settings()
	}
	conv := p.FixedLegConvention
	if conv == "" {
		conv = calendar.ModifiedFollowing
	}
	idx := &SwapIndex{fixedTenor: p.FixedLegTenor, fixedConv: conv, ibor: p.Ibor, discount: p.Discount}
	if err := idx.init(p.Family, p.Tenor, p.FixingDays, p.Calendar, p.FixedLegDayCounter, s, p.History); err != nil {
		return nil, err
	}
	p.Ibor.RegisterObserver(idx)
	if p.Discount != nil {
		p.Discount.RegisterObserver(idx)
	}
	if s != p.Ibor.Settings() {
		s.RegisterObserver(idx)
	}
	return idx, nil
}

// NewEuriborSwapIsdaFixA returns the annual 30/360 fixed vs Euribor swap
// index of the given tenor.
func NewEuriborSwapIsdaFixA(tenor calendar.Period, ibor *IborIndex, discount termstructure.YieldTermStructure) (*SwapIndex, error) {
	return NewSwapIndex(SwapParams{
		Family:             "EuriborSwapIsdaFixA",
		Tenor:              tenor,
		FixingDays:         2,
		Calendar:           calendar.TARGET,
		FixedLegTenor:      calendar.Period{N: 1, Unit: calendar.Years},
		FixedLegConvention: calendar.ModifiedFollowing,
		FixedLegDayCounter: daycount.Thirty360{},
		Ibor:               ibor,
		Discount:           discount,
	})
}

func (i *SwapIndex) IborIndex() *IborIndex                   { return i.ibor }
func (i *SwapIndex) FixedLegTenor() calendar.Period          { return i.fixedTenor }
func (i *SwapIndex) FixedLegDayCounter() daycount.DayCounter { return i.dc }

// FixedLegFrequency is the number of fixed payments per year.
func (i *SwapIndex) FixedLegFrequency() int {
	m, _ := i.fixedTenor.Months()
	return 12 / m
}

// TermStructure returns the Ibor forwarding curve.
func (i *SwapIndex) TermStructure() termstructure.YieldTermStructure {
	return i.ibor.TermStructure()
}

// DiscountCurve returns the discounting curve, falling back to the forwarding curve.
func (i *SwapIndex) DiscountCurve() termstructure.YieldTermStructure {
	if i.discount != nil {
		return i.discount
	}
	return i.ibor.TermStructure()
}

// MaturityDate is the value date advanced by the swap tenor.
func (i *SwapIndex) MaturityDate(value time.Time) time.Time {
	return i.tenor.AddTo(i.cal, value, i.fixedConv, false)
}

// Fixing returns history or forecast depending on the evaluation date.
func (i *SwapIndex) Fixing(d time.Time) (float64, error) {
	return i.fixing(i.Name(), d, i.ForecastFixing)
}

// ForecastFixing is the par rate of the underlying swap starting at the
// value date of d.
func (i *SwapIndex) ForecastFixing(d time.Time) (float64, error) {
	annuity, err := i.Annuity(d)
	if err != nil {
		return 0, err
	}
	floating, err := i.floatingLegValue(d)
	if err != nil {
		return 0, err
	}
	return floating / annuity, nil
}

// Annuity is the discounted fixed leg value per unit rate of the swap
// fixing on d.
func (i *SwapIndex) Annuity(d time.Time) (float64, error) {
	disc := i.DiscountCurve()
	if disc == nil {
		return 0, fmt.Errorf("Annuity: %s: %w", i.Name(), ErrMissingTermStructure)
	}
	start := i.ValueDate(d)
	end := i.MaturityDate(start)
	annuity := 0.0
	for _, p := range rollPeriods(i.cal, start, end, i.fixedTenor, i.fixedConv) {
		annuity += i.dc.YearFraction(p[0], p[1], time.Time{}, time.Time{}) * disc.Discount(p[1])
	}
	return annuity, nil
}

func (i *SwapIndex) floatingLegValue(d time.Time) (float64, error) {
	fwd := i.ibor.TermStructure()
	if fwd == nil {
		return 0, fmt.Errorf("ForecastFixing: %s: %w", i.ibor.Name(), ErrMissingTermStructure)
	}
	start := i.ValueDate(d)
	end := i.MaturityDate(start)
	if i.discount == nil {
		return fwd.Discount(start) - fwd.Discount(end), nil
	}
	value := 0.0
	for _, p := range rollPeriods(i.cal, start, end, i.ibor.Tenor(), i.ibor.BusinessDayConvention()) {
		tau := i.ibor.DayCounter().YearFraction(p[0], p[1], time.Time{}, time.Time{})
		rate := (fwd.Discount(p[0])/fwd.Discount(p[1]) - 1) / tau
		value += rate * tau * i.discount.Discount(p[1])
	}
	return value, nil
}

// rollPeriods splits [start, end] into adjusted periods of step length
// rolling forward from start. A final stub shorter than a week is merged
// into the last period.
func rollPeriods(cal calendar.CalendarID, start, end time.Time, step calendar.Period, conv calendar.BusinessDayConvention) [][2]time.Time {
	var periods [][2]time.Time
	prev := start
	for k := 1; ; k++ {
		next := calendar.Advance(cal, start, k*step.N, step.Unit, conv, false)
		if next.AddDate(0, 0, 7).After(end) {
			periods = append(periods, [2]time.Time{prev, end})
			return periods
		}
		periods = append(periods, [2]time.Time{prev, next})
		prev = next
	}
}
