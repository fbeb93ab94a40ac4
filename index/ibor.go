package index

import (
	"fmt"
	"sync"
	"time"

	"github.com/meenmo/moquant/calendar"
	"github.com/meenmo/moquant/daycount"
	"github.com/meenmo/moquant/settings"
	"github.com/meenmo/moquant/termstructure"
)

// IborParams configures an IborIndex. Convention defaults to
// ModifiedFollowing.
type IborParams struct {
	Family     string
	Tenor      calendar.Period
	FixingDays int
	Calendar   calendar.CalendarID
	Convention calendar.BusinessDayConvention
	EndOfMonth bool
	DayCounter daycount.DayCounter
	Curve      termstructure.YieldTermStructure
	Settings   *settings.Settings
	History    *FixingHistory
}

// IborIndex is a term deposit rate index forecast from a single curve.
type IborIndex struct {
	base

	convention calendar.BusinessDayConvention
	endOfMonth bool

	mu    sync.RWMutex
	curve termstructure.YieldTermStructure
}

// NewIborIndex validates p and subscribes the index to its curve and settings.
func NewIborIndex(p IborParams) (*IborIndex, error) {
	conv := p.Convention
	if conv == "" {
		conv = calendar.ModifiedFollowing
	}
	idx := &IborIndex{convention: conv, endOfMonth: p.EndOfMonth, curve: p.Curve}
	if err := idx.init(p.Family, p.Tenor, p.FixingDays, p.Calendar, p.DayCounter, p.Settings, p.History); err != nil {
		return nil, err
	}
	p.Settings.RegisterObserver(idx)
	if p.Curve != nil {
		p.Curve.RegisterObserver(idx)
	}
	return idx, nil
}

// NewEuribor returns the TARGET Euribor index: two fixing days, Actual/360,
// ModifiedFollowing with the end-of-month rule.
func NewEuribor(tenor calendar.Period, curve termstructure.YieldTermStructure, s *settings.Settings) (*IborIndex, error) {
	return NewIborIndex(IborParams{
		Family:     "Euribor",
		Tenor:      tenor,
		FixingDays: 2,
		Calendar:   calendar.TARGET,
		Convention: calendar.ModifiedFollowing,
		EndOfMonth: true,
		DayCounter: daycount.Actual360{},
		Curve:      curve,
		Settings:   s,
	})
}

// NewEuribor365 is Euribor accrued on Actual/365 (Fixed).
func NewEuribor365(tenor calendar.Period, curve termstructure.YieldTermStructure, s *settings.Settings) (*IborIndex, error) {
	return NewIborIndex(IborParams{
		Family:     "Euribor365_",
		Tenor:      tenor,
		FixingDays: 2,
		Calendar:   calendar.TARGET,
		Convention: calendar.ModifiedFollowing,
		EndOfMonth: true,
		DayCounter: daycount.Actual365Fixed{},
		Curve:      curve,
		Settings:   s,
	})
}

func (i *IborIndex) BusinessDayConvention() calendar.BusinessDayConvention { return i.convention }
func (i *IborIndex) EndOfMonth() bool                                      { return i.endOfMonth }

// TermStructure returns the forwarding curve, nil if unset.
func (i *IborIndex) TermStructure() termstructure.YieldTermStructure {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.curve
}

// SetTermStructure relinks the forwarding curve and notifies observers.
func (i *IborIndex) SetTermStructure(curve termstructure.YieldTermStructure) {
	i.mu.Lock()
	old := i.curve
	i.curve = curve
	i.mu.Unlock()
	if old != nil {
		old.UnregisterObserver(i)
	}
	if curve != nil {
		curve.RegisterObserver(i)
	}
	i.NotifyObservers()
}

// MaturityDate is the value date advanced by the tenor.
func (i *IborIndex) MaturityDate(value time.Time) time.Time {
	return i.tenor.AddTo(i.cal, value, i.convention, i.endOfMonth)
}

// Fixing returns history or forecast depending on the evaluation date.
func (i *IborIndex) Fixing(d time.Time) (float64, error) {
	return i.fixing(i.Name(), d, i.ForecastFixing)
}

// ForecastFixing is the simply compounded forward over the deposit period
// starting at the value date of d.
func (i *IborIndex) ForecastFixing(d time.Time) (float64, error) {
	curve := i.TermStructure()
	if curve == nil {
		return 0, fmt.Errorf("ForecastFixing: %s: %w", i.Name(), ErrMissingTermStructure)
	}
	start := i.ValueDate(d)
	end := i.MaturityDate(start)
	tau := i.dc.YearFraction(start, end, time.Time{}, time.Time{})
	return (curve.Discount(start)/curve.Discount(end) - 1) / tau, nil
}
