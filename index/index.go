// Package index models interest-rate indexes: their fixing calendar, value
// and maturity dates, published history and forecasting off a curve.
package index

import (
	"fmt"
	"time"

	"github.com/meenmo/moquant/calendar"
	"github.com/meenmo/moquant/daycount"
	"github.com/meenmo/moquant/observer"
	"github.com/meenmo/moquant/settings"
	"github.com/meenmo/moquant/termstructure"
)

// InterestRateIndex is the contract coupons rely on.
type InterestRateIndex interface {
	observer.Observable
	Name() string
	Tenor() calendar.Period
	FixingDays() int
	FixingCalendar() calendar.CalendarID
	DayCounter() daycount.DayCounter
	Settings() *settings.Settings
	TermStructure() termstructure.YieldTermStructure

	IsValidFixingDate(d time.Time) bool
	ValueDate(fixing time.Time) time.Time
	MaturityDate(value time.Time) time.Time

	// Fixing returns the published fixing when history is required or
	// available, the forecast otherwise.
	Fixing(d time.Time) (float64, error)
	ForecastFixing(d time.Time) (float64, error)
	PastFixing(d time.Time) (float64, bool)
	AddFixing(d time.Time, rate float64, overwrite bool) error
}

// base carries what every rate index shares. The concrete index supplies
// the forecast and the maturity rule.
type base struct {
	observer.Subject

	family     string
	tenor      calendar.Period
	fixingDays int
	cal        calendar.CalendarID
	dc         daycount.DayCounter
	settings   *settings.Settings
	history    *FixingHistory
}

func (b *base) init(family string, tenor calendar.Period, fixingDays int, cal calendar.CalendarID, dc daycount.DayCounter, s *settings.Settings, h *FixingHistory) error {
	switch {
	case family == "":
		return fmt.Errorf("index: empty family name: %w", ErrInvalidIndex)
	case tenor.N <= 0:
		return fmt.Errorf("index %s: tenor %s: %w", family, tenor, ErrInvalidIndex)
	case fixingDays < 0:
		return fmt.Errorf("index %s: negative fixing days: %w", family, ErrInvalidIndex)
	case dc == nil:
		return fmt.Errorf("index %s: nil day counter: %w", family, ErrInvalidIndex)
	case s == nil:
		return fmt.Errorf("index %s: nil settings: %w", family, ErrInvalidIndex)
	}
	if h == nil {
		h = NewFixingHistory(nil)
	}
	b.family = family
	b.tenor = tenor
	b.fixingDays = fixingDays
	b.cal = cal
	b.dc = dc
	b.settings = s
	b.history = h
	return nil
}

// Name is family, tenor and day counter, e.g. "Euribor6M Actual/360".
func (b *base) Name() string {
	tenor := b.tenor.String()
	if b.tenor.Unit == calendar.Days && b.tenor.N == 1 {
		switch b.fixingDays {
		case 0:
			tenor = "ON"
		case 1:
			tenor = "TN"
		case 2:
			tenor = "SN"
		}
	}
	return b.family + tenor + " " + b.dc.Name()
}

func (b *base) FamilyName() string                  { return b.family }
func (b *base) Tenor() calendar.Period              { return b.tenor }
func (b *base) FixingDays() int                     { return b.fixingDays }
func (b *base) FixingCalendar() calendar.CalendarID { return b.cal }
func (b *base) DayCounter() daycount.DayCounter     { return b.dc }
func (b *base) Settings() *settings.Settings        { return b.settings }
func (b *base) History() *FixingHistory             { return b.history }

func (b *base) IsValidFixingDate(d time.Time) bool {
	return calendar.IsBusinessDay(b.cal, d)
}

// ValueDate is the fixing date advanced by the fixing days.
func (b *base) ValueDate(fixing time.Time) time.Time {
	return calendar.Advance(b.cal, fixing, b.fixingDays, calendar.Days, calendar.Following, false)
}

// FixingDate is the value date moved back by the fixing days.
func (b *base) FixingDate(value time.Time) time.Time {
	return calendar.Advance(b.cal, value, -b.fixingDays, calendar.Days, calendar.Preceding, false)
}

func (b *base) PastFixing(d time.Time) (float64, bool) {
	return b.history.FixingOn(d)
}

// AddFixing stores a published fixing and notifies observers.
func (b *base) AddFixing(d time.Time, rate float64, overwrite bool) error {
	if !b.IsValidFixingDate(d) {
		return fmt.Errorf("AddFixing: %s on %s: %w", b.family, d.Format("2006-01-02"), ErrInvalidFixingDate)
	}
	if err := b.history.Add(d, rate, overwrite); err != nil {
		return fmt.Errorf("AddFixing: %s on %s: %w", b.family, d.Format("2006-01-02"), err)
	}
	b.NotifyObservers()
	return nil
}

// ClearFixings drops the stored history and notifies observers.
func (b *base) ClearFixings() {
	b.history.Clear()
	b.NotifyObservers()
}

// Update relays changes from the settings and the curve.
func (b *base) Update() { b.NotifyObservers() }

// fixing resolves history against the evaluation date and falls back to
// forecast. Past dates need history; today uses history when present unless
// EnforceTodaysHistoricFixings makes it mandatory.
func (b *base) fixing(name string, d time.Time, forecast func(time.Time) (float64, error)) (float64, error) {
	if !b.IsValidFixingDate(d) {
		return 0, fmt.Errorf("Fixing: %s on %s: %w", name, d.Format("2006-01-02"), ErrInvalidFixingDate)
	}
	today := b.settings.EvaluationDate()
	if d.Before(today) || (d.Equal(today) && b.settings.EnforceTodaysHistoricFixings()) {
		v, ok := b.history.FixingOn(d)
		if !ok {
			return 0, fmt.Errorf("Fixing: %s on %s: %w", name, d.Format("2006-01-02"), ErrMissingFixing)
		}
		return v, nil
	}
	if d.Equal(today) {
		if v, ok := b.history.FixingOn(d); ok {
			return v, nil
		}
	}
	return forecast(d)
}
