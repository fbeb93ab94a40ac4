// Package daycount provides the day count conventions used for accrual and
// curve time.
package daycount

import (
	"fmt"
	"strings"
	"time"
)

// DayCounter measures the distance between two dates.
//
// YearFraction receives the reference period for conventions that need it.
// Zero reference dates are allowed and mean "not given".
type DayCounter interface {
	Name() string
	DayCount(start, end time.Time) int
	YearFraction(start, end, refStart, refEnd time.Time) float64
}

// Actual360 is ACT/360.
type Actual360 struct{}

func (Actual360) Name() string { return "Actual/360" }

func (Actual360) DayCount(start, end time.Time) int { return actualDays(start, end) }

func (Actual360) YearFraction(start, end, _, _ time.Time) float64 {
	return float64(actualDays(start, end)) / 360.0
}

// Actual365Fixed is ACT/365F.
type Actual365Fixed struct{}

func (Actual365Fixed) Name() string { return "Actual/365 (Fixed)" }

func (Actual365Fixed) DayCount(start, end time.Time) int { return actualDays(start, end) }

func (Actual365Fixed) YearFraction(start, end, _, _ time.Time) float64 {
	return float64(actualDays(start, end)) / 365.0
}

// Thirty360 is the 30/360 US bond basis.
type Thirty360 struct{}

func (Thirty360) Name() string { return "30/360 (Bond Basis)" }

func (Thirty360) DayCount(start, end time.Time) int {
	y1, m1, d1 := start.Date()
	y2, m2, d2 := end.Date()
	if d1 == 31 {
		d1 = 30
	}
	if d2 == 31 && d1 >= 30 {
		d2 = 30
	}
	return 360*(y2-y1) + 30*(int(m2)-int(m1)) + (d2 - d1)
}

func (dc Thirty360) YearFraction(start, end, _, _ time.Time) float64 {
	return float64(dc.DayCount(start, end)) / 360.0
}

// Thirty360E is the 30E/360 Eurobond basis: both day-of-month values are
// capped at 30.
type Thirty360E struct{}

func (Thirty360E) Name() string { return "30E/360 (Eurobond Basis)" }

func (Thirty360E) DayCount(start, end time.Time) int {
	y1, m1, d1 := start.Date()
	y2, m2, d2 := end.Date()
	if d1 > 30 {
		d1 = 30
	}
	if d2 > 30 {
		d2 = 30
	}
	return 360*(y2-y1) + 30*(int(m2)-int(m1)) + (d2 - d1)
}

func (dc Thirty360E) YearFraction(start, end, _, _ time.Time) float64 {
	return float64(dc.DayCount(start, end)) / 360.0
}

// ActualActualISDA splits the period at year boundaries and divides each
// piece by the length of its year.
type ActualActualISDA struct{}

func (ActualActualISDA) Name() string { return "Actual/Actual (ISDA)" }

func (ActualActualISDA) DayCount(start, end time.Time) int { return actualDays(start, end) }

func (ActualActualISDA) YearFraction(start, end, _, _ time.Time) float64 {
	if start.Equal(end) {
		return 0
	}
	if start.After(end) {
		return -ActualActualISDA{}.YearFraction(end, start, time.Time{}, time.Time{})
	}
	y1, y2 := start.Year(), end.Year()
	if y1 == y2 {
		return float64(actualDays(start, end)) / daysInYear(y1)
	}
	sum := float64(y2 - y1 - 1)
	sum += float64(actualDays(start, time.Date(y1+1, 1, 1, 0, 0, 0, 0, time.UTC))) / daysInYear(y1)
	sum += float64(actualDays(time.Date(y2, 1, 1, 0, 0, 0, 0, time.UTC), end)) / daysInYear(y2)
	return sum
}

func daysInYear(y int) float64 {
	if y%4 == 0 && (y%100 != 0 || y%400 == 0) {
		return 366
	}
	return 365
}

func actualDays(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}

// Parse accepts market shorthands (ACT/360, ACT/365F, 30/360, 30E/360,
// ACT/ACT) as well as the Name of each convention.
func Parse(name string) (DayCounter, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "ACT/360", "ACTUAL/360":
		return Actual360{}, nil
	case "ACT/365F", "ACT/365", "ACTUAL/365 (FIXED)", "ACTUAL/365":
		return Actual365Fixed{}, nil
	case "30/360", "30/360 (BOND BASIS)", "30U/360":
		return Thirty360{}, nil
	case "30E/360", "30E/360 (EUROBOND BASIS)":
		return Thirty360E{}, nil
	case "ACT/ACT", "ACTUAL/ACTUAL (ISDA)", "ACT/ACT ISDA":
		return ActualActualISDA{}, nil
	}
	return nil, fmt.Errorf("daycount.Parse: unsupported convention %q", name)
}
