package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period is a length of time such as 6M or 10Y.
type Period struct {
	N    int
	Unit TimeUnit
}

// Months returns the period length in months, and false for day or week periods.
func (p Period) Months() (int, bool) {
	switch p.Unit {
	case Months:
		return p.N, true
	case Years:
		return 12 * p.N, true
	}
	return 0, false
}

// Years returns the approximate period length in years.
func (p Period) Years() float64 {
	switch p.Unit {
	case Days:
		return float64(p.N) / 365.0
	case Weeks:
		return float64(p.N) * 7 / 365.0
	case Months:
		return float64(p.N) / 12.0
	default:
		return float64(p.N)
	}
}

// String formats the period in market shorthand, e.g. "6M".
func (p Period) String() string {
	suffix := map[TimeUnit]string{Days: "D", Weeks: "W", Months: "M", Years: "Y"}[p.Unit]
	return strconv.Itoa(p.N) + suffix
}

// AddTo advances t by the period on cal.
func (p Period) AddTo(cal CalendarID, t time.Time, conv BusinessDayConvention, endOfMonth bool) time.Time {
	return Advance(cal, t, p.N, p.Unit, conv, endOfMonth)
}

// ParsePeriod reads market tenor strings like "3M", "1Y", "2W" or "1D".
func ParsePeriod(s string) (Period, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return Period{}, fmt.Errorf("calendar.ParsePeriod: invalid tenor %q", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return Period{}, fmt.Errorf("calendar.ParsePeriod: invalid tenor %q: %w", s, err)
	}
	var unit TimeUnit
	switch s[len(s)-1] {
	case 'D':
		unit = Days
	case 'W':
		unit = Weeks
	case 'M':
		unit = Months
	case 'Y':
		unit = Years
	default:
		return Period{}, fmt.Errorf("calendar.ParsePeriod: invalid tenor unit in %q", s)
	}
	return Period{N: n, Unit: unit}, nil
}
