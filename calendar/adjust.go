package calendar

import (
	"fmt"
	"strings"
	"time"
)

// BusinessDayConvention decides how a non-business day is rolled.
type BusinessDayConvention string

const (
	Following         BusinessDayConvention = "FOLLOWING"
	ModifiedFollowing BusinessDayConvention = "MODIFIED_FOLLOWING"
	Preceding         BusinessDayConvention = "PRECEDING"
	ModifiedPreceding BusinessDayConvention = "MODIFIED_PRECEDING"
	Unadjusted        BusinessDayConvention = "UNADJUSTED"
)

// ParseConvention maps a convention name to its value. Empty means Following.
func ParseConvention(name string) (BusinessDayConvention, error) {
	c := BusinessDayConvention(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), " ", "_")))
	switch c {
	case Following, ModifiedFollowing, Preceding, ModifiedPreceding, Unadjusted:
		return c, nil
	case "":
		return Following, nil
	}
	return "", fmt.Errorf("calendar.ParseConvention: unknown convention %q", name)
}

// TimeUnit is the unit for Advance.
type TimeUnit int

const (
	Days TimeUnit = iota
	Weeks
	Months
	Years
)

// Adjust rolls t to a business day according to conv.
func Adjust(cal CalendarID, t time.Time, conv BusinessDayConvention) time.Time {
	switch conv {
	case Unadjusted:
		return t
	case Following:
		return rollForward(cal, t)
	case Preceding:
		return rollBackward(cal, t)
	case ModifiedPreceding:
		adj := rollBackward(cal, t)
		if adj.Month() != t.Month() {
			return rollForward(cal, t)
		}
		return adj
	default:
		adj := rollForward(cal, t)
		if adj.Month() != t.Month() {
			return rollBackward(cal, t)
		}
		return adj
	}
}

func rollForward(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func rollBackward(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative). A zero n
// leaves t unchanged even if t is a holiday.
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}

// Advance moves t by n units. Day steps count business days, and a zero-day
// advance rolls t with conv. Calendar steps add to the date, keep month ends
// when endOfMonth is set, then roll with conv.
func Advance(cal CalendarID, t time.Time, n int, unit TimeUnit, conv BusinessDayConvention, endOfMonth bool) time.Time {
	switch unit {
	case Days:
		if n == 0 {
			return Adjust(cal, t, conv)
		}
		return AddBusinessDays(cal, t, n)
	case Weeks:
		return Adjust(cal, t.AddDate(0, 0, 7*n), conv)
	case Years:
		n *= 12
	}
	target := AddMonths(t, n)
	if endOfMonth && IsEndOfMonth(cal, t) {
		return LastBusinessDayOfMonth(cal, target)
	}
	return Adjust(cal, target, conv)
}

// AddMonths behaves like Excel's EDATE: the day is clipped to the target
// month's length instead of overflowing.
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	if last := daysInMonth(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}
