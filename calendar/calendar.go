package calendar

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	TARGET       CalendarID = "TARGET"
	JPN          CalendarID = "JPN"
	USD          CalendarID = "USD"
	KRW          CalendarID = "KRW"
	WeekendsOnly CalendarID = "WEEKENDS"
	NullCalendar CalendarID = "NULL" // every day is a business day
)

var (
	mu       sync.RWMutex
	holidays = map[CalendarID]map[string]struct{}{
		JPN: {},
		USD: {},
		KRW: {},
	}
	extra = map[CalendarID]map[string]struct{}{}
)

// Parse maps a calendar name to its ID.
func Parse(name string) (CalendarID, error) {
	id := CalendarID(strings.ToUpper(strings.TrimSpace(name)))
	switch id {
	case TARGET, JPN, USD, KRW, WeekendsOnly, NullCalendar:
		return id, nil
	case "":
		return NullCalendar, nil
	}
	return "", fmt.Errorf("calendar.Parse: unknown calendar %q", name)
}

// AddHolidays registers extra holidays for cal.
func AddHolidays(cal CalendarID, dates ...time.Time) {
	mu.Lock()
	defer mu.Unlock()
	set, ok := extra[cal]
	if !ok {
		set = make(map[string]struct{}, len(dates))
		extra[cal] = set
	}
	for _, d := range dates {
		set[d.Format("2006-01-02")] = struct{}{}
	}
}

func isHoliday(cal CalendarID, t time.Time) bool {
	key := t.Format("2006-01-02")
	mu.RLock()
	defer mu.RUnlock()
	if _, ok := extra[cal][key]; ok {
		return true
	}
	if cal == TARGET {
		return isTargetHoliday(t)
	}
	_, ok := holidays[cal][key]
	return ok
}

// isTargetHoliday applies the TARGET2 closing days rule set.
func isTargetHoliday(t time.Time) bool {
	y, m, d := t.Date()
	switch {
	case m == time.January && d == 1:
		return true
	case m == time.May && d == 1 && y >= 2000:
		return true
	case m == time.December && (d == 25 || (d == 26 && y >= 2000)):
		return true
	case m == time.December && d == 31 && (y == 1998 || y == 1999 || y == 2001):
		return true
	}
	if y >= 2000 {
		easter := easterSunday(y)
		if t.Equal(easter.AddDate(0, 0, -2)) || t.Equal(easter.AddDate(0, 0, 1)) {
			return true
		}
	}
	return false
}

// easterSunday uses the anonymous Gregorian algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	mm := (a + 11*h + 22*l) / 451
	month := (h + l - 7*mm + 114) / 31
	day := ((h + l - 7*mm + 114) % 31) + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// IsBusinessDay checks weekends and holiday sets.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if cal == NullCalendar {
		return true
	}
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// IsEndOfMonth checks if t is the last business day of its month.
func IsEndOfMonth(cal CalendarID, t time.Time) bool {
	return t.Equal(LastBusinessDayOfMonth(cal, t))
}

// LastBusinessDayOfMonth returns the last business day of the month containing t.
func LastBusinessDayOfMonth(cal CalendarID, t time.Time) time.Time {
	nextMonth := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return AddBusinessDays(cal, nextMonth, -1)
}

// BusinessDaysBetween counts business days in [from, to) or, when to is
// before from, the negated count in [to, from).
func BusinessDaysBetween(cal CalendarID, from, to time.Time) int {
	sign := 1
	if to.Before(from) {
		from, to = to, from
		sign = -1
	}
	n := 0
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		if IsBusinessDay(cal, d) {
			n++
		}
	}
	return sign * n
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
