// Package cashflow models dated cash flows and coupons, the pricers that
// value floating coupons, and leg-level analytics.
package cashflow

import (
	"time"

	"github.com/meenmo/moquant/settings"
)

// HasOccurred reports whether an event on date has happened as of ref. With
// includeRefDate an event on ref itself still counts as pending.
func HasOccurred(date, ref time.Time, includeRefDate bool) bool {
	if includeRefDate {
		return date.Before(ref)
	}
	return !date.After(ref)
}

// event is a dated occurrence read against live settings.
type event struct {
	date     time.Time
	settings *settings.Settings
}

func (e *event) Date() time.Time { return e.date }

// HasOccurred uses the evaluation date when ref is zero and honours
// IncludeTodaysPayments.
func (e *event) HasOccurred(ref time.Time) bool {
	include := false
	if e.settings != nil {
		include = e.settings.IncludeTodaysPayments()
		if ref.IsZero() {
			ref = e.settings.EvaluationDate()
		}
	}
	if ref.IsZero() {
		ref = settings.Truncate(time.Now())
	}
	return HasOccurred(e.date, ref, include)
}

// Settings returns the pricing context, possibly nil for bare cash flows.
func (e *event) Settings() *settings.Settings { return e.settings }
