package cashflow

import (
	"time"

	"github.com/meenmo/moquant/observer"
	"github.com/meenmo/moquant/settings"
)

// CashFlow is a dated amount.
type CashFlow interface {
	observer.Observable
	Date() time.Time
	Amount() (float64, error)
	HasOccurred(ref time.Time) bool
}

// SimpleCashFlow is a fixed amount on a date, such as a redemption.
type SimpleCashFlow struct {
	observer.Subject
	event

	amount float64
}

// NewSimpleCashFlow returns amount paid on date. s may be nil.
func NewSimpleCashFlow(amount float64, date time.Time, s *settings.Settings) *SimpleCashFlow {
	return &SimpleCashFlow{event: event{date: date, settings: s}, amount: amount}
}

func (c *SimpleCashFlow) Amount() (float64, error) { return c.amount, nil }
