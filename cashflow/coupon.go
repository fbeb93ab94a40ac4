package cashflow

import (
	"fmt"
	"time"

	"github.com/meenmo/moquant/daycount"
	"github.com/meenmo/moquant/settings"
)

// Coupon is a cash flow accruing a rate over a period.
type Coupon interface {
	CashFlow
	Nominal() float64
	AccrualStartDate() time.Time
	AccrualEndDate() time.Time
	ReferencePeriodStart() time.Time
	ReferencePeriodEnd() time.Time
	DayCounter() daycount.DayCounter
	AccrualPeriod() float64
	AccrualDays() int
	Rate() (float64, error)
	AccruedAmount(d time.Time) (float64, error)
}

// CouponParams holds the dates and notional shared by every coupon. Zero
// reference dates default to the accrual dates.
type CouponParams struct {
	PaymentDate    time.Time
	AccrualStart   time.Time
	AccrualEnd     time.Time
	RefPeriodStart time.Time
	RefPeriodEnd   time.Time
	Nominal        float64
	DayCounter     daycount.DayCounter
	Settings       *settings.Settings
}

// couponTerms implements the accrual part of Coupon.
type couponTerms struct {
	event

	nominal      float64
	accrualStart time.Time
	accrualEnd   time.Time
	refStart     time.Time
	refEnd       time.Time
	dc           daycount.DayCounter
}

func (t *couponTerms) init(p CouponParams) error {
	if p.AccrualEnd.Before(p.AccrualStart) {
		return fmt.Errorf("coupon: accrual end %s before start %s: %w",
			p.AccrualEnd.Format("2006-01-02"), p.AccrualStart.Format("2006-01-02"), ErrInvalidCoupon)
	}
	if p.DayCounter == nil {
		return fmt.Errorf("coupon: nil day counter: %w", ErrInvalidCoupon)
	}
	if p.Settings == nil {
		return fmt.Errorf("coupon: nil settings: %w", ErrInvalidCoupon)
	}
	t.date = p.PaymentDate
	t.settings = p.Settings
	t.nominal = p.Nominal
	t.accrualStart = p.AccrualStart
	t.accrualEnd = p.AccrualEnd
	t.refStart = p.RefPeriodStart
	if t.refStart.IsZero() {
		t.refStart = p.AccrualStart
	}
	t.refEnd = p.RefPeriodEnd
	if t.refEnd.IsZero() {
		t.refEnd = p.AccrualEnd
	}
	t.dc = p.DayCounter
	return nil
}

func (t *couponTerms) Nominal() float64                { return t.nominal }
func (t *couponTerms) AccrualStartDate() time.Time     { return t.accrualStart }
func (t *couponTerms) AccrualEndDate() time.Time       { return t.accrualEnd }
func (t *couponTerms) ReferencePeriodStart() time.Time { return t.refStart }
func (t *couponTerms) ReferencePeriodEnd() time.Time   { return t.refEnd }
func (t *couponTerms) DayCounter() daycount.DayCounter { return t.dc }

// AccrualPeriod is the year fraction of the accrual period.
func (t *couponTerms) AccrualPeriod() float64 {
	return t.dc.YearFraction(t.accrualStart, t.accrualEnd, t.refStart, t.refEnd)
}

// AccrualDays is the day count of the accrual period.
func (t *couponTerms) AccrualDays() int {
	return t.dc.DayCount(t.accrualStart, t.accrualEnd)
}

// accruedFraction is the year fraction accrued by d, and false when d is
// outside (accrual start, payment date].
func (t *couponTerms) accruedFraction(d time.Time) (float64, bool) {
	if !d.After(t.accrualStart) || d.After(t.date) {
		return 0, false
	}
	end := d
	if t.accrualEnd.Before(end) {
		end = t.accrualEnd
	}
	return t.dc.YearFraction(t.accrualStart, end, t.refStart, t.refEnd), true
}
