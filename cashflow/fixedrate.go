package cashflow

import (
	"time"

	"github.com/meenmo/moquant/observer"
)

// FixedRateCoupon pays a known simple rate.
type FixedRateCoupon struct {
	observer.Subject
	couponTerms

	rate float64
}

// NewFixedRateCoupon returns a coupon paying rate over the accrual period of p.
func NewFixedRateCoupon(p CouponParams, rate float64) (*FixedRateCoupon, error) {
	c := &FixedRateCoupon{rate: rate}
	if err := c.init(p); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *FixedRateCoupon) Rate() (float64, error) { return c.rate, nil }

// Amount is nominal * rate * accrual period.
func (c *FixedRateCoupon) Amount() (float64, error) {
	return c.nominal * c.rate * c.AccrualPeriod(), nil
}

// AccruedAmount is the amount accrued by d, zero outside the accrual window.
func (c *FixedRateCoupon) AccruedAmount(d time.Time) (float64, error) {
	yf, ok := c.accruedFraction(d)
	if !ok {
		return 0, nil
	}
	return c.nominal * c.rate * yf, nil
}
