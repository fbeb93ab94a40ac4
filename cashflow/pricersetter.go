package cashflow

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/meenmo/moquant/logging"
)

// SetCouponPricer attaches p to every floating coupon of leg. Fixed coupons
// and plain cash flows are skipped.
func SetCouponPricer(leg Leg, p FloatingRateCouponPricer) error {
	for i, cf := range leg {
		if err := setPricer(cf, p); err != nil {
			return fmt.Errorf("SetCouponPricer: cash flow %d: %w", i, err)
		}
	}
	return nil
}

// SetCouponPricers attaches pricers[i] to the i-th cash flow, reusing the
// last pricer for the remaining ones. Failure stops at the first
// incompatible coupon; earlier coupons keep their new pricer.
func SetCouponPricers(leg Leg, pricers []FloatingRateCouponPricer) error {
	switch {
	case len(leg) == 0:
		return ErrNoCashFlows
	case len(pricers) == 0:
		return ErrNoPricers
	case len(pricers) > len(leg):
		return fmt.Errorf("SetCouponPricers: %d pricers for %d cash flows: %w", len(pricers), len(leg), ErrPricerMismatch)
	}
	for i, cf := range leg {
		p := pricers[min(i, len(pricers)-1)]
		if err := setPricer(cf, p); err != nil {
			return fmt.Errorf("SetCouponPricers: cash flow %d: %w", i, err)
		}
	}
	return nil
}

func setPricer(cf CashFlow, p FloatingRateCouponPricer) error {
	var target FloatingCoupon
	switch c := cf.(type) {
	case *CappedFlooredCoupon:
		if err := checkPricer(c.Underlying(), p); err != nil {
			return err
		}
		target = c
	case FloatingCoupon:
		if err := checkPricer(c, p); err != nil {
			return err
		}
		target = c
	default:
		return nil
	}
	if err := target.SetPricer(p); err != nil {
		return err
	}
	logging.L().Debug("pricer attached",
		zap.String("coupon", fmt.Sprintf("%T", target)),
		zap.String("pricer", fmt.Sprintf("%T", p)),
		zap.Time("payment_date", target.Date()))
	return nil
}

// checkPricer enforces the coupon kind and pricer kind pairing: Ibor
// coupons need an IborCouponPricer and CMS coupons a CmsCouponPricer.
func checkPricer(c FloatingCoupon, p FloatingRateCouponPricer) error {
	if p == nil {
		return ErrNoAdequatePricer
	}
	switch c.(type) {
	case *IborCoupon:
		if _, ok := p.(IborCouponPricer); !ok {
			return fmt.Errorf("%T on Ibor coupon: %w", p, ErrIncompatiblePricer)
		}
	case *CmsCoupon:
		if _, ok := p.(CmsCouponPricer); !ok {
			return fmt.Errorf("%T on CMS coupon: %w", p, ErrIncompatiblePricer)
		}
	}
	return nil
}
