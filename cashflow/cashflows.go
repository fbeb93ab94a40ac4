package cashflow

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/meenmo/moquant/index"
	"github.com/meenmo/moquant/logging"
	"github.com/meenmo/moquant/termstructure"
)

// basisPoint scales BPS to one basis point of rate.
const basisPoint = 1e-4

// StartDate is the earliest accrual start, or cash flow date for
// non-coupons, in leg.
func StartDate(leg Leg) (time.Time, error) {
	if len(leg) == 0 {
		return time.Time{}, ErrNoCashFlows
	}
	var start time.Time
	for i, cf := range leg {
		d := cf.Date()
		if c, ok := cf.(Coupon); ok {
			d = c.AccrualStartDate()
		}
		if i == 0 || d.Before(start) {
			start = d
		}
	}
	return start, nil
}

// MaturityDate is the latest cash flow date in leg.
func MaturityDate(leg Leg) (time.Time, error) {
	if len(leg) == 0 {
		return time.Time{}, ErrNoCashFlows
	}
	var end time.Time
	for _, cf := range leg {
		if d := cf.Date(); d.After(end) {
			end = d
		}
	}
	return end, nil
}

// NPV is the value at settlement of the cash flows not yet occurred by
// settlement, discounted on curve. A zero settlement means the curve
// reference date. Any failing cash flow aborts the valuation.
func NPV(leg Leg, curve termstructure.YieldTermStructure, settlement time.Time) (float64, error) {
	if curve == nil {
		return 0, fmt.Errorf("NPV: %w", index.ErrMissingTermStructure)
	}
	if settlement.IsZero() {
		settlement = curve.ReferenceDate()
	}
	npv := 0.0
	for i, cf := range leg {
		if cf.HasOccurred(settlement) {
			continue
		}
		a, err := cf.Amount()
		if err != nil {
			return 0, fmt.Errorf("NPV: cash flow %d paid %s: %w", i, cf.Date().Format("2006-01-02"), err)
		}
		npv += a * curve.Discount(cf.Date())
	}
	npv /= curve.Discount(settlement)
	logging.L().Debug("leg valued",
		zap.Int("cash_flows", len(leg)),
		zap.Time("settlement", settlement),
		zap.Float64("npv", npv))
	return npv, nil
}

// BPS is the value change of leg for a one basis point rise in every coupon
// rate, nominal * accrual * discount * 1bp summed over pending coupons.
func BPS(leg Leg, curve termstructure.YieldTermStructure, settlement time.Time) (float64, error) {
	if curve == nil {
		return 0, fmt.Errorf("BPS: %w", index.ErrMissingTermStructure)
	}
	if settlement.IsZero() {
		settlement = curve.ReferenceDate()
	}
	bps := 0.0
	for _, cf := range leg {
		c, ok := cf.(Coupon)
		if !ok || cf.HasOccurred(settlement) {
			continue
		}
		bps += c.Nominal() * c.AccrualPeriod() * curve.Discount(c.Date())
	}
	return bps * basisPoint / curve.Discount(settlement), nil
}

// AtmRate is the fixed rate whose coupons on the same schedule would have
// the NPV of leg.
func AtmRate(leg Leg, curve termstructure.YieldTermStructure, settlement time.Time) (float64, error) {
	npv, err := NPV(leg, curve, settlement)
	if err != nil {
		return 0, err
	}
	bps, err := BPS(leg, curve, settlement)
	if err != nil {
		return 0, err
	}
	if bps == 0 {
		return 0, fmt.Errorf("AtmRate: %w", ErrNoCashFlows)
	}
	return npv / bps * basisPoint, nil
}

// AccruedAmount sums the amounts accrued by d over every coupon of leg.
func AccruedAmount(leg Leg, d time.Time) (float64, error) {
	total := 0.0
	for i, cf := range leg {
		c, ok := cf.(Coupon)
		if !ok {
			continue
		}
		a, err := c.AccruedAmount(d)
		if err != nil {
			return 0, fmt.Errorf("AccruedAmount: cash flow %d: %w", i, err)
		}
		total += a
	}
	return total, nil
}

// RoundedAmount returns the amount of cf rounded half away from zero to
// places decimals.
func RoundedAmount(cf CashFlow, places int32) (decimal.Decimal, error) {
	a, err := cf.Amount()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat(a).Round(places), nil
}
