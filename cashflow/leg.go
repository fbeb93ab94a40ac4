package cashflow

import (
	"fmt"
	"math"

	"github.com/meenmo/moquant/daycount"
	"github.com/meenmo/moquant/index"
	"github.com/meenmo/moquant/schedule"
	"github.com/meenmo/moquant/settings"
)

// Leg is an ordered sequence of cash flows.
type Leg []CashFlow

// LegParams holds per-period terms for leg builders. Each slice is indexed
// by period with the last element reused for later periods. Nominals is
// required; empty Gearings means 1, empty Spreads 0, and a NaN or missing
// cap or floor leaves that period unbounded.
type LegParams struct {
	Schedule   []schedule.Period
	Nominals   []float64
	DayCounter daycount.DayCounter
	Settings   *settings.Settings

	FixingDays *int
	InArrears  bool
	Gearings   []float64
	Spreads    []float64
	Caps       []float64
	Floors     []float64

	// Redemption appends the final nominal as a cash flow on the last
	// payment date.
	Redemption bool
}

func (p LegParams) validate(name string) error {
	if len(p.Schedule) == 0 {
		return fmt.Errorf("%s: empty schedule: %w", name, ErrNoCashFlows)
	}
	if len(p.Nominals) == 0 {
		return fmt.Errorf("%s: no nominals: %w", name, ErrInvalidCoupon)
	}
	return nil
}

// pick returns v[i], the last element when i is past the end, or def for an
// empty slice.
func pick(v []float64, i int, def float64) float64 {
	if len(v) == 0 {
		return def
	}
	return v[min(i, len(v)-1)]
}

func (p LegParams) couponParams(i int, dc daycount.DayCounter, s *settings.Settings) CouponParams {
	period := p.Schedule[i]
	return CouponParams{
		PaymentDate:    period.Pay,
		AccrualStart:   period.Start,
		AccrualEnd:     period.End,
		RefPeriodStart: period.RefStart,
		RefPeriodEnd:   period.RefEnd,
		Nominal:        pick(p.Nominals, i, 0),
		DayCounter:     dc,
		Settings:       s,
	}
}

func (p LegParams) floatingParams(i int, dc daycount.DayCounter, s *settings.Settings) FloatingParams {
	return FloatingParams{
		CouponParams: p.couponParams(i, dc, s),
		FixingDays:   p.FixingDays,
		Gearing:      pick(p.Gearings, i, 1),
		Spread:       pick(p.Spreads, i, 0),
		InArrears:    p.InArrears,
	}
}

func (p LegParams) bounds(i int) []CapFloorOption {
	var opts []CapFloorOption
	if c := pick(p.Caps, i, math.NaN()); !math.IsNaN(c) {
		opts = append(opts, WithCap(c))
	}
	if f := pick(p.Floors, i, math.NaN()); !math.IsNaN(f) {
		opts = append(opts, WithFloor(f))
	}
	return opts
}

// checkBounds rejects a period whose cap is below its floor before any
// coupon subscribes to the index.
func (p LegParams) checkBounds(name string) error {
	for i := range p.Schedule {
		c, f := pick(p.Caps, i, math.NaN()), pick(p.Floors, i, math.NaN())
		if !math.IsNaN(c) && !math.IsNaN(f) && c < f {
			return fmt.Errorf("%s: period %d: cap %g, floor %g: %w", name, i, c, f, ErrCapBelowFloor)
		}
	}
	return nil
}

func (p LegParams) redemption(leg Leg, s *settings.Settings) Leg {
	if !p.Redemption {
		return leg
	}
	last := len(p.Schedule) - 1
	return append(leg, NewSimpleCashFlow(pick(p.Nominals, last, 0), p.Schedule[last].Pay, s))
}

// NewFixedRateLeg builds fixed coupons paying rates[i] (last reused).
func NewFixedRateLeg(p LegParams, rates []float64) (Leg, error) {
	if err := p.validate("NewFixedRateLeg"); err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("NewFixedRateLeg: no rates: %w", ErrInvalidCoupon)
	}
	leg := make(Leg, 0, len(p.Schedule)+1)
	for i := range p.Schedule {
		c, err := NewFixedRateCoupon(p.couponParams(i, p.DayCounter, p.Settings), pick(rates, i, 0))
		if err != nil {
			return nil, fmt.Errorf("NewFixedRateLeg: period %d: %w", i, err)
		}
		leg = append(leg, c)
	}
	return p.redemption(leg, p.Settings), nil
}

// NewIborLeg builds Ibor coupons on idx, capped or floored where bounds
// are given. Coupons have no pricer until one is attached.
func NewIborLeg(p LegParams, idx *index.IborIndex) (Leg, error) {
	if err := p.validate("NewIborLeg"); err != nil {
		return nil, err
	}
	if idx == nil {
		return nil, fmt.Errorf("NewIborLeg: nil index: %w", ErrInvalidCoupon)
	}
	s := p.Settings
	if s == nil {
		s = idx.Settings()
	}
	if err := p.checkBounds("NewIborLeg"); err != nil {
		return nil, err
	}
	leg := make(Leg, 0, len(p.Schedule)+1)
	for i := range p.Schedule {
		c, err := NewIborCoupon(p.floatingParams(i, p.DayCounter, s), idx)
		if err != nil {
			release(leg...)
			return nil, fmt.Errorf("NewIborLeg: period %d: %w", i, err)
		}
		cf, err := bounded(c, p.bounds(i))
		if err != nil {
			release(leg...)
			return nil, fmt.Errorf("NewIborLeg: period %d: %w", i, err)
		}
		leg = append(leg, cf)
	}
	return p.redemption(leg, s), nil
}

// NewCmsLeg builds CMS coupons on idx, capped or floored where bounds are given.
func NewCmsLeg(p LegParams, idx *index.SwapIndex) (Leg, error) {
	if err := p.validate("NewCmsLeg"); err != nil {
		return nil, err
	}
	if idx == nil {
		return nil, fmt.Errorf("NewCmsLeg: nil index: %w", ErrInvalidCoupon)
	}
	s := p.Settings
	if s == nil {
		s = idx.Settings()
	}
	if err := p.checkBounds("NewCmsLeg"); err != nil {
		return nil, err
	}
	leg := make(Leg, 0, len(p.Schedule)+1)
	for i := range p.Schedule {
		c, err := NewCmsCoupon(p.floatingParams(i, p.DayCounter, s), idx)
		if err != nil {
			release(leg...)
			return nil, fmt.Errorf("NewCmsLeg: period %d: %w", i, err)
		}
		cf, err := bounded(c, p.bounds(i))
		if err != nil {
			release(leg...)
			return nil, fmt.Errorf("NewCmsLeg: period %d: %w", i, err)
		}
		leg = append(leg, cf)
	}
	return p.redemption(leg, s), nil
}

func bounded(c FloatingCoupon, opts []CapFloorOption) (CashFlow, error) {
	if len(opts) == 0 {
		return c, nil
	}
	cf, err := NewCappedFlooredCoupon(c, opts...)
	if err != nil {
		release(c)
		return nil, err
	}
	return cf, nil
}

// release drops the subscriptions held by coupons of a discarded leg.
func release(cfs ...CashFlow) {
	for _, cf := range cfs {
		switch c := cf.(type) {
		case *CappedFlooredCoupon:
			c.FloatingCoupon.UnregisterObserver(c)
			release(c.FloatingCoupon)
		case interface{ detach() }:
			c.detach()
		}
	}
}
