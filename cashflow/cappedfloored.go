package cashflow

import (
	"fmt"
	"time"

	"github.com/meenmo/moquant/observer"
	"github.com/meenmo/moquant/termstructure"
)

// CapFloorOption sets a cap or floor on a CappedFlooredCoupon.
type CapFloorOption func(*capFloorTerms)

type capFloorTerms struct {
	cap, floor      float64
	capped, floored bool
}

// WithCap caps the coupon rate at rate.
func WithCap(rate float64) CapFloorOption {
	return func(t *capFloorTerms) { t.cap, t.capped = rate, true }
}

// WithFloor floors the coupon rate at rate.
func WithFloor(rate float64) CapFloorOption {
	return func(t *capFloorTerms) { t.floor, t.floored = rate, true }
}

// CappedFlooredCoupon bounds the rate of an underlying floating coupon.
//
// The bounds apply to the coupon rate. With negative gearing a cap on the
// rate is a floor on the fixing and the other way round, so the stored cap
// and floor swap roles.
type CappedFlooredCoupon struct {
	FloatingCoupon

	subject observer.Subject
	terms   capFloorTerms
}

// NewCappedFlooredCoupon wraps underlying with the given bounds and
// subscribes to it. A cap below the floor fails with ErrCapBelowFloor.
func NewCappedFlooredCoupon(underlying FloatingCoupon, opts ...CapFloorOption) (*CappedFlooredCoupon, error) {
	if underlying == nil {
		return nil, fmt.Errorf("NewCappedFlooredCoupon: nil underlying: %w", ErrInvalidCoupon)
	}
	var in capFloorTerms
	for _, opt := range opts {
		opt(&in)
	}
	if in.capped && in.floored && in.cap < in.floor {
		return nil, fmt.Errorf("NewCappedFlooredCoupon: cap %g, floor %g: %w", in.cap, in.floor, ErrCapBelowFloor)
	}

	terms := in
	if underlying.Gearing() < 0 {
		terms = capFloorTerms{
			cap: in.floor, capped: in.floored,
			floor: in.cap, floored: in.capped,
		}
	}
	c := &CappedFlooredCoupon{FloatingCoupon: underlying, terms: terms}
	underlying.RegisterObserver(c)
	return c, nil
}

// Underlying returns the wrapped coupon.
func (c *CappedFlooredCoupon) Underlying() FloatingCoupon { return c.FloatingCoupon }

// Cap returns the stored cap and whether one is set. With negative gearing
// it is the bound supplied as floor.
func (c *CappedFlooredCoupon) Cap() (float64, bool) { return c.terms.cap, c.terms.capped }

// Floor returns the stored floor and whether one is set.
func (c *CappedFlooredCoupon) Floor() (float64, bool) { return c.terms.floor, c.terms.floored }

func (c *CappedFlooredCoupon) IsCapped() bool  { return c.terms.capped }
func (c *CappedFlooredCoupon) IsFloored() bool { return c.terms.floored }

// EffectiveCap is the cap expressed on the fixing: (cap - spread) / gearing.
func (c *CappedFlooredCoupon) EffectiveCap() (float64, bool) {
	return (c.terms.cap - c.Spread()) / c.Gearing(), c.terms.capped
}

// EffectiveFloor is the floor expressed on the fixing: (floor - spread) / gearing.
func (c *CappedFlooredCoupon) EffectiveFloor() (float64, bool) {
	return (c.terms.floor - c.Spread()) / c.Gearing(), c.terms.floored
}

// Rate is the underlying rate plus the floorlet rate minus the caplet rate.
func (c *CappedFlooredCoupon) Rate() (float64, error) {
	p := c.Pricer()
	if p == nil {
		return 0, ErrPricerNotSet
	}
	rate, err := c.FloatingCoupon.Rate()
	if err != nil {
		return 0, err
	}
	if k, ok := c.EffectiveFloor(); ok {
		floorlet, err := p.FloorletRate(c.FloatingCoupon, k)
		if err != nil {
			return 0, err
		}
		rate += floorlet
	}
	if k, ok := c.EffectiveCap(); ok {
		caplet, err := p.CapletRate(c.FloatingCoupon, k)
		if err != nil {
			return 0, err
		}
		rate -= caplet
	}
	return rate, nil
}

// Amount is rate * accrual period * nominal.
func (c *CappedFlooredCoupon) Amount() (float64, error) {
	r, err := c.Rate()
	if err != nil {
		return 0, err
	}
	return r * c.AccrualPeriod() * c.Nominal(), nil
}

// AccruedAmount is the bounded amount accrued by d.
func (c *CappedFlooredCoupon) AccruedAmount(d time.Time) (float64, error) {
	if !d.After(c.AccrualStartDate()) || d.After(c.Date()) {
		return 0, nil
	}
	end := d
	if c.AccrualEndDate().Before(end) {
		end = c.AccrualEndDate()
	}
	r, err := c.Rate()
	if err != nil {
		return 0, err
	}
	return c.Nominal() * r * c.DayCounter().YearFraction(c.AccrualStartDate(), end, c.ReferencePeriodStart(), c.ReferencePeriodEnd()), nil
}

// AdjustedFixing backs the fixing out of the bounded rate.
func (c *CappedFlooredCoupon) AdjustedFixing() (float64, error) {
	r, err := c.Rate()
	if err != nil {
		return 0, err
	}
	return (r - c.Spread()) / c.Gearing(), nil
}

// Price is the bounded amount discounted on curve to the payment date.
func (c *CappedFlooredCoupon) Price(curve termstructure.YieldTermStructure) (float64, error) {
	a, err := c.Amount()
	if err != nil {
		return 0, err
	}
	return a * curve.Discount(c.Date()), nil
}

// SetPricer sets the pricer on the underlying, which the wrapper shares.
// Pricer notifications reach the wrapper through the underlying, once.
func (c *CappedFlooredCoupon) SetPricer(p FloatingRateCouponPricer) error {
	return c.FloatingCoupon.SetPricer(p)
}

func (c *CappedFlooredCoupon) RegisterObserver(o observer.Observer)   { c.subject.RegisterObserver(o) }
func (c *CappedFlooredCoupon) UnregisterObserver(o observer.Observer) { c.subject.UnregisterObserver(o) }
func (c *CappedFlooredCoupon) NotifyObservers()                       { c.subject.NotifyObservers() }

// Update relays changes of the underlying.
func (c *CappedFlooredCoupon) Update() { c.subject.NotifyObservers() }
