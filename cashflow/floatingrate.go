package cashflow

import (
	"fmt"
	"sync"
	"time"

	"github.com/meenmo/moquant/calendar"
	"github.com/meenmo/moquant/index"
	"github.com/meenmo/moquant/observer"
	"github.com/meenmo/moquant/settings"
	"github.com/meenmo/moquant/termstructure"
)

// FloatingCoupon is a coupon whose rate comes from an index through a pricer.
type FloatingCoupon interface {
	Coupon
	observer.Observer
	Settings() *settings.Settings
	Index() index.InterestRateIndex
	FixingDays() int
	FixingDate() time.Time
	Gearing() float64
	Spread() float64
	IsInArrears() bool
	IndexFixing() (float64, error)
	AdjustedFixing() (float64, error)
	ConvexityAdjustment() (float64, error)
	Pricer() FloatingRateCouponPricer
	SetPricer(p FloatingRateCouponPricer) error
}

// FloatingParams configures a floating coupon. A nil DayCounter adopts the
// index's, nil Settings the index's, and nil FixingDays the index's fixing
// days. Gearing must be non-zero.
type FloatingParams struct {
	CouponParams
	FixingDays *int
	Gearing    float64
	Spread     float64
	InArrears  bool
}

// FloatingRateCoupon pays gearing * fixing + spread as computed by its pricer.
type FloatingRateCoupon struct {
	observer.Subject
	couponTerms

	index      index.InterestRateIndex
	fixingDays int
	gearing    float64
	spread     float64
	inArrears  bool

	mu     sync.RWMutex
	pricer FloatingRateCouponPricer

	// self is the outermost coupon, handed to pricers and observables so the
	// concrete kind's IndexFixing is used.
	self FloatingCoupon
}

// NewFloatingRateCoupon returns a coupon fixing on idx without a pricer.
func NewFloatingRateCoupon(p FloatingParams, idx index.InterestRateIndex) (*FloatingRateCoupon, error) {
	c := &FloatingRateCoupon{}
	if err := c.init(p, idx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *FloatingRateCoupon) init(p FloatingParams, idx index.InterestRateIndex, self FloatingCoupon) error {
	if idx == nil {
		return fmt.Errorf("floating coupon: nil index: %w", ErrInvalidCoupon)
	}
	if p.Gearing == 0 {
		return ErrNullGearing
	}
	if p.FixingDays != nil && *p.FixingDays < 0 {
		return fmt.Errorf("floating coupon: %d fixing days: %w", *p.FixingDays, ErrInvalidCoupon)
	}
	if p.DayCounter == nil {
		p.DayCounter = idx.DayCounter()
	}
	if p.Settings == nil {
		p.Settings = idx.Settings()
	}
	if err := c.couponTerms.init(p.CouponParams); err != nil {
		return err
	}
	c.index = idx
	c.fixingDays = idx.FixingDays()
	if p.FixingDays != nil {
		c.fixingDays = *p.FixingDays
	}
	c.gearing = p.Gearing
	c.spread = p.Spread
	c.inArrears = p.InArrears
	c.self = self

	idx.RegisterObserver(self)
	c.settings.RegisterObserver(self)
	return nil
}

func (c *FloatingRateCoupon) Index() index.InterestRateIndex { return c.index }
func (c *FloatingRateCoupon) FixingDays() int                { return c.fixingDays }
func (c *FloatingRateCoupon) Gearing() float64               { return c.gearing }
func (c *FloatingRateCoupon) Spread() float64                { return c.spread }
func (c *FloatingRateCoupon) IsInArrears() bool              { return c.inArrears }

// FixingDate is the accrual start, or end when in arrears, moved back by
// the fixing days on the index calendar.
func (c *FloatingRateCoupon) FixingDate() time.Time {
	ref := c.accrualStart
	if c.inArrears {
		ref = c.accrualEnd
	}
	return calendar.Advance(c.index.FixingCalendar(), ref, -c.fixingDays, calendar.Days, calendar.Preceding, false)
}

// IndexFixing is the index fixing on FixingDate.
func (c *FloatingRateCoupon) IndexFixing() (float64, error) {
	return c.index.Fixing(c.FixingDate())
}

// Pricer returns the current pricer, nil if none is set.
func (c *FloatingRateCoupon) Pricer() FloatingRateCouponPricer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pricer
}

// SetPricer swaps the pricer, moves the subscription and notifies observers.
func (c *FloatingRateCoupon) SetPricer(p FloatingRateCouponPricer) error {
	if p == nil {
		return ErrNoAdequatePricer
	}
	c.mu.Lock()
	old := c.pricer
	c.pricer = p
	c.mu.Unlock()
	if old != nil {
		old.UnregisterObserver(c.self)
	}
	p.RegisterObserver(c.self)
	c.NotifyObservers()
	return nil
}

// Rate is the swaplet rate from the pricer.
func (c *FloatingRateCoupon) Rate() (float64, error) {
	p := c.Pricer()
	if p == nil {
		return 0, ErrPricerNotSet
	}
	return p.SwapletRate(c.self)
}

// Amount is rate * accrual period * nominal.
func (c *FloatingRateCoupon) Amount() (float64, error) {
	r, err := c.self.Rate()
	if err != nil {
		return 0, err
	}
	return r * c.AccrualPeriod() * c.nominal, nil
}

// AccruedAmount is the amount accrued by d, zero outside the accrual window.
func (c *FloatingRateCoupon) AccruedAmount(d time.Time) (float64, error) {
	return accruedAmount(c.self, &c.couponTerms, d)
}

func accruedAmount(c Coupon, t *couponTerms, d time.Time) (float64, error) {
	yf, ok := t.accruedFraction(d)
	if !ok {
		return 0, nil
	}
	r, err := c.Rate()
	if err != nil {
		return 0, err
	}
	return t.nominal * r * yf, nil
}

// AdjustedFixing backs the fixing out of the rate: (rate - spread) / gearing.
func (c *FloatingRateCoupon) AdjustedFixing() (float64, error) {
	r, err := c.self.Rate()
	if err != nil {
		return 0, err
	}
	return (r - c.spread) / c.gearing, nil
}

// ConvexityAdjustment is AdjustedFixing minus IndexFixing.
func (c *FloatingRateCoupon) ConvexityAdjustment() (float64, error) {
	return convexityAdjustment(c.self)
}

func convexityAdjustment(c FloatingCoupon) (float64, error) {
	adj, err := c.AdjustedFixing()
	if err != nil {
		return 0, err
	}
	f, err := c.IndexFixing()
	if err != nil {
		return 0, err
	}
	return adj - f, nil
}

// Price is the amount discounted on curve to the payment date.
func (c *FloatingRateCoupon) Price(curve termstructure.YieldTermStructure) (float64, error) {
	a, err := c.self.Amount()
	if err != nil {
		return 0, err
	}
	return a * curve.Discount(c.Date()), nil
}

// detach unsubscribes the coupon from its index, settings and pricer.
func (c *FloatingRateCoupon) detach() {
	c.index.UnregisterObserver(c.self)
	c.settings.UnregisterObserver(c.self)
	if p := c.Pricer(); p != nil {
		p.UnregisterObserver(c.self)
	}
}

// Update re-notifies observers. Values are recomputed on demand.
func (c *FloatingRateCoupon) Update() { c.NotifyObservers() }
