package cashflow

import (
	"fmt"
	"math"
	"sync"

	"github.com/meenmo/moquant/black"
	"github.com/meenmo/moquant/index"
	"github.com/meenmo/moquant/observer"
	"github.com/meenmo/moquant/termstructure"
)

// BlackIborCouponPricer prices Ibor coupons and their optionlets with the
// Black formula on a caplet volatility.
type BlackIborCouponPricer struct {
	observer.Subject

	mu  sync.RWMutex
	vol termstructure.CapletVolatilityStructure
}

// NewBlackIborCouponPricer subscribes the pricer to vol. A nil vol is allowed
// for coupons whose optionlets are already determined or absent.
func NewBlackIborCouponPricer(vol termstructure.CapletVolatilityStructure) *BlackIborCouponPricer {
	p := &BlackIborCouponPricer{vol: vol}
	if vol != nil {
		vol.RegisterObserver(p)
	}
	return p
}

// CapletVolatility returns the current volatility, possibly nil.
func (p *BlackIborCouponPricer) CapletVolatility() termstructure.CapletVolatilityStructure {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.vol
}

// SetCapletVolatility relinks the volatility and notifies observers.
func (p *BlackIborCouponPricer) SetCapletVolatility(v termstructure.CapletVolatilityStructure) {
	p.mu.Lock()
	old := p.vol
	p.vol = v
	p.mu.Unlock()
	if old != nil {
		old.UnregisterObserver(p)
	}
	if v != nil {
		v.RegisterObserver(p)
	}
	p.NotifyObservers()
}

// Update relays volatility changes to the coupons using the pricer.
func (p *BlackIborCouponPricer) Update() { p.NotifyObservers() }

func (p *BlackIborCouponPricer) SwapletPrice(c FloatingCoupon) (float64, error) {
	disc, err := paymentDiscount(c)
	if err != nil {
		return 0, err
	}
	fixing, err := p.AdjustedFixing(c)
	if err != nil {
		return 0, err
	}
	accrual := c.AccrualPeriod()
	spreadLeg := c.Spread() * accrual * disc
	return c.Gearing()*fixing*accrual*disc + spreadLeg, nil
}

func (p *BlackIborCouponPricer) SwapletRate(c FloatingCoupon) (float64, error) {
	price, err := p.SwapletPrice(c)
	if err != nil {
		return 0, err
	}
	return perUnitRate(c, price)
}

func (p *BlackIborCouponPricer) CapletPrice(c FloatingCoupon, effectiveCap float64) (float64, error) {
	v, err := p.OptionletPrice(c, black.Call, effectiveCap)
	return c.Gearing() * v, err
}

func (p *BlackIborCouponPricer) CapletRate(c FloatingCoupon, effectiveCap float64) (float64, error) {
	price, err := p.CapletPrice(c, effectiveCap)
	if err != nil {
		return 0, err
	}
	return perUnitRate(c, price)
}

func (p *BlackIborCouponPricer) FloorletPrice(c FloatingCoupon, effectiveFloor float64) (float64, error) {
	v, err := p.OptionletPrice(c, black.Put, effectiveFloor)
	return c.Gearing() * v, err
}

func (p *BlackIborCouponPricer) FloorletRate(c FloatingCoupon, effectiveFloor float64) (float64, error) {
	price, err := p.FloorletPrice(c, effectiveFloor)
	if err != nil {
		return 0, err
	}
	return perUnitRate(c, price)
}

// OptionletPrice values an option on the fixing, per unit nominal and
// without gearing. Once the fixing date is reached the payoff is known and
// the intrinsic value is returned without a volatility lookup.
func (p *BlackIborCouponPricer) OptionletPrice(c FloatingCoupon, optType black.OptionType, strike float64) (float64, error) {
	disc, err := paymentDiscount(c)
	if err != nil {
		return 0, err
	}
	accrual := c.AccrualPeriod()
	fixingDate := c.FixingDate()

	if !fixingDate.After(c.Settings().EvaluationDate()) {
		fixing, err := c.IndexFixing()
		if err != nil {
			return 0, err
		}
		return intrinsic(optType, fixing, strike) * accrual * disc, nil
	}

	vol := p.CapletVolatility()
	if vol == nil {
		return 0, ErrMissingCapletVolatility
	}
	fwd, err := p.AdjustedFixing(c)
	if err != nil {
		return 0, err
	}
	stdDev := math.Sqrt(vol.BlackVariance(fixingDate, strike))
	v, err := lognormalOptionlet(optType, strike, fwd, stdDev)
	if err != nil {
		return 0, err
	}
	return v * accrual * disc, nil
}

// AdjustedFixing is the index fixing, corrected for in-arrears payment with
// Hull's convexity adjustment f^2 * var * tau / (1 + f * tau).
func (p *BlackIborCouponPricer) AdjustedFixing(c FloatingCoupon) (float64, error) {
	fixing, err := c.IndexFixing()
	if err != nil {
		return 0, err
	}
	if !c.IsInArrears() {
		return fixing, nil
	}
	vol := p.CapletVolatility()
	if vol == nil {
		return 0, ErrMissingCapletVolatility
	}
	d1 := c.FixingDate()
	if !d1.After(vol.ReferenceDate()) {
		return fixing, nil
	}
	idx := c.Index()
	d2 := idx.MaturityDate(d1)
	tau := idx.DayCounter().YearFraction(d1, d2, d1, d2)
	variance := vol.BlackVariance(d1, fixing)
	return fixing + fixing*fixing*variance*tau/(1+fixing*tau), nil
}

// paymentDiscount is 1 once the payment date is reached, else the index
// curve's discount to the payment date.
func paymentDiscount(c FloatingCoupon) (float64, error) {
	if !c.Date().After(c.Settings().EvaluationDate()) {
		return 1, nil
	}
	curve := c.Index().TermStructure()
	if curve == nil {
		return 0, fmt.Errorf("%s: %w", c.Index().Name(), index.ErrMissingTermStructure)
	}
	return curve.Discount(c.Date()), nil
}

// perUnitRate turns a price into a rate by dividing out accrual and discount.
func perUnitRate(c FloatingCoupon, price float64) (float64, error) {
	disc, err := paymentDiscount(c)
	if err != nil {
		return 0, err
	}
	return price / (c.AccrualPeriod() * disc), nil
}

func intrinsic(optType black.OptionType, fixing, strike float64) float64 {
	if optType == black.Call {
		return math.Max(fixing-strike, 0)
	}
	return math.Max(strike-fixing, 0)
}

// lognormalOptionlet is the undiscounted Black price. A negative strike is
// always exercised under a lognormal forward, so its price is intrinsic.
func lognormalOptionlet(optType black.OptionType, strike, forward, stdDev float64) (float64, error) {
	if strike < 0 {
		return intrinsic(optType, forward, strike), nil
	}
	return black.Price(optType, strike, forward, stdDev, 1, 0)
}
