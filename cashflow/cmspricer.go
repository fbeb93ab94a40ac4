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

// BlackCmsCouponPricer prices CMS coupons on a convexity-adjusted swap rate
// and values their optionlets with the Black formula on a swaption
// volatility.
//
// The adjustment is Hull's yield-based approximation
// -1/2 * F^2 * sigma^2 * T * G''(F) / G'(F), where G is the price of a bond
// paying the forward swap rate F on the fixed leg schedule of the index.
type BlackCmsCouponPricer struct {
	observer.Subject

	mu  sync.RWMutex
	vol termstructure.SwaptionVolatilityStructure
}

// NewBlackCmsCouponPricer subscribes the pricer to vol. A nil vol is allowed
// for coupons fixed in the past.
func NewBlackCmsCouponPricer(vol termstructure.SwaptionVolatilityStructure) *BlackCmsCouponPricer {
	p := &BlackCmsCouponPricer{vol: vol}
	if vol != nil {
		vol.RegisterObserver(p)
	}
	return p
}

// SwaptionVolatility returns the current volatility, possibly nil.
func (p *BlackCmsCouponPricer) SwaptionVolatility() termstructure.SwaptionVolatilityStructure {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.vol
}

// SetSwaptionVolatility relinks the volatility and notifies observers.
func (p *BlackCmsCouponPricer) SetSwaptionVolatility(v termstructure.SwaptionVolatilityStructure) {
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
func (p *BlackCmsCouponPricer) Update() { p.NotifyObservers() }

func (p *BlackCmsCouponPricer) SwapletPrice(c FloatingCoupon) (float64, error) {
	disc, err := paymentDiscount(c)
	if err != nil {
		return 0, err
	}
	fixing, err := p.AdjustedFixing(c)
	if err != nil {
		return 0, err
	}
	accrual := c.AccrualPeriod()
	return (c.Gearing()*fixing + c.Spread()) * accrual * disc, nil
}

func (p *BlackCmsCouponPricer) SwapletRate(c FloatingCoupon) (float64, error) {
	price, err := p.SwapletPrice(c)
	if err != nil {
		return 0, err
	}
	return perUnitRate(c, price)
}

func (p *BlackCmsCouponPricer) CapletPrice(c FloatingCoupon, effectiveCap float64) (float64, error) {
	v, err := p.optionletPrice(c, black.Call, effectiveCap)
	return c.Gearing() * v, err
}

func (p *BlackCmsCouponPricer) CapletRate(c FloatingCoupon, effectiveCap float64) (float64, error) {
	price, err := p.CapletPrice(c, effectiveCap)
	if err != nil {
		return 0, err
	}
	return perUnitRate(c, price)
}

func (p *BlackCmsCouponPricer) FloorletPrice(c FloatingCoupon, effectiveFloor float64) (float64, error) {
	v, err := p.optionletPrice(c, black.Put, effectiveFloor)
	return c.Gearing() * v, err
}

func (p *BlackCmsCouponPricer) FloorletRate(c FloatingCoupon, effectiveFloor float64) (float64, error) {
	price, err := p.FloorletPrice(c, effectiveFloor)
	if err != nil {
		return 0, err
	}
	return perUnitRate(c, price)
}

// AdjustedFixing is the swap rate fixing plus the CMS convexity adjustment.
// Fixings already determined are returned unadjusted.
func (p *BlackCmsCouponPricer) AdjustedFixing(c FloatingCoupon) (float64, error) {
	swp, err := swapIndexOf(c)
	if err != nil {
		return 0, err
	}
	fixing, err := c.IndexFixing()
	if err != nil {
		return 0, err
	}
	fixingDate := c.FixingDate()
	if !fixingDate.After(c.Settings().EvaluationDate()) {
		return fixing, nil
	}
	vol := p.SwaptionVolatility()
	if vol == nil {
		return 0, ErrNoAdequateSwaptionVol
	}
	variance := vol.BlackVariance(fixingDate, swp.Tenor().Years(), fixing)
	return fixing + HullCmsAdjustment(fixing, variance, swp.FixedLegFrequency(), fixedPayments(swp)), nil
}

func (p *BlackCmsCouponPricer) optionletPrice(c FloatingCoupon, optType black.OptionType, strike float64) (float64, error) {
	swp, err := swapIndexOf(c)
	if err != nil {
		return 0, err
	}
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

	vol := p.SwaptionVolatility()
	if vol == nil {
		return 0, ErrNoAdequateSwaptionVol
	}
	fwd, err := p.AdjustedFixing(c)
	if err != nil {
		return 0, err
	}
	stdDev := math.Sqrt(vol.BlackVariance(fixingDate, swp.Tenor().Years(), strike))
	v, err := lognormalOptionlet(optType, strike, fwd, stdDev)
	if err != nil {
		return 0, err
	}
	return v * accrual * disc, nil
}

// HullCmsAdjustment returns -1/2 * F^2 * variance * G''(F) / G'(F) for a
// bond with n payments of F/q per year frequency q, discounted at yield F.
func HullCmsAdjustment(forward, variance float64, q, n int) float64 {
	if n <= 0 || q <= 0 || variance == 0 {
		return 0
	}
	fq := float64(q)
	x := 1 + forward/fq
	coupon := forward / fq
	var d1, d2 float64
	for i := 1; i <= n; i++ {
		fi := float64(i)
		d1 -= fi * coupon / fq * math.Pow(x, -fi-1)
		d2 += fi * (fi + 1) * coupon / (fq * fq) * math.Pow(x, -fi-2)
	}
	fn := float64(n)
	d1 -= fn / fq * math.Pow(x, -fn-1)
	d2 += fn * (fn + 1) / (fq * fq) * math.Pow(x, -fn-2)
	return -0.5 * forward * forward * variance * d2 / d1
}

func fixedPayments(swp *index.SwapIndex) int {
	return int(math.Round(swp.Tenor().Years() * float64(swp.FixedLegFrequency())))
}

func swapIndexOf(c FloatingCoupon) (*index.SwapIndex, error) {
	swp, ok := c.Index().(*index.SwapIndex)
	if !ok {
		return nil, fmt.Errorf("cms pricer on %s: %w", c.Index().Name(), ErrIncompatiblePricer)
	}
	return swp, nil
}
