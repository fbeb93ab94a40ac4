package cashflow

import (
	"github.com/meenmo/moquant/observer"
	"github.com/meenmo/moquant/termstructure"
)

// FloatingRateCouponPricer values the swaplet and optionlets of a floating
// coupon. Pricers keep no per-coupon state: every call receives the coupon,
// so one pricer can serve many coupons and goroutines as long as the market
// data it reads is not mutated concurrently.
//
// Strikes are effective strikes on the index fixing. Prices are in currency
// per unit nominal; rates are prices per unit of accrual times discount.
type FloatingRateCouponPricer interface {
	observer.Observable
	SwapletPrice(c FloatingCoupon) (float64, error)
	SwapletRate(c FloatingCoupon) (float64, error)
	CapletPrice(c FloatingCoupon, effectiveCap float64) (float64, error)
	CapletRate(c FloatingCoupon, effectiveCap float64) (float64, error)
	FloorletPrice(c FloatingCoupon, effectiveFloor float64) (float64, error)
	FloorletRate(c FloatingCoupon, effectiveFloor float64) (float64, error)
}

// IborCouponPricer prices coupons on Ibor indexes off a caplet volatility.
type IborCouponPricer interface {
	FloatingRateCouponPricer
	CapletVolatility() termstructure.CapletVolatilityStructure
	SetCapletVolatility(v termstructure.CapletVolatilityStructure)
}

// CmsCouponPricer prices coupons on swap indexes off a swaption volatility.
type CmsCouponPricer interface {
	FloatingRateCouponPricer
	SwaptionVolatility() termstructure.SwaptionVolatilityStructure
	SetSwaptionVolatility(v termstructure.SwaptionVolatilityStructure)
}
