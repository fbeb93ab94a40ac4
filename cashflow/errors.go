package cashflow

import "errors"

// Missing historical fixings surface as index.ErrMissingFixing.
var (
	ErrPricerNotSet            = errors.New("cashflow: pricer not set")
	ErrNoAdequatePricer        = errors.New("cashflow: no adequate pricer given")
	ErrMissingCapletVolatility = errors.New("cashflow: missing caplet volatility")
	ErrNoAdequateSwaptionVol   = errors.New("cashflow: missing swaption volatility")
	ErrNullGearing             = errors.New("cashflow: null gearing not allowed")
	ErrCapBelowFloor           = errors.New("cashflow: cap level less than floor level")
	ErrIncompatiblePricer      = errors.New("cashflow: pricer not compatible with coupon")
	ErrNoCashFlows             = errors.New("cashflow: no cash flows")
	ErrNoPricers               = errors.New("cashflow: no pricers given")
	ErrPricerMismatch          = errors.New("cashflow: more pricers than cash flows")
	ErrInvalidCoupon           = errors.New("cashflow: invalid coupon definition")
	ErrNoSettlementDate        = errors.New("cashflow: no settlement date")
	ErrInfeasibleCashFlows     = errors.New("cashflow: infeasible cash flow: no sign change against the price")
	ErrUnsupportedCompounding  = errors.New("cashflow: unsupported compounding type")
	ErrUnknownDuration         = errors.New("cashflow: unknown duration type")
	ErrNoConvergence           = errors.New("cashflow: solver did not converge")
)
