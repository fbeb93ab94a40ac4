package cashflow

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/meenmo/moquant/calendar"
	"github.com/meenmo/moquant/index"
	"github.com/meenmo/moquant/logging"
)

// IborCoupon is a floating coupon on an Ibor index.
type IborCoupon struct {
	FloatingRateCoupon

	ibor *index.IborIndex
}

// NewIborCoupon returns a coupon fixing on idx without a pricer.
func NewIborCoupon(p FloatingParams, idx *index.IborIndex) (*IborCoupon, error) {
	if idx == nil {
		return nil, fmt.Errorf("NewIborCoupon: nil index: %w", ErrInvalidCoupon)
	}
	c := &IborCoupon{ibor: idx}
	if err := c.init(p, idx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// IborIndex returns the underlying index.
func (c *IborCoupon) IborIndex() *index.IborIndex { return c.ibor }

// IndexFixing returns the fixing the coupon pays on. In arrears it is the
// index fixing. Otherwise past fixings come from history, a fixing on the
// evaluation date from history when available, and later fixings are
// forecast as the par rate over the accrual period:
// (P(fixing value date) / P(end discount date) - 1) / accrual period.
func (c *IborCoupon) IndexFixing() (float64, error) {
	d := c.FixingDate()
	if c.inArrears {
		return c.ibor.Fixing(d)
	}

	today := c.settings.EvaluationDate()
	if d.Before(today) || (d.Equal(today) && c.settings.EnforceTodaysHistoricFixings()) {
		v, ok := c.ibor.PastFixing(d)
		if !ok {
			return 0, fmt.Errorf("IndexFixing: %s on %s: %w", c.ibor.Name(), d.Format("2006-01-02"), index.ErrMissingFixing)
		}
		return v, nil
	}
	if d.Equal(today) {
		if v, ok := c.ibor.PastFixing(d); ok {
			return v, nil
		}
		logging.L().Debug("todays fixing not published, forecasting",
			zap.String("index", c.ibor.Name()),
			zap.Time("fixing_date", d))
	}

	curve := c.ibor.TermStructure()
	if curve == nil {
		return 0, fmt.Errorf("IndexFixing: %s: %w", c.ibor.Name(), index.ErrMissingTermStructure)
	}
	valueDate := c.ibor.ValueDate(d)
	nextFixing := calendar.Advance(c.ibor.FixingCalendar(), c.accrualEnd, -c.fixingDays, calendar.Days, calendar.Preceding, false)
	endDiscount := c.ibor.ValueDate(nextFixing)
	return (curve.Discount(valueDate)/curve.Discount(endDiscount) - 1) / c.AccrualPeriod(), nil
}

// CmsCoupon is a floating coupon on a swap index.
type CmsCoupon struct {
	FloatingRateCoupon

	swap *index.SwapIndex
}

// NewCmsCoupon returns a coupon fixing on idx without a pricer.
func NewCmsCoupon(p FloatingParams, idx *index.SwapIndex) (*CmsCoupon, error) {
	if idx == nil {
		return nil, fmt.Errorf("NewCmsCoupon: nil index: %w", ErrInvalidCoupon)
	}
	c := &CmsCoupon{swap: idx}
	if err := c.init(p, idx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// SwapIndex returns the underlying swap index.
func (c *CmsCoupon) SwapIndex() *index.SwapIndex { return c.swap }
