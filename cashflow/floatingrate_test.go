package cashflow_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/moquant/black"
	"github.com/meenmo/moquant/cashflow"
	"github.com/meenmo/moquant/daycount"
	"github.com/meenmo/moquant/index"
	"github.com/meenmo/moquant/observer"
	"github.com/meenmo/moquant/quote"
	"github.com/meenmo/moquant/termstructure"
)

func TestNewIborCoupon_NullGearing(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	_, err := cashflow.NewIborCoupon(floatingParams(date(2024, time.June, 3), date(2024, time.September, 3), 0, 0.01), m.euribor)
	assert.ErrorIs(t, err, cashflow.ErrNullGearing)

	_, err = cashflow.NewIborCoupon(floatingParams(date(2024, time.June, 3), date(2024, time.September, 3), 1, 0), nil)
	assert.ErrorIs(t, err, cashflow.ErrInvalidCoupon)
}

func TestIborCoupon_DefaultsFromIndex(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	c := m.seasonedCoupon(t, 1, 0)

	assert.Equal(t, "Actual/360", c.DayCounter().Name())
	assert.Same(t, m.settings, c.Settings())
	assert.Equal(t, 2, c.FixingDays())
	assert.Equal(t, date(2024, time.January, 30), c.FixingDate())
	assert.Same(t, m.euribor, c.IborIndex())
	assert.False(t, c.IsInArrears())
	assert.Nil(t, c.Pricer())
}

func TestIborCoupon_ExplicitFixingDays(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	zero := 0
	p := floatingParams(date(2024, time.June, 3), date(2024, time.September, 3), 1, 0)
	p.FixingDays = &zero
	c, err := cashflow.NewIborCoupon(p, m.euribor)
	require.NoError(t, err)
	assert.Equal(t, 0, c.FixingDays())
	assert.Equal(t, date(2024, time.June, 3), c.FixingDate())

	five := 5
	p.FixingDays = &five
	c, err = cashflow.NewIborCoupon(p, m.euribor)
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.May, 27), c.FixingDate())

	negative := -1
	p.FixingDays = &negative
	_, err = cashflow.NewIborCoupon(p, m.euribor)
	assert.ErrorIs(t, err, cashflow.ErrInvalidCoupon)
}

func TestIborCoupon_PricerNotSet(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	c := m.forwardCoupon(t, 1, 0, false)

	_, err := c.Rate()
	assert.ErrorIs(t, err, cashflow.ErrPricerNotSet)
	_, err = c.Amount()
	assert.ErrorIs(t, err, cashflow.ErrPricerNotSet)
	_, err = c.Price(m.curve)
	assert.ErrorIs(t, err, cashflow.ErrPricerNotSet)

	assert.ErrorIs(t, c.SetPricer(nil), cashflow.ErrNoAdequatePricer)
}

func TestBlackIborCouponPricer_IntrinsicOnceFixed(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	c := m.seasonedCoupon(t, 1, 0)
	p := cashflow.NewBlackIborCouponPricer(nil)
	require.NoError(t, c.SetPricer(p))

	caplet, err := p.OptionletPrice(c, black.Call, 0.025)
	require.NoError(t, err)
	assert.InDelta(t, 0.0012375, caplet, 1e-15)

	floorlet, err := p.FloorletPrice(c, 0.025)
	require.NoError(t, err)
	assert.Zero(t, floorlet)

	r, err := c.Rate()
	require.NoError(t, err)
	assert.InDelta(t, 0.03, r, 1e-15)

	a, err := c.Amount()
	require.NoError(t, err)
	assert.InDelta(t, 0.0075, a, 1e-15)

	v, err := c.Price(m.curve)
	require.NoError(t, err)
	assert.InDelta(t, 0.0075*0.99, v, 1e-15)
}

func TestIborCoupon_MissingPastFixing(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	c, err := cashflow.NewIborCoupon(floatingParams(date(2024, time.February, 1), date(2024, time.May, 1), 1, 0), m.euribor)
	require.NoError(t, err)

	_, err = c.IndexFixing()
	assert.ErrorIs(t, err, index.ErrMissingFixing)
}

func TestIborCoupon_ForecastIsParRateOverAccrual(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	c := m.forwardCoupon(t, 1, 0, false)
	require.Equal(t, date(2024, time.May, 30), c.FixingDate())

	want := (m.curve.Discount(date(2024, time.June, 3))/m.curve.Discount(date(2024, time.September, 3)) - 1) / (92.0 / 360)
	got, err := c.IndexFixing()
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-15)

	require.NoError(t, c.SetPricer(cashflow.NewBlackIborCouponPricer(nil)))
	r, err := c.Rate()
	require.NoError(t, err)
	assert.InDelta(t, want, r, 1e-15)

	adj, err := c.ConvexityAdjustment()
	require.NoError(t, err)
	assert.InDelta(t, 0, adj, 1e-15)
}

func TestIborCoupon_TodaysFixing(t *testing.T) {
	t.Parallel()

	fixingDate := date(2024, time.May, 30)

	t.Run("forecast when not published", func(t *testing.T) {
		m := newMarket(t)
		m.settings.SetEvaluationDate(fixingDate)
		c := m.forwardCoupon(t, 1, 0, false)
		_, err := c.IndexFixing()
		assert.NoError(t, err)
	})

	t.Run("published fixing wins", func(t *testing.T) {
		m := newMarket(t)
		m.settings.SetEvaluationDate(fixingDate)
		require.NoError(t, m.euribor.AddFixing(fixingDate, 0.041, false))
		c := m.forwardCoupon(t, 1, 0, false)
		v, err := c.IndexFixing()
		require.NoError(t, err)
		assert.Equal(t, 0.041, v)
	})

	t.Run("enforced history", func(t *testing.T) {
		m := newMarket(t)
		m.settings.SetEvaluationDate(fixingDate)
		m.settings.SetEnforceTodaysHistoricFixings(true)
		c := m.forwardCoupon(t, 1, 0, false)
		_, err := c.IndexFixing()
		assert.ErrorIs(t, err, index.ErrMissingFixing)
	})
}

func TestBlackIborCouponPricer_ForwardOptionlets(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	c := m.forwardCoupon(t, 1, 0, false)
	p := cashflow.NewBlackIborCouponPricer(m.capletVol)
	require.NoError(t, c.SetPricer(p))

	fwd, err := c.IndexFixing()
	require.NoError(t, err)
	strike := 0.03
	accrual := c.AccrualPeriod()
	disc := m.curve.Discount(c.Date())
	stdDev := math.Sqrt(m.capletVol.BlackVariance(c.FixingDate(), strike))
	undiscounted, err := black.Price(black.Call, strike, fwd, stdDev, 1, 0)
	require.NoError(t, err)

	caplet, err := p.CapletPrice(c, strike)
	require.NoError(t, err)
	assert.InDelta(t, undiscounted*accrual*disc, caplet, 1e-15)

	floorlet, err := p.FloorletPrice(c, strike)
	require.NoError(t, err)
	assert.InDelta(t, (fwd-strike)*accrual*disc, caplet-floorlet, 1e-14)

	capletRate, err := p.CapletRate(c, strike)
	require.NoError(t, err)
	assert.InDelta(t, undiscounted, capletRate, 1e-14)
}

func TestBlackIborCouponPricer_MissingVolatility(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	c := m.forwardCoupon(t, 1, 0, false)
	p := cashflow.NewBlackIborCouponPricer(nil)

	_, err := p.CapletPrice(c, 0.03)
	assert.ErrorIs(t, err, cashflow.ErrMissingCapletVolatility)

	arrears := m.forwardCoupon(t, 1, 0, true)
	_, err = p.SwapletRate(arrears)
	assert.ErrorIs(t, err, cashflow.ErrMissingCapletVolatility)
}

func TestBlackIborCouponPricer_NegativeStrikeIsIntrinsic(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	c := m.forwardCoupon(t, 1, 0, false)
	p := cashflow.NewBlackIborCouponPricer(m.capletVol)

	fwd, err := c.IndexFixing()
	require.NoError(t, err)
	disc := m.curve.Discount(c.Date())

	caplet, err := p.CapletPrice(c, -0.01)
	require.NoError(t, err)
	assert.InDelta(t, (fwd+0.01)*c.AccrualPeriod()*disc, caplet, 1e-15)

	floorlet, err := p.FloorletPrice(c, -0.01)
	require.NoError(t, err)
	assert.Zero(t, floorlet)
}

func TestBlackIborCouponPricer_InArrearsAdjustment(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	c := m.forwardCoupon(t, 1, 0, true)
	require.Equal(t, date(2024, time.August, 30), c.FixingDate())
	p := cashflow.NewBlackIborCouponPricer(m.capletVol)
	require.NoError(t, c.SetPricer(p))

	d1 := c.FixingDate()
	f, err := m.euribor.Fixing(d1)
	require.NoError(t, err)
	d2 := m.euribor.MaturityDate(d1)
	tau := daycount.Actual360{}.YearFraction(d1, d2, d1, d2)
	variance := m.capletVol.BlackVariance(d1, f)
	want := f + f*f*variance*tau/(1+f*tau)

	got, err := p.AdjustedFixing(c)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-15)

	adj, err := c.ConvexityAdjustment()
	require.NoError(t, err)
	assert.Greater(t, adj, 0.0)
	assert.InDelta(t, want-f, adj, 1e-15)
}

func TestBlackIborCouponPricer_NoAdjustmentBeforeVolReference(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	c := m.forwardCoupon(t, 1, 0, true)
	late := termstructure.NewConstantOptionletVolatility(date(2024, time.December, 2), quote.NewSimpleQuote(0.2), daycount.Actual365Fixed{})
	p := cashflow.NewBlackIborCouponPricer(late)

	f, err := c.IndexFixing()
	require.NoError(t, err)
	got, err := p.AdjustedFixing(c)
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestIborCoupon_GearingAndSpread(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	c := m.seasonedCoupon(t, 2, 0.001)
	require.NoError(t, c.SetPricer(cashflow.NewBlackIborCouponPricer(nil)))

	r, err := c.Rate()
	require.NoError(t, err)
	assert.InDelta(t, 2*0.03+0.001, r, 1e-15)

	adj, err := c.AdjustedFixing()
	require.NoError(t, err)
	assert.InDelta(t, 0.03, adj, 1e-15)

	accrued, err := c.AccruedAmount(date(2024, time.March, 2))
	require.NoError(t, err)
	assert.InDelta(t, r*30.0/360, accrued, 1e-15)
}

func TestObserverPropagation_QuoteToCoupon(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	c := m.forwardCoupon(t, 1, 0, false)
	p := cashflow.NewBlackIborCouponPricer(m.capletVol)
	require.NoError(t, c.SetPricer(p))

	counter := &observer.Counter{}
	c.RegisterObserver(counter)

	m.capletQuote.SetValue(0.25)
	assert.Equal(t, 1, counter.Count())

	m.capletQuote.SetValue(0.25)
	assert.Equal(t, 1, counter.Count(), "unchanged quote must not notify")

	other := termstructure.NewConstantOptionletVolatility(evalDate, quote.NewSimpleQuote(0.3), daycount.Actual365Fixed{})
	p.SetCapletVolatility(other)
	assert.Equal(t, 2, counter.Count())

	m.capletQuote.SetValue(0.35)
	assert.Equal(t, 2, counter.Count(), "detached volatility must not reach the coupon")

	require.NoError(t, m.curve.SetDiscountFactor(date(2024, time.May, 1), 0.991))
	assert.Equal(t, 3, counter.Count())
}

func TestFloatingRateCoupon_SetPricerMovesSubscription(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	c := m.forwardCoupon(t, 1, 0, false)
	first := cashflow.NewBlackIborCouponPricer(m.capletVol)
	require.NoError(t, c.SetPricer(first))

	counter := &observer.Counter{}
	c.RegisterObserver(counter)

	second := cashflow.NewBlackIborCouponPricer(nil)
	require.NoError(t, c.SetPricer(second))
	assert.Equal(t, 1, counter.Count())
	assert.Same(t, second, c.Pricer())
	assert.Zero(t, first.Observers())

	m.capletQuote.SetValue(0.3)
	assert.Equal(t, 1, counter.Count())
}

func TestIborCoupon_ObservesSettings(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	c := m.forwardCoupon(t, 1, 0, false)
	counter := &observer.Counter{}
	c.RegisterObserver(counter)

	m.settings.SetEvaluationDate(date(2024, time.March, 18))
	assert.GreaterOrEqual(t, counter.Count(), 1)
}
