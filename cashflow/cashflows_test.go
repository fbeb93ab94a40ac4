package cashflow_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/moquant/cashflow"
	"github.com/meenmo/moquant/daycount"
	"github.com/meenmo/moquant/index"
)

func (m *market) fixedLeg(t *testing.T, rate float64, redemption bool) cashflow.Leg {
	t.Helper()
	leg, err := cashflow.NewFixedRateLeg(cashflow.LegParams{
		Schedule:   quarterlySchedule(t),
		Nominals:   []float64{100},
		DayCounter: daycount.Thirty360{},
		Settings:   m.settings,
		Redemption: redemption,
	}, []float64{rate})
	require.NoError(t, err)
	return leg
}

func TestLeg_StartAndMaturity(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	leg := m.fixedLeg(t, 0.04, true)
	require.Len(t, leg, 5)

	start, err := cashflow.StartDate(leg)
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.June, 3), start)

	end, err := cashflow.MaturityDate(leg)
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.June, 3), end)

	_, err = cashflow.StartDate(nil)
	assert.ErrorIs(t, err, cashflow.ErrNoCashFlows)
	_, err = cashflow.MaturityDate(nil)
	assert.ErrorIs(t, err, cashflow.ErrNoCashFlows)
}

func TestNPV_FixedLeg(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	leg := m.fixedLeg(t, 0.04, true)

	want := 0.0
	for _, cf := range leg {
		a, err := cf.Amount()
		require.NoError(t, err)
		want += a * m.curve.Discount(cf.Date())
	}
	npv, err := cashflow.NPV(leg, m.curve, time.Time{})
	require.NoError(t, err)
	assert.InDelta(t, want, npv, 1e-12)

	rate, err := cashflow.AtmRate(m.fixedLeg(t, 0.04, false), m.curve, time.Time{})
	require.NoError(t, err)
	assert.InDelta(t, 0.04, rate, 1e-14)
}

func TestNPV_SkipsOccurredCashFlows(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	leg := m.fixedLeg(t, 0.04, false)
	settlement := leg[0].Date()

	want := 0.0
	for _, cf := range leg[1:] {
		a, err := cf.Amount()
		require.NoError(t, err)
		want += a * m.curve.Discount(cf.Date())
	}
	want /= m.curve.Discount(settlement)

	npv, err := cashflow.NPV(leg, m.curve, settlement)
	require.NoError(t, err)
	assert.InDelta(t, want, npv, 1e-12)

	m.settings.SetIncludeTodaysPayments(true)
	npv, err = cashflow.NPV(leg, m.curve, settlement)
	require.NoError(t, err)
	assert.Greater(t, npv, want)
}

func TestBPS(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	leg := m.fixedLeg(t, 0.04, true)

	want := 0.0
	for _, cf := range leg[:4] {
		c := cf.(cashflow.Coupon)
		want += c.Nominal() * c.AccrualPeriod() * m.curve.Discount(c.Date())
	}
	bps, err := cashflow.BPS(leg, m.curve, time.Time{})
	require.NoError(t, err)
	assert.InDelta(t, want*1e-4, bps, 1e-15)
}

func TestNPV_FloatingLegTelescopes(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	leg := m.iborLeg(t)
	require.NoError(t, cashflow.SetCouponPricer(leg, cashflow.NewBlackIborCouponPricer(nil)))

	npv, err := cashflow.NPV(leg, m.curve, time.Time{})
	require.NoError(t, err)
	want := 100 * (m.curve.Discount(date(2024, time.June, 3)) - m.curve.Discount(date(2025, time.June, 3)))
	assert.InDelta(t, want, npv, 1e-10)
}

func TestNPV_Errors(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	_, err := cashflow.NPV(m.iborLeg(t), m.curve, time.Time{})
	assert.ErrorIs(t, err, cashflow.ErrPricerNotSet)

	_, err = cashflow.NPV(m.fixedLeg(t, 0.04, false), nil, time.Time{})
	assert.ErrorIs(t, err, index.ErrMissingTermStructure)

	_, err = cashflow.AtmRate(cashflow.Leg{cashflow.NewSimpleCashFlow(1, date(2025, time.June, 3), m.settings)}, m.curve, time.Time{})
	assert.ErrorIs(t, err, cashflow.ErrNoCashFlows)
}

func TestAccruedAmount_Leg(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	leg := m.fixedLeg(t, 0.04, true)

	got, err := cashflow.AccruedAmount(leg, date(2024, time.July, 3))
	require.NoError(t, err)
	assert.InDelta(t, 100*0.04*30.0/360, got, 1e-12)
}

func TestRoundedAmount(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	leg := m.fixedLeg(t, 0.04, false)

	got, err := cashflow.RoundedAmount(leg[0], 2)
	require.NoError(t, err)
	assert.Equal(t, "1.00", got.StringFixed(2))

	cf := cashflow.NewSimpleCashFlow(1234.5678, date(2025, time.June, 3), m.settings)
	got, err = cashflow.RoundedAmount(cf, 2)
	require.NoError(t, err)
	assert.Equal(t, "1234.57", got.String())
}

func TestNewIborLeg_BoundsAndRedemption(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	leg, err := cashflow.NewIborLeg(cashflow.LegParams{
		Schedule:   quarterlySchedule(t),
		Nominals:   []float64{100, 50},
		Gearings:   []float64{1, 2},
		Spreads:    []float64{0.001},
		Caps:       []float64{math.NaN(), 0.05},
		Redemption: true,
	}, m.euribor)
	require.NoError(t, err)
	require.Len(t, leg, 5)

	first, ok := leg[0].(*cashflow.IborCoupon)
	require.True(t, ok)
	assert.Equal(t, 100.0, first.Nominal())
	assert.Equal(t, 1.0, first.Gearing())
	assert.Equal(t, 0.001, first.Spread())

	for i := 1; i < 4; i++ {
		c, ok := leg[i].(*cashflow.CappedFlooredCoupon)
		require.True(t, ok, "coupon %d", i)
		capRate, capped := c.Cap()
		assert.True(t, capped)
		assert.Equal(t, 0.05, capRate)
		assert.False(t, c.IsFloored())
		assert.Equal(t, 50.0, c.Nominal())
		assert.Equal(t, 2.0, c.Gearing())
	}

	redemption, ok := leg[4].(*cashflow.SimpleCashFlow)
	require.True(t, ok)
	a, err := redemption.Amount()
	require.NoError(t, err)
	assert.Equal(t, 50.0, a)
	assert.Equal(t, date(2025, time.June, 3), redemption.Date())
}

func TestNewCmsLeg(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	leg, err := cashflow.NewCmsLeg(cashflow.LegParams{
		Schedule: quarterlySchedule(t),
		Nominals: []float64{100},
		Floors:   []float64{0},
	}, m.swap5y)
	require.NoError(t, err)
	require.Len(t, leg, 4)

	require.NoError(t, cashflow.SetCouponPricer(leg, cashflow.NewBlackCmsCouponPricer(m.swaptionVol)))
	for i, cf := range leg {
		c, ok := cf.(*cashflow.CappedFlooredCoupon)
		require.True(t, ok, "coupon %d", i)
		_, ok = c.Underlying().(*cashflow.CmsCoupon)
		assert.True(t, ok)
		r, err := c.Rate()
		require.NoError(t, err)
		assert.Greater(t, r, 0.0)
	}
}

func TestLegBuilders_Validation(t *testing.T) {
	t.Parallel()

	m := newMarket(t)

	_, err := cashflow.NewFixedRateLeg(cashflow.LegParams{Nominals: []float64{1}, DayCounter: daycount.Actual360{}, Settings: m.settings}, []float64{0.01})
	assert.ErrorIs(t, err, cashflow.ErrNoCashFlows)

	_, err = cashflow.NewIborLeg(cashflow.LegParams{Schedule: quarterlySchedule(t)}, m.euribor)
	assert.ErrorIs(t, err, cashflow.ErrInvalidCoupon)

	_, err = cashflow.NewFixedRateLeg(cashflow.LegParams{Schedule: quarterlySchedule(t), Nominals: []float64{1}, DayCounter: daycount.Actual360{}, Settings: m.settings}, nil)
	assert.ErrorIs(t, err, cashflow.ErrInvalidCoupon)

	_, err = cashflow.NewIborLeg(cashflow.LegParams{Schedule: quarterlySchedule(t), Nominals: []float64{1}, Gearings: []float64{0}}, m.euribor)
	assert.ErrorIs(t, err, cashflow.ErrNullGearing)

	_, err = cashflow.NewIborLeg(cashflow.LegParams{
		Schedule: quarterlySchedule(t),
		Nominals: []float64{1},
		Caps:     []float64{0.01},
		Floors:   []float64{0.02},
	}, m.euribor)
	assert.ErrorIs(t, err, cashflow.ErrCapBelowFloor)
}

func TestLegBuilders_FailedBuildLeavesNoSubscriptions(t *testing.T) {
	t.Parallel()

	m := newMarket(t)
	iborBefore, swapBefore, settingsBefore := m.euribor.Observers(), m.swap5y.Observers(), m.settings.Observers()

	_, err := cashflow.NewIborLeg(cashflow.LegParams{
		Schedule: quarterlySchedule(t),
		Nominals: []float64{100},
		Caps:     []float64{0.05, 0.001},
		Floors:   []float64{0.01},
	}, m.euribor)
	assert.ErrorIs(t, err, cashflow.ErrCapBelowFloor)

	_, err = cashflow.NewIborLeg(cashflow.LegParams{
		Schedule: quarterlySchedule(t),
		Nominals: []float64{100},
		Gearings: []float64{1, 1, 0},
		Floors:   []float64{0},
	}, m.euribor)
	assert.ErrorIs(t, err, cashflow.ErrNullGearing)

	_, err = cashflow.NewCmsLeg(cashflow.LegParams{
		Schedule: quarterlySchedule(t),
		Nominals: []float64{100},
		Gearings: []float64{1, 0},
	}, m.swap5y)
	assert.ErrorIs(t, err, cashflow.ErrNullGearing)

	assert.Equal(t, iborBefore, m.euribor.Observers())
	assert.Equal(t, swapBefore, m.swap5y.Observers())
	assert.Equal(t, settingsBefore, m.settings.Observers())
}
