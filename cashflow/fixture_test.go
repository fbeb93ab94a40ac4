package cashflow_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meenmo/moquant/calendar"
	"github.com/meenmo/moquant/cashflow"
	"github.com/meenmo/moquant/daycount"
	"github.com/meenmo/moquant/index"
	"github.com/meenmo/moquant/quote"
	"github.com/meenmo/moquant/settings"
	"github.com/meenmo/moquant/termstructure"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var evalDate = date(2024, time.March, 15)

type market struct {
	settings *settings.Settings
	curve    *termstructure.DiscountCurve
	euribor  *index.IborIndex
	swap5y   *index.SwapIndex

	capletQuote   *quote.SimpleQuote
	capletVol     *termstructure.ConstantOptionletVolatility
	swaptionQuote *quote.SimpleQuote
	swaptionVol   *termstructure.ConstantSwaptionVolatility
}

func newMarket(t *testing.T) *market {
	t.Helper()
	m := &market{settings: settings.New(evalDate)}

	curve, err := termstructure.NewDiscountCurve(evalDate, map[time.Time]float64{
		date(2024, time.May, 1):    0.99,
		date(2025, time.March, 17): 0.965,
		date(2029, time.March, 15): 0.86,
	}, daycount.Actual365Fixed{})
	require.NoError(t, err)
	m.curve = curve

	m.euribor, err = index.NewEuribor(calendar.Period{N: 3, Unit: calendar.Months}, curve, m.settings)
	require.NoError(t, err)
	m.swap5y, err = index.NewEuriborSwapIsdaFixA(calendar.Period{N: 5, Unit: calendar.Years}, m.euribor, nil)
	require.NoError(t, err)

	m.capletQuote = quote.NewSimpleQuote(0.20)
	m.capletVol = termstructure.NewConstantOptionletVolatility(evalDate, m.capletQuote, daycount.Actual365Fixed{})
	m.swaptionQuote = quote.NewSimpleQuote(0.25)
	m.swaptionVol = termstructure.NewConstantSwaptionVolatility(evalDate, m.swaptionQuote, daycount.Actual365Fixed{})
	return m
}

func floatingParams(start, end time.Time, gearing, spread float64) cashflow.FloatingParams {
	return cashflow.FloatingParams{
		CouponParams: cashflow.CouponParams{
			PaymentDate:  end,
			AccrualStart: start,
			AccrualEnd:   end,
			Nominal:      1,
		},
		Gearing: gearing,
		Spread:  spread,
	}
}

// seasonedCoupon accrues 2024-02-01 to 2024-05-01, 90 days on Actual/360,
// and fixed on 2024-01-30 at 3%.
func (m *market) seasonedCoupon(t *testing.T, gearing, spread float64) *cashflow.IborCoupon {
	t.Helper()
	require.NoError(t, m.euribor.AddFixing(date(2024, time.January, 30), 0.03, true))
	c, err := cashflow.NewIborCoupon(floatingParams(date(2024, time.February, 1), date(2024, time.May, 1), gearing, spread), m.euribor)
	require.NoError(t, err)
	return c
}

// forwardCoupon accrues 2024-06-03 to 2024-09-03 and fixes on 2024-05-30.
func (m *market) forwardCoupon(t *testing.T, gearing, spread float64, inArrears bool) *cashflow.IborCoupon {
	t.Helper()
	p := floatingParams(date(2024, time.June, 3), date(2024, time.September, 3), gearing, spread)
	p.InArrears = inArrears
	c, err := cashflow.NewIborCoupon(p, m.euribor)
	require.NoError(t, err)
	return c
}

// cmsCoupon accrues a year from 2024-06-03 on the 5Y swap rate.
func (m *market) cmsCoupon(t *testing.T, gearing, spread float64) *cashflow.CmsCoupon {
	t.Helper()
	c, err := cashflow.NewCmsCoupon(floatingParams(date(2024, time.June, 3), date(2025, time.June, 3), gearing, spread), m.swap5y)
	require.NoError(t, err)
	return c
}
