package cashflow_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/moquant/cashflow"
	"github.com/meenmo/moquant/daycount"
	"github.com/meenmo/moquant/settings"
)

func TestHasOccurred(t *testing.T) {
	t.Parallel()

	ref := date(2024, time.March, 15)
	tests := []struct {
		name    string
		date    time.Time
		include bool
		want    bool
	}{
		{"before", date(2024, time.March, 14), false, true},
		{"before including ref", date(2024, time.March, 14), true, true},
		{"on ref", ref, false, true},
		{"on ref including ref", ref, true, false},
		{"after", date(2024, time.March, 18), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cashflow.HasOccurred(tt.date, ref, tt.include))
		})
	}
}

func TestSimpleCashFlow_HasOccurredReadsLiveSettings(t *testing.T) {
	t.Parallel()

	s := settings.New(evalDate)
	cf := cashflow.NewSimpleCashFlow(100, evalDate, s)

	assert.True(t, cf.HasOccurred(time.Time{}))
	s.SetIncludeTodaysPayments(true)
	assert.False(t, cf.HasOccurred(time.Time{}))

	s.SetEvaluationDate(date(2024, time.March, 18))
	assert.True(t, cf.HasOccurred(time.Time{}))
	assert.False(t, cf.HasOccurred(date(2024, time.March, 1)))

	a, err := cf.Amount()
	require.NoError(t, err)
	assert.Equal(t, 100.0, a)
}

func fixedParams(s *settings.Settings) cashflow.CouponParams {
	return cashflow.CouponParams{
		PaymentDate:  date(2024, time.May, 1),
		AccrualStart: date(2024, time.February, 1),
		AccrualEnd:   date(2024, time.May, 1),
		Nominal:      100,
		DayCounter:   daycount.Actual360{},
		Settings:     s,
	}
}

func TestFixedRateCoupon(t *testing.T) {
	t.Parallel()

	c, err := cashflow.NewFixedRateCoupon(fixedParams(settings.New(evalDate)), 0.05)
	require.NoError(t, err)

	assert.Equal(t, 90, c.AccrualDays())
	assert.InDelta(t, 0.25, c.AccrualPeriod(), 1e-15)
	assert.Equal(t, c.AccrualPeriod(), c.AccrualPeriod())
	assert.Equal(t, c.AccrualStartDate(), c.ReferencePeriodStart())
	assert.Equal(t, c.AccrualEndDate(), c.ReferencePeriodEnd())

	a, err := c.Amount()
	require.NoError(t, err)
	assert.InDelta(t, 1.25, a, 1e-12)

	accrued, err := c.AccruedAmount(date(2024, time.March, 2))
	require.NoError(t, err)
	assert.InDelta(t, 100*0.05*30.0/360, accrued, 1e-12)

	for _, d := range []time.Time{date(2024, time.February, 1), date(2024, time.May, 2)} {
		accrued, err := c.AccruedAmount(d)
		require.NoError(t, err)
		assert.Zero(t, accrued, d)
	}
}

func TestNewFixedRateCoupon_Validation(t *testing.T) {
	t.Parallel()

	s := settings.New(evalDate)

	p := fixedParams(s)
	p.AccrualEnd = date(2024, time.January, 1)
	_, err := cashflow.NewFixedRateCoupon(p, 0.05)
	assert.ErrorIs(t, err, cashflow.ErrInvalidCoupon)

	p = fixedParams(s)
	p.DayCounter = nil
	_, err = cashflow.NewFixedRateCoupon(p, 0.05)
	assert.ErrorIs(t, err, cashflow.ErrInvalidCoupon)

	p = fixedParams(nil)
	_, err = cashflow.NewFixedRateCoupon(p, 0.05)
	assert.ErrorIs(t, err, cashflow.ErrInvalidCoupon)
}
