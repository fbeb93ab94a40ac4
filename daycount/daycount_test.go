package daycount_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/moquant/daycount"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestYearFractions(t *testing.T) {
	t.Parallel()

	start := date(2024, time.January, 31)
	end := date(2024, time.March, 31)
	var zero time.Time

	cases := []struct {
		dc   daycount.DayCounter
		days int
		yf   float64
	}{
		{daycount.Actual360{}, 60, 60.0 / 360},
		{daycount.Actual365Fixed{}, 60, 60.0 / 365},
		{daycount.Thirty360{}, 60, 60.0 / 360},
		{daycount.Thirty360E{}, 60, 60.0 / 360},
		{daycount.ActualActualISDA{}, 60, 60.0 / 366},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.days, tc.dc.DayCount(start, end), tc.dc.Name())
		assert.InDelta(t, tc.yf, tc.dc.YearFraction(start, end, zero, zero), 1e-15, tc.dc.Name())
	}
}

func TestThirty360EndOfMonthRules(t *testing.T) {
	t.Parallel()

	start := date(2024, time.February, 15)
	end := date(2024, time.March, 31)
	assert.Equal(t, 46, daycount.Thirty360{}.DayCount(start, end))
	assert.Equal(t, 45, daycount.Thirty360E{}.DayCount(start, end))
}

func TestActualActualISDASpansYears(t *testing.T) {
	t.Parallel()

	var zero time.Time
	yf := daycount.ActualActualISDA{}.YearFraction(date(2023, time.July, 1), date(2024, time.July, 1), zero, zero)
	assert.InDelta(t, 184.0/365+182.0/366, yf, 1e-15)
}

func TestParse(t *testing.T) {
	t.Parallel()

	dc, err := daycount.Parse("act/360")
	require.NoError(t, err)
	assert.Equal(t, "Actual/360", dc.Name())

	dc, err = daycount.Parse("Actual/365 (Fixed)")
	require.NoError(t, err)
	assert.Equal(t, daycount.Actual365Fixed{}, dc)

	_, err = daycount.Parse("BUS/252")
	assert.Error(t, err)
}
