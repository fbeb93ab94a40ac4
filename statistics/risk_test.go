package statistics_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/moquant/statistics"
)

// returns is the grid -0.049, -0.048, ..., 0.050.
func returns(t *testing.T) *statistics.Statistics {
	t.Helper()
	s := statistics.New()
	for i := 1; i <= 100; i++ {
		require.NoError(t, s.Add(float64(i-50)/1000, 1))
	}
	return s
}

func TestRiskStatistics_TailMeasures(t *testing.T) {
	t.Parallel()

	s := returns(t)

	v, err := s.ValueAtRisk(0.9)
	require.NoError(t, err)
	assert.InDelta(t, 0.04, v, 1e-15)

	es, err := s.ExpectedShortfall(0.9)
	require.NoError(t, err)
	assert.InDelta(t, 0.045, es, 1e-15)
	assert.GreaterOrEqual(t, es, v)

	up, err := s.PotentialUpside(0.9)
	require.NoError(t, err)
	assert.InDelta(t, 0.04, up, 1e-15)
}

func TestRiskStatistics_BelowTarget(t *testing.T) {
	t.Parallel()

	s := returns(t)

	p, err := s.Shortfall(0)
	require.NoError(t, err)
	assert.InDelta(t, 0.49, p, 1e-15)

	avg, err := s.AverageShortfall(0)
	require.NoError(t, err)
	assert.InDelta(t, 0.025, avg, 1e-15)

	dv, err := s.DownsideVariance()
	require.NoError(t, err)
	assert.InDelta(t, 0.0008421875, dv, 1e-15)

	dd, err := s.DownsideDeviation()
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(0.0008421875), dd, 1e-15)

	sv, err := s.SemiVariance()
	require.NoError(t, err)
	mean, err := s.Mean()
	require.NoError(t, err)
	regret, err := s.Regret(mean)
	require.NoError(t, err)
	assert.Equal(t, regret, sv)
}

func TestRiskStatistics_Errors(t *testing.T) {
	t.Parallel()

	s := returns(t)

	_, err := s.Regret(-1)
	assert.ErrorIs(t, err, statistics.ErrInsufficientSamplesUnderTarget)
	_, err = s.Regret(-0.048)
	assert.ErrorIs(t, err, statistics.ErrInsufficientSamplesUnderTarget)

	_, err = s.AverageShortfall(-1)
	assert.ErrorIs(t, err, statistics.ErrNoDataBelowTarget)

	for _, c := range []float64{0.85, 1} {
		_, err = s.ValueAtRisk(c)
		assert.ErrorIs(t, err, statistics.ErrPercentileOutOfRange, "VaR(%g)", c)
		_, err = s.ExpectedShortfall(c)
		assert.ErrorIs(t, err, statistics.ErrPercentileOutOfRange, "ES(%g)", c)
		_, err = s.PotentialUpside(c)
		assert.ErrorIs(t, err, statistics.ErrPercentileOutOfRange, "upside(%g)", c)
	}

	_, err = statistics.New().Shortfall(0)
	assert.ErrorIs(t, err, statistics.ErrEmptySampleSet)
}

func TestRiskStatistics_GainsOnlyHaveNoLoss(t *testing.T) {
	t.Parallel()

	s := statistics.New()
	s.AddSequence([]float64{0.01, 0.02, 0.03, 0.04, 0.05, 0.06, 0.07, 0.08, 0.09, 0.10})

	v, err := s.ValueAtRisk(0.95)
	require.NoError(t, err)
	assert.Zero(t, v)

	p, err := s.Shortfall(0)
	require.NoError(t, err)
	assert.Zero(t, p)
}
