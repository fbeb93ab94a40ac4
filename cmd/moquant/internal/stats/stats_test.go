package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/moquant/cmd/moquant/internal/stats"
	"github.com/meenmo/moquant/statistics"
)

func TestSummarise_Scalar(t *testing.T) {
	t.Parallel()

	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i-49) / 1000
	}
	r, err := stats.Summarise(stats.Input{Values: values}, 0.9)
	require.NoError(t, err)

	assert.Equal(t, 100, r.Samples)
	assert.Equal(t, 100.0, r.WeightSum)
	require.NotNil(t, r.ValueAtRisk)
	assert.InDelta(t, 0.04, *r.ValueAtRisk, 1e-15)
	require.NotNil(t, r.ExpectedShortfall)
	assert.InDelta(t, 0.045, *r.ExpectedShortfall, 1e-15)
	require.NotNil(t, r.Shortfall)
	assert.InDelta(t, 0.49, *r.Shortfall, 1e-15)
	require.NotNil(t, r.GaussianValueAtRisk)
	assert.Positive(t, *r.GaussianValueAtRisk)
	require.NotNil(t, r.Median)
	assert.InDelta(t, 0.0, *r.Median, 1e-15)
	assert.Nil(t, r.Skipped)

	require.NotEmpty(t, r.Convergence)
	assert.Equal(t, statistics.ConvergencePoint{Samples: 1, Mean: -0.049}, r.Convergence[0])
	assert.Equal(t, 63, r.Convergence[len(r.Convergence)-1].Samples)
}

func TestSummarise_SkipsUnsupportedMeasures(t *testing.T) {
	t.Parallel()

	r, err := stats.Summarise(stats.Input{Values: []float64{1, 2, 3}, Weights: []float64{1, 1, 2}}, 0.99)
	require.NoError(t, err)

	require.NotNil(t, r.Mean)
	assert.InDelta(t, 2.25, *r.Mean, 1e-15)
	assert.Nil(t, r.Kurtosis)
	assert.Contains(t, r.Skipped, "kurtosis")
	assert.Contains(t, r.Skipped, "average_shortfall")
	assert.Contains(t, r.Skipped, "downside_deviation")
	require.NotNil(t, r.ValueAtRisk)
	assert.Zero(t, *r.ValueAtRisk)
}

func TestSummarise_RejectsBadWeights(t *testing.T) {
	t.Parallel()

	_, err := stats.Summarise(stats.Input{Values: []float64{1, 2}, Weights: []float64{1, -1}}, 0.99)
	assert.ErrorIs(t, err, statistics.ErrNegativeWeight)

	_, err = stats.Summarise(stats.Input{Values: []float64{1, 2}, Weights: []float64{1}}, 0.99)
	assert.ErrorIs(t, err, statistics.ErrDimensionMismatch)
}

func TestSummarise_Vectors(t *testing.T) {
	t.Parallel()

	r, err := stats.Summarise(stats.Input{Vectors: [][]float64{{1, 2}, {2, 4}, {3, 6}}}, 0.99)
	require.NoError(t, err)
	require.Len(t, r.Covariance, 2)
	assert.InDeltaSlice(t, []float64{1, 2}, r.Covariance[0], 1e-12)
	assert.InDeltaSlice(t, []float64{2, 4}, r.Covariance[1], 1e-12)
	assert.InDelta(t, 1, r.Correlation[0][1], 1e-12)

	r, err = stats.Summarise(stats.Input{Vectors: [][]float64{{1, 2}}}, 0.99)
	require.NoError(t, err)
	assert.Nil(t, r.Covariance)
	assert.Contains(t, r.Skipped, "covariance")

	_, err = stats.Summarise(stats.Input{Vectors: [][]float64{{1, 2}, {1}}}, 0.99)
	assert.ErrorIs(t, err, statistics.ErrDimensionMismatch)
}

func TestDecode(t *testing.T) {
	t.Parallel()

	in, err := stats.Decode([]byte("values: [1, 2, 3]\ntarget: 1.5\n"))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, in.Values)
	assert.Equal(t, 1.5, in.Target)

	in, err = stats.Decode([]byte(`{"vectors": [[1, 2], [3, 4]]}`))
	require.NoError(t, err)
	assert.Len(t, in.Vectors, 2)

	_, err = stats.Decode([]byte("target: 1\n"))
	assert.Error(t, err)
}
