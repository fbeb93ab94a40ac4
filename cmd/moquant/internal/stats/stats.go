// Package stats summarises weighted samples with the statistics engine.
package stats

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/meenmo/moquant/statistics"
)

// Input holds scalar samples with optional weights, and optionally vector
// samples for covariance and correlation.
type Input struct {
	Values  []float64   `yaml:"values"`
	Weights []float64   `yaml:"weights"`
	Vectors [][]float64 `yaml:"vectors"`

	// Target is the threshold of the shortfall measures, zero by default.
	Target float64 `yaml:"target"`
}

// Decode parses a YAML or JSON Input.
func Decode(data []byte) (Input, error) {
	var in Input
	if err := yaml.Unmarshal(data, &in); err != nil {
		return Input{}, fmt.Errorf("Decode: %w", err)
	}
	if len(in.Values) == 0 && len(in.Vectors) == 0 {
		return Input{}, fmt.Errorf("Decode: no samples")
	}
	return in, nil
}

// Report is the summary of an Input. Measures the sample set cannot
// support are left out and explained in Skipped.
type Report struct {
	Samples   int     `json:"samples"`
	WeightSum float64 `json:"weight_sum"`

	Mean              *float64 `json:"mean,omitempty"`
	Variance          *float64 `json:"variance,omitempty"`
	StandardDeviation *float64 `json:"standard_deviation,omitempty"`
	ErrorEstimate     *float64 `json:"error_estimate,omitempty"`
	Skewness          *float64 `json:"skewness,omitempty"`
	Kurtosis          *float64 `json:"kurtosis,omitempty"`
	Min               *float64 `json:"min,omitempty"`
	Max               *float64 `json:"max,omitempty"`
	Median            *float64 `json:"median,omitempty"`

	Confidence          float64  `json:"confidence"`
	ValueAtRisk         *float64 `json:"value_at_risk,omitempty"`
	ExpectedShortfall   *float64 `json:"expected_shortfall,omitempty"`
	GaussianValueAtRisk *float64 `json:"gaussian_value_at_risk,omitempty"`
	GaussianShortfall   *float64 `json:"gaussian_expected_shortfall,omitempty"`
	Shortfall           *float64 `json:"shortfall,omitempty"`
	AverageShortfall    *float64 `json:"average_shortfall,omitempty"`
	DownsideDeviation   *float64 `json:"downside_deviation,omitempty"`

	Convergence []statistics.ConvergencePoint `json:"convergence,omitempty"`

	Covariance  [][]float64 `json:"covariance,omitempty"`
	Correlation [][]float64 `json:"correlation,omitempty"`

	Skipped map[string]string `json:"skipped,omitempty"`
}

// Summarise computes the report of in at the given VaR confidence.
func Summarise(in Input, confidence float64) (*Report, error) {
	r := &Report{Confidence: confidence, Skipped: make(map[string]string)}

	if len(in.Values) > 0 {
		if err := r.scalar(in, confidence); err != nil {
			return nil, err
		}
	}
	if len(in.Vectors) > 0 {
		if err := r.vector(in.Vectors); err != nil {
			return nil, err
		}
	}
	if len(r.Skipped) == 0 {
		r.Skipped = nil
	}
	return r, nil
}

func (r *Report) scalar(in Input, confidence float64) error {
	weights := in.Weights
	if len(weights) == 0 {
		weights = make([]float64, len(in.Values))
		for i := range weights {
			weights[i] = 1
		}
	}

	s := statistics.New()
	if err := s.AddWeightedSequence(in.Values, weights); err != nil {
		return err
	}
	conv := statistics.NewConvergenceStatistics(statistics.NewIncrementalStatistics(), nil)
	for i, v := range in.Values {
		if err := conv.Add(v, weights[i]); err != nil {
			return err
		}
	}

	r.Samples = s.Samples()
	r.WeightSum = s.WeightSum()
	r.Convergence = conv.ConvergenceTable()

	median := func() (float64, error) { return s.Percentile(0.5) }
	measures := []struct {
		name string
		dst  **float64
		f    func() (float64, error)
	}{
		{"mean", &r.Mean, s.Mean},
		{"variance", &r.Variance, s.Variance},
		{"standard_deviation", &r.StandardDeviation, s.StandardDeviation},
		{"error_estimate", &r.ErrorEstimate, s.ErrorEstimate},
		{"skewness", &r.Skewness, s.Skewness},
		{"kurtosis", &r.Kurtosis, s.Kurtosis},
		{"min", &r.Min, s.Min},
		{"max", &r.Max, s.Max},
		{"median", &r.Median, median},
		{"value_at_risk", &r.ValueAtRisk, func() (float64, error) { return s.ValueAtRisk(confidence) }},
		{"expected_shortfall", &r.ExpectedShortfall, func() (float64, error) { return s.ExpectedShortfall(confidence) }},
		{"gaussian_value_at_risk", &r.GaussianValueAtRisk, func() (float64, error) { return s.GaussianValueAtRisk(confidence) }},
		{"gaussian_expected_shortfall", &r.GaussianShortfall, func() (float64, error) { return s.GaussianExpectedShortfall(confidence) }},
		{"shortfall", &r.Shortfall, func() (float64, error) { return s.Shortfall(in.Target) }},
		{"average_shortfall", &r.AverageShortfall, func() (float64, error) { return s.AverageShortfall(in.Target) }},
		{"downside_deviation", &r.DownsideDeviation, s.DownsideDeviation},
	}
	for _, m := range measures {
		v, err := m.f()
		switch {
		case err == nil:
			*m.dst = &v
		case errors.Is(err, statistics.ErrNegativeWeight), errors.Is(err, statistics.ErrDimensionMismatch):
			return err
		default:
			r.Skipped[m.name] = err.Error()
		}
	}
	return nil
}

func (r *Report) vector(vectors [][]float64) error {
	seq := statistics.NewSequenceStatistics(0)
	for i, v := range vectors {
		if err := seq.Add(v, 1); err != nil {
			return fmt.Errorf("vector %d: %w", i, err)
		}
	}
	cov, err := seq.Covariance()
	if err != nil {
		r.Skipped["covariance"] = err.Error()
		return nil
	}
	corr, err := seq.Correlation()
	if err != nil {
		r.Skipped["correlation"] = err.Error()
		return nil
	}
	n := seq.Size()
	r.Covariance = make([][]float64, n)
	r.Correlation = make([][]float64, n)
	for i := 0; i < n; i++ {
		r.Covariance[i] = make([]float64, n)
		r.Correlation[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			r.Covariance[i][j] = cov.At(i, j)
			r.Correlation[i][j] = corr.At(i, j)
		}
	}
	return nil
}
