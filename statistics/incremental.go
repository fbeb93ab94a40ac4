package statistics

import (
	"fmt"
	"math"
)

// IncrementalStatistics keeps running power sums instead of samples. It
// uses constant memory but offers no percentiles, and the moments lose
// precision when the mean is large relative to the spread.
type IncrementalStatistics struct {
	n, downsideN       int
	weight             float64
	downsideWeight     float64
	sum, quadraticSum  float64
	downsideQuadratic  float64
	cubicSum, quartSum float64
	min, max           float64
}

// NewIncrementalStatistics returns an empty accumulator.
func NewIncrementalStatistics() *IncrementalStatistics {
	s := &IncrementalStatistics{}
	s.Reset()
	return s
}

// Add accumulates value with weight. Negative weights fail with ErrNegativeWeight.
func (s *IncrementalStatistics) Add(value, weight float64) error {
	if weight < 0 {
		return fmt.Errorf("Add: weight %g: %w", weight, ErrNegativeWeight)
	}
	if s.n == 0 {
		s.min, s.max = value, value
	} else {
		s.min = math.Min(s.min, value)
		s.max = math.Max(s.max, value)
	}
	s.n++
	s.weight += weight

	t := weight * value
	s.sum += t
	t *= value
	s.quadraticSum += t
	if value < 0 {
		s.downsideQuadratic += t
		s.downsideN++
		s.downsideWeight += weight
	}
	t *= value
	s.cubicSum += t
	t *= value
	s.quartSum += t
	return nil
}

// AddSequence adds every value with unit weight.
func (s *IncrementalStatistics) AddSequence(values []float64) {
	for _, v := range values {
		_ = s.Add(v, 1)
	}
}

// AddWeightedSequence adds values[i] with weights[i], stopping at the first
// negative weight.
func (s *IncrementalStatistics) AddWeightedSequence(values, weights []float64) error {
	if len(values) != len(weights) {
		return fmt.Errorf("AddWeightedSequence: %d values, %d weights: %w", len(values), len(weights), ErrDimensionMismatch)
	}
	for i := range values {
		if err := s.Add(values[i], weights[i]); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears the sums.
func (s *IncrementalStatistics) Reset() {
	*s = IncrementalStatistics{min: math.MaxFloat64, max: -math.MaxFloat64}
}

func (s *IncrementalStatistics) Samples() int       { return s.n }
func (s *IncrementalStatistics) WeightSum() float64 { return s.weight }

func (s *IncrementalStatistics) Mean() (float64, error) {
	if s.weight <= 0 {
		return 0, fmt.Errorf("Mean: total weight %g: %w", s.weight, ErrInsufficientSamples)
	}
	return s.sum / s.weight, nil
}

// Variance is N/(N-1) * (sum(w*x^2)/W - mean^2). Round-off below zero is
// floored at zero.
func (s *IncrementalStatistics) Variance() (float64, error) {
	m, err := s.Mean()
	if err != nil {
		return 0, err
	}
	if s.n <= 1 {
		return 0, fmt.Errorf("Variance: %d samples: %w", s.n, ErrInsufficientSamples)
	}
	n := float64(s.n)
	v := (s.quadraticSum/s.weight - m*m) * n / (n - 1)
	return math.Max(v, 0), nil
}

func (s *IncrementalStatistics) StandardDeviation() (float64, error) {
	v, err := s.Variance()
	if err != nil {
		return 0, err
	}
	return math.Sqrt(v), nil
}

// ErrorEstimate is sqrt(variance / N).
func (s *IncrementalStatistics) ErrorEstimate() (float64, error) {
	v, err := s.Variance()
	if err != nil {
		return 0, err
	}
	return math.Sqrt(v / float64(s.n)), nil
}

// Skewness needs more than two samples and is zero for zero variance.
func (s *IncrementalStatistics) Skewness() (float64, error) {
	if s.n <= 2 {
		return 0, fmt.Errorf("Skewness: %d samples: %w", s.n, ErrInsufficientSamples)
	}
	sigma, err := s.StandardDeviation()
	if err != nil {
		return 0, err
	}
	if sigma == 0 {
		return 0, nil
	}
	m, _ := s.Mean()
	w := s.weight
	r := s.cubicSum/w - 3*m*(s.quadraticSum/w) + 2*m*m*m
	n := float64(s.n)
	return r / (sigma * sigma * sigma) * (n / (n - 1)) * (n / (n - 2)), nil
}

// Kurtosis is the excess kurtosis. It needs more than three samples; zero
// variance returns 3(N-1)^2/((N-2)(N-3)).
func (s *IncrementalStatistics) Kurtosis() (float64, error) {
	if s.n <= 3 {
		return 0, fmt.Errorf("Kurtosis: %d samples: %w", s.n, ErrInsufficientSamples)
	}
	v, err := s.Variance()
	if err != nil {
		return 0, err
	}
	n := float64(s.n)
	c := kurtosisConstant(n)
	if v == 0 {
		return c, nil
	}
	m, _ := s.Mean()
	w := s.weight
	r := s.quartSum/w - 4*m*(s.cubicSum/w) + 6*m*m*(s.quadraticSum/w) - 3*m*m*m*m
	r /= v * v
	r *= (n / (n - 1)) * (n / (n - 2)) * ((n + 1) / (n - 3))
	return r - c, nil
}

func (s *IncrementalStatistics) Min() (float64, error) {
	if s.n == 0 {
		return 0, fmt.Errorf("Min: %w", ErrEmptySampleSet)
	}
	return s.min, nil
}

func (s *IncrementalStatistics) Max() (float64, error) {
	if s.n == 0 {
		return 0, fmt.Errorf("Max: %w", ErrEmptySampleSet)
	}
	return s.max, nil
}

// DownsideVariance is N/(N-1) * E[x^2 | x < 0] over the negative samples,
// zero when there are none.
func (s *IncrementalStatistics) DownsideVariance() (float64, error) {
	if s.downsideWeight == 0 {
		if s.weight <= 0 {
			return 0, fmt.Errorf("DownsideVariance: %w", ErrInsufficientSamples)
		}
		return 0, nil
	}
	if s.downsideN <= 1 {
		return 0, fmt.Errorf("DownsideVariance: %d samples below zero: %w", s.downsideN, ErrInsufficientSamples)
	}
	n := float64(s.downsideN)
	return n / (n - 1) * (s.downsideQuadratic / s.downsideWeight), nil
}

func (s *IncrementalStatistics) DownsideDeviation() (float64, error) {
	v, err := s.DownsideVariance()
	if err != nil {
		return 0, err
	}
	return math.Sqrt(v), nil
}
