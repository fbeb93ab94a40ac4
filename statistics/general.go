package statistics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Sample is a value with its weight.
type Sample struct {
	Value  float64
	Weight float64
}

// GeneralStatistics stores every sample, so it gives percentiles and
// avoids the cancellation of running sums. Samples are sorted lazily.
type GeneralStatistics struct {
	values  []float64
	weights []float64
	sorted  bool
}

// NewGeneralStatistics returns an empty sample set.
func NewGeneralStatistics() *GeneralStatistics {
	return &GeneralStatistics{sorted: true}
}

// Add appends value with weight. Negative weights fail with ErrNegativeWeight.
func (s *GeneralStatistics) Add(value, weight float64) error {
	if weight < 0 {
		return fmt.Errorf("Add: weight %g: %w", weight, ErrNegativeWeight)
	}
	s.values = append(s.values, value)
	s.weights = append(s.weights, weight)
	s.sorted = false
	return nil
}

// AddSequence adds every value with unit weight.
func (s *GeneralStatistics) AddSequence(values []float64) {
	for _, v := range values {
		s.values = append(s.values, v)
		s.weights = append(s.weights, 1)
	}
	if len(values) > 0 {
		s.sorted = false
	}
}

// AddWeightedSequence adds values[i] with weights[i]. Nothing is added when
// the lengths differ or a weight is negative.
func (s *GeneralStatistics) AddWeightedSequence(values, weights []float64) error {
	if len(values) != len(weights) {
		return fmt.Errorf("AddWeightedSequence: %d values, %d weights: %w", len(values), len(weights), ErrDimensionMismatch)
	}
	for i, w := range weights {
		if w < 0 {
			return fmt.Errorf("AddWeightedSequence: weight %d is %g: %w", i, w, ErrNegativeWeight)
		}
	}
	for i := range values {
		if err := s.Add(values[i], weights[i]); err != nil {
			return err
		}
	}
	return nil
}

// Samples returns the number of samples.
func (s *GeneralStatistics) Samples() int { return len(s.values) }

// Data returns a copy of the samples in their current order.
func (s *GeneralStatistics) Data() []Sample {
	out := make([]Sample, len(s.values))
	for i := range s.values {
		out[i] = Sample{Value: s.values[i], Weight: s.weights[i]}
	}
	return out
}

// WeightSum returns the total weight.
func (s *GeneralStatistics) WeightSum() float64 { return floats.Sum(s.weights) }

// Reset drops all samples.
func (s *GeneralStatistics) Reset() {
	s.values = s.values[:0]
	s.weights = s.weights[:0]
	s.sorted = true
}

// Sort orders the samples by value.
func (s *GeneralStatistics) Sort() {
	if s.sorted {
		return
	}
	stat.SortWeighted(s.values, s.weights)
	s.sorted = true
}

func (s *GeneralStatistics) ExpectationValue(f func(float64) float64, inRange func(float64) bool) (float64, int) {
	var num, den float64
	n := 0
	for i, x := range s.values {
		if inRange(x) {
			w := s.weights[i]
			num += f(x) * w
			den += w
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return num / den, n
}

// Mean is the weighted average sum(w*x) / sum(w).
func (s *GeneralStatistics) Mean() (float64, error) {
	if len(s.values) == 0 {
		return 0, fmt.Errorf("Mean: %w", ErrEmptySampleSet)
	}
	m, _ := s.ExpectationValue(identity, Everywhere)
	return m, nil
}

// Variance is N/(N-1) * E[(x - mean)^2]. A single sample gives NaN.
func (s *GeneralStatistics) Variance() (float64, error) {
	m, err := s.Mean()
	if err != nil {
		return 0, fmt.Errorf("Variance: %w", ErrInsufficientSamples)
	}
	n := float64(len(s.values))
	e, _ := s.ExpectationValue(func(x float64) float64 { return (x - m) * (x - m) }, Everywhere)
	return n / (n - 1) * e, nil
}

// StandardDeviation is the square root of Variance.
func (s *GeneralStatistics) StandardDeviation() (float64, error) {
	v, err := s.Variance()
	if err != nil {
		return 0, err
	}
	return math.Sqrt(v), nil
}

// ErrorEstimate is the standard error of the mean, sqrt(variance / N).
func (s *GeneralStatistics) ErrorEstimate() (float64, error) {
	v, err := s.Variance()
	if err != nil {
		return 0, err
	}
	return math.Sqrt(v / float64(len(s.values))), nil
}

// Skewness is N^2/((N-1)(N-2)) * E[(x - mean)^3] / sigma^3. It needs more
// than two samples and is zero for a constant sample set.
func (s *GeneralStatistics) Skewness() (float64, error) {
	n := float64(len(s.values))
	if n <= 2 {
		return 0, fmt.Errorf("Skewness: %d samples: %w", len(s.values), ErrInsufficientSamples)
	}
	sigma, err := s.StandardDeviation()
	if err != nil {
		return 0, err
	}
	if sigma == 0 {
		return 0, nil
	}
	m, _ := s.Mean()
	x, _ := s.ExpectationValue(func(x float64) float64 { return math.Pow(x-m, 3) }, Everywhere)
	return n / (n - 1) * (n / (n - 2)) * x / (sigma * sigma * sigma), nil
}

// Kurtosis is the excess kurtosis
// N^2(N+1)/((N-1)(N-2)(N-3)) * E[(x - mean)^4] / sigma^4 - 3(N-1)^2/((N-2)(N-3)).
// It needs more than three samples. A constant sample set returns the
// second term's constant.
func (s *GeneralStatistics) Kurtosis() (float64, error) {
	n := float64(len(s.values))
	if n <= 3 {
		return 0, fmt.Errorf("Kurtosis: %d samples: %w", len(s.values), ErrInsufficientSamples)
	}
	v, err := s.Variance()
	if err != nil {
		return 0, err
	}
	c0 := kurtosisConstant(n)
	if v == 0 {
		return c0, nil
	}
	m, _ := s.Mean()
	x, _ := s.ExpectationValue(func(x float64) float64 { return math.Pow(x-m, 4) }, Everywhere)
	c1 := n / (n - 1) * (n / (n - 2)) * ((n + 1) / (n - 3))
	return c1*x/(v*v) - c0, nil
}

func kurtosisConstant(n float64) float64 {
	return 3 * ((n - 1) / (n - 2)) * ((n - 1) / (n - 3))
}

// Min returns the smallest value. Like Max it needs at least two samples.
func (s *GeneralStatistics) Min() (float64, error) {
	if len(s.values) <= 1 {
		return 0, fmt.Errorf("Min: %d samples: %w", len(s.values), ErrInsufficientSamples)
	}
	return floats.Min(s.values), nil
}

// Max returns the largest value.
func (s *GeneralStatistics) Max() (float64, error) {
	if len(s.values) <= 1 {
		return 0, fmt.Errorf("Max: %d samples: %w", len(s.values), ErrInsufficientSamples)
	}
	return floats.Max(s.values), nil
}

// Percentile returns the smallest sorted value at which the cumulative
// weight reaches y times the total weight, y in (0, 1].
func (s *GeneralStatistics) Percentile(y float64) (float64, error) {
	total, err := s.percentileTarget("Percentile", y)
	if err != nil {
		return 0, err
	}
	last := len(s.values) - 1
	k := 0
	integral := s.weights[k]
	for integral < y*total && k != last {
		k++
		integral += s.weights[k]
	}
	return s.values[k], nil
}

// TopPercentile accumulates weight from the largest value down and returns
// the value at which it reaches y times the total weight, y in (0, 1].
func (s *GeneralStatistics) TopPercentile(y float64) (float64, error) {
	total, err := s.percentileTarget("TopPercentile", y)
	if err != nil {
		return 0, err
	}
	k := len(s.values) - 1
	integral := s.weights[k]
	for integral < y*total && k != 0 {
		k--
		integral += s.weights[k]
	}
	return s.values[k], nil
}

func (s *GeneralStatistics) percentileTarget(op string, y float64) (float64, error) {
	if !(y > 0 && y <= 1) {
		return 0, fmt.Errorf("%s: %g not in (0, 1]: %w", op, y, ErrPercentileOutOfRange)
	}
	total := s.WeightSum()
	if len(s.values) == 0 || total <= 0 {
		return 0, fmt.Errorf("%s: %w", op, ErrEmptySampleSet)
	}
	s.Sort()
	return total, nil
}
