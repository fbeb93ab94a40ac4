package statistics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SequenceStatistics accumulates vector samples: per-dimension statistics
// plus the weighted second moment matrix.
type SequenceStatistics struct {
	dim       int
	stats     []*Statistics
	quadratic *mat.SymDense
}

// NewSequenceStatistics returns an accumulator for samples of length dim.
// A zero dim is fixed by the first sample.
func NewSequenceStatistics(dim int) *SequenceStatistics {
	s := &SequenceStatistics{}
	s.reset(dim)
	return s
}

func (s *SequenceStatistics) reset(dim int) {
	s.dim = dim
	s.stats = make([]*Statistics, dim)
	for i := range s.stats {
		s.stats[i] = New()
	}
	s.quadratic = nil
	if dim > 0 {
		s.quadratic = mat.NewSymDense(dim, nil)
	}
}

// Reset drops all samples and keeps the dimension.
func (s *SequenceStatistics) Reset() { s.reset(s.dim) }

// Size returns the sample dimension.
func (s *SequenceStatistics) Size() int { return s.dim }

// Samples returns the number of samples.
func (s *SequenceStatistics) Samples() int {
	if s.dim == 0 {
		return 0
	}
	return s.stats[0].Samples()
}

// WeightSum returns the total weight.
func (s *SequenceStatistics) WeightSum() float64 {
	if s.dim == 0 {
		return 0
	}
	return s.stats[0].WeightSum()
}

// Add accumulates sample with weight.
func (s *SequenceStatistics) Add(sample []float64, weight float64) error {
	if s.dim == 0 {
		if len(sample) == 0 {
			return fmt.Errorf("SequenceStatistics.Add: empty sample: %w", ErrDimensionMismatch)
		}
		s.reset(len(sample))
	}
	if len(sample) != s.dim {
		return fmt.Errorf("SequenceStatistics.Add: length %d, want %d: %w", len(sample), s.dim, ErrDimensionMismatch)
	}
	if weight < 0 {
		return fmt.Errorf("SequenceStatistics.Add: weight %g: %w", weight, ErrNegativeWeight)
	}
	s.quadratic.SymRankOne(s.quadratic, weight, mat.NewVecDense(s.dim, append([]float64(nil), sample...)))
	for i, x := range sample {
		if err := s.stats[i].Add(x, weight); err != nil {
			return err
		}
	}
	return nil
}

// Dimension returns the statistics of the i-th component.
func (s *SequenceStatistics) Dimension(i int) *Statistics { return s.stats[i] }

func (s *SequenceStatistics) each(f func(*Statistics) (float64, error)) ([]float64, error) {
	out := make([]float64, s.dim)
	for i, st := range s.stats {
		v, err := f(st)
		if err != nil {
			return nil, fmt.Errorf("dimension %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (s *SequenceStatistics) Mean() ([]float64, error) {
	return s.each((*Statistics).Mean)
}

func (s *SequenceStatistics) Variance() ([]float64, error) {
	return s.each((*Statistics).Variance)
}

func (s *SequenceStatistics) StandardDeviation() ([]float64, error) {
	return s.each((*Statistics).StandardDeviation)
}

func (s *SequenceStatistics) Min() ([]float64, error) {
	return s.each((*Statistics).Min)
}

func (s *SequenceStatistics) Max() ([]float64, error) {
	return s.each((*Statistics).Max)
}

func (s *SequenceStatistics) Percentile(y float64) ([]float64, error) {
	return s.each(func(st *Statistics) (float64, error) { return st.Percentile(y) })
}

func (s *SequenceStatistics) ValueAtRisk(centile float64) ([]float64, error) {
	return s.each(func(st *Statistics) (float64, error) { return st.ValueAtRisk(centile) })
}

// Covariance is N/(N-1) * (Q/W - m m^T) with Q the weighted sum of outer
// products, W the total weight and m the mean vector.
func (s *SequenceStatistics) Covariance() (*mat.SymDense, error) {
	w := s.WeightSum()
	if w <= 0 {
		return nil, fmt.Errorf("Covariance: total weight %g: %w", w, ErrInsufficientSamples)
	}
	n := float64(s.Samples())
	if n <= 1 {
		return nil, fmt.Errorf("Covariance: %d samples: %w", s.Samples(), ErrInsufficientSamples)
	}
	m, err := s.Mean()
	if err != nil {
		return nil, err
	}
	cov := mat.NewSymDense(s.dim, nil)
	cov.ScaleSym(1/w, s.quadratic)
	cov.SymRankOne(cov, -1, mat.NewVecDense(s.dim, m))
	cov.ScaleSym(n/(n-1), cov)
	return cov, nil
}

// Correlation normalises the covariance by the standard deviations. A
// dimension with zero variance is perfectly correlated with itself and
// with other constant dimensions, and uncorrelated with the rest.
func (s *SequenceStatistics) Correlation() (*mat.SymDense, error) {
	cov, err := s.Covariance()
	if err != nil {
		return nil, err
	}
	corr := mat.NewSymDense(s.dim, nil)
	for i := 0; i < s.dim; i++ {
		for j := i; j < s.dim; j++ {
			vi, vj := cov.At(i, i), cov.At(j, j)
			var c float64
			switch {
			case vi == 0 && vj == 0:
				c = 1
			case vi == 0 || vj == 0:
				c = 0
			default:
				c = cov.At(i, j) / math.Sqrt(vi*vj)
			}
			corr.SetSym(i, j, c)
		}
	}
	return corr, nil
}
