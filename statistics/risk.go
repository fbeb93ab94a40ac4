package statistics

import (
	"fmt"
	"math"
)

// RiskStatistics derives empirical risk measures from a sample set. Losses
// are reported as positive numbers.
type RiskStatistics struct {
	stats Empirical
}

// NewRiskStatistics returns risk measures over e.
func NewRiskStatistics(e Empirical) *RiskStatistics {
	return &RiskStatistics{stats: e}
}

// Regret is N/(N-1) * E[(x - target)^2 | x < target]. It needs at least two
// samples below target.
func (r *RiskStatistics) Regret(target float64) (float64, error) {
	x, n := r.stats.ExpectationValue(func(x float64) float64 {
		d := x - target
		return d * d
	}, Below(target))
	if n < 2 {
		return 0, fmt.Errorf("Regret: %d samples below %g: %w", n, target, ErrInsufficientSamplesUnderTarget)
	}
	fn := float64(n)
	return fn / (fn - 1) * x, nil
}

// SemiVariance is the regret below the mean.
func (r *RiskStatistics) SemiVariance() (float64, error) {
	m, err := r.stats.Mean()
	if err != nil {
		return 0, err
	}
	return r.Regret(m)
}

func (r *RiskStatistics) SemiDeviation() (float64, error) {
	return sqrtOf(r.SemiVariance())
}

// DownsideVariance is the regret below zero.
func (r *RiskStatistics) DownsideVariance() (float64, error) {
	return r.Regret(0)
}

func (r *RiskStatistics) DownsideDeviation() (float64, error) {
	return sqrtOf(r.DownsideVariance())
}

// PotentialUpside is the centile percentile floored at zero, centile in
// [0.9, 1).
func (r *RiskStatistics) PotentialUpside(centile float64) (float64, error) {
	if err := checkCentile("PotentialUpside", centile); err != nil {
		return 0, err
	}
	p, err := r.stats.Percentile(centile)
	if err != nil {
		return 0, err
	}
	return math.Max(p, 0), nil
}

// ValueAtRisk is -min(percentile(1 - centile), 0), centile in [0.9, 1).
func (r *RiskStatistics) ValueAtRisk(centile float64) (float64, error) {
	if err := checkCentile("ValueAtRisk", centile); err != nil {
		return 0, err
	}
	p, err := r.stats.Percentile(1 - centile)
	if err != nil {
		return 0, err
	}
	return -math.Min(p, 0), nil
}

// ExpectedShortfall is the average loss of the samples below -VaR(centile),
// capped at zero and negated.
func (r *RiskStatistics) ExpectedShortfall(centile float64) (float64, error) {
	if err := checkCentile("ExpectedShortfall", centile); err != nil {
		return 0, err
	}
	v, err := r.ValueAtRisk(centile)
	if err != nil {
		return 0, err
	}
	x, n := r.stats.ExpectationValue(identity, Below(-v))
	if n == 0 {
		return 0, fmt.Errorf("ExpectedShortfall: below %g: %w", -v, ErrNoDataBelowTarget)
	}
	return -math.Min(x, 0), nil
}

// Shortfall is the probability mass of the samples below target.
func (r *RiskStatistics) Shortfall(target float64) (float64, error) {
	if r.stats.Samples() == 0 {
		return 0, fmt.Errorf("Shortfall: %w", ErrEmptySampleSet)
	}
	below := Below(target)
	x, _ := r.stats.ExpectationValue(func(x float64) float64 {
		if below(x) {
			return 1
		}
		return 0
	}, Everywhere)
	return x, nil
}

// AverageShortfall is E[target - x | x < target].
func (r *RiskStatistics) AverageShortfall(target float64) (float64, error) {
	x, n := r.stats.ExpectationValue(func(x float64) float64 { return target - x }, Below(target))
	if n == 0 {
		return 0, fmt.Errorf("AverageShortfall: below %g: %w", target, ErrNoDataBelowTarget)
	}
	return x, nil
}

func checkCentile(op string, c float64) error {
	if c < 0.9 || c >= 1 {
		return fmt.Errorf("%s: %g not in [0.9, 1): %w", op, c, ErrPercentileOutOfRange)
	}
	return nil
}

func sqrtOf(v float64, err error) (float64, error) {
	if err != nil {
		return 0, err
	}
	return math.Sqrt(v), nil
}
