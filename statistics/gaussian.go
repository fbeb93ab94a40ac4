package statistics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// GaussianStatistics gives risk measures of the normal distribution with
// the mean and standard deviation of a sample set.
type GaussianStatistics struct {
	stats Moments
}

// NewGaussianStatistics returns Gaussian measures over m.
func NewGaussianStatistics(m Moments) *GaussianStatistics {
	return &GaussianStatistics{stats: m}
}

func (g *GaussianStatistics) normal(op string) (distuv.Normal, error) {
	m, err := g.stats.Mean()
	if err != nil {
		return distuv.Normal{}, fmt.Errorf("%s: %w", op, err)
	}
	sd, err := g.stats.StandardDeviation()
	if err != nil {
		return distuv.Normal{}, fmt.Errorf("%s: %w", op, err)
	}
	if !(sd > 0) {
		return distuv.Normal{}, fmt.Errorf("%s: standard deviation %g: %w", op, sd, ErrInsufficientSamples)
	}
	return distuv.Normal{Mu: m, Sigma: sd}, nil
}

// GaussianRegret is the variance below target of the fitted normal.
func (g *GaussianStatistics) GaussianRegret(target float64) (float64, error) {
	n, err := g.normal("GaussianRegret")
	if err != nil {
		return 0, err
	}
	m, variance := n.Mu, n.Sigma*n.Sigma
	firstTerm := variance + m*m - 2*target*m + target*target
	alpha := n.CDF(target)
	beta := variance * n.Prob(target)
	return (alpha*firstTerm - beta*(m-target)) / alpha, nil
}

func (g *GaussianStatistics) GaussianDownsideVariance() (float64, error) {
	return g.GaussianRegret(0)
}

func (g *GaussianStatistics) GaussianDownsideDeviation() (float64, error) {
	return sqrtOf(g.GaussianDownsideVariance())
}

// GaussianPercentile is the p quantile of the fitted normal, p in (0, 1).
func (g *GaussianStatistics) GaussianPercentile(p float64) (float64, error) {
	if !(p > 0 && p < 1) {
		return 0, fmt.Errorf("GaussianPercentile: %g not in (0, 1): %w", p, ErrPercentileOutOfRange)
	}
	n, err := g.normal("GaussianPercentile")
	if err != nil {
		return 0, err
	}
	return n.Quantile(p), nil
}

// GaussianTopPercentile is the 1 - p quantile.
func (g *GaussianStatistics) GaussianTopPercentile(p float64) (float64, error) {
	return g.GaussianPercentile(1 - p)
}

// GaussianPotentialUpside is the centile quantile floored at zero.
func (g *GaussianStatistics) GaussianPotentialUpside(centile float64) (float64, error) {
	if err := checkCentile("GaussianPotentialUpside", centile); err != nil {
		return 0, err
	}
	q, err := g.GaussianPercentile(centile)
	if err != nil {
		return 0, err
	}
	return math.Max(q, 0), nil
}

// GaussianValueAtRisk is -min(quantile(1 - centile), 0).
func (g *GaussianStatistics) GaussianValueAtRisk(centile float64) (float64, error) {
	if err := checkCentile("GaussianValueAtRisk", centile); err != nil {
		return 0, err
	}
	q, err := g.GaussianPercentile(1 - centile)
	if err != nil {
		return 0, err
	}
	return -math.Min(q, 0), nil
}

// GaussianExpectedShortfall is -min(m - sigma^2 * pdf(q) / (1 - centile), 0)
// with q the 1 - centile quantile.
func (g *GaussianStatistics) GaussianExpectedShortfall(centile float64) (float64, error) {
	if err := checkCentile("GaussianExpectedShortfall", centile); err != nil {
		return 0, err
	}
	n, err := g.normal("GaussianExpectedShortfall")
	if err != nil {
		return 0, err
	}
	q := n.Quantile(1 - centile)
	es := n.Mu - n.Sigma*n.Sigma*n.Prob(q)/(1-centile)
	return -math.Min(es, 0), nil
}

// GaussianShortfall is the probability of falling below target.
func (g *GaussianStatistics) GaussianShortfall(target float64) (float64, error) {
	n, err := g.normal("GaussianShortfall")
	if err != nil {
		return 0, err
	}
	return n.CDF(target), nil
}

// GaussianAverageShortfall is E[target - x | x < target] under the normal.
func (g *GaussianStatistics) GaussianAverageShortfall(target float64) (float64, error) {
	n, err := g.normal("GaussianAverageShortfall")
	if err != nil {
		return 0, err
	}
	return (target - n.Mu) + n.Sigma*n.Sigma*n.Prob(target)/n.CDF(target), nil
}
