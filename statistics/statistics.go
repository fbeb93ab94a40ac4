// Package statistics accumulates weighted samples and answers moment,
// percentile and risk queries over them.
//
// Everything empirical is built on one primitive, the expectation of a
// function over the samples whose value satisfies a predicate. Risk
// measures compose that primitive with comparison predicates; Gaussian
// measures only need the first two moments.
//
// Accumulators are not safe for concurrent use.
package statistics

// Moments is a sample set reporting its first two moments.
type Moments interface {
	Samples() int
	WeightSum() float64
	Mean() (float64, error)

	// Variance is the unbiased sample variance. A set holding a single
	// sample is implementation defined: GeneralStatistics returns NaN with
	// a nil error, IncrementalStatistics fails with ErrInsufficientSamples.
	// GaussianStatistics rejects a NaN or zero standard deviation with
	// ErrInsufficientSamples.
	Variance() (float64, error)
	StandardDeviation() (float64, error)
}

// Empirical is a sample set that keeps its samples and can average over
// subsets of them.
type Empirical interface {
	Moments

	// ExpectationValue returns the weighted average of f over the samples
	// whose value satisfies inRange, and how many samples qualified. It
	// returns 0, 0 when none do.
	ExpectationValue(f func(float64) float64, inRange func(float64) bool) (float64, int)
	Percentile(y float64) (float64, error)
}

// Accumulator is a sample set that takes weighted samples.
type Accumulator interface {
	Add(value, weight float64) error
	Samples() int
	Mean() (float64, error)
	Reset()
}

// Everywhere accepts every sample.
func Everywhere(float64) bool { return true }

// Below accepts samples strictly below target.
func Below(target float64) func(float64) bool {
	return func(x float64) bool { return x < target }
}

func identity(x float64) float64 { return x }

// Statistics keeps every sample and offers empirical and Gaussian risk
// measures over them.
type Statistics struct {
	*GeneralStatistics
	*RiskStatistics
	*GaussianStatistics
}

// New returns an empty Statistics.
func New() *Statistics {
	g := NewGeneralStatistics()
	return &Statistics{
		GeneralStatistics:  g,
		RiskStatistics:     NewRiskStatistics(g),
		GaussianStatistics: NewGaussianStatistics(g),
	}
}
