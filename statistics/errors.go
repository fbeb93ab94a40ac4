package statistics

import "errors"

var (
	ErrNegativeWeight                 = errors.New("statistics: negative weight not allowed")
	ErrEmptySampleSet                 = errors.New("statistics: empty sample set")
	ErrInsufficientSamples            = errors.New("statistics: insufficient samples")
	ErrInsufficientSamplesUnderTarget = errors.New("statistics: samples under target <= 1, insufficient")
	ErrNoDataBelowTarget              = errors.New("statistics: no data below the target")
	ErrPercentileOutOfRange           = errors.New("statistics: percentile out of range")
	ErrDimensionMismatch              = errors.New("statistics: sample size mismatch")
)
