package statistics_test

import (
	"fmt"

	"github.com/meenmo/moquant/statistics"
)

func ExampleStatistics() {
	s := statistics.New()
	s.AddSequence([]float64{1, 2, 3, 4, 5})

	mean, _ := s.Mean()
	sd, _ := s.StandardDeviation()
	median, _ := s.Percentile(0.5)
	fmt.Printf("mean %.4f sd %.4f median %.0f\n", mean, sd, median)
	// Output: mean 3.0000 sd 1.5811 median 3
}
