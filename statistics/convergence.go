package statistics

// SamplingRule decides at which sample counts the running mean is recorded.
type SamplingRule interface {
	InitialSamples() int
	NextSamples(current int) int
}

// DoublingSteps records after 1, 3, 7, 15, ... samples.
type DoublingSteps struct{}

func (DoublingSteps) InitialSamples() int         { return 1 }
func (DoublingSteps) NextSamples(current int) int { return 2*current + 1 }

// ConvergencePoint is the mean after Samples samples.
type ConvergencePoint struct {
	Samples int
	Mean    float64
}

// ConvergenceStatistics feeds an accumulator and records its mean at the
// sample counts chosen by a sampling rule.
type ConvergenceStatistics struct {
	stats Accumulator
	rule  SamplingRule
	next  int
	table []ConvergencePoint
}

// NewConvergenceStatistics wraps stats, which is reset. A nil rule means
// DoublingSteps.
func NewConvergenceStatistics(stats Accumulator, rule SamplingRule) *ConvergenceStatistics {
	if rule == nil {
		rule = DoublingSteps{}
	}
	c := &ConvergenceStatistics{stats: stats, rule: rule}
	c.Reset()
	return c
}

// Add forwards the sample and records the mean when a step is reached.
func (c *ConvergenceStatistics) Add(value, weight float64) error {
	if err := c.stats.Add(value, weight); err != nil {
		return err
	}
	if c.stats.Samples() == c.next {
		m, err := c.stats.Mean()
		if err != nil {
			return err
		}
		c.table = append(c.table, ConvergencePoint{Samples: c.next, Mean: m})
		c.next = c.rule.NextSamples(c.next)
	}
	return nil
}

// AddSequence adds every value with unit weight.
func (c *ConvergenceStatistics) AddSequence(values []float64) error {
	for _, v := range values {
		if err := c.Add(v, 1); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears the accumulator and the table.
func (c *ConvergenceStatistics) Reset() {
	c.stats.Reset()
	c.next = c.rule.InitialSamples()
	c.table = nil
}

// ConvergenceTable returns a copy of the recorded points.
func (c *ConvergenceStatistics) ConvergenceTable() []ConvergencePoint {
	return append([]ConvergencePoint(nil), c.table...)
}

// Statistics returns the wrapped accumulator.
func (c *ConvergenceStatistics) Statistics() Accumulator { return c.stats }
