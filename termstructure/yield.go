// Package termstructure provides the discount curves and volatility surfaces
// read by indexes and coupon pricers.
package termstructure

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/meenmo/moquant/daycount"
	"github.com/meenmo/moquant/observer"
	"github.com/meenmo/moquant/quote"
)

var (
	ErrNoNodes         = errors.New("termstructure: no discount factor nodes")
	ErrInvalidDiscount = errors.New("termstructure: discount factor must be positive")
)

// YieldTermStructure gives discount factors from its reference date.
type YieldTermStructure interface {
	observer.Observable
	ReferenceDate() time.Time
	DayCounter() daycount.DayCounter
	Discount(d time.Time) float64
}

// ZeroRate returns the continuously compounded zero rate to d.
func ZeroRate(ts YieldTermStructure, d time.Time) float64 {
	t := ts.DayCounter().YearFraction(ts.ReferenceDate(), d, time.Time{}, time.Time{})
	if t == 0 {
		return 0
	}
	return -math.Log(ts.Discount(d)) / t
}

// SimpleForwardRate returns the simply compounded forward rate between d1 and
// d2 accrued with dc.
func SimpleForwardRate(ts YieldTermStructure, d1, d2 time.Time, dc daycount.DayCounter) float64 {
	tau := dc.YearFraction(d1, d2, time.Time{}, time.Time{})
	if tau == 0 {
		return 0
	}
	return (ts.Discount(d1)/ts.Discount(d2) - 1) / tau
}

// DiscountCurve interpolates discount factors log-linearly between nodes and
// extrapolates flat-forward from the boundary pair.
type DiscountCurve struct {
	observer.Subject

	mu        sync.RWMutex
	reference time.Time
	dc        daycount.DayCounter
	pillars   []time.Time
	dfs       map[time.Time]float64
}

// NewDiscountCurve builds a curve from discount factors. The reference date is
// added with a discount factor of 1 when missing. A nil dc means ACT/365F,
// the usual curve time basis.
func NewDiscountCurve(reference time.Time, dfs map[time.Time]float64, dc daycount.DayCounter) (*DiscountCurve, error) {
	if len(dfs) == 0 {
		return nil, ErrNoNodes
	}
	if dc == nil {
		dc = daycount.Actual365Fixed{}
	}
	c := &DiscountCurve{
		reference: reference,
		dc:        dc,
		dfs:       make(map[time.Time]float64, len(dfs)+1),
	}
	for d, df := range dfs {
		if df <= 0 || math.IsNaN(df) {
			return nil, fmt.Errorf("NewDiscountCurve: %s: %w", d.Format("2006-01-02"), ErrInvalidDiscount)
		}
		c.dfs[d] = df
	}
	if _, ok := c.dfs[reference]; !ok {
		c.dfs[reference] = 1.0
	}
	c.sortPillars()
	return c, nil
}

func (c *DiscountCurve) sortPillars() {
	c.pillars = c.pillars[:0]
	for d := range c.dfs {
		c.pillars = append(c.pillars, d)
	}
	sort.Slice(c.pillars, func(i, j int) bool { return c.pillars[i].Before(c.pillars[j]) })
}

// ReferenceDate returns the date with discount factor 1.
func (c *DiscountCurve) ReferenceDate() time.Time { return c.reference }

// DayCounter returns the curve time basis.
func (c *DiscountCurve) DayCounter() daycount.DayCounter { return c.dc }

// Discount returns the discount factor to d.
func (c *DiscountCurve) Discount(d time.Time) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if df, ok := c.dfs[d]; ok {
		return df
	}
	if len(c.pillars) < 2 {
		return c.dfs[c.pillars[0]]
	}
	d1, d2 := findBracketOrBoundary(c.pillars, d)
	df1, df2 := c.dfs[d1], c.dfs[d2]
	t1 := c.time(d1)
	t2 := c.time(d2)
	if t2 == t1 {
		return df1
	}
	fwd := math.Log(df1/df2) / (t2 - t1)
	return df1 * math.Exp(-fwd*(c.time(d)-t1))
}

// SetDiscountFactor adds or replaces a node and notifies observers.
func (c *DiscountCurve) SetDiscountFactor(d time.Time, df float64) error {
	if df <= 0 || math.IsNaN(df) {
		return fmt.Errorf("SetDiscountFactor: %s: %w", d.Format("2006-01-02"), ErrInvalidDiscount)
	}
	c.mu.Lock()
	c.dfs[d] = df
	c.sortPillars()
	c.mu.Unlock()
	c.NotifyObservers()
	return nil
}

// Nodes returns a copy of the discount factor nodes.
func (c *DiscountCurve) Nodes() map[time.Time]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[time.Time]float64, len(c.dfs))
	for d, df := range c.dfs {
		out[d] = df
	}
	return out
}

func (c *DiscountCurve) time(d time.Time) float64 {
	return c.dc.YearFraction(c.reference, d, time.Time{}, time.Time{})
}

// findBracketOrBoundary returns the adjacent pillars around target, or the
// nearest boundary pair when target is outside the range.
func findBracketOrBoundary(dates []time.Time, target time.Time) (time.Time, time.Time) {
	idx := sort.Search(len(dates), func(i int) bool {
		return !dates[i].Before(target)
	})
	if idx <= 0 {
		return dates[0], dates[1]
	}
	if idx >= len(dates) {
		return dates[len(dates)-2], dates[len(dates)-1]
	}
	return dates[idx-1], dates[idx]
}

// FlatForward is a curve with a single continuously compounded rate read
// from an observable quote.
type FlatForward struct {
	observer.Subject

	reference time.Time
	rate      quote.Quote
	dc        daycount.DayCounter
}

// NewFlatForward returns a flat curve on rate and registers with the quote.
func NewFlatForward(reference time.Time, rate quote.Quote, dc daycount.DayCounter) *FlatForward {
	if dc == nil {
		dc = daycount.Actual365Fixed{}
	}
	f := &FlatForward{reference: reference, rate: rate, dc: dc}
	rate.RegisterObserver(f)
	return f
}

func (f *FlatForward) ReferenceDate() time.Time        { return f.reference }
func (f *FlatForward) DayCounter() daycount.DayCounter { return f.dc }

// Discount returns exp(-r t).
func (f *FlatForward) Discount(d time.Time) float64 {
	t := f.dc.YearFraction(f.reference, d, time.Time{}, time.Time{})
	return math.Exp(-f.rate.Value() * t)
}

// Update relays quote changes.
func (f *FlatForward) Update() { f.NotifyObservers() }
