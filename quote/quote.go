// Package quote holds observable market values.
package quote

import (
	"math"
	"sync"

	"github.com/meenmo/moquant/observer"
)

// Quote is an observable market value.
type Quote interface {
	observer.Observable
	Value() float64
	IsValid() bool
}

// SimpleQuote is a settable Quote. A NaN value marks it invalid.
type SimpleQuote struct {
	observer.Subject

	mu    sync.RWMutex
	value float64
}

// NewSimpleQuote returns a quote holding v.
func NewSimpleQuote(v float64) *SimpleQuote {
	return &SimpleQuote{value: v}
}

// Value returns the current value.
func (q *SimpleQuote) Value() float64 {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.value
}

// IsValid reports whether the quote holds a number.
func (q *SimpleQuote) IsValid() bool {
	return !math.IsNaN(q.Value())
}

// SetValue stores v and notifies observers when the value changed. It returns
// the difference from the previous value.
func (q *SimpleQuote) SetValue(v float64) float64 {
	q.mu.Lock()
	diff := v - q.value
	changed := v != q.value
	q.value = v
	q.mu.Unlock()
	if changed {
		q.NotifyObservers()
	}
	return diff
}
