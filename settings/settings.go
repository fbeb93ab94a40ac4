// Package settings holds the pricing context that used to be process-global:
// the evaluation date and the flags that decide how today's cash flows and
// fixings are treated.
package settings

import (
	"sync"
	"time"

	"github.com/meenmo/moquant/observer"
)

// Settings is an observable pricing context. Indexes and coupons receive a
// *Settings at construction and read it live on every call.
type Settings struct {
	observer.Subject

	mu                           sync.RWMutex
	evaluationDate               time.Time
	includeTodaysPayments        bool
	enforceTodaysHistoricFixings bool
}

// New returns Settings evaluated on d. A zero d means today (UTC).
func New(d time.Time) *Settings {
	return &Settings{evaluationDate: Truncate(d)}
}

// EvaluationDate returns the evaluation date, today (UTC) if unset.
func (s *Settings) EvaluationDate() time.Time {
	s.mu.RLock()
	d := s.evaluationDate
	s.mu.RUnlock()
	if d.IsZero() {
		return Truncate(time.Now())
	}
	return d
}

// SetEvaluationDate moves the evaluation date and notifies observers.
func (s *Settings) SetEvaluationDate(d time.Time) {
	s.mu.Lock()
	s.evaluationDate = Truncate(d)
	s.mu.Unlock()
	s.NotifyObservers()
}

// IncludeTodaysPayments reports whether cash flows paid on the reference date
// count as not yet occurred.
func (s *Settings) IncludeTodaysPayments() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.includeTodaysPayments
}

// SetIncludeTodaysPayments sets the flag and notifies observers.
func (s *Settings) SetIncludeTodaysPayments(b bool) {
	s.mu.Lock()
	s.includeTodaysPayments = b
	s.mu.Unlock()
	s.NotifyObservers()
}

// EnforceTodaysHistoricFixings reports whether a fixing dated on the
// evaluation date must come from history rather than a forecast.
func (s *Settings) EnforceTodaysHistoricFixings() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enforceTodaysHistoricFixings
}

// SetEnforceTodaysHistoricFixings sets the flag and notifies observers.
func (s *Settings) SetEnforceTodaysHistoricFixings(b bool) {
	s.mu.Lock()
	s.enforceTodaysHistoricFixings = b
	s.mu.Unlock()
	s.NotifyObservers()
}

// Truncate drops the clock part of t and returns midnight UTC of its calendar day.
func Truncate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
