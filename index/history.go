package index

import (
	"sort"
	"sync"
	"time"
)

// FixingStore supplies published fixings by date.
type FixingStore interface {
	FixingOn(date time.Time) (float64, bool)
}

// FixingHistory is a map-backed FixingStore keyed by calendar day. It is safe
// for concurrent use and may be shared by indexes with the same name.
type FixingHistory struct {
	mu    sync.RWMutex
	rates map[string]float64
}

// NewFixingHistory returns a history seeded with rates keyed "2006-01-02".
func NewFixingHistory(rates map[string]float64) *FixingHistory {
	h := &FixingHistory{rates: make(map[string]float64, len(rates))}
	for k, v := range rates {
		h.rates[k] = v
	}
	return h
}

// FixingOn returns the fixing published on date.
func (h *FixingHistory) FixingOn(date time.Time) (float64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.rates[date.Format("2006-01-02")]
	return v, ok
}

// Add stores a fixing. Replacing a different stored value requires overwrite,
// otherwise ErrDuplicateFixing is returned.
func (h *FixingHistory) Add(date time.Time, rate float64, overwrite bool) error {
	key := date.Format("2006-01-02")
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rates == nil {
		h.rates = make(map[string]float64)
	}
	if old, ok := h.rates[key]; ok && old != rate && !overwrite {
		return ErrDuplicateFixing
	}
	h.rates[key] = rate
	return nil
}

// Clear drops every stored fixing.
func (h *FixingHistory) Clear() {
	h.mu.Lock()
	h.rates = make(map[string]float64)
	h.mu.Unlock()
}

// Dates returns the stored fixing dates in ascending order.
func (h *FixingHistory) Dates() []time.Time {
	h.mu.RLock()
	dates := make([]time.Time, 0, len(h.rates))
	for k := range h.rates {
		if d, err := time.Parse("2006-01-02", k); err == nil {
			dates = append(dates, d)
		}
	}
	h.mu.RUnlock()
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Len returns the number of stored fixings.
func (h *FixingHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rates)
}
