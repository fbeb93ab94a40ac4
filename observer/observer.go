// Package observer implements the change-notification graph shared by quotes,
// term structures, indexes, pricers and coupons.
//
// Notification is synchronous and depth-first. The subscription graph must be
// acyclic: a cycle recurses without bound and is not detected.
package observer

import (
	"fmt"
	"reflect"
	"sync"
)

// Observer is notified when something it subscribed to changes.
type Observer interface {
	Update()
}

// Observable is anything observers can subscribe to.
type Observable interface {
	RegisterObserver(o Observer)
	UnregisterObserver(o Observer)
	NotifyObservers()
}

// Subject is an embeddable Observable. The zero value is ready to use.
//
// Registration has set semantics: registering the same observer twice keeps a
// single entry, so each change produces exactly one Update per observer.
// Observers are identified by ==, so their dynamic type must be comparable;
// pointers always are.
type Subject struct {
	mu        sync.Mutex
	observers []Observer
}

// RegisterObserver subscribes o. Nil observers are ignored. It panics if
// the dynamic type of o is not comparable.
func (s *Subject) RegisterObserver(o Observer) {
	if o == nil {
		return
	}
	if t := reflect.TypeOf(o); !t.Comparable() {
		panic(fmt.Sprintf("observer: %s is not comparable, register a pointer", t))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.observers {
		if existing == o {
			return
		}
	}
	s.observers = append(s.observers, o)
}

// UnregisterObserver removes o if present.
func (s *Subject) UnregisterObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.observers {
		if existing == o {
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			return
		}
	}
}

// NotifyObservers calls Update on a snapshot of the current observers, so
// observers may register or unregister while being notified.
func (s *Subject) NotifyObservers() {
	s.mu.Lock()
	snapshot := make([]Observer, len(s.observers))
	copy(snapshot, s.observers)
	s.mu.Unlock()

	for _, o := range snapshot {
		o.Update()
	}
}

// Observers returns the number of registered observers.
func (s *Subject) Observers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}

// Func adapts a plain function to Observer. Use a pointer so registration
// identity is stable: o := &observer.Func{F: ...}.
type Func struct {
	F func()
}

// Update calls F.
func (f *Func) Update() {
	if f.F != nil {
		f.F()
	}
}

// Counter counts Update calls. Handy as a leaf subscriber.
type Counter struct {
	mu    sync.Mutex
	count int
}

// Update increments the counter.
func (c *Counter) Update() {
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
}

// Count returns the number of updates received.
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Reset zeroes the counter.
func (c *Counter) Reset() {
	c.mu.Lock()
	c.count = 0
	c.mu.Unlock()
}
