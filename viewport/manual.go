package viewport

import (
	"sync"
	"time"
)

// Manual is a Source driven by explicit calls. Entries arrive through Emit
// and Intersect. An entry that reaches no observer is held and delivered to
// the next observer of its target, the way a browser reports the current
// visibility to a new observer. Entries already delivered are not replayed.
type Manual struct {
	// deliver orders delivery against Observe and Disconnect: once
	// Disconnect returns, the observer receives nothing more.
	deliver sync.Mutex

	mu        sync.Mutex
	observers map[int]manualObserver
	pending   map[Target]Entry
	nextID    int
}

type manualObserver struct {
	target Target
	fn     func(Entry)
}

// NewManual returns an empty manual source.
func NewManual() *Manual {
	return &Manual{
		observers: make(map[int]manualObserver),
		pending:   make(map[Target]Entry),
	}
}

// Observe implements Source.
func (m *Manual) Observe(target Target, _ ObserveOptions, fn func(Entry)) Observation {
	m.deliver.Lock()
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.observers[id] = manualObserver{target: target, fn: fn}
	held, ok := m.pending[target]
	delete(m.pending, target)
	m.mu.Unlock()
	if ok {
		fn(held)
	}
	m.deliver.Unlock()

	var once sync.Once
	return ObserverFunc(func() {
		once.Do(func() {
			m.deliver.Lock()
			m.mu.Lock()
			delete(m.observers, id)
			m.mu.Unlock()
			m.deliver.Unlock()
		})
	})
}

// Emit delivers e to every active observer of e.Target and returns how many
// observers received it. With none, e is held for the next observer.
func (m *Manual) Emit(e Entry) int {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	m.deliver.Lock()
	defer m.deliver.Unlock()

	m.mu.Lock()
	var fns []func(Entry)
	for _, o := range m.observers {
		if o.target == e.Target {
			fns = append(fns, o.fn)
		}
	}
	if len(fns) == 0 {
		m.pending[e.Target] = e
	} else {
		delete(m.pending, e.Target)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
	return len(fns)
}

// Intersect emits an entry for target with the given visible ratio. A ratio
// of zero or less reports the target as not intersecting.
func (m *Manual) Intersect(target Target, ratio float64) int {
	return m.Emit(Entry{Target: target, IsIntersecting: ratio > 0, Ratio: min(max(ratio, 0), 1)})
}

// Observers returns the number of active observations of target.
func (m *Manual) Observers(target Target) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, o := range m.observers {
		if o.target == target {
			n++
		}
	}
	return n
}

// Active returns the total number of active observations.
func (m *Manual) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.observers)
}
