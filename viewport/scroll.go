package viewport

import (
	"sync"
	"time"
)

// Scroll is a geometric visibility source for a vertically scrolling root.
//
// The root spans [offset, offset+height) of the content on the y axis and
// [0, width) on the x axis. Targets are placed with SetBounds; every change to
// the offset, the root size or a target's bounds re-evaluates observers and
// delivers an entry to each one whose threshold state flipped.
//
// Observe delivers the current visibility once immediately, as browser
// intersection observers do.
type Scroll struct {
	mu        sync.Mutex
	width     float64
	height    float64
	offset    float64
	bounds    map[Target]Rect
	observers map[int]*scrollObserver
	nextID    int
	now       func() time.Time
}

type scrollObserver struct {
	id        int
	target    Target
	opts      ObserveOptions
	fn        func(Entry)
	delivered bool
	above     bool // last delivered Visible(threshold)
	touching  bool // last delivered IsIntersecting
}

type delivery struct {
	fn    func(Entry)
	entry Entry
}

// NewScroll creates a root of the given size, scrolled to the top.
func NewScroll(width, height float64) *Scroll {
	return &Scroll{
		width:     width,
		height:    height,
		bounds:    make(map[Target]Rect),
		observers: make(map[int]*scrollObserver),
		now:       time.Now,
	}
}

// Offset returns the current scroll offset.
func (s *Scroll) Offset() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

// Extent returns the root width and height.
func (s *Scroll) Extent() (width, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Root returns the visible rectangle in content coordinates.
func (s *Scroll) Root() Rect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rootLocked()
}

func (s *Scroll) rootLocked() Rect {
	return Rect{X: 0, Y: s.offset, Width: s.width, Height: s.height}
}

// ScrollTo moves the root to offset. Negative offsets clamp to zero.
func (s *Scroll) ScrollTo(offset float64) {
	s.update(func() {
		s.offset = max(offset, 0)
	})
}

// ScrollBy moves the root by delta.
func (s *Scroll) ScrollBy(delta float64) {
	s.update(func() {
		s.offset = max(s.offset+delta, 0)
	})
}

// Resize changes the root extent.
func (s *Scroll) Resize(width, height float64) {
	s.update(func() {
		s.width, s.height = width, height
	})
}

// SetBounds places target in content coordinates.
func (s *Scroll) SetBounds(target Target, r Rect) {
	s.update(func() {
		s.bounds[target] = r
	})
}

// Remove forgets a target's layout. Observers of it report not intersecting.
func (s *Scroll) Remove(target Target) {
	s.update(func() {
		delete(s.bounds, target)
	})
}

// Observers returns the number of active observations of target.
func (s *Scroll) Observers(target Target) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, o := range s.observers {
		if o.target == target {
			n++
		}
	}
	return n
}

// Observe implements Source.
func (s *Scroll) Observe(target Target, opts ObserveOptions, fn func(Entry)) Observation {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	o := &scrollObserver{id: id, target: target, opts: opts, fn: fn}
	s.observers[id] = o
	var out []delivery
	if d, ok := s.evaluateLocked(o, true); ok {
		out = append(out, d)
	}
	s.mu.Unlock()

	deliver(out)

	var once sync.Once
	return ObserverFunc(func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	})
}

// update applies mutate and delivers entries for observers whose state changed.
func (s *Scroll) update(mutate func()) {
	s.mu.Lock()
	mutate()
	var out []delivery
	for _, o := range s.observers {
		if d, ok := s.evaluateLocked(o, false); ok {
			out = append(out, d)
		}
	}
	s.mu.Unlock()

	deliver(out)
}

func (s *Scroll) evaluateLocked(o *scrollObserver, force bool) (delivery, bool) {
	e := s.entryLocked(o.target, o.opts)
	above := e.Visible(o.opts.Threshold)
	if !force && o.delivered && above == o.above && e.IsIntersecting == o.touching {
		return delivery{}, false
	}
	o.delivered = true
	o.above = above
	o.touching = e.IsIntersecting
	return delivery{fn: o.fn, entry: e}, true
}

func (s *Scroll) entryLocked(target Target, opts ObserveOptions) Entry {
	e := Entry{Target: target, Time: s.now()}
	r, ok := s.bounds[target]
	if !ok {
		return e
	}
	root := opts.Margin.Apply(s.rootLocked())
	overlap, ok := r.Intersect(root)
	if !ok {
		return e
	}
	e.IsIntersecting = true
	if area := r.Area(); area > 0 {
		e.Ratio = min(overlap.Area()/area, 1)
	} else {
		// A zero-area target that touches the root is fully visible.
		e.Ratio = 1
	}
	return e
}

func deliver(out []delivery) {
	for _, d := range out {
		d.fn(d.entry)
	}
}
