// Package viewport provides visibility sources: the mechanism that tells a
// caller when a target element enters or leaves a (possibly expanded) root
// viewport by at least a given fraction of its area.
//
// Two sources are provided. Scroll computes visibility from geometry: a root
// extent, a vertical scroll offset and the laid-out bounds of each target.
// Manual is fed explicitly and suits tests and remote clients that measure
// visibility themselves.
package viewport

import "time"

// Target identifies an observed element. Any comparable value works; the
// same value must be used for layout and observation.
type Target any

// Rect is an axis-aligned rectangle in content coordinates.
type Rect struct {
	X, Y, Width, Height float64
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Area returns the rectangle area, zero for degenerate rectangles.
func (r Rect) Area() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// Intersect returns the overlap of r and o. ok is false when they do not
// touch at all; edge-adjacent rectangles intersect with zero area.
func (r Rect) Intersect(o Rect) (Rect, bool) {
	x0 := max(r.X, o.X)
	y0 := max(r.Y, o.Y)
	x1 := min(r.Right(), o.Right())
	y1 := min(r.Bottom(), o.Bottom())
	if x1 < x0 || y1 < y0 {
		return Rect{}, false
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, true
}

// ObserveOptions configures a single observation.
type ObserveOptions struct {
	// Threshold is the visible fraction of the target, in [0, 1], whose
	// crossing produces an entry.
	Threshold float64
	// Margin grows (positive) or shrinks (negative) the root before
	// intersecting.
	Margin Margin
}

// Entry describes the visibility of a target at one instant.
type Entry struct {
	Target         Target
	IsIntersecting bool
	// Ratio is the visible fraction of the target's area, in [0, 1].
	Ratio float64
	Time  time.Time
}

// Visible reports whether the entry meets threshold.
func (e Entry) Visible(threshold float64) bool {
	return e.IsIntersecting && e.Ratio >= threshold
}

// Observation is an active registration returned by Source.Observe.
type Observation interface {
	// Disconnect stops delivery. It is safe to call more than once.
	Disconnect()
}

// Source delivers visibility entries for observed targets.
//
// Implementations invoke fn without holding their own locks, so fn may call
// back into the source. fn may run on any goroutine.
type Source interface {
	Observe(target Target, opts ObserveOptions, fn func(Entry)) Observation
}

// ObserverFunc adapts a function to the Observation interface.
type ObserverFunc func()

// Disconnect calls f.
func (f ObserverFunc) Disconnect() { f() }
