package viewport

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidMargin is returned by ParseMargin for malformed margin strings.
var ErrInvalidMargin = errors.New("viewport: invalid margin")

// Length is a single margin component, in pixels or percent of the root.
type Length struct {
	Value   float64
	Percent bool
}

// Resolve converts l to pixels against a root dimension.
func (l Length) Resolve(extent float64) float64 {
	if l.Percent {
		return extent * l.Value / 100
	}
	return l.Value
}

func (l Length) String() string {
	v := strconv.FormatFloat(l.Value, 'f', -1, 64)
	if l.Percent {
		return v + "%"
	}
	return v + "px"
}

// Margin grows or shrinks each side of the root rectangle.
type Margin struct {
	Top, Right, Bottom, Left Length
}

// ParseMargin parses a CSS-style margin: one to four lengths separated by
// whitespace, each in px or %, e.g. "0px", "200px", "10px 5%", "1px 2px 3px 4px".
// A bare "0" is accepted. Empty input means no margin.
func ParseMargin(s string) (Margin, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Margin{}, nil
	}
	if len(fields) > 4 {
		return Margin{}, fmt.Errorf("%w %q: at most 4 values", ErrInvalidMargin, s)
	}

	vals := make([]Length, len(fields))
	for i, f := range fields {
		l, err := parseLength(f)
		if err != nil {
			return Margin{}, fmt.Errorf("%w %q: %v", ErrInvalidMargin, s, err)
		}
		vals[i] = l
	}

	// CSS shorthand expansion: top, right, bottom, left.
	switch len(vals) {
	case 1:
		return Margin{vals[0], vals[0], vals[0], vals[0]}, nil
	case 2:
		return Margin{vals[0], vals[1], vals[0], vals[1]}, nil
	case 3:
		return Margin{vals[0], vals[1], vals[2], vals[1]}, nil
	default:
		return Margin{vals[0], vals[1], vals[2], vals[3]}, nil
	}
}

func parseLength(s string) (Length, error) {
	var l Length
	num := s
	switch {
	case strings.HasSuffix(s, "px"):
		num = strings.TrimSuffix(s, "px")
	case strings.HasSuffix(s, "%"):
		num = strings.TrimSuffix(s, "%")
		l.Percent = true
	case s != "0":
		return Length{}, fmt.Errorf("value %q must end in px or %%", s)
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Length{}, fmt.Errorf("value %q is not a number", s)
	}
	l.Value = v
	return l, nil
}

// Apply expands root by m. Percentages resolve against the root width for
// left/right and the root height for top/bottom.
func (m Margin) Apply(root Rect) Rect {
	top := m.Top.Resolve(root.Height)
	right := m.Right.Resolve(root.Width)
	bottom := m.Bottom.Resolve(root.Height)
	left := m.Left.Resolve(root.Width)
	return Rect{
		X:      root.X - left,
		Y:      root.Y - top,
		Width:  root.Width + left + right,
		Height: root.Height + top + bottom,
	}
}

func (m Margin) String() string {
	return strings.Join([]string{m.Top.String(), m.Right.String(), m.Bottom.String(), m.Left.String()}, " ")
}
