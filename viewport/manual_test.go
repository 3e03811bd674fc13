package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualEmitsOnlyToTarget(t *testing.T) {
	m := NewManual()
	var a, b recorder
	m.Observe("a", ObserveOptions{}, a.fn)
	obsB := m.Observe("b", ObserveOptions{}, b.fn)

	assert.Empty(t, a.all(), "nothing is delivered on observe")
	assert.Equal(t, 1, m.Intersect("a", 0.6))

	require.Len(t, a.all(), 1)
	assert.InDelta(t, 0.6, a.all()[0].Ratio, 1e-9)
	assert.True(t, a.all()[0].IsIntersecting)
	assert.Empty(t, b.all())

	obsB.Disconnect()
	assert.Equal(t, 0, m.Intersect("b", 1))
	assert.Equal(t, 1, m.Active())
}

func TestManualIntersectClampsRatio(t *testing.T) {
	m := NewManual()
	var r recorder
	m.Observe("a", ObserveOptions{}, r.fn)

	m.Intersect("a", 2)
	m.Intersect("a", -1)

	entries := r.all()
	require.Len(t, entries, 2)
	assert.Equal(t, 1.0, entries[0].Ratio)
	assert.False(t, entries[1].IsIntersecting)
	assert.Zero(t, entries[1].Ratio)
}

func TestManualHoldsUndeliveredEntry(t *testing.T) {
	m := NewManual()
	assert.Equal(t, 0, m.Intersect("a", 0.8), "no observer yet")
	m.Intersect("a", 1)

	var first, second recorder
	obs := m.Observe("a", ObserveOptions{}, first.fn)
	require.Len(t, first.all(), 1, "latest held entry is delivered on observe")
	assert.Equal(t, 1.0, first.all()[0].Ratio)

	m.Observe("a", ObserveOptions{}, second.fn)
	assert.Empty(t, second.all(), "a delivered entry is not replayed")

	obs.Disconnect()
	m.Intersect("a", 0.5)
	assert.Len(t, first.all(), 1, "nothing reaches a disconnected observer")
	require.Len(t, second.all(), 1)
}
