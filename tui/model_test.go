package tui

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytclone/catalog"
	"ytclone/feed"
	"ytclone/loader"
)

func videos(n int) []catalog.Video {
	out := make([]catalog.Video, n)
	for i := range out {
		out[i] = catalog.Video{
			ID:         fmt.Sprintf("v%d", i),
			Title:      fmt.Sprintf("Video %d", i),
			Channel:    catalog.Channel{Name: "Gopher TV"},
			Views:      "1K views",
			UploadTime: "2 days ago",
		}
	}
	return out
}

type countingProvider struct {
	inner feed.Provider[catalog.Video]
	calls atomic.Int32
}

func (p *countingProvider) FetchPage(ctx context.Context, cursor string, size int) (feed.Page[catalog.Video], error) {
	p.calls.Add(1)
	return p.inner.FetchPage(ctx, cursor, size)
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newModel(t *testing.T, p feed.Provider[catalog.Video]) *Model {
	t.Helper()
	m, err := New(p, WithPageSizes(8, 4), WithLoaderOptions(loader.WithThreshold(0.1)))
	require.NoError(t, err)
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m
}

func settled(m *Model, n int) func() bool {
	return func() bool {
		return m.session.Feed().Len() == n && m.session.Loader().Phase() == loader.PhaseWatching
	}
}

func TestColumns(t *testing.T) {
	tests := []struct {
		width int
		want  int
	}{
		{200, 4},
		{150, 4},
		{120, 3},
		{96, 3},
		{80, 2},
		{79, 1},
		{40, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, columns(tt.width), "width %d", tt.width)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a long…", truncate("a long title", 7))
	assert.Equal(t, "a", truncate("abc", 1))
}

func TestModelFillsTheScreen(t *testing.T) {
	p := &countingProvider{inner: feed.NewStatic(videos(30))}
	m := newModel(t, p)
	m.Init()

	// 22 body rows plus a 4 row margin: pages stop once the sentinel sits
	// on row 32, past the margin.
	require.Eventually(t, settled(m, 16), 5*time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 3, p.calls.Load())

	out := m.View()
	assert.Contains(t, out, "Home")
	assert.Contains(t, out, "16 videos")
	assert.Contains(t, out, "Video 0")
	assert.Contains(t, out, "Video 1")
	assert.Contains(t, out, "Gopher TV")
	assert.NotContains(t, out, "Video 15", "last row is below the fold")
}

func TestModelScrollLoadsMore(t *testing.T) {
	m := newModel(t, feed.NewStatic(videos(30)))
	m.Init()
	require.Eventually(t, settled(m, 16), 5*time.Second, 10*time.Millisecond)

	m.Update(key("G"))
	require.Eventually(t, func() bool {
		return m.session.Feed().Len() > 16 && m.session.Loader().Phase() == loader.PhaseWatching
	}, 5*time.Second, 10*time.Millisecond)

	m.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	m.Update(key("G"))
	require.Eventually(t, func() bool {
		return m.session.Loader().Phase() == loader.PhaseExhausted ||
			m.session.Loader().Phase() == loader.PhaseWatching && m.session.Feed().Len() > 20
	}, 5*time.Second, 10*time.Millisecond)
}

func TestModelScrollsDownAndUp(t *testing.T) {
	m := newModel(t, feed.NewStatic(videos(30)))
	m.Init()
	require.Eventually(t, settled(m, 16), 5*time.Second, 10*time.Millisecond)
	m.session.SetEnabled(false)

	m.Update(key("j"))
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.EqualValues(t, 2, m.scroll.Offset())

	m.Update(key("k"))
	assert.EqualValues(t, 1, m.scroll.Offset())

	// Clamped to the last screen: 8 rows of cards and the status line.
	m.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	m.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	assert.EqualValues(t, 33-22, m.scroll.Offset())
	assert.Contains(t, m.View(), "Video 15")

	m.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	assert.EqualValues(t, 0, m.scroll.Offset())
}

func TestModelShowsEndOfList(t *testing.T) {
	m := newModel(t, feed.NewStatic(videos(5)))
	m.Init()
	require.Eventually(t, func() bool {
		return m.session.Loader().Phase() == loader.PhaseExhausted
	}, 5*time.Second, 10*time.Millisecond)

	out := m.View()
	assert.Contains(t, out, EndText)
	assert.Contains(t, out, "Video 4")
	assert.NotContains(t, out, LoadingText)
}

func TestModelShowsEmptyList(t *testing.T) {
	m := newModel(t, feed.NewStatic[catalog.Video](nil))
	m.Init()
	require.Eventually(t, func() bool {
		return m.session.Loader().Phase() == loader.PhaseExhausted
	}, 5*time.Second, 10*time.Millisecond)

	out := m.View()
	assert.Contains(t, out, EmptyText)
	assert.NotContains(t, out, EndText)
}

func TestModelShowsError(t *testing.T) {
	p := feed.ProviderFunc[catalog.Video](func(context.Context, string, int) (feed.Page[catalog.Video], error) {
		return feed.Page[catalog.Video]{}, errors.New("failed to load videos")
	})
	m := newModel(t, p)
	m.Init()
	require.Eventually(t, func() bool {
		return m.session.Loader().Phase() == loader.PhaseErrored
	}, 5*time.Second, 10*time.Millisecond)

	out := m.View()
	assert.Contains(t, out, "Error: ")
	assert.Contains(t, out, "failed to load videos")
}

func TestModelShowsLoading(t *testing.T) {
	release := make(chan struct{})
	p := feed.ProviderFunc[catalog.Video](func(ctx context.Context, _ string, _ int) (feed.Page[catalog.Video], error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return feed.Page[catalog.Video]{Items: videos(1)}, nil
	})
	m := newModel(t, p)
	cmd := m.Init()
	require.NotNil(t, cmd)

	require.True(t, m.session.Loader().State().Loading)
	assert.True(t, m.spinning)
	assert.Contains(t, m.View(), LoadingText)

	close(release)
	require.Eventually(t, func() bool {
		return m.session.Loader().Phase() == loader.PhaseExhausted
	}, 5*time.Second, 10*time.Millisecond)
	assert.NotContains(t, m.View(), LoadingText)
}

func TestModelReset(t *testing.T) {
	p := &countingProvider{inner: feed.NewStatic(videos(30))}
	m := newModel(t, p)
	m.Init()
	require.Eventually(t, settled(m, 16), 5*time.Second, 10*time.Millisecond)
	m.Update(key("j"))

	m.Update(key("r"))
	assert.EqualValues(t, 0, m.scroll.Offset())
	require.Eventually(t, settled(m, 16), 5*time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 6, p.calls.Load())
}

func TestModelResizeRelaysOut(t *testing.T) {
	m := newModel(t, feed.NewStatic(videos(30)))
	m.Init()
	require.Eventually(t, settled(m, 16), 5*time.Second, 10*time.Millisecond)

	// One column puts the sentinel on row 64, far below the fold.
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 24})
	assert.Equal(t, 1, m.size().cols)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 16, m.session.Feed().Len())

	// Four columns pull it up to row 16 and the next page loads.
	m.Update(tea.WindowSizeMsg{Width: 160, Height: 24})
	require.Eventually(t, func() bool {
		return m.session.Feed().Len() > 16 && m.session.Loader().Phase() == loader.PhaseWatching
	}, 5*time.Second, 10*time.Millisecond)
}

func TestModelQuit(t *testing.T) {
	m := newModel(t, feed.NewStatic(videos(30)))
	wait := m.waitForChange()

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
	assert.Equal(t, loader.PhaseIdle, m.session.Loader().Phase())
	assert.Nil(t, wait(), "closed model releases the watcher")
}

func TestModelChangeMessages(t *testing.T) {
	m := newModel(t, feed.NewStatic(videos(30)))
	m.notify()
	m.notify()

	msg := m.waitForChange()()
	assert.IsType(t, changedMsg{}, msg)

	_, cmd := m.Update(msg)
	assert.NotNil(t, cmd, "a new watcher is scheduled")
}
