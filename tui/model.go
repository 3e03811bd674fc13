// Package tui is a terminal browser for a video feed. Cards are laid out on
// a viewport.Scroll and a sentinel row after the last card drives the
// Incremental Loader as the user scrolls.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ytclone/catalog"
	"ytclone/feed"
	"ytclone/loader"
	"ytclone/viewport"
)

const (
	// cardHeight is the number of terminal rows one card occupies.
	cardHeight = 4
	// cellPixels approximates one terminal column in CSS pixels, so the
	// grid breakpoints of the web layout carry over.
	cellPixels = 8
	// chrome is the header plus the help line.
	chrome = 2

	defaultWidth  = 80
	defaultHeight = 24
)

// Status line texts.
const (
	LoadingText = "Loading more videos..."
	EndText     = "You've reached the end! No more videos to load."
	EmptyText   = "No videos found."
)

// sentinel is the row after the last card.
type sentinel struct{}

// changedMsg reports that the list or the loader state moved.
type changedMsg struct{}

// columns returns the grid width for a terminal of width cells.
func columns(width int) int {
	px := width * cellPixels
	switch {
	case px >= 1200:
		return 4
	case px >= 768:
		return 3
	case px >= 640:
		return 2
	default:
		return 1
	}
}

func rowsFor(items, cols int) int {
	return (items + cols - 1) / cols
}

func bodyHeight(height int) int {
	return max(height-chrome, 1)
}

// Option configures a Model.
type Option func(*settings)

type settings struct {
	title       string
	name        string
	initialSize int
	pageSize    int
	loaderOpts  []loader.Option
}

// WithTitle sets the header text.
func WithTitle(title string) Option {
	return func(s *settings) { s.title = title }
}

// WithName labels the feed in logs and metrics.
func WithName(name string) Option {
	return func(s *settings) { s.name = name }
}

// WithPageSizes sets the first and the following page sizes.
func WithPageSizes(initial, page int) Option {
	return func(s *settings) {
		s.initialSize = initial
		s.pageSize = page
	}
}

// WithLoaderOptions passes options to the loader. The root margin defaults
// to one card; distances are in terminal rows.
func WithLoaderOptions(opts ...loader.Option) Option {
	return func(s *settings) { s.loaderOpts = append(s.loaderOpts, opts...) }
}

// Model is the bubbletea model. Use it through a pointer.
type Model struct {
	session *feed.Session[catalog.Video]
	scroll  *viewport.Scroll
	spinner spinner.Model
	title   string

	changes   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	spinning  bool
	quitting  bool

	// mu guards the layout and is held while the sentinel moves, so
	// concurrent relayouts land in order.
	mu     sync.Mutex
	width  int
	height int
	cols   int
}

// New returns a browser over p. Nothing is fetched until Init.
func New(p feed.Provider[catalog.Video], opts ...Option) (*Model, error) {
	s := settings{
		title:       "Home",
		name:        catalog.FeedHome,
		initialSize: feed.DefaultInitialSize,
		pageSize:    feed.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(&s)
	}

	m := &Model{
		title:   s.title,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
		width:   defaultWidth,
		height:  defaultHeight,
		cols:    columns(defaultWidth),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(loadingStyle),
		),
	}
	m.scroll = viewport.NewScroll(defaultWidth, float64(bodyHeight(defaultHeight)))

	f, err := feed.New(p,
		feed.WithName(s.name),
		feed.WithInitialSize(s.initialSize),
		feed.WithPageSize(s.pageSize),
		// Runs before the loader re-observes, so the sentinel has already
		// moved below the new cards.
		feed.WithOnAppend(func(int) {
			m.layout()
			m.notify()
		}),
	)
	if err != nil {
		return nil, err
	}
	lopts := append([]loader.Option{loader.WithRootMargin(fmt.Sprintf("%dpx", cardHeight))}, s.loaderOpts...)
	session, err := feed.NewSession(f, m.scroll, sentinel{}, lopts...)
	if err != nil {
		return nil, err
	}
	m.session = session
	session.Subscribe(func(loader.State) { m.notify() })
	return m, nil
}

// Run drives m on the terminal until the user quits or ctx ends.
func Run(ctx context.Context, m *Model, opts ...tea.ProgramOption) error {
	defer m.Close()
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}

// Close stops the loader and releases the change watcher. It is idempotent.
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		m.session.Close()
	})
}

func (m *Model) notify() {
	select {
	case m.changes <- struct{}{}:
	default:
	}
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.changes:
			return changedMsg{}
		case <-m.done:
			return nil
		}
	}
}

// startSpinner ticks the spinner while a fetch runs.
func (m *Model) startSpinner() tea.Cmd {
	if m.spinning || !m.session.Loader().State().Loading {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

// Init mounts the sentinel, which loads the first page.
func (m *Model) Init() tea.Cmd {
	m.layout()
	m.session.Mount()
	return tea.Batch(m.waitForChange(), m.startSpinner())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		page := bodyHeight(m.size().height)
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			m.Close()
			return m, tea.Quit
		case "j", "down":
			m.scrollBy(1)
		case "k", "up":
			m.scrollBy(-1)
		case "pgdown", " ", "f":
			m.scrollBy(page)
		case "pgup", "b":
			m.scrollBy(-page)
		case "g", "home":
			m.scrollTo(0)
		case "G", "end":
			m.scrollTo(m.maxOffset())
		case "r":
			m.reset()
			return m, m.startSpinner()
		}
		return m, nil

	case changedMsg:
		return m, tea.Batch(m.waitForChange(), m.startSpinner())

	case spinner.TickMsg:
		if !m.spinning {
			return m, nil
		}
		if !m.session.Loader().State().Loading {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

type layoutSize struct {
	width, height, cols int
}

func (m *Model) size() layoutSize {
	m.mu.Lock()
	defer m.mu.Unlock()
	return layoutSize{m.width, m.height, m.cols}
}

// layout moves the sentinel below the last loaded row.
func (m *Model) layout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := rowsFor(m.session.Feed().Len(), m.cols)
	m.scroll.SetBounds(sentinel{}, viewport.Rect{
		Y:      float64(rows * cardHeight),
		Width:  float64(m.width),
		Height: 1,
	})
}

func (m *Model) resize(width, height int) {
	m.mu.Lock()
	m.width, m.height, m.cols = width, height, columns(width)
	m.mu.Unlock()

	m.scroll.Resize(float64(width), float64(bodyHeight(height)))
	m.layout()
	m.scrollTo(int(m.scroll.Offset()))
}

// maxOffset keeps the status row on the last screen line.
func (m *Model) maxOffset() int {
	sz := m.size()
	lines := rowsFor(m.session.Feed().Len(), sz.cols)*cardHeight + 1
	return max(lines-bodyHeight(sz.height), 0)
}

func (m *Model) scrollTo(offset int) {
	m.scroll.ScrollTo(float64(min(max(offset, 0), m.maxOffset())))
}

func (m *Model) scrollBy(delta int) {
	m.scrollTo(int(m.scroll.Offset()) + delta)
}

// reset empties the list and starts over from the top.
func (m *Model) reset() {
	m.session.Reset()
	m.scroll.ScrollTo(0)
	m.layout()
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	v := m.session.View()
	sz := m.size()
	body := bodyHeight(sz.height)

	lines := cardLines(v.Items, sz.width, sz.cols)
	lines = append(lines, m.statusLine(v))

	offset := min(int(m.scroll.Offset()), max(len(lines)-body, 0))
	visible := lines[offset:min(offset+body, len(lines))]

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(m.title))
	sb.WriteString(countStyle.Render(fmt.Sprintf("  %d videos", len(v.Items))))
	sb.WriteString("\n")
	for _, l := range visible {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	for range body - len(visible) {
		sb.WriteString("\n")
	}
	sb.WriteString(helpStyle.Render("j/k scroll • pgup/pgdn page • r reload • q quit"))
	return sb.String()
}

func (m *Model) statusLine(v feed.View[catalog.Video]) string {
	switch {
	case v.Loading:
		return m.spinner.View() + " " + loadingStyle.Render(LoadingText)
	case v.Error != "":
		return errorStyle.Render("Error: " + v.Error)
	case v.EndOfList:
		return endStyle.Render(EndText)
	case !v.HasMore:
		return endStyle.Render(EmptyText)
	}
	return ""
}

// cardLines renders items as a grid, cardHeight lines per row.
func cardLines(items []catalog.Video, width, cols int) []string {
	cardWidth := max(width/cols, 4)
	textWidth := cardWidth - 2
	cell := lipgloss.NewStyle().Width(cardWidth)

	var lines []string
	for start := 0; start < len(items); start += cols {
		row := items[start:min(start+cols, len(items))]
		for k := range cardHeight {
			parts := make([]string, len(row))
			for i, v := range row {
				parts[i] = cell.Render(cardLine(v, k, textWidth))
			}
			lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, parts...))
		}
	}
	return lines
}

func cardLine(v catalog.Video, k, width int) string {
	switch k {
	case 0:
		return cardTitleStyle.Render(truncate(v.Title, width))
	case 1:
		return cardChannelStyle.Render(truncate(v.Channel.Name, width))
	case 2:
		meta := v.Views + " • " + v.UploadTime
		if v.Duration != "" {
			meta += " • " + v.Duration
		}
		return cardMetaStyle.Render(truncate(meta, width))
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
