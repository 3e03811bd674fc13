package feed

import (
	"context"
	"errors"
	"fmt"

	"ytclone/loader"
	"ytclone/viewport"
)

// ErrNilSentinel is returned by NewSession without a sentinel target.
var ErrNilSentinel = errors.New("feed: sentinel target is required")

// View is what a page renders for a session at one instant.
type View[T any] struct {
	Items   []T    `json:"items"`
	Loading bool   `json:"loading"`
	HasMore bool   `json:"hasMore"`
	Error   string `json:"error,omitempty"`
	// SentinelMounted is true while more items may exist. The sentinel sits
	// after the last item and carries the loading indicator.
	SentinelMounted bool `json:"sentinelMounted"`
	// EndOfList is true once the list is exhausted and not empty.
	EndOfList bool         `json:"endOfList"`
	Phase     loader.Phase `json:"-"`
}

// Session wires a Feed to a Loader observing a fixed sentinel target.
type Session[T any] struct {
	feed     *Feed[T]
	loader   *loader.Loader
	sentinel viewport.Target
}

// NewSession creates a loader for f that watches sentinel through source.
// The sentinel is not observed until Mount.
func NewSession[T any](f *Feed[T], source viewport.Source, sentinel viewport.Target, opts ...loader.Option) (*Session[T], error) {
	if f == nil {
		return nil, errors.New("feed: feed is required")
	}
	if sentinel == nil {
		return nil, ErrNilSentinel
	}
	s := &Session[T]{feed: f, sentinel: sentinel}

	opts = append([]loader.Option{loader.WithName(f.Name())}, opts...)
	l, err := loader.New(s.fetch, source, opts...)
	if err != nil {
		return nil, fmt.Errorf("create loader: %w", err)
	}
	s.loader = l
	return s, nil
}

// fetch hides ErrStale from the loader. A stale page only happens around a
// reset, and the loader discards that result on its own.
func (s *Session[T]) fetch(ctx context.Context) (bool, error) {
	more, err := s.feed.FetchMore(ctx)
	if errors.Is(err, ErrStale) {
		return true, nil
	}
	return more, err
}

// Feed returns the underlying list.
func (s *Session[T]) Feed() *Feed[T] { return s.feed }

// Loader returns the session's loader.
func (s *Session[T]) Loader() *loader.Loader { return s.loader }

// Sentinel returns the observed target.
func (s *Session[T]) Sentinel() viewport.Target { return s.sentinel }

// Mount starts observing the sentinel. The first page loads as soon as the
// sentinel is reported visible, as it is over an empty list.
func (s *Session[T]) Mount() { s.loader.Bind(s.sentinel) }

// Unmount stops observing the sentinel without touching the list.
func (s *Session[T]) Unmount() { s.loader.Bind(nil) }

// SetEnabled gates the loader.
func (s *Session[T]) SetEnabled(enabled bool) { s.loader.SetEnabled(enabled) }

// Reset empties the list and resets the loader. Pages fetched before the
// call never reach the new list.
func (s *Session[T]) Reset() {
	s.feed.Reset()
	s.loader.Reset()
}

// Switch replaces the provider, as when the search query changes.
func (s *Session[T]) Switch(p Provider[T]) error {
	if err := s.feed.SetProvider(p); err != nil {
		return err
	}
	s.loader.Reset()
	return nil
}

// Subscribe forwards loader state changes. See loader.Loader.Subscribe.
func (s *Session[T]) Subscribe(fn func(loader.State)) func() {
	return s.loader.Subscribe(fn)
}

// Wait blocks until the fetch in flight settles.
func (s *Session[T]) Wait(ctx context.Context) error { return s.loader.Wait(ctx) }

// View snapshots the list and loader state.
func (s *Session[T]) View() View[T] {
	st := s.loader.State()
	items := s.feed.Items()
	return View[T]{
		Items:           items,
		Loading:         st.Loading,
		HasMore:         st.HasMore,
		Error:           st.Error,
		SentinelMounted: st.HasMore,
		EndOfList:       !st.HasMore && len(items) > 0,
		Phase:           s.loader.Phase(),
	}
}

// Close tears the loader down. The list is kept.
func (s *Session[T]) Close() { s.loader.Close() }
