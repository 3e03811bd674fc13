// Package feed owns growing item lists fed page by page from a Provider, and
// binds them to an incremental loader through a Session.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ytclone/internal/logger"
)

// Default page sizes, matching the home page: a first screenful of 40 items
// followed by pages of 20.
const (
	DefaultInitialSize = 40
	DefaultPageSize    = 20
)

var (
	// ErrStale is returned by FetchMore when the feed was reset while the
	// page was being fetched. The page is dropped.
	ErrStale = errors.New("feed: page superseded by reset")

	// ErrInvalidCursor is returned by providers for cursors they did not issue.
	ErrInvalidCursor = errors.New("feed: invalid cursor")

	// ErrNilProvider is returned by New when no provider is given.
	ErrNilProvider = errors.New("feed: provider is required")
)

// Page is one batch of items. An empty Next means the list is exhausted.
type Page[T any] struct {
	Items []T    `json:"items"`
	Next  string `json:"next,omitempty"`
}

// HasMore reports whether another page may follow.
func (p Page[T]) HasMore() bool { return p.Next != "" }

// Provider serves pages of a list. The empty cursor addresses the first page.
type Provider[T any] interface {
	FetchPage(ctx context.Context, cursor string, size int) (Page[T], error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc[T any] func(ctx context.Context, cursor string, size int) (Page[T], error)

// FetchPage implements Provider.
func (f ProviderFunc[T]) FetchPage(ctx context.Context, cursor string, size int) (Page[T], error) {
	return f(ctx, cursor, size)
}

type config struct {
	initialSize int
	pageSize    int
	name        string
	onAppend    func(total int)
}

// Option configures a Feed.
type Option func(*config)

// WithInitialSize sets the size of the first page.
func WithInitialSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.initialSize = n
		}
	}
}

// WithPageSize sets the size of every page after the first.
func WithPageSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithName labels the feed in logs.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithOnAppend registers a hook called with the new item count after every
// appended page, before FetchMore returns. Layouts use it to move the
// sentinel so the loader sees its new position when it re-observes.
func WithOnAppend(fn func(total int)) Option {
	return func(c *config) { c.onAppend = fn }
}

// Feed is a list that grows one page at a time. It is safe for concurrent
// use; concurrent FetchMore calls are serialized.
type Feed[T any] struct {
	cfg config

	fetchMu sync.Mutex

	mu       sync.RWMutex
	provider Provider[T]
	items    []T
	cursor   string
	started  bool
	done     bool
	epoch    uint64
}

// New creates an empty feed over p.
func New[T any](p Provider[T], opts ...Option) (*Feed[T], error) {
	if p == nil {
		return nil, ErrNilProvider
	}
	cfg := config{
		initialSize: DefaultInitialSize,
		pageSize:    DefaultPageSize,
		name:        "feed",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Feed[T]{cfg: cfg, provider: p}, nil
}

// Name returns the feed label.
func (f *Feed[T]) Name() string { return f.cfg.name }

// FetchMore appends the next page and reports whether more may exist. It
// has the shape of loader.FetchFunc. Once the provider returns an empty
// cursor FetchMore returns false without calling it again.
func (f *Feed[T]) FetchMore(ctx context.Context) (bool, error) {
	f.fetchMu.Lock()
	defer f.fetchMu.Unlock()

	f.mu.RLock()
	if f.done {
		f.mu.RUnlock()
		return false, nil
	}
	provider, cursor, epoch := f.provider, f.cursor, f.epoch
	size := f.cfg.pageSize
	if !f.started {
		size = f.cfg.initialSize
	}
	f.mu.RUnlock()

	page, err := provider.FetchPage(ctx, cursor, size)
	if err != nil {
		return true, fmt.Errorf("fetch page: %w", err)
	}

	f.mu.Lock()
	if epoch != f.epoch {
		f.mu.Unlock()
		return true, ErrStale
	}
	f.items = append(f.items, page.Items...)
	f.cursor = page.Next
	f.started = true
	f.done = !page.HasMore()
	total := len(f.items)
	more := !f.done
	f.mu.Unlock()

	logger.Debug("feed page appended", logger.KeyFeed, f.cfg.name,
		logger.KeyItems, len(page.Items), logger.KeyHasMore, more)

	if f.cfg.onAppend != nil {
		f.cfg.onAppend(total)
	}
	return more, nil
}

// Items returns a copy of the loaded items.
func (f *Feed[T]) Items() []T {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]T, len(f.items))
	copy(out, f.items)
	return out
}

// Since returns a copy of the items from index i on. It returns nil when
// i is beyond the end.
func (f *Feed[T]) Since(i int) []T {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if i < 0 {
		i = 0
	}
	if i >= len(f.items) {
		return nil
	}
	out := make([]T, len(f.items)-i)
	copy(out, f.items[i:])
	return out
}

// Len returns the number of loaded items.
func (f *Feed[T]) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.items)
}

// Done reports whether the provider signalled the end of the list.
func (f *Feed[T]) Done() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.done
}

// Reset empties the list. A FetchMore in progress returns ErrStale.
func (f *Feed[T]) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

func (f *Feed[T]) resetLocked() {
	f.items = nil
	f.cursor = ""
	f.started = false
	f.done = false
	f.epoch++
}

// SetProvider swaps the provider and empties the list.
func (f *Feed[T]) SetProvider(p Provider[T]) error {
	if p == nil {
		return ErrNilProvider
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.provider = p
	f.resetLocked()
	return nil
}
