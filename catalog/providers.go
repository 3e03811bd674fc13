package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"ytclone/feed"
)

// DefaultHomeLimit is where the home feed ends.
const DefaultHomeLimit = 200

// DefaultRelatedCount is how many related videos the watch page lists.
const DefaultRelatedCount = 10

// ErrFetchFailed is the simulated failure injected by FailureRate.
var ErrFetchFailed = errors.New("failed to load videos")

// Feed names used in cursors.
const (
	FeedHome    = "home"
	FeedSearch  = "search"
	FeedRelated = "related"
)

// ProviderOption configures the catalog providers.
type ProviderOption func(*providerConfig)

type providerConfig struct {
	limit       int
	latency     time.Duration
	failureRate float64
	ttl         time.Duration
	now         func() time.Time
	rng         *rand.Rand
}

// WithLimit sets the total number of items the home feed serves.
func WithLimit(n int) ProviderOption {
	return func(c *providerConfig) {
		if n >= 0 {
			c.limit = n
		}
	}
}

// WithLatency delays every page by d, or until the context is done.
func WithLatency(d time.Duration) ProviderOption {
	return func(c *providerConfig) { c.latency = d }
}

// WithFailureRate makes that fraction of pages fail with ErrFetchFailed.
func WithFailureRate(rate float64) ProviderOption {
	return func(c *providerConfig) { c.failureRate = rate }
}

// WithCursorTTL sets how long issued cursors remain valid.
func WithCursorTTL(ttl time.Duration) ProviderOption {
	return func(c *providerConfig) { c.ttl = ttl }
}

// WithProviderClock overrides the clock used for cursor expiry.
func WithProviderClock(now func() time.Time) ProviderOption {
	return func(c *providerConfig) { c.now = now }
}

func newProviderConfig(opts []ProviderOption) providerConfig {
	c := providerConfig{
		limit: DefaultHomeLimit,
		ttl:   DefaultCursorTTL,
		now:   time.Now,
		rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// pager holds what every catalog provider shares: cursor handling, latency
// and failure injection.
type pager struct {
	name  string
	query string
	cfg   providerConfig
	mu    sync.Mutex // guards cfg.rng
}

func (p *pager) start(ctx context.Context, cursor string) (int, error) {
	offset := 0
	if cursor != "" {
		c, err := DecodeCursor(cursor, p.name, p.query, p.cfg.now())
		if err != nil {
			return 0, err
		}
		offset = c.Offset
	}

	if p.cfg.latency > 0 {
		t := time.NewTimer(p.cfg.latency)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return 0, err
	}

	if p.cfg.failureRate > 0 {
		p.mu.Lock()
		fail := p.cfg.rng.Float64() < p.cfg.failureRate
		p.mu.Unlock()
		if fail {
			return 0, ErrFetchFailed
		}
	}
	return offset, nil
}

func (p *pager) next(end, total int) string {
	if end >= total {
		return ""
	}
	return Cursor{
		Feed:      p.name,
		Offset:    end,
		Query:     p.query,
		ExpiresAt: p.cfg.now().Add(p.cfg.ttl),
	}.Encode()
}

// HomeFeed serves freshly generated videos until its limit is reached.
type HomeFeed struct {
	gen *Generator
	pager
}

// NewHomeFeed returns the home page provider.
func NewHomeFeed(gen *Generator, opts ...ProviderOption) *HomeFeed {
	return &HomeFeed{gen: gen, pager: pager{name: FeedHome, cfg: newProviderConfig(opts)}}
}

// Limit returns the number of items the feed serves in total.
func (h *HomeFeed) Limit() int { return h.cfg.limit }

// FetchPage implements feed.Provider.
func (h *HomeFeed) FetchPage(ctx context.Context, cursor string, size int) (feed.Page[Video], error) {
	offset, err := h.start(ctx, cursor)
	if err != nil {
		return feed.Page[Video]{}, err
	}
	if size <= 0 {
		size = feed.DefaultPageSize
	}
	end := min(offset+size, h.cfg.limit)
	if end < offset {
		end = offset
	}
	return feed.Page[Video]{
		Items: h.gen.Videos(end - offset),
		Next:  h.next(end, h.cfg.limit),
	}, nil
}

// listFeed pages through a result list computed once.
type listFeed struct {
	items []Video
	pager
}

func (l *listFeed) FetchPage(ctx context.Context, cursor string, size int) (feed.Page[Video], error) {
	offset, err := l.start(ctx, cursor)
	if err != nil {
		return feed.Page[Video]{}, err
	}
	if offset > len(l.items) {
		return feed.Page[Video]{}, fmt.Errorf("%w: offset %d past end", feed.ErrInvalidCursor, offset)
	}
	if size <= 0 {
		size = feed.DefaultPageSize
	}
	end := min(offset+size, len(l.items))
	items := make([]Video, end-offset)
	copy(items, l.items[offset:end])
	return feed.Page[Video]{Items: items, Next: l.next(end, len(l.items))}, nil
}

// Len returns the number of results.
func (l *listFeed) Len() int { return len(l.items) }

// SearchFeed pages through the results for one query.
type SearchFeed struct{ listFeed }

// NewSearchFeed runs query once and serves its results page by page.
func NewSearchFeed(gen *Generator, query string, opts ...ProviderOption) *SearchFeed {
	return &SearchFeed{listFeed{
		items: gen.Search(query),
		pager: pager{name: FeedSearch, query: query, cfg: newProviderConfig(opts)},
	}}
}

// RelatedFeed pages through the videos related to one video.
type RelatedFeed struct{ listFeed }

// NewRelatedFeed lists up to n videos related to videoID.
func NewRelatedFeed(gen *Generator, videoID string, n int, opts ...ProviderOption) *RelatedFeed {
	if n <= 0 {
		n = DefaultRelatedCount
	}
	return &RelatedFeed{listFeed{
		items: gen.Related(videoID, n),
		pager: pager{name: FeedRelated, query: videoID, cfg: newProviderConfig(opts)},
	}}
}

var (
	_ feed.Provider[Video] = (*HomeFeed)(nil)
	_ feed.Provider[Video] = (*SearchFeed)(nil)
	_ feed.Provider[Video] = (*RelatedFeed)(nil)
)
