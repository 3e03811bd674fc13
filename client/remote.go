package client

import (
	"context"
	"errors"
	"net/http"

	"ytclone/catalog"
	"ytclone/feed"
)

// RemoteFeed serves a remote video feed as a feed.Provider, so a local
// Loader can page through the server's home, search or related lists.
type RemoteFeed struct {
	c     *Client
	name  string
	query string
}

// NewRemoteFeed returns a provider for the named feed. query is the search
// text for catalog.FeedSearch and the video id for catalog.FeedRelated.
func NewRemoteFeed(c *Client, name, query string) *RemoteFeed {
	return &RemoteFeed{c: c, name: name, query: query}
}

// FetchPage implements feed.Provider. A 400 from the server, which it sends
// for bad or expired cursors, is reported as feed.ErrInvalidCursor.
func (r *RemoteFeed) FetchPage(ctx context.Context, cursor string, size int) (feed.Page[catalog.Video], error) {
	var (
		page feed.Page[catalog.Video]
		err  error
	)
	switch r.name {
	case catalog.FeedSearch:
		page, err = r.c.Search(ctx, r.query, cursor, size)
	case catalog.FeedRelated:
		page, err = r.c.Related(ctx, r.query, cursor, size)
	default:
		page, err = r.c.Home(ctx, cursor, size)
	}
	if err != nil {
		if StatusCode(err) == http.StatusBadRequest && cursor != "" {
			return page, errors.Join(feed.ErrInvalidCursor, err)
		}
		return page, err
	}
	return page, nil
}

var _ feed.Provider[catalog.Video] = (*RemoteFeed)(nil)
