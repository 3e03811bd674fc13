package server

import (
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytclone/api"
	"ytclone/catalog"
)

// remoteList mirrors what a browser holds for one feed connection.
type remoteList struct {
	items  []catalog.Video
	state  api.LoaderState
	errors []string
}

func (l *remoteList) apply(m api.ServerMessage) {
	switch m.Type {
	case api.MsgItems:
		l.items = append(l.items[:min(m.Offset, len(l.items))], m.Items...)
	case api.MsgState:
		l.state = *m.State
	case api.MsgError:
		l.errors = append(l.errors, m.Error)
	}
}

type feedClient struct {
	t      *testing.T
	conn   *websocket.Conn
	frames chan api.ServerMessage
	list   remoteList
}

func dialFeed(t *testing.T, env *testEnv) *feedClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/ws/feed"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	c := &feedClient{t: t, conn: conn, frames: make(chan api.ServerMessage, 64)}
	go func() {
		defer close(c.frames)
		for {
			var msg api.ServerMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			c.frames <- msg
		}
	}()
	return c
}

func (c *feedClient) send(msg api.ClientMessage) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(msg))
}

// until applies frames until done holds. resend, when set, is sent at once
// and again whenever the server stays quiet, the way a page keeps reporting
// visibility while its sentinel stays on screen.
func (c *feedClient) until(done func(*remoteList) bool, resend *api.ClientMessage) {
	c.t.Helper()
	timeout := time.After(5 * time.Second)
	quiet := time.NewTicker(50 * time.Millisecond)
	defer quiet.Stop()
	if resend != nil {
		c.send(*resend)
	}
	for !done(&c.list) {
		select {
		case msg, ok := <-c.frames:
			require.True(c.t, ok, "connection closed")
			c.list.apply(msg)
			quiet.Reset(50 * time.Millisecond)
		case <-quiet.C:
			if resend != nil {
				c.send(*resend)
			}
		case <-timeout:
			c.t.Fatalf("timed out; list has %d items, state %+v", len(c.list.items), c.list.state)
		}
	}
}

func visible(ratio float64) *api.ClientMessage {
	return &api.ClientMessage{Type: api.MsgVisible, Ratio: ratio}
}

func watching(l *remoteList) bool { return l.state.Phase == "watching" }

func TestFeedSocketLoadsToExhaustion(t *testing.T) {
	env := newTestEnv(t)
	c := dialFeed(t, env)

	c.send(api.ClientMessage{Type: api.MsgBind, Feed: catalog.FeedHome})
	c.until(watching, nil)
	assert.Empty(t, c.list.items)
	assert.True(t, c.list.state.HasMore)

	c.until(func(l *remoteList) bool { return !l.state.HasMore }, visible(1))
	// 40 + 20 + 10
	assert.Len(t, c.list.items, 70)
	assert.Equal(t, "exhausted", c.list.state.Phase)
	assert.False(t, c.list.state.Loading)

	// more and exhausted outcomes for the home feed.
	n, err := testutil.GatherAndCount(env.deps.Metrics.Gatherer(), "ytclone_loader_fetches_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFeedSocketIgnoresHiddenSentinel(t *testing.T) {
	env := newTestEnv(t)
	c := dialFeed(t, env)

	c.send(api.ClientMessage{Type: api.MsgBind})
	c.until(watching, nil)

	// Below the 0.1 threshold, then fully out of view.
	c.send(*visible(0.05))
	c.send(*visible(0))
	// An unknown frame type round-trips an error, which orders it after the
	// visibility frames above.
	c.send(api.ClientMessage{Type: "ping?"})
	c.until(func(l *remoteList) bool { return len(l.errors) == 1 }, nil)
	assert.Empty(t, c.list.items)
	assert.Equal(t, "watching", c.list.state.Phase)
}

func TestFeedSocketReset(t *testing.T) {
	env := newTestEnv(t)
	c := dialFeed(t, env)

	c.send(api.ClientMessage{Type: api.MsgBind, Feed: catalog.FeedHome})
	c.until(watching, nil)
	c.until(func(l *remoteList) bool { return len(l.items) >= 40 && watching(l) }, visible(1))
	first := c.list.items[0].ID

	c.send(api.ClientMessage{Type: api.MsgReset})
	c.until(func(l *remoteList) bool { return len(l.items) == 0 }, nil)
	c.until(func(l *remoteList) bool { return len(l.items) >= 40 }, visible(1))
	assert.NotEqual(t, first, c.list.items[0].ID)
}

func TestFeedSocketSwitchesFeeds(t *testing.T) {
	env := newTestEnv(t)
	c := dialFeed(t, env)

	c.send(api.ClientMessage{Type: api.MsgBind, Feed: catalog.FeedHome})
	c.until(watching, nil)
	c.until(func(l *remoteList) bool { return len(l.items) >= 40 }, visible(1))

	c.send(api.ClientMessage{Type: api.MsgBind, Feed: catalog.FeedRelated, Query: "abc"})
	c.until(func(l *remoteList) bool { return len(l.items) == 0 }, nil)
	c.until(func(l *remoteList) bool { return len(l.items) > 0 && !l.state.HasMore }, visible(1))
	for _, v := range c.list.items {
		assert.NotEqual(t, "abc", v.ID)
	}

	c.send(api.ClientMessage{Type: api.MsgBind, Feed: catalog.FeedRelated, Query: "xyz"})
	c.until(func(l *remoteList) bool { return len(l.items) == 0 && l.state.HasMore }, nil)
}

func TestFeedSocketRejectsBadFrames(t *testing.T) {
	env := newTestEnv(t)
	c := dialFeed(t, env)

	c.send(*visible(1))
	c.send(api.ClientMessage{Type: api.MsgReset})
	c.send(api.ClientMessage{Type: api.MsgBind, Feed: "trending"})
	c.send(api.ClientMessage{Type: api.MsgBind, Feed: catalog.FeedRelated})
	require.NoError(t, c.conn.WriteMessage(websocket.TextMessage, []byte("{")))

	c.until(func(l *remoteList) bool { return len(l.errors) == 5 }, nil)
	assert.Equal(t, errNotBound.Error(), c.list.errors[0])
	assert.Equal(t, errNotBound.Error(), c.list.errors[1])
	assert.Contains(t, c.list.errors[2], "unknown feed")
	assert.Contains(t, c.list.errors[3], "video id")
	assert.Equal(t, "malformed message", c.list.errors[4])
}

func TestFeedSocketUnbindStopsLoading(t *testing.T) {
	env := newTestEnv(t)
	c := dialFeed(t, env)

	c.send(api.ClientMessage{Type: api.MsgBind})
	c.until(watching, nil)
	c.send(api.ClientMessage{Type: api.MsgUnbind})
	c.send(*visible(1))
	c.send(api.ClientMessage{Type: "sync"})
	c.until(func(l *remoteList) bool { return len(l.errors) == 1 }, nil)
	assert.Empty(t, c.list.items)
}
