package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ytclone/api"
	"ytclone/catalog"
	"ytclone/feed"
	"ytclone/internal/logger"
	"ytclone/loader"
	"ytclone/viewport"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Pending error replies; more are dropped.
	errorBacklog = 8
)

var errNotBound = errors.New("bind a feed first")

// feedSentinel is the target every feed connection observes. Each
// connection has its own source, so one value serves them all.
type feedSentinel struct{}

// checkOrigin allows requests without an Origin header (non-browser
// clients), origins listed in allowed ("*" matches any), and, when allowed
// is empty, only the server's own host.
func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if len(allowed) == 0 {
			u, err := url.Parse(origin)
			return err == nil && strings.EqualFold(u.Host, r.Host)
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(strings.TrimRight(a, "/"), origin) {
				return true
			}
		}
		return false
	}
}

// feedConn runs one remote loader session. The read pump applies client
// frames; the write pump is the only writer and streams whatever changed
// since its last flush.
type feedConn struct {
	h      *handlers
	conn   *websocket.Conn
	source *viewport.Manual
	notify chan struct{}
	errs   chan string
	done   chan struct{}
	once   sync.Once

	mu      sync.Mutex
	session *feed.Session[catalog.Video]
	unsub   func()
	name    string
	query   string
	gen     uint64 // bumped whenever the list starts over

	// Owned by the write pump.
	sent      int
	sentGen   uint64
	lastState api.LoaderState
}

func (h *handlers) feedSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied.
		logger.WarnCtx(r.Context(), "websocket upgrade failed", logger.KeyErr, err)
		return
	}
	c := &feedConn{
		h:      h,
		conn:   conn,
		source: viewport.NewManual(),
		notify: make(chan struct{}, 1),
		errs:   make(chan string, errorBacklog),
		done:   make(chan struct{}),
	}
	h.deps.Metrics.SessionOpened()
	logger.InfoCtx(r.Context(), "feed session opened", logger.KeyClientIP, r.RemoteAddr)

	go c.writePump()
	c.readPump()
}

// signal wakes the write pump. It never blocks, so loader subscribers and
// append hooks may call it from any goroutine.
func (c *feedConn) signal() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *feedConn) reject(msg string) {
	select {
	case c.errs <- msg:
	default:
	}
}

func (c *feedConn) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("feed session read error", logger.KeyErr, err)
			}
			return
		}
		var msg api.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reject("malformed message")
			continue
		}
		if err := c.handle(msg); err != nil {
			c.reject(err.Error())
		}
	}
}

func (c *feedConn) handle(msg api.ClientMessage) error {
	switch msg.Type {
	case api.MsgBind:
		return c.bind(msg.Feed, msg.Query)
	case api.MsgUnbind:
		s := c.current()
		if s == nil {
			return errNotBound
		}
		s.Unmount()
	case api.MsgVisible:
		if c.current() == nil {
			return errNotBound
		}
		c.source.Intersect(feedSentinel{}, msg.Ratio)
	case api.MsgReset:
		c.mu.Lock()
		if c.session == nil {
			c.mu.Unlock()
			return errNotBound
		}
		c.session.Reset()
		c.gen++
		c.mu.Unlock()
		c.signal()
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

func (c *feedConn) current() *feed.Session[catalog.Video] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// bind observes the sentinel for the named feed. Rebinding the same feed
// keeps the list, a new query on the same feed switches its provider, and
// another feed starts a fresh session.
func (c *feedConn) bind(name, query string) error {
	if name == "" {
		name = catalog.FeedHome
	}
	p, err := c.h.provider(name, query)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.session != nil && c.name == name && c.query == query:
	case c.session != nil && c.name == name:
		if err := c.session.Switch(p); err != nil {
			return err
		}
		c.gen++
	default:
		s, err := c.newSession(name, p)
		if err != nil {
			return err
		}
		c.closeSessionLocked()
		c.session = s
		c.unsub = s.Subscribe(func(loader.State) { c.signal() })
		c.gen++
	}
	c.name, c.query = name, query
	c.session.Mount()
	c.signal()
	return nil
}

func (c *feedConn) newSession(name string, p feed.Provider[catalog.Video]) (*feed.Session[catalog.Video], error) {
	cfg := c.h.deps.Feed
	f, err := feed.New(p,
		feed.WithName(name),
		feed.WithInitialSize(cfg.InitialSize),
		feed.WithPageSize(cfg.PageSize),
		feed.WithOnAppend(func(int) { c.signal() }),
	)
	if err != nil {
		return nil, err
	}
	opts := append(c.h.deps.Loader.Options(), loader.WithMetrics(c.h.deps.Metrics.Loader()))
	return feed.NewSession(f, c.source, feedSentinel{}, opts...)
}

func (c *feedConn) closeSessionLocked() {
	if c.session == nil {
		return
	}
	c.unsub()
	c.session.Close()
	c.session = nil
}

func (c *feedConn) close() {
	c.once.Do(func() {
		close(c.done)
		c.mu.Lock()
		c.closeSessionLocked()
		c.mu.Unlock()
		_ = c.conn.Close()
		c.h.deps.Metrics.SessionClosed()
		logger.Info("feed session closed")
	})
}

func (c *feedConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-c.errs:
			if err := c.write(api.ServerMessage{Type: api.MsgError, Error: msg}); err != nil {
				return
			}
		case <-c.notify:
			if err := c.flush(); err != nil {
				logger.Debug("feed session write failed", logger.KeyErr, err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *feedConn) write(msg api.ServerMessage) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

// flush sends the items the client has not seen and the loader state when
// it changed. After a reset the list is resent from offset 0.
func (c *feedConn) flush() error {
	c.mu.Lock()
	s := c.session
	if s == nil {
		c.mu.Unlock()
		return nil
	}
	restart := c.gen != c.sentGen
	if restart {
		c.sent = 0
		c.sentGen = c.gen
	}
	// State first: a page is appended before the loader reports it, so the
	// items read next are never behind the state sent with them.
	st := wireState(s)
	items := s.Feed().Since(c.sent)
	c.mu.Unlock()

	if restart || len(items) > 0 {
		if err := c.write(api.ServerMessage{Type: api.MsgItems, Items: items, Offset: c.sent}); err != nil {
			return err
		}
		c.sent += len(items)
	}
	if restart || st != c.lastState {
		if err := c.write(api.ServerMessage{Type: api.MsgState, State: &st}); err != nil {
			return err
		}
		c.lastState = st
	}
	return nil
}

func wireState(s *feed.Session[catalog.Video]) api.LoaderState {
	st := s.Loader().State()
	return api.LoaderState{
		Loading: st.Loading,
		HasMore: st.HasMore,
		Error:   st.Error,
		Phase:   s.Loader().Phase().String(),
	}
}
