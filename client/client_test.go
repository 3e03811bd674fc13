package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytclone/api"
	"ytclone/catalog"
	"ytclone/feed"
	"ytclone/internal/retry"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RequestsPerSecond = 0
	cfg.Retry = retry.Config{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Multiplier: 2}
	return cfg
}

func newTestClient(t *testing.T, h http.Handler, cfg Config) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, WithConfig(cfg))
	require.NoError(t, err)
	return c, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8080", "/api"} {
		_, err := New(u)
		assert.ErrorIs(t, err, ErrNoBaseURL, u)
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			writeJSON(w, http.StatusInternalServerError, api.Error{Error: "boom"})
			return
		}
		writeJSON(w, http.StatusOK, api.Health{Status: "ok"})
	})
	c, _ := newTestClient(t, h, testConfig())

	got, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Status)
	assert.EqualValues(t, 3, hits.Load())
}

func TestClientErrorIsPermanent(t *testing.T) {
	var hits atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusNotFound, api.Error{Error: "Video not found"})
	})
	c, _ := newTestClient(t, h, testConfig())

	_, err := c.Video(context.Background(), "nope")
	var he *HTTPError
	require.True(t, errors.As(err, &he), "got %v", err)
	assert.Equal(t, http.StatusNotFound, he.StatusCode)
	assert.Equal(t, "Video not found", he.Message)
	assert.EqualValues(t, 1, hits.Load())
	assert.Equal(t, CircuitClosed, c.Breaker().State(SiteKey(c.baseURL.String())))
}

func TestRateLimitedThenRecovered(t *testing.T) {
	var hits atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(w, http.StatusOK, []catalog.Suggestion{{ID: "x", Type: catalog.SuggestionVideo, Title: "t"}})
	})
	c, _ := newTestClient(t, h, testConfig())

	got, err := c.Suggestions(context.Background(), "ab")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.EqualValues(t, 2, hits.Load())
}

func TestCircuitOpensAfterFailures(t *testing.T) {
	var hits atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	cfg := testConfig()
	cfg.Retry.MaxRetries = 0
	cfg.BreakerThreshold = 2
	c, _ := newTestClient(t, h, cfg)
	ctx := context.Background()

	_, err := c.Health(ctx)
	assert.Equal(t, http.StatusBadGateway, StatusCode(err))
	_, err = c.Health(ctx)
	assert.Error(t, err)
	_, err = c.Health(ctx)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.EqualValues(t, 2, hits.Load())
}

func TestTokenHandling(t *testing.T) {
	h := http.NewServeMux()
	h.HandleFunc("POST /api/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		var req api.SignInRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "demo123" {
			writeJSON(w, http.StatusUnauthorized, api.Error{Error: "Invalid email or password"})
			return
		}
		writeJSON(w, http.StatusOK, api.Session{Token: "tok-1", User: api.Profile{ID: "u1"}})
	})
	h.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			writeJSON(w, http.StatusUnauthorized, api.Error{Error: "Please sign in to continue"})
			return
		}
		writeJSON(w, http.StatusOK, api.Profile{ID: "u1", Name: "Demo User"})
	})
	h.HandleFunc("POST /api/auth/signout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	c, _ := newTestClient(t, h, testConfig())
	ctx := context.Background()

	_, err := c.SignIn(ctx, "demo@youtube.com", "wrong1")
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
	assert.Empty(t, c.Token())

	_, err = c.SignIn(ctx, "demo@youtube.com", "demo123")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", c.Token())

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Demo User", me.Name)

	require.NoError(t, c.SignOut(ctx))
	assert.Empty(t, c.Token())
}

func homeHandler(t *testing.T, limit int) (http.Handler, *atomic.Int32) {
	t.Helper()
	home := catalog.NewHomeFeed(catalog.NewGenerator(7), catalog.WithLimit(limit))
	var hits atomic.Int32
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		size, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		page, err := home.FetchPage(r.Context(), r.URL.Query().Get("cursor"), size)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, api.Error{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, page)
	}), &hits
}

func TestRemoteFeedPagesToExhaustion(t *testing.T) {
	h, hits := homeHandler(t, 70)
	c, _ := newTestClient(t, h, testConfig())

	f, err := feed.New[catalog.Video](NewRemoteFeed(c, catalog.FeedHome, ""))
	require.NoError(t, err)

	ctx := context.Background()
	for !f.Done() {
		_, err := f.FetchMore(ctx)
		require.NoError(t, err)
	}
	// 40 + 20 + 10
	assert.Equal(t, 70, f.Len())
	assert.EqualValues(t, 3, hits.Load())
}

func TestRemoteFeedBadCursor(t *testing.T) {
	h, _ := homeHandler(t, 70)
	c, _ := newTestClient(t, h, testConfig())

	_, err := NewRemoteFeed(c, catalog.FeedHome, "").FetchPage(context.Background(), "garbage", 20)
	assert.ErrorIs(t, err, feed.ErrInvalidCursor)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"absent", "", 0},
		{"seconds", "3", 3 * time.Second},
		{"http date", now.Add(10 * time.Second).Format(http.TimeFormat), 10 * time.Second},
		{"past date", now.Add(-time.Minute).Format(http.TimeFormat), 0},
		{"garbage", "soon", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.value != "" {
				h.Set("Retry-After", tt.value)
			}
			assert.Equal(t, tt.want, parseRetryAfter(h, now))
		})
	}
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(ErrCircuitOpen))
	assert.False(t, IsTransient(context.Canceled))
	assert.False(t, IsTransient(&HTTPError{StatusCode: 404}))
	assert.True(t, IsTransient(&HTTPError{StatusCode: 503}))
	assert.True(t, IsTransient(&RateLimitError{StatusCode: 429}))
	assert.True(t, IsTransient(errors.New("connection reset")))
}
