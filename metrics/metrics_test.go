package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytclone/loader"
)

func TestLoaderMetrics(t *testing.T) {
	r := New()
	m := r.Loader()
	require.NotNil(t, m)

	m.ObserveFetch("home", loader.OutcomeMore, 20*time.Millisecond)
	m.ObserveFetch("home", loader.OutcomeMore, 30*time.Millisecond)
	m.ObserveFetch("home", loader.OutcomeExhausted, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.fetches.WithLabelValues("home", "more")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetches.WithLabelValues("home", "exhausted")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.fetchSeconds))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := New()
	router := chi.NewRouter()
	router.Use(r.Middleware)
	router.Get("/api/videos/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	router.Get("/ok", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, path := range []string{"/api/videos/a", "/api/videos/b", "/ok"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("/api/videos/{id}", "GET", "418")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("/ok", "GET", "200")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := New()
	r.SessionOpened()
	r.ClientRequest("localhost", "ok")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "ytclone_ws_feed_sessions 1"), body)
	assert.Contains(t, body, `ytclone_client_requests_total{host="localhost",result="ok"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestNilRegistryIsNoop(t *testing.T) {
	var r *Registry
	assert.Nil(t, r.Loader())
	r.SessionOpened()
	r.SessionClosed()
	r.ClientRequest("h", "ok")

	called := false
	h := r.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
