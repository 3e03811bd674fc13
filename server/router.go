package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// requestTimeout bounds every API request. The websocket route is exempt.
const requestTimeout = 30 * time.Second

// NewRouter builds the chi router with all middleware and routes.
//
// Routes:
//   - GET  /healthz, GET /metrics
//   - GET  /api/feed/home, /api/search, /api/suggestions
//   - GET  /api/videos/{id}, /api/videos/{id}/related
//   - GET  /api/videos/{id}/comments; POST to comment (signed in)
//   - POST /api/comments/{id}/vote (signed in)
//   - POST /api/videos/{id}/summary
//   - POST /api/auth/signup, /api/auth/signin, /api/auth/signout
//   - GET  /api/auth/me, PUT /api/profile (signed in)
//   - GET  /api/users/{id}, /api/users/{id}/videos, /api/users/{id}/uploads
//   - GET|PUT /api/preferences/theme, POST /api/preferences/theme/toggle
//   - POST /api/uploads (signed in)
//   - GET  /ws/feed (websocket)
func NewRouter(deps Deps) http.Handler {
	h := newHandlers(deps)

	r := chi.NewRouter()

	// Order matters: the metrics middleware reads the route pattern after
	// the request has been routed.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(deps.Metrics.Middleware)
	r.Use(identify(deps.Auth))

	r.Get("/healthz", h.health)
	if deps.Metrics != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, deps.Metrics.Handler())
	}
	r.Get("/ws/feed", h.feedSocket)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/feed/home", h.homeFeed)
		r.Get("/search", h.search)
		r.Get("/suggestions", h.suggestions)

		r.Route("/videos/{id}", func(r chi.Router) {
			r.Get("/", h.video)
			r.Get("/related", h.related)
			r.Get("/comments", h.comments)
			r.With(requireUser).Post("/comments", h.postComment)
			r.Post("/summary", h.summary)
		})
		r.With(requireUser).Post("/comments/{id}/vote", h.vote)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.signUp)
			r.Post("/signin", h.signIn)
			r.Post("/signout", h.signOut)
			r.With(requireUser).Get("/me", h.me)
		})

		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/", h.userProfile)
			r.Get("/videos", h.userVideos)
			r.Get("/uploads", h.userUploads)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Put("/profile", h.updateProfile)
			r.Get("/preferences/theme", h.theme)
			r.Put("/preferences/theme", h.setTheme)
			r.Post("/preferences/theme/toggle", h.toggleTheme)
			r.Post("/uploads", h.upload)
		})
	})

	return r
}
