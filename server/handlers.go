package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"ytclone/api"
	"ytclone/catalog"
	"ytclone/feed"
	"ytclone/internal/validate"
)

// maxPageSize caps the limit query parameter.
const maxPageSize = 100

// maxCachedLists bounds the search and related result lists kept so that
// their cursors stay valid across requests.
const maxCachedLists = 256

type handlers struct {
	deps     Deps
	home     *catalog.HomeFeed
	lists    *listCache
	validate *validate.Validator
	upgrader websocket.Upgrader
}

func newHandlers(deps Deps) *handlers {
	return &handlers{
		deps:     deps,
		home:     catalog.NewHomeFeed(deps.Catalog, deps.Feed.ProviderOptions()...),
		lists:    newListCache(maxCachedLists),
		validate: validate.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin(deps.AllowedOrigins),
		},
	}
}

// searchFeed returns the cached provider for query.
func (h *handlers) searchFeed(query string) feed.Provider[catalog.Video] {
	query = strings.TrimSpace(query)
	return h.lists.get(catalog.FeedSearch+":"+query, func() feed.Provider[catalog.Video] {
		return catalog.NewSearchFeed(h.deps.Catalog, query, h.deps.Feed.ProviderOptions()...)
	})
}

func (h *handlers) relatedFeed(id string) feed.Provider[catalog.Video] {
	return h.lists.get(catalog.FeedRelated+":"+id, func() feed.Provider[catalog.Video] {
		return catalog.NewRelatedFeed(h.deps.Catalog, id, catalog.DefaultRelatedCount, h.deps.Feed.ProviderOptions()...)
	})
}

// provider resolves a feed name and its query.
func (h *handlers) provider(name, query string) (feed.Provider[catalog.Video], error) {
	switch name {
	case catalog.FeedHome, "":
		return h.home, nil
	case catalog.FeedSearch:
		return h.searchFeed(query), nil
	case catalog.FeedRelated:
		if query == "" {
			return nil, fmt.Errorf("%w: related feed needs a video id", errBadRequest)
		}
		return h.relatedFeed(query), nil
	default:
		return nil, fmt.Errorf("%w: unknown feed %q", errBadRequest, name)
	}
}

// pageSize picks the page size for a request: the limit parameter when
// given, else the first-page or later-page default.
func (h *handlers) pageSize(r *http.Request, cursor string) (int, error) {
	size := h.deps.Feed.PageSize
	if cursor == "" {
		size = h.deps.Feed.InitialSize
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > maxPageSize {
			return 0, fmt.Errorf("%w: limit must be between 1 and %d", errBadRequest, maxPageSize)
		}
		size = n
	}
	return size, nil
}

func (h *handlers) servePage(w http.ResponseWriter, r *http.Request, p feed.Provider[catalog.Video]) {
	cursor := r.URL.Query().Get("cursor")
	size, err := h.pageSize(r, cursor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := p.FetchPage(r.Context(), cursor, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if page.Items == nil {
		page.Items = []catalog.Video{}
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.Health{Status: "ok", Version: h.deps.Version})
}

func (h *handlers) homeFeed(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, r, h.home)
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, r, h.searchFeed(r.URL.Query().Get("q")))
}

func (h *handlers) suggestions(w http.ResponseWriter, r *http.Request) {
	out := h.deps.Catalog.Suggestions(r.URL.Query().Get("q"))
	if out == nil {
		out = []catalog.Suggestion{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) video(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Catalog.Details(chi.URLParam(r, "id")))
}

func (h *handlers) related(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, r, h.relatedFeed(chi.URLParam(r, "id")))
}

func (h *handlers) summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.deps.Catalog.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *handlers) userVideos(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Catalog.UserVideos())
}

// listCache keeps computed result lists by key, evicting the oldest entry
// once full.
type listCache struct {
	mu    sync.Mutex
	max   int
	items map[string]feed.Provider[catalog.Video]
	order []string
}

func newListCache(max int) *listCache {
	return &listCache{max: max, items: make(map[string]feed.Provider[catalog.Video])}
}

func (c *listCache) get(key string, build func() feed.Provider[catalog.Video]) feed.Provider[catalog.Video] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.items[key]; ok {
		return p
	}
	if len(c.order) >= c.max {
		delete(c.items, c.order[0])
		c.order = c.order[1:]
	}
	p := build()
	c.items[key] = p
	c.order = append(c.order, key)
	return p
}

func (c *listCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
