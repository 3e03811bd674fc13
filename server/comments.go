package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ytclone/api"
	"ytclone/catalog"
	"ytclone/internal/auth"
	"ytclone/internal/storage"
	"ytclone/internal/validate"
)

var commentMessages = validate.Messages{
	"text.required": "Comment cannot be empty",
	"text.max":      "Comment must be at most 10000 characters",
}

func toComment(c *storage.Comment) catalog.Comment {
	return catalog.Comment{
		ID:         c.ID,
		UserID:     c.UserID,
		UserName:   c.UserName,
		UserAvatar: c.Avatar,
		Text:       c.Text,
		Likes:      c.Likes,
		Dislikes:   c.Dislikes,
		Timestamp:  c.CreatedAt,
		Replies:    []catalog.Comment{},
	}
}

// threads nests stored replies under their parents. stored is newest first;
// top-level comments keep that order and replies read oldest first.
func threads(stored []*storage.Comment) []catalog.Comment {
	out := make([]catalog.Comment, 0, len(stored))
	index := make(map[string]int)
	for _, c := range stored {
		if c.ParentID == "" {
			index[c.ID] = len(out)
			out = append(out, toComment(c))
		}
	}
	for i := len(stored) - 1; i >= 0; i-- {
		c := stored[i]
		if j, ok := index[c.ParentID]; ok && c.ParentID != "" {
			out[j].Replies = append(out[j].Replies, toComment(c))
		}
	}
	return out
}

// comments lists posted comments ahead of the generated ones.
func (h *handlers) comments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	stored, err := h.deps.Store.ListCommentsByVideo(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := append(threads(stored), h.deps.Catalog.Comments(id)...)
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) postComment(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")
	var req api.CommentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if err := h.validate.Struct(req, commentMessages); err != nil {
		writeError(w, r, err)
		return
	}

	parentID := req.ParentID
	if parentID != "" {
		parent, err := h.deps.Store.GetComment(r.Context(), parentID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if parent.VideoID != videoID {
			writeError(w, r, fmt.Errorf("%w: parent comment is on another video", errBadRequest))
			return
		}
		// Threads are one level deep; a reply to a reply joins its thread.
		if parent.ParentID != "" {
			parentID = parent.ParentID
		}
	}

	p := auth.ProfileOf(userFrom(r.Context()))
	c := &storage.Comment{
		VideoID:  videoID,
		ParentID: parentID,
		UserID:   p.ID,
		UserName: p.Name,
		Avatar:   p.Avatar,
		Text:     req.Text,
	}
	if err := h.deps.Store.CreateComment(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toComment(c))
}

// vote likes or dislikes a posted comment. Generated comments change on
// every listing and cannot be voted on.
func (h *handlers) vote(w http.ResponseWriter, r *http.Request) {
	var req api.VoteRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.deps.Store.GetComment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Comment not found")
			return
		}
		writeError(w, r, err)
		return
	}
	if req.Dislike {
		c.Dislikes++
	} else {
		c.Likes++
	}
	if err := h.deps.Store.UpdateComment(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toComment(c))
}
