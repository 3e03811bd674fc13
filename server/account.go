package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ytclone/api"
	"ytclone/internal/auth"
	"ytclone/internal/storage"
	"ytclone/internal/validate"
)

var (
	uploadMessages = validate.Messages{
		"title.required":   "Title is required",
		"title.max":        "Title must be at most 100 characters",
		"description":      "Description must be at most 5000 characters",
		"tags.max":         "You can add at most 10 tags",
		"tags.unique":      "Tags must be unique",
		"tags[].required":  "Tags cannot be empty",
		"tags[].lowercase": "Tags must be lowercase",
		"tags[].max":       "Tags must be at most 30 characters",
		"fileName":         "Please select a video file",
		"contentType":      "Please select a valid video file",
		"fileSize":         "The selected file is empty",
	}
	themeMessages = validate.Messages{
		"theme": "Theme must be dark or light",
	}
)

func (h *handlers) signUp(w http.ResponseWriter, r *http.Request) {
	var req api.SignUpRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := h.deps.Auth.SignUp(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *handlers) signIn(w http.ResponseWriter, r *http.Request) {
	var req api.SignInRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := h.deps.Auth.SignIn(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// signOut always succeeds; an unknown or missing token is already signed out.
func (h *handlers) signOut(w http.ResponseWriter, r *http.Request) {
	if tok := bearerToken(r); tok != "" {
		if err := h.deps.Auth.SignOut(r.Context(), tok); err != nil {
			writeError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, auth.ProfileOf(userFrom(r.Context())))
}

func (h *handlers) userProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.Auth.Profile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	// Emails stay private to their owner.
	if u := userFrom(r.Context()); u == nil || u.ID != p.ID {
		p.Email = ""
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	var upd api.ProfileUpdate
	if err := decode(w, r, &upd); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.deps.Auth.UpdateProfile(r.Context(), userFrom(r.Context()).ID, upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handlers) theme(w http.ResponseWriter, r *http.Request) {
	t, err := h.deps.Auth.Theme(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ThemeResponse{Theme: t})
}

func (h *handlers) setTheme(w http.ResponseWriter, r *http.Request) {
	var req api.ThemeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.validate.Struct(req, themeMessages); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.deps.Auth.SetTheme(r.Context(), userFrom(r.Context()).ID, req.Theme); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ThemeResponse{Theme: req.Theme})
}

func (h *handlers) toggleTheme(w http.ResponseWriter, r *http.Request) {
	t, err := h.deps.Auth.ToggleTheme(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ThemeResponse{Theme: t})
}

// upload records the metadata of a video upload. The file itself is never
// received.
func (h *handlers) upload(w http.ResponseWriter, r *http.Request) {
	var req api.UploadRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	for i, tag := range req.Tags {
		req.Tags[i] = strings.TrimSpace(tag)
	}
	if err := h.validate.Struct(req, uploadMessages); err != nil {
		writeError(w, r, err)
		return
	}

	up := &storage.Upload{
		UserID:      userFrom(r.Context()).ID,
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		FileSize:    req.FileSize,
	}
	if err := h.deps.Store.CreateUpload(r.Context(), up); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, up)
}

func (h *handlers) userUploads(w http.ResponseWriter, r *http.Request) {
	ups, err := h.deps.Store.ListUploadsByUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ups == nil {
		ups = []*storage.Upload{}
	}
	writeJSON(w, http.StatusOK, ups)
}
