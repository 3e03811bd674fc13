package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"ytclone/api"
	"ytclone/catalog"
	"ytclone/feed"
	"ytclone/internal/auth"
	"ytclone/internal/logger"
	"ytclone/internal/storage"
	"ytclone/internal/validate"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("encode response", logger.KeyErr, err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.Error{Error: msg})
}

// writeError maps err onto a status code and a message fit for a form.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fe *validate.FormError
	switch {
	case errors.As(err, &fe):
		writeJSON(w, http.StatusBadRequest, api.Error{Error: fe.Message, Field: fe.Field})
	case errors.Is(err, errBadRequest):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, feed.ErrInvalidCursor):
		writeMessage(w, http.StatusBadRequest, "invalid cursor")
	case errors.Is(err, catalog.ErrCursorExpired):
		writeMessage(w, http.StatusBadRequest, "cursor expired")
	case errors.Is(err, auth.ErrUnauthenticated):
		writeMessage(w, http.StatusUnauthorized, auth.Message(err))
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, auth.Message(err))
	case errors.Is(err, auth.ErrEmailTaken):
		writeMessage(w, http.StatusConflict, auth.Message(err))
	case errors.Is(err, errForbidden):
		writeMessage(w, http.StatusForbidden, "You can only change your own content")
	case errors.Is(err, storage.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Not found")
	case errors.Is(err, storage.ErrInvalidInput):
		writeMessage(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, catalog.ErrFetchFailed):
		writeMessage(w, http.StatusServiceUnavailable, catalog.ErrFetchFailed.Error())
	case errors.Is(err, catalog.ErrSummaryFailed):
		writeMessage(w, http.StatusBadGateway, catalog.SummaryFailedMessage)
	default:
		logger.ErrorCtx(r.Context(), "request failed",
			logger.KeyMethod, r.Method, logger.KeyPath, r.URL.Path, logger.KeyErr, err)
		writeMessage(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}

var (
	errBadRequest = errors.New("bad request")
	errForbidden  = errors.New("forbidden")
)

// decode reads a JSON body into v, rejecting unknown fields and trailing data.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", errBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must hold a single JSON object", errBadRequest)
	}
	return nil
}
