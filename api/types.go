// Package api holds the JSON shapes shared by the HTTP server, its client
// and the websocket feed protocol.
package api

import (
	"ytclone/catalog"
	"ytclone/feed"
	"ytclone/internal/auth"
	"ytclone/internal/storage"
)

// VideoPage is one page of a video feed.
type VideoPage = feed.Page[catalog.Video]

// Error is the body of every non-2xx response.
type Error struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// Health is the /healthz response.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// SignUpRequest, SignInRequest and ProfileUpdate are the account forms.
type (
	SignUpRequest = auth.SignUpRequest
	SignInRequest = auth.SignInRequest
	ProfileUpdate = auth.ProfileUpdate
	Session       = auth.Session
	Profile       = auth.Profile
)

// CommentRequest posts a comment or, with ParentID, a reply.
type CommentRequest struct {
	Text     string `json:"text" validate:"required,max=10000"`
	ParentID string `json:"parentId,omitempty"`
}

// VoteRequest likes or dislikes a comment.
type VoteRequest struct {
	Dislike bool `json:"dislike"`
}

// UploadRequest is the metadata of an uploaded video.
type UploadRequest struct {
	Title       string   `json:"title" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=5000"`
	Tags        []string `json:"tags" validate:"max=10,unique,dive,required,lowercase,max=30"`
	FileName    string   `json:"fileName" validate:"required"`
	ContentType string   `json:"contentType" validate:"videotype"`
	FileSize    int64    `json:"fileSize" validate:"gt=0"`
}

// Upload is a stored upload as the API returns it.
type Upload = storage.Upload

// ThemeRequest sets the display theme.
type ThemeRequest struct {
	Theme storage.Theme `json:"theme" validate:"oneof=dark light"`
}

// ThemeResponse is the current display theme.
type ThemeResponse struct {
	Theme storage.Theme `json:"theme"`
}

// Websocket feed protocol. Clients send ClientMessage frames; the server
// answers with ServerMessage frames.
//
// The server runs the loader; the client only reports how much of its
// sentinel is visible. The sentinel is observed afresh after bind, reset
// and every items frame, so the client reports visibility again then.
const (
	// Client to server.
	MsgBind    = "bind"    // bind a sentinel; Feed and Query select the provider
	MsgUnbind  = "unbind"  // sentinel left the DOM
	MsgVisible = "visible" // sentinel intersection changed; Ratio in [0,1]
	MsgReset   = "reset"   // start the list over

	// Server to client.
	MsgState = "state" // loader state changed
	MsgItems = "items" // the list from Offset on; anything held past Offset is replaced
	MsgError = "error" // the request frame was rejected
)

// ClientMessage is a frame from browser to server.
type ClientMessage struct {
	Type  string  `json:"type"`
	Feed  string  `json:"feed,omitempty"`
	Query string  `json:"query,omitempty"`
	Ratio float64 `json:"ratio,omitempty"`
}

// LoaderState mirrors loader.State on the wire.
type LoaderState struct {
	Loading bool   `json:"loading"`
	HasMore bool   `json:"hasMore"`
	Error   string `json:"error,omitempty"`
	Phase   string `json:"phase"`
}

// ServerMessage is a frame from server to browser.
type ServerMessage struct {
	Type  string          `json:"type"`
	State *LoaderState    `json:"state,omitempty"`
	Items []catalog.Video `json:"items,omitempty"`
	// Offset is the index of Items[0] in the whole list.
	Offset int    `json:"offset,omitempty"`
	Error  string `json:"error,omitempty"`
}
