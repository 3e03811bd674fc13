// Package catalog generates the synthetic video catalog behind the home,
// search and watch pages, and exposes it as paged feed providers.
package catalog

import "time"

// Channel identifies the uploader of a video.
type Channel struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Video is a card in a feed.
type Video struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Channel      Channel `json:"channel"`
	Views        string  `json:"views"`
	Duration     string  `json:"duration"`
	ThumbnailURL string  `json:"thumbnailUrl"`
	UploadTime   string  `json:"uploadTime"`
}

// VideoDetails is what the watch page shows for one video.
type VideoDetails struct {
	Video
	Description   string   `json:"description"`
	Likes         string   `json:"likes"`
	Dislikes      string   `json:"dislikes"`
	VideoURL      string   `json:"videoUrl"`
	PublishedDate string   `json:"publishedDate"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
}

// Comment is a top-level comment or a reply.
type Comment struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	UserName   string    `json:"userName"`
	UserAvatar string    `json:"userAvatar"`
	Text       string    `json:"text"`
	Likes      int       `json:"likes"`
	Dislikes   int       `json:"dislikes"`
	Timestamp  time.Time `json:"timestamp"`
	Replies    []Comment `json:"replies"`
}

// Summary is the generated synopsis of a video.
type Summary struct {
	Text         string `json:"text"`
	HighlightURL string `json:"highlightUrl"`
}

// SuggestionType distinguishes autocomplete entries.
type SuggestionType string

const (
	SuggestionVideo   SuggestionType = "video"
	SuggestionChannel SuggestionType = "channel"
)

// Suggestion is one search autocomplete entry.
type Suggestion struct {
	ID        string         `json:"id"`
	Type      SuggestionType `json:"type"`
	Title     string         `json:"title"`
	Subtitle  string         `json:"subtitle,omitempty"`
	Thumbnail string         `json:"thumbnail,omitempty"`
}
