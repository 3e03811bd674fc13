package catalog

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ytclone/feed"
)

// DefaultCursorTTL bounds how long a continuation cursor stays valid.
const DefaultCursorTTL = 2 * time.Hour

// ErrCursorExpired is returned for a cursor older than its TTL.
var ErrCursorExpired = errors.New("catalog: cursor expired")

// Cursor is the state carried between pages of one feed. It travels as an
// opaque URL-safe base64 token.
type Cursor struct {
	// Feed names the list the cursor belongs to, e.g. "home" or "search".
	Feed string `json:"f"`

	// Offset is the number of items already served.
	Offset int `json:"o"`

	// Query scopes search and related cursors.
	Query string `json:"q,omitempty"`

	ExpiresAt time.Time `json:"e"`
}

// Encode serializes the cursor to a token.
func (c Cursor) Encode() string {
	data, err := json.Marshal(c)
	if err != nil {
		// A Cursor has no unmarshalable fields.
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// Expired reports whether the cursor is past its expiry at now.
func (c Cursor) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// DecodeCursor parses token and checks that it belongs to feedName and
// query and has not expired. Malformed tokens wrap feed.ErrInvalidCursor.
func DecodeCursor(token, feedName, query string, now time.Time) (Cursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: not base64", feed.ErrInvalidCursor)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", feed.ErrInvalidCursor, err)
	}
	if c.Feed != feedName || c.Query != query || c.Offset <= 0 {
		return Cursor{}, fmt.Errorf("%w: not issued for %s", feed.ErrInvalidCursor, feedName)
	}
	if c.Expired(now) {
		return Cursor{}, ErrCursorExpired
	}
	return c, nil
}
