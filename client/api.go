package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"ytclone/api"
	"ytclone/catalog"
	"ytclone/internal/storage"
)

func pageQuery(cursor string, size int) url.Values {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if size > 0 {
		q.Set("limit", strconv.Itoa(size))
	}
	return q
}

// Home fetches a page of the home feed.
func (c *Client) Home(ctx context.Context, cursor string, size int) (api.VideoPage, error) {
	var page api.VideoPage
	err := c.do(ctx, http.MethodGet, "/api/feed/home", pageQuery(cursor, size), nil, &page)
	return page, err
}

// Search fetches a page of results for query.
func (c *Client) Search(ctx context.Context, query, cursor string, size int) (api.VideoPage, error) {
	q := pageQuery(cursor, size)
	q.Set("q", query)
	var page api.VideoPage
	err := c.do(ctx, http.MethodGet, "/api/search", q, nil, &page)
	return page, err
}

// Related fetches a page of videos related to id.
func (c *Client) Related(ctx context.Context, id, cursor string, size int) (api.VideoPage, error) {
	var page api.VideoPage
	err := c.do(ctx, http.MethodGet, "/api/videos/"+url.PathEscape(id)+"/related", pageQuery(cursor, size), nil, &page)
	return page, err
}

// Suggestions returns autocomplete entries for query.
func (c *Client) Suggestions(ctx context.Context, query string) ([]catalog.Suggestion, error) {
	var out []catalog.Suggestion
	err := c.do(ctx, http.MethodGet, "/api/suggestions", url.Values{"q": {query}}, nil, &out)
	return out, err
}

// Video returns the watch-page details of id.
func (c *Client) Video(ctx context.Context, id string) (catalog.VideoDetails, error) {
	var out catalog.VideoDetails
	err := c.do(ctx, http.MethodGet, "/api/videos/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

// Comments lists the comments on a video.
func (c *Client) Comments(ctx context.Context, videoID string) ([]catalog.Comment, error) {
	var out []catalog.Comment
	err := c.do(ctx, http.MethodGet, "/api/videos/"+url.PathEscape(videoID)+"/comments", nil, nil, &out)
	return out, err
}

// PostComment comments on a video. Requires a token.
func (c *Client) PostComment(ctx context.Context, videoID string, req api.CommentRequest) (catalog.Comment, error) {
	var out catalog.Comment
	err := c.do(ctx, http.MethodPost, "/api/videos/"+url.PathEscape(videoID)+"/comments", nil, req, &out)
	return out, err
}

// Vote likes or dislikes a posted comment. Requires a token.
func (c *Client) Vote(ctx context.Context, commentID string, dislike bool) (catalog.Comment, error) {
	var out catalog.Comment
	err := c.do(ctx, http.MethodPost, "/api/comments/"+url.PathEscape(commentID)+"/vote", nil, api.VoteRequest{Dislike: dislike}, &out)
	return out, err
}

// Summary asks for the generated summary of a video.
func (c *Client) Summary(ctx context.Context, videoID string) (catalog.Summary, error) {
	var out catalog.Summary
	err := c.do(ctx, http.MethodPost, "/api/videos/"+url.PathEscape(videoID)+"/summary", nil, nil, &out)
	return out, err
}

// SignUp registers and keeps the returned token.
func (c *Client) SignUp(ctx context.Context, req api.SignUpRequest) (*api.Session, error) {
	var out api.Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", nil, req, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// SignIn signs in and keeps the returned token.
func (c *Client) SignIn(ctx context.Context, email, password string) (*api.Session, error) {
	var out api.Session
	req := api.SignInRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/signin", nil, req, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// SignOut ends the session and forgets the token.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/signout", nil, nil, nil)
	c.SetToken("")
	return err
}

// Me returns the signed-in user's profile.
func (c *Client) Me(ctx context.Context) (api.Profile, error) {
	var out api.Profile
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &out)
	return out, err
}

// UpdateProfile edits the signed-in user's profile.
func (c *Client) UpdateProfile(ctx context.Context, upd api.ProfileUpdate) (api.Profile, error) {
	var out api.Profile
	err := c.do(ctx, http.MethodPut, "/api/profile", nil, upd, &out)
	return out, err
}

// ToggleTheme flips the signed-in user's theme.
func (c *Client) ToggleTheme(ctx context.Context) (storage.Theme, error) {
	var out api.ThemeResponse
	err := c.do(ctx, http.MethodPost, "/api/preferences/theme/toggle", nil, nil, &out)
	return out.Theme, err
}

// Upload records upload metadata for the signed-in user.
func (c *Client) Upload(ctx context.Context, req api.UploadRequest) (api.Upload, error) {
	var out api.Upload
	err := c.do(ctx, http.MethodPost, "/api/uploads", nil, req, &out)
	return out, err
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) (api.Health, error) {
	var out api.Health
	err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, &out)
	return out, err
}
