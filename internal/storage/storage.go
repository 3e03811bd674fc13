// Package storage persists accounts, sessions, uploads, comments and
// preferences for ytclone.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common storage conditions.
var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("storage: not found")
	// ErrAlreadyExists indicates the entity already exists in storage.
	ErrAlreadyExists = errors.New("storage: already exists")
	// ErrInvalidInput indicates invalid or malformed input was provided.
	ErrInvalidInput = errors.New("storage: invalid input")
	// ErrStorageCorrupt indicates data corruption was detected.
	ErrStorageCorrupt = errors.New("storage: data corruption detected")
	// ErrLockTimeout indicates a timeout acquiring a file lock.
	ErrLockTimeout = errors.New("storage: lock acquisition timeout")
)

// StorageError wraps storage errors with operation and entity context.
//
//	var storErr *storage.StorageError
//	if errors.As(err, &storErr) {
//		fmt.Printf("failed to %s %s %s: %v\n", storErr.Op, storErr.Entity, storErr.ID, storErr.Err)
//	}
type StorageError struct {
	// Op is the operation that failed ("create", "read", "update", "delete").
	Op string
	// Entity is the entity type ("user", "session", "upload", ...).
	Entity string
	// ID is the entity ID if applicable.
	ID string
	// Err is the underlying error.
	Err error
}

func (e *StorageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("storage: %s %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
	}
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Store is the full persistence surface. Implementations must be safe for
// concurrent use.
type Store interface {
	UserStore
	SessionStore
	UploadStore
	CommentStore
	PreferenceStore

	// Close releases any resources held by the store.
	Close() error
}

// UserStore handles accounts. Emails are unique, compared case-insensitively.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error
	ListUsers(ctx context.Context) ([]*User, error)
}

// SessionStore handles sign-in sessions keyed by token.
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, token string) (*Session, error)
	DeleteSession(ctx context.Context, token string) error
	// DeleteExpiredSessions removes sessions expired at now and returns
	// how many were removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
}

// UploadStore handles upload metadata.
type UploadStore interface {
	CreateUpload(ctx context.Context, upload *Upload) error
	GetUpload(ctx context.Context, id string) (*Upload, error)
	ListUploadsByUser(ctx context.Context, userID string) ([]*Upload, error)
}

// CommentStore handles comments posted by users.
type CommentStore interface {
	CreateComment(ctx context.Context, comment *Comment) error
	GetComment(ctx context.Context, id string) (*Comment, error)
	UpdateComment(ctx context.Context, comment *Comment) error
	// ListCommentsByVideo returns every comment on a video, replies included,
	// newest first.
	ListCommentsByVideo(ctx context.Context, videoID string) ([]*Comment, error)
}

// PreferenceStore handles per-user display preferences.
type PreferenceStore interface {
	// GetPreferences returns the stored preferences, or defaults when none
	// were saved.
	GetPreferences(ctx context.Context, userID string) (*Preferences, error)
	SetPreferences(ctx context.Context, prefs *Preferences) error
}
