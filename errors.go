package ytclone

import (
	"ytclone/catalog"
	"ytclone/client"
	"ytclone/feed"
	"ytclone/internal/auth"
	"ytclone/internal/retry"
	"ytclone/internal/storage"
	"ytclone/loader"
)

// Exported error types from sub-packages:
//
// From loader:
//   - loader.ErrNilFetch, loader.ErrNilSource: missing collaborators
//   - loader.ErrInvalidThreshold, loader.ErrInvalidRootMargin: bad options
//
// From feed and catalog:
//   - feed.ErrInvalidCursor: cursor not issued by this feed
//   - catalog.ErrCursorExpired: cursor older than its TTL
//   - catalog.ErrFetchFailed: simulated page failure
//
// From client:
//   - client.HTTPError: non-2xx response
//   - client.RateLimitError: 429 or 503, with any Retry-After
//   - client.ErrCircuitOpen: host breaker is open

// Type aliases for convenient error handling.
type (
	// HTTPError is a non-2xx API response.
	HTTPError = client.HTTPError
	// RateLimitError is a 429 or 503 response.
	RateLimitError = client.RateLimitError
	// ExhaustedError wraps the last error once retries ran out.
	ExhaustedError = retry.ExhaustedError
	// StorageError wraps errors during storage operations.
	StorageError = storage.StorageError
)

// Sentinel errors exported from sub-packages.
var (
	ErrNilFetch          = loader.ErrNilFetch
	ErrNilSource         = loader.ErrNilSource
	ErrInvalidThreshold  = loader.ErrInvalidThreshold
	ErrInvalidRootMargin = loader.ErrInvalidRootMargin

	ErrInvalidCursor = feed.ErrInvalidCursor
	ErrCursorExpired = catalog.ErrCursorExpired
	ErrFetchFailed   = catalog.ErrFetchFailed
	ErrSummaryFailed = catalog.ErrSummaryFailed

	ErrCircuitOpen = client.ErrCircuitOpen

	ErrInvalidCredentials = auth.ErrInvalidCredentials
	ErrEmailTaken         = auth.ErrEmailTaken
	ErrUnauthenticated    = auth.ErrUnauthenticated

	// Storage errors
	ErrNotFound       = storage.ErrNotFound
	ErrAlreadyExists  = storage.ErrAlreadyExists
	ErrStorageCorrupt = storage.ErrStorageCorrupt
	ErrLockTimeout    = storage.ErrLockTimeout
)

// IsRetryable determines if an error should be retried.
// It returns false for permanent errors and cancelled contexts.
func IsRetryable(err error) bool {
	return retry.IsRetryable(err)
}
