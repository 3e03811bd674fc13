package logger

// Standard field keys for structured logging. Use these consistently so log
// lines from the loader, the API and the TUI can be queried together.
const (
	KeyRequestID = "request_id"
	KeyClientIP  = "client_ip"
	KeyMethod    = "method"
	KeyPath      = "path"
	KeyStatus    = "status"

	KeyFeed     = "feed"     // Feed name: home, search, related
	KeyItems    = "items"    // Number of items appended or held
	KeyHasMore  = "has_more" // Loader exhaustion flag
	KeyPhase    = "phase"    // Loader phase
	KeyCursor   = "cursor"   // Continuation token
	KeyVideoID  = "video_id" // Video identifier
	KeyUserID   = "user_id"  // Account identifier
	KeySession  = "session"  // Websocket/feed session identifier
	KeyAttempt  = "attempt"  // Retry attempt number
	KeyHost     = "host"     // Remote host for client calls
	KeyDuration = "duration_ms"
	KeyErr      = "error"
)
