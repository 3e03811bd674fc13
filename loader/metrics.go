package loader

import "time"

// Fetch outcomes reported to Metrics.
const (
	OutcomeMore      = "more"
	OutcomeExhausted = "exhausted"
	OutcomeError     = "error"
	OutcomeStale     = "stale"
)

// Metrics receives fetch observations. Implementations must be safe for
// concurrent use. Suppressed triggers are never reported.
type Metrics interface {
	ObserveFetch(name, outcome string, d time.Duration)
}
